package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"mailbox-server/internal/models"
	"mailbox-server/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessage(from, to uint, subject, folder string, sentAt time.Time) *models.Message {
	return &models.Message{
		SenderID:   from,
		ReceiverID: to,
		Subject:    subject,
		Body:       "body of " + subject,
		SentAt:     sentAt,
		Folder:     folder,
	}
}

func TestUserStore_Lookups(t *testing.T) {
	db := testutil.OpenTestDB(t)
	users := NewUserStore(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice", "password1")
	testutil.SeedUser(t, db, "bob", "password2")

	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []string{models.DefaultRole}, got.Roles)

	got, err = users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email)

	_, err = users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = users.GetByUsername(ctx, "carol")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := users.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = users.ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alice", all[0].Username)
}

func TestUserStore_DuplicateUsername(t *testing.T) {
	db := testutil.OpenTestDB(t)
	users := NewUserStore(db)
	testutil.SeedUser(t, db, "alice", "password1")

	err := users.Create(context.Background(), &models.User{Username: "alice", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserStore_TouchLastLogin(t *testing.T) {
	db := testutil.OpenTestDB(t)
	users := NewUserStore(db)
	alice := testutil.SeedUser(t, db, "alice", "password1")
	assert.Nil(t, alice.LastLogin)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, users.TouchLastLogin(context.Background(), alice.ID, at))

	got, err := users.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, at.Equal(*got.LastLogin))
}

func TestMessageStore_Queries(t *testing.T) {
	db := testutil.OpenTestDB(t)
	messages := NewMessageStore(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice", "password1")
	bob := testutil.SeedUser(t, db, "bob", "password2")

	base := time.Now().UTC().Add(-time.Hour)
	first := newMessage(alice.ID, bob.ID, "first", "inbox", base)
	second := newMessage(alice.ID, bob.ID, "second", "work", base.Add(time.Minute))
	third := newMessage(bob.ID, alice.ID, "third", "inbox", base.Add(2*time.Minute))
	for _, m := range []*models.Message{first, second, third} {
		require.NoError(t, messages.Create(ctx, m))
		require.NotZero(t, m.ID)
	}

	inbox, err := messages.ListByReceiver(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "second", inbox[0].Subject)
	assert.Equal(t, "first", inbox[1].Subject)
	assert.Equal(t, "alice", inbox[0].Sender.Username)
	assert.Equal(t, "bob", inbox[0].Receiver.Username)

	sent, err := messages.ListBySender(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, sent, 2)

	work, err := messages.ListByReceiverAndFolder(ctx, bob.ID, "work")
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, second.ID, work[0].ID)

	folders, err := messages.Folders(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"inbox", "work"}, folders)

	unread, err := messages.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)
}

func TestMessageStore_MutationsHideAndCount(t *testing.T) {
	db := testutil.OpenTestDB(t)
	messages := NewMessageStore(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice", "password1")
	bob := testutil.SeedUser(t, db, "bob", "password2")

	m1 := newMessage(alice.ID, bob.ID, "one", "inbox", time.Now().UTC())
	m2 := newMessage(alice.ID, bob.ID, "two", "inbox", time.Now().UTC())
	require.NoError(t, messages.Create(ctx, m1))
	require.NoError(t, messages.Create(ctx, m2))

	readAt := time.Now().UTC()
	require.NoError(t, messages.MarkRead(ctx, m1.ID, readAt))
	unread, err := messages.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	got, err := messages.GetByID(ctx, m1.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	require.NotNil(t, got.ReadAt)

	require.NoError(t, messages.MarkDeleted(ctx, m2.ID))
	unread, err = messages.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	inbox, err := messages.ListByReceiver(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, m1.ID, inbox[0].ID)

	require.NoError(t, messages.SetAttachment(ctx, m1.ID, "local://a/b.txt", "b.txt"))
	got, err = messages.GetByID(ctx, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, "b.txt", got.AttachmentName)
}

func TestMessageStore_GetAndLockMissing(t *testing.T) {
	db := testutil.OpenTestDB(t)
	messages := NewMessageStore(db)

	_, err := messages.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)

	err = messages.Transaction(context.Background(), func(tx Messages) error {
		_, err := tx.Lock(context.Background(), 42)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessageStore_TransactionRollsBack(t *testing.T) {
	db := testutil.OpenTestDB(t)
	messages := NewMessageStore(db)
	ctx := context.Background()

	alice := testutil.SeedUser(t, db, "alice", "password1")
	m := newMessage(alice.ID, alice.ID, "self", "inbox", time.Now().UTC())
	require.NoError(t, messages.Create(ctx, m))

	boom := errors.New("boom")
	err := messages.Transaction(ctx, func(tx Messages) error {
		locked, err := tx.Lock(ctx, m.ID)
		require.NoError(t, err)
		require.NoError(t, tx.MarkDeleted(ctx, locked.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	inbox, err := messages.ListByReceiver(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
}
