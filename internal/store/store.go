// Package store persists users and messages through gorm. It holds the User
// Directory and the Mailbox Store; callers see them through the Users and
// Messages interfaces.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mailbox-server/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a point lookup matches no row.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when a unique index rejects an insert.
	ErrDuplicate = errors.New("store: duplicate entry")
)

// Users is the User Directory.
type Users interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

// Messages is the Mailbox Store. All list and count queries skip soft-deleted
// rows and order newest first.
type Messages interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	// Lock loads the message row for update inside a transaction. Relations
	// are not preloaded.
	Lock(ctx context.Context, id uint) (*models.Message, error)
	ListByReceiver(ctx context.Context, receiverID uint) ([]models.Message, error)
	ListBySender(ctx context.Context, senderID uint) ([]models.Message, error)
	ListByReceiverAndFolder(ctx context.Context, receiverID uint, folder string) ([]models.Message, error)
	CountUnread(ctx context.Context, receiverID uint) (int64, error)
	Folders(ctx context.Context, receiverID uint) ([]string, error)
	MarkRead(ctx context.Context, id uint, at time.Time) error
	MarkDeleted(ctx context.Context, id uint) error
	SetAttachment(ctx context.Context, id uint, path, name string) error

	// Transaction runs fn against a Messages bound to a single database
	// transaction, committing when fn returns nil.
	Transaction(ctx context.Context, fn func(tx Messages) error) error
}

// translate maps gorm errors onto the store sentinels.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
