package store

import (
	"context"
	"time"

	"mailbox-server/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageStore implements Messages on top of gorm.
type MessageStore struct {
	db *gorm.DB
}

// NewMessageStore creates a MessageStore.
func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

var _ Messages = (*MessageStore)(nil)

// withUsers preloads sender and receiver so views can carry usernames.
func (s *MessageStore) withUsers(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Sender").Preload("Receiver")
}

// newestFirst orders by sent_at, breaking ties on id so equal timestamps stay stable.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("sent_at desc").Order("id desc")
}

func (s *MessageStore) Create(ctx context.Context, msg *models.Message) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error, "create message")
}

func (s *MessageStore) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := s.withUsers(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get message")
	}
	return &msg, nil
}

func (s *MessageStore) Lock(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&msg, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "lock message")
	}
	return &msg, nil
}

func (s *MessageStore) ListByReceiver(ctx context.Context, receiverID uint) ([]models.Message, error) {
	return s.list(ctx, "list inbox", "receiver_id = ? AND is_deleted = ?", receiverID, false)
}

func (s *MessageStore) ListBySender(ctx context.Context, senderID uint) ([]models.Message, error) {
	return s.list(ctx, "list sent", "sender_id = ? AND is_deleted = ?", senderID, false)
}

func (s *MessageStore) ListByReceiverAndFolder(ctx context.Context, receiverID uint, folder string) ([]models.Message, error) {
	return s.list(ctx, "list folder", "receiver_id = ? AND folder = ? AND is_deleted = ?", receiverID, folder, false)
}

func (s *MessageStore) list(ctx context.Context, op, query string, args ...any) ([]models.Message, error) {
	var messages []models.Message
	if err := newestFirst(s.withUsers(ctx).Where(query, args...)).Find(&messages).Error; err != nil {
		return nil, translate(err, op)
	}
	return messages, nil
}

func (s *MessageStore) CountUnread(ctx context.Context, receiverID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ? AND is_deleted = ?", receiverID, false, false).
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "count unread")
	}
	return count, nil
}

// Folders returns the distinct folder names of the receiver's visible messages, sorted.
func (s *MessageStore) Folders(ctx context.Context, receiverID uint) ([]string, error) {
	folders := []string{}
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Distinct("folder").
		Where("receiver_id = ? AND is_deleted = ?", receiverID, false).
		Order("folder asc").
		Pluck("folder", &folders).Error
	if err != nil {
		return nil, translate(err, "list folders")
	}
	return folders, nil
}

func (s *MessageStore) MarkRead(ctx context.Context, id uint, at time.Time) error {
	return s.update(ctx, "mark read", id, map[string]any{"is_read": true, "read_at": at})
}

func (s *MessageStore) MarkDeleted(ctx context.Context, id uint) error {
	return s.update(ctx, "mark deleted", id, map[string]any{"is_deleted": true})
}

func (s *MessageStore) SetAttachment(ctx context.Context, id uint, path, name string) error {
	return s.update(ctx, "set attachment", id, map[string]any{"attachment_path": path, "attachment_name": name})
}

func (s *MessageStore) update(ctx context.Context, op string, id uint, fields map[string]any) error {
	err := s.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Updates(fields).Error
	return translate(err, op)
}

func (s *MessageStore) Transaction(ctx context.Context, fn func(tx Messages) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MessageStore{db: tx})
	})
}
