package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"mailbox-server/internal/attachments"
	"mailbox-server/internal/logging"
	"mailbox-server/internal/models"
	"mailbox-server/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

// SendInput is a message as submitted by its sender.
type SendInput struct {
	ReceiverID uint
	Subject    string
	Body       string
	Folder     string
}

// MessageService implements the mailbox operations. Each method resolves the
// acting user first and fails with ErrNotFound if the account is gone.
type MessageService struct {
	users    store.Users
	messages store.Messages
	files    attachments.Store
	log      logging.Logger
	tel      *telemetry
	now      func() time.Time
}

// NewMessageService creates a MessageService. files may be nil, in which case
// attachment operations fail.
func NewMessageService(users store.Users, messages store.Messages, files attachments.Store, log logging.Logger) *MessageService {
	return &MessageService{
		users:    users,
		messages: messages,
		files:    files,
		log:      log.With("component", "messages"),
		tel:      newTelemetry(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func messageNotFound(id uint) error {
	return fmt.Errorf("message %d: %w", id, ErrNotFound)
}

// Send stores a new unread message from senderID to in.ReceiverID.
func (s *MessageService) Send(ctx context.Context, senderID uint, in SendInput) (view *models.MessageView, err error) {
	ctx, done := s.tel.start(ctx, "send", attribute.Int64("sender_id", int64(senderID)))
	defer func() { done(err) }()

	subject := strings.TrimSpace(in.Subject)
	switch {
	case in.ReceiverID == 0:
		return nil, fmt.Errorf("%w: receiver id is required", ErrValidation)
	case subject == "":
		return nil, fmt.Errorf("%w: subject is required", ErrValidation)
	case strings.TrimSpace(in.Body) == "":
		return nil, fmt.Errorf("%w: body is required", ErrValidation)
	}

	folder := strings.TrimSpace(in.Folder)
	if folder == "" {
		folder = models.DefaultFolder
	}

	sender, err := lookupUser(ctx, s.users, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := lookupUser(ctx, s.users, in.ReceiverID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Subject:    subject,
		Body:       in.Body,
		SentAt:     s.now(),
		Folder:     folder,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	msg.Sender = *sender
	msg.Receiver = *receiver

	s.log.Info(ctx, "message sent", "message_id", msg.ID, "sender_id", sender.ID, "receiver_id", receiver.ID)
	v := msg.View()
	return &v, nil
}

// ListInbox returns the user's received, non-deleted messages, newest first.
func (s *MessageService) ListInbox(ctx context.Context, userID uint) (views []models.MessageView, err error) {
	ctx, done := s.tel.start(ctx, "list_inbox")
	defer func() { done(err) }()

	return s.list(ctx, userID, func() ([]models.Message, error) {
		return s.messages.ListByReceiver(ctx, userID)
	})
}

// ListSent returns the user's sent, non-deleted messages, newest first.
func (s *MessageService) ListSent(ctx context.Context, userID uint) (views []models.MessageView, err error) {
	ctx, done := s.tel.start(ctx, "list_sent")
	defer func() { done(err) }()

	return s.list(ctx, userID, func() ([]models.Message, error) {
		return s.messages.ListBySender(ctx, userID)
	})
}

// ListByFolder returns the user's received, non-deleted messages in folder, newest first.
func (s *MessageService) ListByFolder(ctx context.Context, userID uint, folder string) (views []models.MessageView, err error) {
	ctx, done := s.tel.start(ctx, "list_folder", attribute.String("folder", folder))
	defer func() { done(err) }()

	return s.list(ctx, userID, func() ([]models.Message, error) {
		return s.messages.ListByReceiverAndFolder(ctx, userID, folder)
	})
}

func (s *MessageService) list(ctx context.Context, userID uint, query func() ([]models.Message, error)) ([]models.MessageView, error) {
	if _, err := lookupUser(ctx, s.users, userID); err != nil {
		return nil, err
	}
	messages, err := query()
	if err != nil {
		return nil, err
	}
	return models.Views(messages), nil
}

// ListFolders returns the distinct folder names in the user's inbox.
func (s *MessageService) ListFolders(ctx context.Context, userID uint) (folders []string, err error) {
	ctx, done := s.tel.start(ctx, "list_folders")
	defer func() { done(err) }()

	if _, err := lookupUser(ctx, s.users, userID); err != nil {
		return nil, err
	}
	return s.messages.Folders(ctx, userID)
}

// MarkRead marks the message read on behalf of its receiver. Calling it on a
// message that is already read changes nothing; the first read-at stays.
func (s *MessageService) MarkRead(ctx context.Context, messageID, callerID uint) (view *models.MessageView, err error) {
	ctx, done := s.tel.start(ctx, "mark_read", attribute.Int64("message_id", int64(messageID)))
	defer func() { done(err) }()

	if _, err := lookupUser(ctx, s.users, callerID); err != nil {
		return nil, err
	}

	err = s.messages.Transaction(ctx, func(tx store.Messages) error {
		msg, err := tx.Lock(ctx, messageID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return messageNotFound(messageID)
			}
			return err
		}
		if msg.ReceiverID != callerID {
			return ErrNotParticipant
		}
		if msg.IsRead {
			return nil
		}
		return tx.MarkRead(ctx, msg.ID, s.now())
	})
	if err != nil {
		return nil, err
	}

	return s.view(ctx, messageID)
}

// DeleteMessage soft-deletes the message. Sender and receiver may both delete;
// the single flag hides the message from both of them.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, callerID uint) (err error) {
	ctx, done := s.tel.start(ctx, "delete", attribute.Int64("message_id", int64(messageID)))
	defer func() { done(err) }()

	if _, err := lookupUser(ctx, s.users, callerID); err != nil {
		return err
	}

	err = s.messages.Transaction(ctx, func(tx store.Messages) error {
		msg, err := tx.Lock(ctx, messageID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return messageNotFound(messageID)
			}
			return err
		}
		if !msg.IsParticipant(callerID) {
			return ErrNotParticipant
		}
		if msg.IsDeleted {
			return nil
		}
		return tx.MarkDeleted(ctx, msg.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "message deleted", "message_id", messageID, "user_id", callerID)
	return nil
}

// UnreadCount counts the user's non-deleted unread messages.
func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (count int64, err error) {
	ctx, done := s.tel.start(ctx, "unread_count")
	defer func() { done(err) }()

	if _, err := lookupUser(ctx, s.users, userID); err != nil {
		return 0, err
	}
	return s.messages.CountUnread(ctx, userID)
}

// AttachFile stores content as the message's attachment. Only the sender may
// attach, and a previous attachment is replaced.
func (s *MessageService) AttachFile(ctx context.Context, messageID, callerID uint, filename, contentType string, content io.Reader) (view *models.MessageView, err error) {
	ctx, done := s.tel.start(ctx, "attach", attribute.Int64("message_id", int64(messageID)))
	defer func() { done(err) }()

	if s.files == nil {
		return nil, errors.New("attachment storage is not configured")
	}
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if _, err := lookupUser(ctx, s.users, callerID); err != nil {
		return nil, err
	}

	msg, err := s.visible(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != callerID {
		return nil, ErrNotParticipant
	}

	name := attachments.SanitizeFilename(filename)
	uri, err := s.files.Upload(ctx, name, contentType, content)
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	var previous string
	err = s.messages.Transaction(ctx, func(tx store.Messages) error {
		locked, err := tx.Lock(ctx, messageID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return messageNotFound(messageID)
			}
			return err
		}
		if locked.IsDeleted {
			return messageNotFound(messageID)
		}
		previous = locked.AttachmentPath
		return tx.SetAttachment(ctx, locked.ID, uri, name)
	})
	if err != nil {
		s.discard(ctx, uri)
		return nil, err
	}
	if previous != "" {
		s.discard(ctx, previous)
	}

	s.log.Info(ctx, "attachment stored", "message_id", messageID, "name", name)
	return s.view(ctx, messageID)
}

// OpenAttachment returns the attachment content and its file name. Either
// participant may read it. The caller closes the reader.
func (s *MessageService) OpenAttachment(ctx context.Context, messageID, callerID uint) (rc io.ReadCloser, name string, err error) {
	ctx, done := s.tel.start(ctx, "open_attachment", attribute.Int64("message_id", int64(messageID)))
	defer func() { done(err) }()

	if s.files == nil {
		return nil, "", errors.New("attachment storage is not configured")
	}
	if _, err := lookupUser(ctx, s.users, callerID); err != nil {
		return nil, "", err
	}

	msg, err := s.visible(ctx, messageID)
	if err != nil {
		return nil, "", err
	}
	if !msg.IsParticipant(callerID) {
		return nil, "", ErrNotParticipant
	}
	if msg.AttachmentPath == "" {
		return nil, "", fmt.Errorf("message %d has no attachment: %w", messageID, ErrNotFound)
	}

	rc, err = s.files.Load(ctx, msg.AttachmentPath)
	if err != nil {
		if errors.Is(err, attachments.ErrNotFound) {
			return nil, "", fmt.Errorf("attachment of message %d: %w", messageID, ErrNotFound)
		}
		return nil, "", err
	}
	return rc, msg.AttachmentName, nil
}

// visible loads a message that has not been soft-deleted.
func (s *MessageService) visible(ctx context.Context, messageID uint) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, messageNotFound(messageID)
		}
		return nil, err
	}
	if msg.IsDeleted {
		return nil, messageNotFound(messageID)
	}
	return msg, nil
}

func (s *MessageService) view(ctx context.Context, messageID uint) (*models.MessageView, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, messageNotFound(messageID)
		}
		return nil, err
	}
	v := msg.View()
	return &v, nil
}

func (s *MessageService) discard(ctx context.Context, uri string) {
	if err := s.files.Delete(ctx, uri); err != nil {
		s.log.Warn(ctx, "failed to delete attachment blob", "uri", uri, "error", err)
	}
}
