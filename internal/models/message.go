package models

import (
	"time"
)

// DefaultFolder is the folder a message lands in when the sender names none.
const DefaultFolder = "inbox"

// Message is a mailbox entry from one user to another.
//
// IsRead and IsDeleted only ever move from false to true. ReadAt is stamped
// on the same transition as IsRead.
type Message struct {
	BaseModel
	SenderID       uint       `gorm:"not null;index" json:"senderId"`
	ReceiverID     uint       `gorm:"not null;index" json:"receiverId"`
	Subject        string     `gorm:"size:255;not null" json:"subject"`
	Body           string     `gorm:"type:text;not null" json:"body"`
	SentAt         time.Time  `gorm:"not null;index" json:"sentAt"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	IsRead         bool       `gorm:"not null;default:false" json:"isRead"`
	IsDeleted      bool       `gorm:"not null;default:false;index" json:"-"`
	Folder         string     `gorm:"size:100;not null;default:'inbox';index" json:"folder"`
	AttachmentPath string     `gorm:"size:512" json:"-"`
	AttachmentName string     `gorm:"size:255" json:"-"`

	// Relations
	Sender   User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}

// MessageView is the API representation of a message. Sender and receiver
// usernames come from the preloaded relations.
type MessageView struct {
	ID               uint       `json:"id"`
	SenderID         uint       `json:"senderId"`
	SenderUsername   string     `json:"senderUsername"`
	ReceiverID       uint       `json:"receiverId"`
	ReceiverUsername string     `json:"receiverUsername"`
	Subject          string     `json:"subject"`
	Body             string     `json:"body"`
	SentAt           time.Time  `json:"sentAt"`
	ReadAt           *time.Time `json:"readAt"`
	IsRead           bool       `json:"isRead"`
	Folder           string     `json:"folder"`
	HasAttachment    bool       `json:"hasAttachment"`
	AttachmentName   string     `json:"attachmentName,omitempty"`
}

// View converts the message into its API representation.
func (m *Message) View() MessageView {
	return MessageView{
		ID:               m.ID,
		SenderID:         m.SenderID,
		SenderUsername:   m.Sender.Username,
		ReceiverID:       m.ReceiverID,
		ReceiverUsername: m.Receiver.Username,
		Subject:          m.Subject,
		Body:             m.Body,
		SentAt:           m.SentAt,
		ReadAt:           m.ReadAt,
		IsRead:           m.IsRead,
		Folder:           m.Folder,
		HasAttachment:    m.AttachmentPath != "",
		AttachmentName:   m.AttachmentName,
	}
}

// Views converts a slice of messages, never returning nil.
func Views(messages []Message) []MessageView {
	views := make([]MessageView, len(messages))
	for i := range messages {
		views[i] = messages[i].View()
	}
	return views
}

// IsParticipant reports whether userID sent or received the message.
func (m *Message) IsParticipant(userID uint) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}
