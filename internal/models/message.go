package models

import (
	"time"

	"github.com/pushp314/pulse-chat/pkg/utils"
	"gorm.io/gorm"
)

// DeletedMessagePlaceholder replaces the body of a soft-deleted message in every read path
const DeletedMessagePlaceholder = "This message was deleted"

// Message is append-only. IsDeleted flips false -> true once; the row is never removed.
type Message struct {
	ID             string    `gorm:"primaryKey;type:text" json:"id"`
	ConversationID string    `gorm:"type:text;not null;index:idx_messages_conversation_created,priority:1" json:"conversationId"`
	SenderID       string    `gorm:"type:text;not null;index" json:"senderId"`
	Body           string    `gorm:"type:text;not null" json:"-"`
	CreatedAt      time.Time `gorm:"not null;index:idx_messages_conversation_created,priority:2" json:"createdAt"`
	IsDeleted      bool      `gorm:"default:false;not null" json:"isDeleted"`

	Sender User `gorm:"foreignKey:SenderID" json:"-"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = utils.GenerateID()
	}
	return
}

// DisplayBody is the only body consumers may render
func (m *Message) DisplayBody() string {
	if m.IsDeleted {
		return DeletedMessagePlaceholder
	}
	return m.Body
}
