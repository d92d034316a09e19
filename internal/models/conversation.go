package models

import (
	"time"

	"github.com/pushp314/pulse-chat/pkg/utils"
	"gorm.io/gorm"
)

// Conversation is either a direct chat between two users or a named group.
// DirectKey holds the canonical "min:max" member pair for direct chats and is
// NULL for groups; its unique index enforces one direct chat per pair.
type Conversation struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	IsGroup   bool      `gorm:"default:false;index" json:"isGroup"`
	Name      *string   `gorm:"type:text" json:"name,omitempty"`
	DirectKey *string   `gorm:"type:text;uniqueIndex" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	Memberships []Membership `gorm:"foreignKey:ConversationID" json:"-"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = utils.GenerateID()
	}
	return
}

// Membership links a user to a conversation and carries the read cursor
type Membership struct {
	ConversationID string    `gorm:"primaryKey;type:text" json:"conversationId"`
	UserID         string    `gorm:"primaryKey;type:text;index" json:"userId"`
	LastReadAt     time.Time `gorm:"not null" json:"lastReadAt"`
	JoinedAt       time.Time `json:"joinedAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// DirectKeyFor returns the canonical key for an unordered user pair
func DirectKeyFor(userA, userB string) string {
	if userA < userB {
		return userA + ":" + userB
	}
	return userB + ":" + userA
}
