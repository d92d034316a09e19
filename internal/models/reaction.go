package models

import (
	"time"

	"github.com/pushp314/pulse-chat/pkg/utils"
	"gorm.io/gorm"
)

// Reaction is a user's single active emoji on a message
type Reaction struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	MessageID string    `gorm:"type:text;not null;uniqueIndex:idx_reactions_message_user,priority:1" json:"messageId"`
	UserID    string    `gorm:"type:text;not null;uniqueIndex:idx_reactions_message_user,priority:2" json:"userId"`
	Emoji     string    `gorm:"type:text;not null" json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = utils.GenerateID()
	}
	return
}

// Allowed emojis for reactions, in display order
var AllowedReactionEmojis = []string{"👍", "❤️", "😂", "😮", "😢"}

// IsValidReactionEmoji checks if an emoji is in the allowed list
func IsValidReactionEmoji(emoji string) bool {
	for _, e := range AllowedReactionEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}
