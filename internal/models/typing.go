package models

import "time"

// TypingExpiry is how long an indicator stays active after its last refresh
const TypingExpiry = 2000 * time.Millisecond

// TypingIndicator is ephemeral: it is active only while now-UpdatedAt < TypingExpiry.
// Stale rows are never swept; they are filtered at read time.
type TypingIndicator struct {
	ConversationID string    `gorm:"primaryKey;type:text" json:"conversationId"`
	UserID         string    `gorm:"primaryKey;type:text" json:"userId"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime:false" json:"updatedAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// IsActive reports whether the indicator is live at now
func (t *TypingIndicator) IsActive(now time.Time) bool {
	return now.Sub(t.UpdatedAt) < TypingExpiry
}
