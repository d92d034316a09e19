package models

import (
	"strings"
	"time"

	"github.com/pushp314/pulse-chat/pkg/utils"
	"gorm.io/gorm"
)

// User is a directory entry synced from the external auth provider.
// ExternalAuthID is the provider's stable id; exactly one User exists per value.
// NameLower backs name search, since SQLite's LOWER only folds ASCII.
type User struct {
	ID             string    `gorm:"primaryKey;type:text" json:"id"`
	ExternalAuthID string    `gorm:"uniqueIndex;type:text;not null" json:"externalAuthId"`
	Name           string    `gorm:"type:text;not null;index" json:"name"`
	NameLower      string    `gorm:"type:text;not null;default:'';index" json:"-"`
	Email          string    `gorm:"type:text" json:"email"`
	AvatarURL      string    `gorm:"type:text" json:"avatarUrl"`
	IsOnline       bool      `gorm:"default:false" json:"isOnline"`
	LastSeen       time.Time `json:"lastSeen"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = utils.GenerateID()
	}
	u.NameLower = strings.ToLower(u.Name)
	return
}
