package services

import (
	"context"
	"errors"
	"strings"

	"github.com/pushp314/pulse-chat/internal/models"
	"github.com/pushp314/pulse-chat/internal/realtime"
	apperrors "github.com/pushp314/pulse-chat/pkg/errors"
	"github.com/pushp314/pulse-chat/pkg/logger"
	"github.com/pushp314/pulse-chat/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertUser creates or refreshes the directory entry for an external identity.
// New users start offline with LastSeen at creation time.
func (e *Engine) UpsertUser(ctx context.Context, externalAuthID, name, email, avatarURL string) (string, error) {
	externalAuthID = strings.TrimSpace(externalAuthID)
	if externalAuthID == "" {
		return "", apperrors.Validation("External auth id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(email)
	}

	now := e.stamp()
	var user models.User
	err := e.tx(ctx, func(tx *gorm.DB) error {
		candidate := models.User{
			ExternalAuthID: externalAuthID,
			Name:           name,
			NameLower:      strings.ToLower(name),
			Email:          email,
			AvatarURL:      avatarURL,
			IsOnline:       false,
			LastSeen:       now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_auth_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "name_lower", "email", "avatar_url", "updated_at"}),
		}).Create(&candidate).Error; err != nil {
			return err
		}
		// The candidate id is discarded on conflict; read back the stored row
		return tx.Where("external_auth_id = ?", externalAuthID).First(&user).Error
	})
	if err != nil {
		return "", storeErr("upsert user", err)
	}

	logger.Debug().Str("user_id", user.ID).Str("external_id", externalAuthID).Msg("User synced")
	e.publish(ctx, realtime.Event{Type: realtime.UserChanged, UserIDs: []string{user.ID}, ActorID: user.ID})
	return user.ID, nil
}

// GetUser returns nil when the id is unknown
func (e *Engine) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := e.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return &user, nil
}

// GetUserByExternalID returns nil when no user carries the external id
func (e *Engine) GetUserByExternalID(ctx context.Context, externalAuthID string) (*models.User, error) {
	var user models.User
	err := e.db.WithContext(ctx).Where("external_auth_id = ?", externalAuthID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return &user, nil
}

func (e *Engine) ListUsersExcluding(ctx context.Context, selfID string) ([]models.User, error) {
	users := []models.User{}
	err := e.db.WithContext(ctx).
		Where("id <> ?", selfID).
		Order("name asc, id asc").
		Find(&users).Error
	if err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

// SearchUsersByName matches a case-insensitive substring of the name.
// A blank term lists everyone except self.
func (e *Engine) SearchUsersByName(ctx context.Context, term, selfID string) ([]models.User, error) {
	pattern := utils.SanitizeSearchQuery(term)
	if pattern == "" {
		return e.ListUsersExcluding(ctx, selfID)
	}

	users := []models.User{}
	err := e.db.WithContext(ctx).
		Where("id <> ? AND name_lower LIKE ? ESCAPE '\\'", selfID, pattern).
		Order("name asc, id asc").
		Find(&users).Error
	if err != nil {
		return nil, storeErr("search users", err)
	}
	return users, nil
}

// SetOnlineStatus sets the presence flag and always refreshes LastSeen
func (e *Engine) SetOnlineStatus(ctx context.Context, userID string, isOnline bool) error {
	res := e.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_online": isOnline,
			"last_seen": e.stamp(),
		})
	if res.Error != nil {
		return storeErr("set online status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("User not found")
	}

	online := isOnline
	e.publish(ctx, realtime.Event{
		Type:     realtime.PresenceChanged,
		UserIDs:  []string{userID},
		ActorID:  userID,
		IsOnline: &online,
	})
	return nil
}
