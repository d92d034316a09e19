package services

import (
	"context"
	"errors"

	"github.com/pushp314/pulse-chat/internal/models"
	"github.com/pushp314/pulse-chat/internal/realtime"
	apperrors "github.com/pushp314/pulse-chat/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetTyping refreshes the user's indicator. Subscribers hear about it only
// when the user was not already shown as typing.
func (e *Engine) SetTyping(ctx context.Context, conversationID, userID string) error {
	now := e.clock()
	var wasActive bool
	err := e.tx(ctx, func(tx *gorm.DB) error {
		var memberships int64
		if err := tx.Model(&models.Membership{}).
			Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			Count(&memberships).Error; err != nil {
			return err
		}
		if memberships == 0 {
			return apperrors.Permission("You are not a member of this conversation")
		}

		var prev models.TypingIndicator
		err := tx.Where("conversation_id = ? AND user_id = ?", conversationID, userID).First(&prev).Error
		switch {
		case err == nil:
			wasActive = prev.IsActive(now)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Create(&models.TypingIndicator{
			ConversationID: conversationID,
			UserID:         userID,
			UpdatedAt:      now,
		}).Error
	})
	if err != nil {
		return storeErr("set typing", err)
	}

	if !wasActive {
		e.publish(ctx, realtime.Event{Type: realtime.TypingChanged, ConversationID: conversationID, ActorID: userID})
	}
	return nil
}

// ClearTyping removes the indicator if present
func (e *Engine) ClearTyping(ctx context.Context, conversationID, userID string) error {
	res := e.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&models.TypingIndicator{})
	if res.Error != nil {
		return storeErr("clear typing", res.Error)
	}
	if res.RowsAffected > 0 {
		e.publish(ctx, realtime.Event{Type: realtime.TypingChanged, ConversationID: conversationID, ActorID: userID})
	}
	return nil
}

// ListActiveTypers returns display names of users typing within the last
// TypingExpiry, excluding excludingUserID. Stale rows are filtered, not deleted.
func (e *Engine) ListActiveTypers(ctx context.Context, conversationID, excludingUserID string) ([]string, error) {
	var rows []models.TypingIndicator
	err := e.db.WithContext(ctx).
		Preload("User").
		Where("conversation_id = ? AND user_id <> ?", conversationID, excludingUserID).
		Order("updated_at asc, user_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, storeErr("list typers", err)
	}

	now := e.clock()
	names := []string{}
	for i := range rows {
		if rows[i].IsActive(now) {
			names = append(names, rows[i].User.Name)
		}
	}
	return names, nil
}
