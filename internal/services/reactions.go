package services

import (
	"context"
	"errors"

	"github.com/pushp314/pulse-chat/internal/metrics"
	"github.com/pushp314/pulse-chat/internal/models"
	"github.com/pushp314/pulse-chat/internal/realtime"
	apperrors "github.com/pushp314/pulse-chat/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionGroup is the read-side projection of all reactions with one emoji
type ReactionGroup struct {
	Emoji           string   `json:"emoji"`
	Count           int      `json:"count"`
	ReactedByViewer bool     `json:"reactedByViewer"`
	UserNames       []string `json:"userNames"`
}

// Toggle outcomes
const (
	ReactionAdded    = "added"
	ReactionRemoved  = "removed"
	ReactionReplaced = "replaced"
)

// ToggleReaction adds, removes or replaces userID's single reaction on a message
func (e *Engine) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (string, error) {
	if !models.IsValidReactionEmoji(emoji) {
		return "", apperrors.Validation("Invalid reaction emoji")
	}

	outcome, conversationID, err := e.toggleReaction(ctx, messageID, userID, emoji)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent toggle by the same user inserted first; re-evaluate against its row
		outcome, conversationID, err = e.toggleReaction(ctx, messageID, userID, emoji)
	}
	if err != nil {
		return "", storeErr("toggle reaction", err)
	}

	metrics.ReactionToggles.WithLabelValues(outcome).Inc()
	e.publish(ctx, realtime.Event{Type: realtime.MessagesChanged, ConversationID: conversationID, ActorID: userID})
	return outcome, nil
}

func (e *Engine) toggleReaction(ctx context.Context, messageID, userID, emoji string) (string, string, error) {
	var (
		outcome string
		msg     models.Message
	)
	err := e.tx(ctx, func(tx *gorm.DB) error {
		// Locking the message serialises toggles on it, so the reaction rows never race
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "conversation_id").
			Where("id = ?", messageID).
			First(&msg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Message not found")
		}
		if err != nil {
			return err
		}

		var memberships int64
		if err := tx.Model(&models.Membership{}).
			Where("conversation_id = ? AND user_id = ?", msg.ConversationID, userID).
			Count(&memberships).Error; err != nil {
			return err
		}
		if memberships == 0 {
			return apperrors.Permission("You are not a member of this conversation")
		}

		var existing []models.Reaction
		if err := tx.Where("message_id = ? AND user_id = ?", messageID, userID).
			Find(&existing).Error; err != nil {
			return err
		}

		switch {
		case len(existing) == 0:
			outcome = ReactionAdded
			return tx.Create(&models.Reaction{
				MessageID: messageID,
				UserID:    userID,
				Emoji:     emoji,
				CreatedAt: e.stamp(),
			}).Error
		case existing[0].Emoji == emoji:
			outcome = ReactionRemoved
			return tx.Where("message_id = ? AND user_id = ?", messageID, userID).
				Delete(&models.Reaction{}).Error
		default:
			outcome = ReactionReplaced
			return tx.Model(&models.Reaction{}).
				Where("id = ?", existing[0].ID).
				Updates(map[string]interface{}{"emoji": emoji, "created_at": e.stamp()}).Error
		}
	})
	return outcome, msg.ConversationID, err
}

// GroupReactions folds reactions into per-emoji groups in the fixed emoji order
func GroupReactions(reactions []models.Reaction, viewerID string) []ReactionGroup {
	groups := []ReactionGroup{}
	for _, emoji := range models.AllowedReactionEmojis {
		var g *ReactionGroup
		for i := range reactions {
			r := &reactions[i]
			if r.Emoji != emoji {
				continue
			}
			if g == nil {
				groups = append(groups, ReactionGroup{Emoji: emoji, UserNames: []string{}})
				g = &groups[len(groups)-1]
			}
			g.Count++
			g.UserNames = append(g.UserNames, r.User.Name)
			if r.UserID == viewerID {
				g.ReactedByViewer = true
			}
		}
	}
	return groups
}
