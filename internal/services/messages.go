package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pushp314/pulse-chat/internal/metrics"
	"github.com/pushp314/pulse-chat/internal/models"
	"github.com/pushp314/pulse-chat/internal/realtime"
	apperrors "github.com/pushp314/pulse-chat/pkg/errors"
	"github.com/pushp314/pulse-chat/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxMessageLength bounds a message body in runes
const MaxMessageLength = 4000

// MessageView is a message as consumers may render it. Body is the
// placeholder once the message is deleted.
type MessageView struct {
	ID              string          `json:"id"`
	ConversationID  string          `json:"conversationId"`
	SenderID        string          `json:"senderId"`
	SenderName      string          `json:"senderName"`
	SenderAvatarURL string          `json:"senderAvatarUrl"`
	Body            string          `json:"body"`
	CreatedAt       time.Time       `json:"createdAt"`
	IsDeleted       bool            `json:"isDeleted"`
	Reactions       []ReactionGroup `json:"reactions"`
}

// SendMessage appends a message and clears the sender's typing indicator in the same transaction
func (e *Engine) SendMessage(ctx context.Context, conversationID, senderID, body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", apperrors.Validation("Message body cannot be empty")
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return "", apperrors.Validation("Message body is too long")
	}

	var (
		msg     models.Message
		members []string
		cleared bool
	)
	err := e.tx(ctx, func(tx *gorm.DB) error {
		var conv models.Conversation
		err := tx.Select("id").Where("id = ?", conversationID).First(&conv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Conversation not found")
		}
		if err != nil {
			return err
		}

		members, err = memberIDs(tx, conversationID)
		if err != nil {
			return err
		}
		if !contains(members, senderID) {
			return apperrors.Permission("You are not a member of this conversation")
		}

		msg = models.Message{
			ConversationID: conversationID,
			SenderID:       senderID,
			Body:           body,
			CreatedAt:      e.stamp(),
			IsDeleted:      false,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		res := tx.Where("conversation_id = ? AND user_id = ?", conversationID, senderID).
			Delete(&models.TypingIndicator{})
		cleared = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return "", storeErr("send message", err)
	}

	metrics.MessagesSent.Inc()
	logger.Debug().
		Str("message_id", msg.ID).
		Str("conversation_id", conversationID).
		Str("user_id", senderID).
		Msg("Message sent")

	e.publish(ctx, realtime.Event{Type: realtime.MessagesChanged, ConversationID: conversationID, ActorID: senderID})
	e.publish(ctx, realtime.Event{Type: realtime.ConversationChanged, ConversationID: conversationID, UserIDs: members, ActorID: senderID})
	if cleared {
		e.publish(ctx, realtime.Event{Type: realtime.TypingChanged, ConversationID: conversationID, ActorID: senderID})
	}
	return msg.ID, nil
}

// ListMessages returns the whole conversation oldest first, with sender and
// reactions grouped from viewerID's perspective.
func (e *Engine) ListMessages(ctx context.Context, conversationID, viewerID string) ([]MessageView, error) {
	db := e.db.WithContext(ctx)

	var msgs []models.Message
	err := db.Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at asc, id asc").
		Find(&msgs).Error
	if err != nil {
		return nil, storeErr("list messages", err)
	}

	views := make([]MessageView, 0, len(msgs))
	if len(msgs) == 0 {
		return views, nil
	}

	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	var reactions []models.Reaction
	err = db.Preload("User").
		Where("message_id IN ?", ids).
		Order("created_at asc, id asc").
		Find(&reactions).Error
	if err != nil {
		return nil, storeErr("list reactions", err)
	}
	byMessage := make(map[string][]models.Reaction, len(msgs))
	for _, r := range reactions {
		byMessage[r.MessageID] = append(byMessage[r.MessageID], r)
	}

	for i := range msgs {
		m := &msgs[i]
		views = append(views, MessageView{
			ID:              m.ID,
			ConversationID:  m.ConversationID,
			SenderID:        m.SenderID,
			SenderName:      m.Sender.Name,
			SenderAvatarURL: m.Sender.AvatarURL,
			Body:            m.DisplayBody(),
			CreatedAt:       m.CreatedAt,
			IsDeleted:       m.IsDeleted,
			Reactions:       GroupReactions(byMessage[m.ID], viewerID),
		})
	}
	return views, nil
}

// SoftDeleteMessage marks a message deleted. Only its sender may do so; a
// second delete is a no-op.
func (e *Engine) SoftDeleteMessage(ctx context.Context, messageID, requesterID string) error {
	var (
		msg     models.Message
		changed bool
	)
	err := e.tx(ctx, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", messageID).
			First(&msg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Message not found")
		}
		if err != nil {
			return err
		}
		if msg.SenderID != requesterID {
			return apperrors.Permission("Only the sender can delete this message")
		}
		if msg.IsDeleted {
			return nil
		}

		res := tx.Model(&models.Message{}).
			Where("id = ? AND is_deleted = ?", messageID, false).
			Update("is_deleted", true)
		changed = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return storeErr("delete message", err)
	}
	if !changed {
		return nil
	}

	metrics.MessagesDeleted.Inc()
	logger.Info().Str("message_id", messageID).Str("user_id", requesterID).Msg("Message deleted")
	e.publish(ctx, realtime.Event{Type: realtime.MessagesChanged, ConversationID: msg.ConversationID, ActorID: requesterID})

	if members, err := memberIDs(e.db.WithContext(ctx), msg.ConversationID); err == nil {
		e.publish(ctx, realtime.Event{
			Type:           realtime.ConversationChanged,
			ConversationID: msg.ConversationID,
			UserIDs:        members,
			ActorID:        requesterID,
		})
	}
	return nil
}
