package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/pushp314/pulse-chat/internal/metrics"
	"github.com/pushp314/pulse-chat/internal/models"
	"github.com/pushp314/pulse-chat/internal/realtime"
	apperrors "github.com/pushp314/pulse-chat/pkg/errors"
	"github.com/pushp314/pulse-chat/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxGroupNameLength bounds group names in runes
const MaxGroupNameLength = 100

type MemberView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl"`
	IsOnline  bool      `json:"isOnline"`
	LastSeen  time.Time `json:"lastSeen"`
}

type MessagePreview struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ConversationSummary is one sidebar row
type ConversationSummary struct {
	ID             string          `json:"id"`
	IsGroup        bool            `json:"isGroup"`
	Name           *string         `json:"name,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	Members        []MemberView    `json:"members"`
	LastMessage    *MessagePreview `json:"lastMessage"`
	UnreadCount    int64           `json:"unreadCount"`
	LastActivityAt time.Time       `json:"lastActivityAt"`
}

type ConversationDetail struct {
	ID          string       `json:"id"`
	IsGroup     bool         `json:"isGroup"`
	Name        *string      `json:"name,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	Members     []MemberView `json:"members"`
	MemberCount int          `json:"memberCount"`
}

func memberView(u models.User) MemberView {
	return MemberView{
		ID:        u.ID,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		IsOnline:  u.IsOnline,
		LastSeen:  u.LastSeen,
	}
}

// GetOrCreateDirect returns the single direct conversation between two users,
// creating it with both memberships on first use.
func (e *Engine) GetOrCreateDirect(ctx context.Context, userA, userB string) (string, error) {
	if userA == "" || userB == "" {
		return "", apperrors.Validation("Both users are required")
	}
	if userA == userB {
		return "", apperrors.Validation("Cannot start a direct conversation with yourself")
	}

	key := models.DirectKeyFor(userA, userB)
	unlock := e.pairLocks.Lock(key)
	defer unlock()

	db := e.db.WithContext(ctx)
	id, err := findDirect(db, userA, userB)
	if err != nil {
		return "", storeErr("find direct conversation", err)
	}
	if id != "" {
		return id, nil
	}

	if err := requireUsers(db, []string{userA, userB}); err != nil {
		return "", storeErr("find direct conversation", err)
	}

	now := e.stamp()
	conv := models.Conversation{IsGroup: false, DirectKey: &key, CreatedAt: now}
	err = e.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		return tx.Create(&[]models.Membership{
			{ConversationID: conv.ID, UserID: userA, LastReadAt: now, JoinedAt: now},
			{ConversationID: conv.ID, UserID: userB, LastReadAt: now, JoinedAt: now},
		}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Another instance created the pair first
		id, err = findDirect(db, userA, userB)
		if err == nil && id == "" {
			err = errors.New("direct conversation vanished after unique violation")
		}
		if err != nil {
			return "", storeErr("find direct conversation", err)
		}
		return id, nil
	}
	if err != nil {
		return "", storeErr("create direct conversation", err)
	}

	metrics.ConversationsCreated.WithLabelValues("direct").Inc()
	logger.Info().Str("conversation_id", conv.ID).Str("user_a", userA).Str("user_b", userB).Msg("Direct conversation created")
	e.publish(ctx, realtime.Event{
		Type:           realtime.ConversationChanged,
		ConversationID: conv.ID,
		UserIDs:        []string{userA, userB},
		ActorID:        userA,
	})
	return conv.ID, nil
}

// findDirect looks up the pair by canonical key, then falls back to scanning
// userA's non-group conversations for one userB also belongs to.
func findDirect(db *gorm.DB, userA, userB string) (string, error) {
	var ids []string
	err := db.Model(&models.Conversation{}).
		Where("direct_key = ?", models.DirectKeyFor(userA, userB)).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil || len(ids) > 0 {
		return first(ids), err
	}

	err = db.Table("conversations AS c").
		Joins("JOIN memberships ma ON ma.conversation_id = c.id AND ma.user_id = ?", userA).
		Joins("JOIN memberships mb ON mb.conversation_id = c.id AND mb.user_id = ?", userB).
		Where("c.is_group = ?", false).
		Order("c.created_at asc").
		Limit(1).
		Pluck("c.id", &ids).Error
	return first(ids), err
}

func first(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func requireUsers(db *gorm.DB, ids []string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return apperrors.NotFound("User not found")
	}
	return nil
}

// CreateGroup creates a named conversation for the creator plus memberIDs.
// Duplicate ids collapse to one membership each.
func (e *Engine) CreateGroup(ctx context.Context, name, creatorID string, memberIDs []string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.Validation("Group name is required")
	}
	if len([]rune(name)) > MaxGroupNameLength {
		return "", apperrors.Validation("Group name is too long")
	}
	if creatorID == "" {
		return "", apperrors.Validation("Creator is required")
	}

	ids := []string{creatorID}
	seen := map[string]bool{creatorID: true}
	for _, id := range memberIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return "", apperrors.Validation("A group needs at least one other member")
	}

	now := e.stamp()
	conv := models.Conversation{IsGroup: true, Name: &name, CreatedAt: now}
	err := e.tx(ctx, func(tx *gorm.DB) error {
		if err := requireUsers(tx, ids); err != nil {
			return err
		}
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		memberships := make([]models.Membership, 0, len(ids))
		for _, id := range ids {
			memberships = append(memberships, models.Membership{
				ConversationID: conv.ID,
				UserID:         id,
				LastReadAt:     now,
				JoinedAt:       now,
			})
		}
		return tx.Create(&memberships).Error
	})
	if err != nil {
		return "", storeErr("create group", err)
	}

	metrics.ConversationsCreated.WithLabelValues("group").Inc()
	logger.Info().Str("conversation_id", conv.ID).Int("members", len(ids)).Msg("Group created")
	e.publish(ctx, realtime.Event{
		Type:           realtime.ConversationChanged,
		ConversationID: conv.ID,
		UserIDs:        ids,
		ActorID:        creatorID,
	})
	return conv.ID, nil
}

type unreadRow struct {
	ConversationID string
	Unread         int64
}

// unreadQuery counts, per membership of userID, messages newer than the read
// cursor that someone else sent.
func unreadQuery(db *gorm.DB, userID string) *gorm.DB {
	return db.Table("messages AS m").
		Joins("JOIN memberships mb ON mb.conversation_id = m.conversation_id AND mb.user_id = ?", userID).
		Where("m.created_at > mb.last_read_at AND m.sender_id <> ?", userID)
}

// ListConversationsForUser builds the sidebar: members, latest visible message,
// unread count, newest activity first.
func (e *Engine) ListConversationsForUser(ctx context.Context, userID string) ([]ConversationSummary, error) {
	db := e.db.WithContext(ctx)

	var convIDs []string
	if err := db.Model(&models.Membership{}).Where("user_id = ?", userID).Pluck("conversation_id", &convIDs).Error; err != nil {
		return nil, storeErr("list conversations", err)
	}
	summaries := make([]ConversationSummary, 0, len(convIDs))
	if len(convIDs) == 0 {
		return summaries, nil
	}

	var convs []models.Conversation
	err := db.Preload("Memberships", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("joined_at asc, user_id asc")
	}).Preload("Memberships.User").
		Where("id IN ?", convIDs).
		Find(&convs).Error
	if err != nil {
		return nil, storeErr("list conversations", err)
	}

	var rows []unreadRow
	err = unreadQuery(db, userID).
		Select("m.conversation_id AS conversation_id, COUNT(*) AS unread").
		Group("m.conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, storeErr("count unread", err)
	}
	unread := make(map[string]int64, len(rows))
	for _, r := range rows {
		unread[r.ConversationID] = r.Unread
	}

	for _, conv := range convs {
		s := ConversationSummary{
			ID:             conv.ID,
			IsGroup:        conv.IsGroup,
			Name:           conv.Name,
			CreatedAt:      conv.CreatedAt,
			Members:        make([]MemberView, 0, len(conv.Memberships)),
			UnreadCount:    unread[conv.ID],
			LastActivityAt: conv.CreatedAt,
		}
		if !conv.IsGroup {
			s.Name = nil
		}
		for _, m := range conv.Memberships {
			s.Members = append(s.Members, memberView(m.User))
		}

		latest, preview, err := latestMessages(db, conv.ID)
		if err != nil {
			return nil, storeErr("load preview", err)
		}
		if latest != nil {
			s.LastActivityAt = latest.CreatedAt
		}
		if preview != nil {
			s.LastMessage = &MessagePreview{
				ID:         preview.ID,
				SenderID:   preview.SenderID,
				SenderName: preview.Sender.Name,
				Body:       preview.DisplayBody(),
				CreatedAt:  preview.CreatedAt,
			}
		}
		summaries = append(summaries, s)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if !a.LastActivityAt.Equal(b.LastActivityAt) {
			return a.LastActivityAt.After(b.LastActivityAt)
		}
		return a.ID > b.ID
	})
	return summaries, nil
}

// latestMessages returns the newest message of any state (activity) and the
// newest non-deleted one (preview). Either may be nil.
func latestMessages(db *gorm.DB, conversationID string) (*models.Message, *models.Message, error) {
	var msgs []models.Message
	err := db.Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at desc, id desc").
		Limit(1).
		Find(&msgs).Error
	if err != nil || len(msgs) == 0 {
		return nil, nil, err
	}
	latest := &msgs[0]
	if !latest.IsDeleted {
		return latest, latest, nil
	}

	var visible []models.Message
	err = db.Preload("Sender").
		Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
		Order("created_at desc, id desc").
		Limit(1).
		Find(&visible).Error
	if err != nil || len(visible) == 0 {
		return latest, nil, err
	}
	return latest, &visible[0], nil
}

// TotalUnread sums unread counts across every conversation of the user
func (e *Engine) TotalUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := unreadQuery(e.db.WithContext(ctx), userID).Count(&count).Error; err != nil {
		return 0, storeErr("count unread", err)
	}
	return count, nil
}

// MarkRead advances the user's read cursor to now. The cursor never moves back.
func (e *Engine) MarkRead(ctx context.Context, userID, conversationID string) error {
	now := e.stamp()
	err := e.tx(ctx, func(tx *gorm.DB) error {
		var m models.Membership
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Membership not found")
		}
		if err != nil {
			return err
		}
		if !now.After(m.LastReadAt) {
			return nil
		}
		return tx.Model(&models.Membership{}).
			Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			Update("last_read_at", now).Error
	})
	if err != nil {
		return storeErr("mark read", err)
	}

	e.publish(ctx, realtime.Event{
		Type:           realtime.ConversationChanged,
		ConversationID: conversationID,
		UserIDs:        []string{userID},
		ActorID:        userID,
	})
	return nil
}

// GetConversation returns nil when the conversation does not exist
func (e *Engine) GetConversation(ctx context.Context, conversationID string) (*ConversationDetail, error) {
	var conv models.Conversation
	err := e.db.WithContext(ctx).
		Preload("Memberships", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("joined_at asc, user_id asc")
		}).
		Preload("Memberships.User").
		Where("id = ?", conversationID).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get conversation", err)
	}

	detail := &ConversationDetail{
		ID:        conv.ID,
		IsGroup:   conv.IsGroup,
		CreatedAt: conv.CreatedAt,
		Members:   make([]MemberView, 0, len(conv.Memberships)),
	}
	if conv.IsGroup {
		detail.Name = conv.Name
	}
	for _, m := range conv.Memberships {
		detail.Members = append(detail.Members, memberView(m.User))
	}
	detail.MemberCount = len(detail.Members)
	return detail, nil
}

// IsMember reports whether userID belongs to the conversation
func (e *Engine) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	var count int64
	err := e.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, storeErr("check membership", err)
	}
	return count > 0, nil
}
