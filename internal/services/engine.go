package services

import (
	"context"
	"sync"
	"time"

	"github.com/pushp314/pulse-chat/internal/metrics"
	"github.com/pushp314/pulse-chat/internal/realtime"
	apperrors "github.com/pushp314/pulse-chat/pkg/errors"
	"github.com/pushp314/pulse-chat/pkg/logger"
	"gorm.io/gorm"
)

// Engine owns every chat mutation and query. It is safe for concurrent use.
type Engine struct {
	db       *gorm.DB
	now      func() time.Time
	notifier realtime.Notifier

	// one mutex per canonical direct pair, serialising check-then-create
	pairLocks keyedMutex

	clockMu sync.Mutex
	last    time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now; tests use it to drive typing expiry
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithNotifier sets where committed changes are announced
func WithNotifier(n realtime.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

func NewEngine(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{
		db:       db,
		now:      time.Now,
		notifier: realtime.Nop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetNotifier swaps the change feed after construction. The socket server
// needs the engine before it exists, so main wires it late.
func (e *Engine) SetNotifier(n realtime.Notifier) {
	if n == nil {
		n = realtime.Nop{}
	}
	e.notifier = n
}

// DB exposes the handle for health checks and tooling
func (e *Engine) DB() *gorm.DB {
	return e.db
}

// stamp returns a strictly increasing UTC time at microsecond precision.
// Message order, read cursors and creation times all come from here.
func (e *Engine) stamp() time.Time {
	e.clockMu.Lock()
	defer e.clockMu.Unlock()

	t := e.now().UTC().Truncate(time.Microsecond)
	if !t.After(e.last) {
		t = e.last.Add(time.Microsecond)
	}
	e.last = t
	return t
}

// clock is the raw wall clock, used where equal readings are meaningful (typing expiry)
func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

func (e *Engine) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return e.db.WithContext(ctx).Transaction(fn)
}

func (e *Engine) publish(ctx context.Context, ev realtime.Event) {
	if err := e.notifier.Publish(ctx, ev); err != nil {
		logger.Warn().
			Err(err).
			Str("type", string(ev.Type)).
			Str("conversation_id", ev.ConversationID).
			Msg("Failed to publish change event")
	}
}

// storeErr passes AppErrors through and turns everything else into a Transient error
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	metrics.StoreErrors.WithLabelValues(op).Inc()
	logger.Error().Err(err).Str("op", op).Msg("Store operation failed")
	return apperrors.Transient("Failed to "+op, err)
}

// memberIDs lists the user ids holding a membership in the conversation
func memberIDs(db *gorm.DB, conversationID string) ([]string, error) {
	var ids []string
	err := db.Table("memberships").
		Where("conversation_id = ?", conversationID).
		Order("user_id asc").
		Pluck("user_id", &ids).Error
	return ids, err
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
