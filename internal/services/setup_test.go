package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pushp314/pulse-chat/internal/database"
	"github.com/pushp314/pulse-chat/internal/realtime"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	clock  *fakeClock
	events *realtime.Recorder
	engine *Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(dsn, database.Options{MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	events := &realtime.Recorder{}
	return &testEnv{
		t:      t,
		ctx:    context.Background(),
		db:     db,
		clock:  clock,
		events: events,
		engine: NewEngine(db, WithClock(clock.Now), WithNotifier(events)),
	}
}

// user creates a directory entry named name and returns its id
func (env *testEnv) user(name string) string {
	env.t.Helper()
	id, err := env.engine.UpsertUser(env.ctx, "ext-"+strings.ToLower(name), name, strings.ToLower(name)+"@example.com", "")
	require.NoError(env.t, err)
	return id
}

func (env *testEnv) direct(a, b string) string {
	env.t.Helper()
	id, err := env.engine.GetOrCreateDirect(env.ctx, a, b)
	require.NoError(env.t, err)
	return id
}

func (env *testEnv) send(conversationID, senderID, body string) string {
	env.t.Helper()
	id, err := env.engine.SendMessage(env.ctx, conversationID, senderID, body)
	require.NoError(env.t, err)
	return id
}

// unread returns the sidebar unread count of conversationID for userID
func (env *testEnv) unread(userID, conversationID string) int64 {
	env.t.Helper()
	list, err := env.engine.ListConversationsForUser(env.ctx, userID)
	require.NoError(env.t, err)
	for _, s := range list {
		if s.ID == conversationID {
			return s.UnreadCount
		}
	}
	env.t.Fatalf("conversation %s not listed for %s", conversationID, userID)
	return 0
}

func (env *testEnv) eventsOf(typ realtime.EventType) []realtime.Event {
	var out []realtime.Event
	for _, ev := range env.events.Events() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
