package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/pushp314/pulse-chat/internal/models"
	"github.com/pushp314/pulse-chat/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUsers(t *testing.T, engine *services.Engine, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, err := engine.UpsertUser(context.Background(), "ext-"+name, name, name+"@example.com", "")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

// Separate engines share no in-process locks, so only the unique index
// keeps the pair canonical.
func TestDirectDedupAcrossInstances(t *testing.T) {
	db := setupTestDB(t)
	engines := []*services.Engine{services.NewEngine(db), services.NewEngine(db), services.NewEngine(db)}
	ids := createUsers(t, engines[0], "alice", "bob")

	const n = 30
	got := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := ids[0], ids[1]
			if i%2 == 0 {
				a, b = b, a
			}
			got[i], errs[i] = engines[i%len(engines)].GetOrCreateDirect(context.Background(), a, b)
		}(i)
	}
	wg.Wait()

	for i := range got {
		require.NoError(t, errs[i])
		assert.Equal(t, got[0], got[i])
	}
	var convs, members int64
	db.Model(&models.Conversation{}).Count(&convs)
	db.Model(&models.Membership{}).Count(&members)
	assert.Equal(t, int64(1), convs)
	assert.Equal(t, int64(2), members)
}

func TestConcurrentReactionTogglesKeepOneRow(t *testing.T) {
	db := setupTestDB(t)
	engine := services.NewEngine(db)
	ids := createUsers(t, engine, "alice", "bob")
	ctx := context.Background()

	conv, err := engine.GetOrCreateDirect(ctx, ids[0], ids[1])
	require.NoError(t, err)
	msg, err := engine.SendMessage(ctx, conv, ids[0], "react to me")
	require.NoError(t, err)

	emojis := models.AllowedReactionEmojis
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.ToggleReaction(ctx, msg, ids[1], emojis[i%len(emojis)])
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var rows int64
	db.Model(&models.Reaction{}).Where("message_id = ? AND user_id = ?", msg, ids[1]).Count(&rows)
	assert.LessOrEqual(t, rows, int64(1))
}

func TestConcurrentSendsStayOrdered(t *testing.T) {
	db := setupTestDB(t)
	engine := services.NewEngine(db)
	ids := createUsers(t, engine, "alice", "bob")
	ctx := context.Background()

	conv, err := engine.GetOrCreateDirect(ctx, ids[0], ids[1])
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := engine.SendMessage(ctx, conv, ids[i%2], "msg")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs, err := engine.ListMessages(ctx, conv, ids[0])
	require.NoError(t, err)
	require.Len(t, msgs, 25)
	for i := 1; i < len(msgs); i++ {
		assert.True(t, msgs[i].CreatedAt.After(msgs[i-1].CreatedAt), "timestamps must be strictly increasing")
	}
}
