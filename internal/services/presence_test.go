package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceTracksSessions(t *testing.T) {
	env := newTestEnv(t)
	a := env.user("Alice")
	p := NewPresence(env.engine)

	firstSession, err := p.Connect(env.ctx, a)
	require.NoError(t, err)
	assert.True(t, firstSession)
	firstSession, err = p.Connect(env.ctx, a)
	require.NoError(t, err)
	assert.False(t, firstSession)
	assert.Equal(t, []string{a}, p.OnlineUsers())

	lastSession, err := p.Disconnect(env.ctx, a)
	require.NoError(t, err)
	assert.False(t, lastSession)
	u, _ := env.engine.GetUser(env.ctx, a)
	assert.True(t, u.IsOnline)

	lastSession, err = p.Disconnect(env.ctx, a)
	require.NoError(t, err)
	assert.True(t, lastSession)
	u, _ = env.engine.GetUser(env.ctx, a)
	assert.False(t, u.IsOnline)
	assert.Empty(t, p.OnlineUsers())

	// unmatched disconnects are ignored
	lastSession, err = p.Disconnect(env.ctx, a)
	require.NoError(t, err)
	assert.False(t, lastSession)
}

func TestPresenceConnectUnknownUserRollsBack(t *testing.T) {
	env := newTestEnv(t)
	p := NewPresence(env.engine)

	_, err := p.Connect(env.ctx, "ghost")
	assert.Error(t, err)
	assert.Empty(t, p.OnlineUsers())
}

func TestPresenceFlagMatchesSessionsUnderChurn(t *testing.T) {
	env := newTestEnv(t)
	a := env.user("Alice")
	p := NewPresence(env.engine)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Connect(env.ctx, a)
			assert.NoError(t, err)
			_, err = p.Disconnect(env.ctx, a)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Empty(t, p.OnlineUsers())
	u, err := env.engine.GetUser(env.ctx, a)
	require.NoError(t, err)
	assert.False(t, u.IsOnline)
	assert.Equal(t, 0, p.users.size())
}
