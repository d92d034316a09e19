package services

import (
	"context"
	"sort"
	"sync"
)

// Presence counts live sessions per user on this instance. The online flag
// flips on the first session and off after the last one closes.
type Presence struct {
	engine *Engine

	// held across the count change and the status write, so writes for one
	// user land in the order their sessions changed
	users keyedMutex

	mu       sync.Mutex
	sessions map[string]int
}

func NewPresence(engine *Engine) *Presence {
	return &Presence{engine: engine, sessions: make(map[string]int)}
}

// Connect registers a session and reports whether it was the user's first
func (p *Presence) Connect(ctx context.Context, userID string) (bool, error) {
	unlock := p.users.Lock(userID)
	defer unlock()

	p.mu.Lock()
	p.sessions[userID]++
	firstSession := p.sessions[userID] == 1
	p.mu.Unlock()

	if !firstSession {
		return false, nil
	}
	if err := p.engine.SetOnlineStatus(ctx, userID, true); err != nil {
		p.mu.Lock()
		p.release(userID)
		p.mu.Unlock()
		return false, err
	}
	return true, nil
}

// Disconnect drops a session and reports whether it was the user's last
func (p *Presence) Disconnect(ctx context.Context, userID string) (bool, error) {
	unlock := p.users.Lock(userID)
	defer unlock()

	p.mu.Lock()
	if p.sessions[userID] == 0 {
		p.mu.Unlock()
		return false, nil
	}
	p.release(userID)
	lastSession := p.sessions[userID] == 0
	p.mu.Unlock()

	if !lastSession {
		return false, nil
	}
	return true, p.engine.SetOnlineStatus(ctx, userID, false)
}

func (p *Presence) release(userID string) {
	p.sessions[userID]--
	if p.sessions[userID] <= 0 {
		delete(p.sessions, userID)
	}
}

// OnlineUsers lists users with at least one session here, sorted
func (p *Presence) OnlineUsers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
