package realtime

import (
	"context"
	"sync"
)

// EventType names what changed so subscribers know which query to re-run
type EventType string

const (
	ConversationChanged EventType = "conversation_changed"
	MessagesChanged     EventType = "messages_changed"
	TypingChanged       EventType = "typing_changed"
	PresenceChanged     EventType = "presence_update"
	UserChanged         EventType = "user_changed"
)

// Event is a change notification. It carries ids only; clients re-query for state.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversationId,omitempty"`
	UserIDs        []string  `json:"userIds,omitempty"`
	ActorID        string    `json:"actorId,omitempty"`
	IsOnline       *bool     `json:"isOnline,omitempty"`
}

// Notifier delivers change events to live subscribers
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several notifiers and returns the first error
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var first error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Publish(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Recorder keeps published events in memory for tests
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of everything recorded so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset clears recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
