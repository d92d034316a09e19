package realtime

import (
	"context"
	"encoding/json"

	"github.com/pushp314/pulse-chat/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisFeed publishes events on a Redis channel so every instance can
// re-broadcast them to its own socket connections.
type RedisFeed struct {
	client  *redis.Client
	channel string
	origin  string
}

type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// NewRedisFeed returns a feed; origin identifies this instance so it can skip its own echoes
func NewRedisFeed(client *redis.Client, channel, origin string) *RedisFeed {
	return &RedisFeed{client: client, channel: channel, origin: origin}
}

func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(envelope{Origin: f.origin, Event: ev})
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.channel, payload).Err()
}

// Subscribe forwards events published by other instances to local until ctx is done
func (f *RedisFeed) Subscribe(ctx context.Context, local Notifier) {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ev, fromSelf, err := f.decode(msg.Payload)
			if err != nil {
				logger.Warn().Err(err).Str("channel", f.channel).Msg("Dropping malformed change event")
				continue
			}
			if fromSelf {
				continue
			}
			if err := local.Publish(ctx, ev); err != nil {
				logger.Warn().Err(err).Str("type", string(ev.Type)).Msg("Failed to relay change event")
			}
		}
	}
}

func (f *RedisFeed) decode(payload string) (Event, bool, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Event{}, false, err
	}
	return env.Event, env.Origin == f.origin, nil
}
