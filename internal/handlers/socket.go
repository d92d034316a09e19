package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/pushp314/pulse-chat/internal/metrics"
	"github.com/pushp314/pulse-chat/internal/realtime"
	"github.com/pushp314/pulse-chat/internal/services"
	"github.com/pushp314/pulse-chat/pkg/logger"
	"github.com/pushp314/pulse-chat/pkg/utils"
)

const (
	presenceRoom = "presence"
	// socket event handlers get their own deadline; there is no request context
	socketOpTimeout = 5 * time.Second
	// Minimum interval between typing refreshes per user and conversation
	typingThrottleDuration = 500 * time.Millisecond
	typingThrottleSweep    = time.Minute
)

func conversationRoom(id string) string {
	return "conversation:" + id
}

// typingThrottle drops typing refreshes that arrive faster than the client contract allows
type typingThrottle struct {
	mu        sync.Mutex
	last      map[string]time.Time
	interval  time.Duration
	lastSweep time.Time
}

func newTypingThrottle(interval time.Duration) *typingThrottle {
	return &typingThrottle{last: make(map[string]time.Time), interval: interval}
}

func (t *typingThrottle) allow(key string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastSweep) > typingThrottleSweep {
		t.evictIdle(now)
		t.lastSweep = now
	}
	if last, ok := t.last[key]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.last[key] = now
	return true
}

// evictIdle drops entries old enough that they can no longer throttle anything
func (t *typingThrottle) evictIdle(now time.Time) {
	for key, last := range t.last {
		if now.Sub(last) >= t.interval {
			delete(t.last, key)
		}
	}
}

func (t *typingThrottle) forget(key string) {
	t.mu.Lock()
	delete(t.last, key)
	t.mu.Unlock()
}

func (t *typingThrottle) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}

// SocketHub serves the live channel and implements realtime.Notifier by
// broadcasting change events into socket.io rooms.
type SocketHub struct {
	server   *socketio.Server
	engine   *services.Engine
	presence *services.Presence
	typing   *typingThrottle
}

type typingPayload struct {
	ConversationID string `json:"conversationId"`
}

func NewSocketHub(engine *services.Engine, presence *services.Presence, allowOrigin func(*http.Request) bool) *SocketHub {
	if allowOrigin == nil {
		allowOrigin = func(r *http.Request) bool { return true }
	}
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{CheckOrigin: allowOrigin},
			&polling.Transport{CheckOrigin: allowOrigin},
		},
	})

	h := &SocketHub{
		server:   server,
		engine:   engine,
		presence: presence,
		typing:   newTypingThrottle(typingThrottleDuration),
	}
	h.register()
	return h
}

func (h *SocketHub) register() {
	h.server.OnConnect("/", h.onConnect)

	h.server.OnEvent("/", "join_conversation", func(s socketio.Conn, conversationID string) {
		userID, _ := s.Context().(string)
		if userID == "" || conversationID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), socketOpTimeout)
		defer cancel()

		ok, err := h.engine.IsMember(ctx, conversationID, userID)
		if err != nil || !ok {
			s.Emit("error", "cannot join conversation")
			return
		}
		s.Join(conversationRoom(conversationID))
	})

	h.server.OnEvent("/", "leave_conversation", func(s socketio.Conn, conversationID string) {
		s.Leave(conversationRoom(conversationID))
	})

	h.server.OnEvent("/", "typing", func(s socketio.Conn, data typingPayload) {
		userID, _ := s.Context().(string)
		if userID == "" || data.ConversationID == "" {
			return
		}
		if !h.typing.allow(userID+"|"+data.ConversationID, time.Now()) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), socketOpTimeout)
		defer cancel()
		if err := h.engine.SetTyping(ctx, data.ConversationID, userID); err != nil {
			logger.Debug().Err(err).Str("user_id", userID).Msg("Typing refresh rejected")
		}
	})

	h.server.OnEvent("/", "stop_typing", func(s socketio.Conn, data typingPayload) {
		userID, _ := s.Context().(string)
		if userID == "" || data.ConversationID == "" {
			return
		}
		h.typing.forget(userID + "|" + data.ConversationID)
		ctx, cancel := context.WithTimeout(context.Background(), socketOpTimeout)
		defer cancel()
		if err := h.engine.ClearTyping(ctx, data.ConversationID, userID); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to clear typing")
		}
	})

	h.server.OnEvent("/", "get_online_users", func(s socketio.Conn, _ string) {
		s.Emit("online_users", h.presence.OnlineUsers())
	})

	h.server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		userID, _ := s.Context().(string)
		if userID == "" {
			return
		}
		metrics.ActiveSockets.Dec()

		ctx, cancel := context.WithTimeout(context.Background(), socketOpTimeout)
		defer cancel()
		if _, err := h.presence.Disconnect(ctx, userID); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to mark user offline")
		}
		logger.Debug().Str("socket_id", s.ID()).Str("user_id", userID).Str("reason", reason).Msg("Socket closed")
	})

	h.server.OnError("/", func(s socketio.Conn, e error) {
		logger.Warn().Err(e).Msg("Socket error")
	})
}

func (h *SocketHub) onConnect(s socketio.Conn) error {
	s.SetContext("")
	url := s.URL()

	// Query param is the only option during the ws handshake
	token := url.Query().Get("token")
	if token == "" {
		logger.Debug().Str("socket_id", s.ID()).Msg("Socket rejected: no token")
		return fmt.Errorf("authentication required")
	}
	claims, err := utils.ValidateToken(token)
	if err != nil {
		logger.Debug().Str("socket_id", s.ID()).Msg("Socket rejected: invalid token")
		return fmt.Errorf("invalid token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), socketOpTimeout)
	defer cancel()
	user, err := h.engine.GetUserByExternalID(ctx, claims.ExternalID())
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user not synced")
	}

	s.SetContext(user.ID)
	s.Join(user.ID)
	s.Join(presenceRoom)
	metrics.ActiveSockets.Inc()

	if _, err := h.presence.Connect(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to mark user online")
	}
	s.Emit("online_users", h.presence.OnlineUsers())

	logger.Debug().Str("socket_id", s.ID()).Str("user_id", user.ID).Msg("Socket authenticated")
	return nil
}

// Publish routes a change event to the rooms whose members must re-query
func (h *SocketHub) Publish(_ context.Context, ev realtime.Event) error {
	for _, target := range routeEvent(ev) {
		h.server.BroadcastToRoom("/", target.room, target.event, target.payload)
	}
	return nil
}

type broadcast struct {
	room    string
	event   string
	payload interface{}
}

func routeEvent(ev realtime.Event) []broadcast {
	switch ev.Type {
	case realtime.MessagesChanged, realtime.TypingChanged:
		return []broadcast{{room: conversationRoom(ev.ConversationID), event: string(ev.Type), payload: ev}}
	case realtime.ConversationChanged:
		out := make([]broadcast, 0, len(ev.UserIDs))
		for _, uid := range ev.UserIDs {
			out = append(out, broadcast{room: uid, event: string(ev.Type), payload: ev})
		}
		return out
	case realtime.PresenceChanged:
		out := make([]broadcast, 0, len(ev.UserIDs))
		for _, uid := range ev.UserIDs {
			payload := map[string]interface{}{"userId": uid, "isOnline": ev.IsOnline != nil && *ev.IsOnline}
			out = append(out, broadcast{room: presenceRoom, event: string(ev.Type), payload: payload})
		}
		return out
	case realtime.UserChanged:
		return []broadcast{{room: presenceRoom, event: string(ev.Type), payload: ev}}
	}
	return nil
}

// Serve runs the socket.io event loop until Close
func (h *SocketHub) Serve() {
	if err := h.server.Serve(); err != nil {
		logger.Error().Err(err).Msg("Socket server stopped")
	}
}

func (h *SocketHub) Close() error {
	return h.server.Close()
}

// Handler mounts the socket.io endpoint on gin
func (h *SocketHub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.server.ServeHTTP(c.Writer, c.Request)
	}
}
