package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pushp314/pulse-chat/internal/config"
	"github.com/pushp314/pulse-chat/internal/database"
	"github.com/pushp314/pulse-chat/internal/services"
	"github.com/pushp314/pulse-chat/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path string, body interface{}, out interface{}) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	if out != nil && w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{JWTSecret: "router-test-secret"}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(dsn, database.Options{MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	return SetupRouter(services.NewEngine(db), RouterOptions{FrontendURL: "http://localhost:5173"})
}

func login(t *testing.T, router *gin.Engine, externalID, name string) (*client, string) {
	t.Helper()
	token, err := utils.GenerateToken(externalID, name, name+"@example.com", "")
	require.NoError(t, err)
	c := &client{t: t, router: router, token: token}

	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.Equal(t, http.StatusOK, c.do("POST", "/api/auth/sync", nil, &resp))
	require.NotEmpty(t, resp.User.ID)
	return c, resp.User.ID
}

func TestChatFlowOverHTTP(t *testing.T) {
	router := setupRouter(t)
	alice, _ := login(t, router, "ext-alice", "Alice")
	bob, bobID := login(t, router, "ext-bob", "Bob")

	var users struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	}
	require.Equal(t, http.StatusOK, alice.do("GET", "/api/users?search=bo", nil, &users))
	require.Len(t, users.Users, 1)
	assert.Equal(t, bobID, users.Users[0].ID)

	var direct struct {
		ConversationID string `json:"conversationId"`
	}
	require.Equal(t, http.StatusOK, alice.do("POST", "/api/conversations/direct", map[string]string{"userId": bobID}, &direct))
	conv := direct.ConversationID

	require.Equal(t, http.StatusCreated, alice.do("POST", "/api/conversations/"+conv+"/messages", map[string]string{"body": "hi"}, nil))

	var sidebar struct {
		Conversations []services.ConversationSummary `json:"conversations"`
	}
	require.Equal(t, http.StatusOK, bob.do("GET", "/api/conversations", nil, &sidebar))
	require.Len(t, sidebar.Conversations, 1)
	assert.Equal(t, int64(1), sidebar.Conversations[0].UnreadCount)
	require.NotNil(t, sidebar.Conversations[0].LastMessage)
	assert.Equal(t, "hi", sidebar.Conversations[0].LastMessage.Body)

	require.Equal(t, http.StatusOK, bob.do("POST", "/api/conversations/"+conv+"/read", nil, nil))
	require.Equal(t, http.StatusOK, bob.do("GET", "/api/conversations", nil, &sidebar))
	assert.Zero(t, sidebar.Conversations[0].UnreadCount)

	var msgs struct {
		Messages []services.MessageView `json:"messages"`
	}
	require.Equal(t, http.StatusOK, bob.do("GET", "/api/conversations/"+conv+"/messages", nil, &msgs))
	require.Len(t, msgs.Messages, 1)
	msgID := msgs.Messages[0].ID

	assert.Equal(t, http.StatusOK, bob.do("POST", "/api/messages/"+msgID+"/reactions", map[string]string{"emoji": "👍"}, nil))
	assert.Equal(t, http.StatusForbidden, bob.do("DELETE", "/api/messages/"+msgID, nil, nil))
	assert.Equal(t, http.StatusOK, alice.do("DELETE", "/api/messages/"+msgID, nil, nil))

	require.Equal(t, http.StatusOK, bob.do("GET", "/api/conversations/"+conv+"/messages", nil, &msgs))
	assert.True(t, msgs.Messages[0].IsDeleted)
	require.Len(t, msgs.Messages[0].Reactions, 1)
	assert.True(t, msgs.Messages[0].Reactions[0].ReactedByViewer)
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	router := setupRouter(t)
	anon := &client{t: t, router: router}
	assert.Equal(t, http.StatusUnauthorized, anon.do("GET", "/api/conversations", nil, nil))

	// a valid token without a synced user is still rejected
	token, err := utils.GenerateToken("ext-ghost", "Ghost", "", "")
	require.NoError(t, err)
	ghost := &client{t: t, router: router, token: token}
	assert.Equal(t, http.StatusUnauthorized, ghost.do("GET", "/api/users/me", nil, nil))
}

func TestHealthAndMetrics(t *testing.T) {
	router := setupRouter(t)
	anon := &client{t: t, router: router}

	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.Equal(t, http.StatusOK, anon.do("GET", "/health", nil, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.Checks["database"])
	assert.Equal(t, "not configured", health.Checks["redis"])

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pulse_http_requests_total")
}
