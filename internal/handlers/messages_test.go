package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/pushp314/pulse-chat/internal/models"
	"github.com/pushp314/pulse-chat/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendListDeleteMessage(t *testing.T) {
	engine := SetupTestEngine(t)
	h := NewChatHandler(engine)
	alice, bob := createUser(t, engine, "alice"), createUser(t, engine, "bob")
	conv, err := engine.GetOrCreateDirect(context.Background(), alice, bob)
	require.NoError(t, err)

	w := serve(t, alice, "POST", "/conversations/:id/messages", "/conversations/"+conv+"/messages",
		map[string]string{"body": "hi <script>alert(1)</script>there"}, h.SendMessage)
	require.Equal(t, http.StatusCreated, w.Code)
	var sent struct {
		ID string `json:"id"`
	}
	decode(t, w, &sent)

	w = serve(t, bob, "GET", "/conversations/:id/messages", "/conversations/"+conv+"/messages", nil, h.ListMessages)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Messages []services.MessageView `json:"messages"`
	}
	decode(t, w, &list)
	require.Len(t, list.Messages, 1)
	assert.Equal(t, "hi there", list.Messages[0].Body)
	assert.Equal(t, "alice", list.Messages[0].SenderName)

	w = serve(t, bob, "DELETE", "/messages/:id", "/messages/"+sent.ID, nil, h.DeleteMessage)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(t, alice, "DELETE", "/messages/:id", "/messages/"+sent.ID, nil, h.DeleteMessage)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(t, bob, "GET", "/conversations/:id/messages", "/conversations/"+conv+"/messages", nil, h.ListMessages)
	decode(t, w, &list)
	require.Len(t, list.Messages, 1)
	assert.True(t, list.Messages[0].IsDeleted)
	assert.Equal(t, models.DeletedMessagePlaceholder, list.Messages[0].Body)
}

func TestSendBlankMessageIsRejected(t *testing.T) {
	engine := SetupTestEngine(t)
	h := NewChatHandler(engine)
	alice, bob := createUser(t, engine, "alice"), createUser(t, engine, "bob")
	conv, err := engine.GetOrCreateDirect(context.Background(), alice, bob)
	require.NoError(t, err)

	w := serve(t, alice, "POST", "/conversations/:id/messages", "/conversations/"+conv+"/messages",
		map[string]string{"body": "   "}, h.SendMessage)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION")
}

func TestListMessagesRequiresMembership(t *testing.T) {
	engine := SetupTestEngine(t)
	h := NewChatHandler(engine)
	alice, bob, carol := createUser(t, engine, "alice"), createUser(t, engine, "bob"), createUser(t, engine, "carol")
	conv, err := engine.GetOrCreateDirect(context.Background(), alice, bob)
	require.NoError(t, err)

	w := serve(t, carol, "GET", "/conversations/:id/messages", "/conversations/"+conv+"/messages", nil, h.ListMessages)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestToggleReactionHandler(t *testing.T) {
	engine := SetupTestEngine(t)
	h := NewChatHandler(engine)
	ctx := context.Background()
	alice, bob := createUser(t, engine, "alice"), createUser(t, engine, "bob")
	conv, err := engine.GetOrCreateDirect(ctx, alice, bob)
	require.NoError(t, err)
	msg, err := engine.SendMessage(ctx, conv, alice, "hi")
	require.NoError(t, err)

	var resp struct {
		Result string `json:"result"`
	}
	w := serve(t, bob, "POST", "/messages/:id/reactions", "/messages/"+msg+"/reactions", map[string]string{"emoji": "😮"}, h.ToggleReaction)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, services.ReactionAdded, resp.Result)

	w = serve(t, bob, "POST", "/messages/:id/reactions", "/messages/"+msg+"/reactions", map[string]string{"emoji": "🙃"}, h.ToggleReaction)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, bob, "POST", "/messages/:id/reactions", "/messages/missing/reactions", map[string]string{"emoji": "😮"}, h.ToggleReaction)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSanitizeMessageBody(t *testing.T) {
	assert.Equal(t, "hello", SanitizeMessageBody("  hello \x00"))
	assert.Equal(t, "<img src=x alert(1)>", SanitizeMessageBody(`<img src=x onerror=alert(1)>`))
	assert.Equal(t, "", SanitizeMessageBody("<script>\nboom()\n</script>"))
	assert.Equal(t, "line one\nline two", SanitizeMessageBody("line one\nline two"))
	assert.Equal(t, "<a href=# x y>", SanitizeMessageBody(`<a href=# onclick=x onmouseover=y>`))
}

func TestSanitizeMessageBodyKeepsProse(t *testing.T) {
	for _, body := range []string{
		"set the flag online= yes please",
		"turn it on = off",
		"a < b and only= c",
	} {
		assert.Equal(t, body, SanitizeMessageBody(body))
	}
}
