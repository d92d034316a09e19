package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pushp314/pulse-chat/internal/database"
	"github.com/pushp314/pulse-chat/internal/middleware"
	"github.com/pushp314/pulse-chat/internal/services"
	"github.com/stretchr/testify/require"
)

func SetupTestEngine(t *testing.T) *services.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(dsn, database.Options{MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return services.NewEngine(db)
}

func createUser(t *testing.T, engine *services.Engine, name string) string {
	t.Helper()
	id, err := engine.UpsertUser(context.Background(), "ext-"+name, name, name+"@example.com", "")
	require.NoError(t, err)
	return id
}

// serve runs one request through a router holding only the error middleware
// and the given route, acting as userID.
func serve(t *testing.T, userID, method, route, path string, body interface{}, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	})
	r.Handle(method, route, handler)

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
