package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pushp314/pulse-chat/internal/database"
	"github.com/pushp314/pulse-chat/internal/handlers"
	"github.com/pushp314/pulse-chat/internal/middleware"
	"github.com/pushp314/pulse-chat/internal/services"
)

// RouterOptions carries what the router needs beyond the engine
type RouterOptions struct {
	FrontendURL string
	// Socket is optional; tests run without a live channel
	Socket *handlers.SocketHub
}

// SetupRouter builds the full HTTP surface: API, health, metrics and socket.io
func SetupRouter(engine *services.Engine, opts RouterOptions) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(middleware.CORSMiddleware(opts.FrontendURL))

	// socket.io polling would drain the general bucket
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/socket.io/") {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	h := handlers.NewChatHandler(engine)
	auth := middleware.AuthMiddleware(engine)

	api := r.Group("/api")
	api.Use(middleware.SecurityHeaders())
	{
		RegisterAuthRoutes(api, h)
		RegisterUserRoutes(api, h, auth)
		RegisterChatRoutes(api, h, auth)
	}

	r.GET("/health", healthHandler(engine))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.Socket != nil {
		r.GET("/socket.io/*any", opts.Socket.Handler())
		r.POST("/socket.io/*any", opts.Socket.Handler())
	}
	return r
}

// healthHandler reports database and redis status
func healthHandler(engine *services.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		if err := database.Ping(engine.DB().WithContext(ctx)); err != nil {
			dbStatus = "error"
		}
		redisStatus := database.RedisStatus(ctx)

		status, code := "ok", http.StatusOK
		if dbStatus != "ok" {
			status, code = "down", http.StatusServiceUnavailable
		} else if redisStatus == "error" {
			status = "degraded"
		}

		c.JSON(code, gin.H{
			"status": status,
			"checks": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	}
}
