package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/pulse-chat/internal/config"
	"github.com/pushp314/pulse-chat/internal/database"
	"github.com/pushp314/pulse-chat/internal/handlers"
	"github.com/pushp314/pulse-chat/internal/migrations"
	"github.com/pushp314/pulse-chat/internal/realtime"
	"github.com/pushp314/pulse-chat/internal/routes"
	"github.com/pushp314/pulse-chat/internal/services"
	"github.com/pushp314/pulse-chat/pkg/logger"
	"github.com/pushp314/pulse-chat/pkg/utils"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Env)

	logger.Info().Str("environment", cfg.Env).Msg("Starting Pulse Chat...")

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		if cfg.JWTSecret == "" {
			logger.Fatal().Msg("JWT_SECRET must be set in production")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Connect Database
	db, err := database.Connect(cfg.DatabaseURL, database.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// 2. Schema
	logger.Info().Msg("🔄 Running Database Migrations...")
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate tables")
	}
	applied, err := migrations.NewMigrator(db).Run()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to run data migrations")
	}
	logger.Info().Strs("applied", applied).Msg("✅ Database Migrations Complete")

	// 3. Engine, presence and the live channel
	engine := services.NewEngine(db)
	presence := services.NewPresence(engine)
	hub := handlers.NewSocketHub(engine, presence, allowOrigin(cfg.FrontendURL))

	redisClient := database.InitRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if redisClient != nil {
		feed := realtime.NewRedisFeed(redisClient, cfg.RedisChannel, utils.GenerateID())
		engine.SetNotifier(realtime.Multi{hub, feed})
		go feed.Subscribe(ctx, hub)
	} else {
		engine.SetNotifier(hub)
	}

	go hub.Serve()
	defer hub.Close()

	// 4. Router
	r := routes.SetupRouter(engine, routes.RouterOptions{
		FrontendURL: cfg.FrontendURL,
		Socket:      hub,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("🛑 Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info().Msg("✅ Server exited gracefully")
}

// allowOrigin accepts the configured frontend and same-origin clients without an Origin header
func allowOrigin(frontendURL string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origin == frontendURL
	}
}
