package main

import (
	"context"
	"fmt"
	"log"

	"github.com/pushp314/pulse-chat/internal/config"
	"github.com/pushp314/pulse-chat/internal/database"
	"github.com/pushp314/pulse-chat/internal/seeds"
	"github.com/pushp314/pulse-chat/internal/services"
	"github.com/pushp314/pulse-chat/pkg/logger"
	"github.com/pushp314/pulse-chat/pkg/utils"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Env)

	db, err := database.Connect(cfg.DatabaseURL, database.Options{MaxOpenConns: 1})
	if err != nil {
		log.Fatalf("❌ Failed to connect: %v", err)
	}

	log.Println("🔄 Running migrations (just in case)...")
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to migrate: %v", err)
	}

	result, err := seeds.SeedDemo(context.Background(), services.NewEngine(db))
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("🔑 Demo tokens:")
	for _, u := range seeds.DemoUsers {
		token, err := utils.GenerateToken(u.ExternalID, u.Name, u.Email, u.AvatarURL)
		if err != nil {
			log.Fatalf("❌ Failed to sign token for %s: %v", u.ExternalID, err)
		}
		fmt.Printf("%-16s %s  %s\n", u.Name, result.Users[u.ExternalID], token)
	}
	log.Println("✅ Seeding complete!")
}
