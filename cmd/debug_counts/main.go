package main

import (
	"fmt"
	"log"

	"github.com/pushp314/pulse-chat/internal/config"
	"github.com/pushp314/pulse-chat/internal/database"
	"github.com/pushp314/pulse-chat/internal/models"
	"gorm.io/gorm"
)

func main() {
	config.LoadConfig()

	db, err := database.Open(config.AppConfig.DatabaseURL, database.Options{MaxOpenConns: 1})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	for _, m := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			log.Fatalf("parse %T: %v", m, err)
		}
		var count int64
		if err := db.Model(m).Count(&count).Error; err != nil {
			fmt.Printf("%-20s error: %v\n", stmt.Schema.Table, err)
			continue
		}
		fmt.Printf("%-20s %d\n", stmt.Schema.Table, count)
	}

	var softDeleted int64
	db.Model(&models.Message{}).Where("is_deleted = ?", true).Count(&softDeleted)
	fmt.Printf("%-20s %d\n", "messages (deleted)", softDeleted)
}
