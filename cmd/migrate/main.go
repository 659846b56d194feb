package main

import (
	"log"
	"log/slog"

	"realtime-threads/internal/config"
	"realtime-threads/internal/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	config.SetupLogger(cfg.Log)

	slog.Info("Starting database migration...")

	db, err := database.NewPostgresConnection(cfg.Database.URI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	slog.Info("Database migration completed successfully")
}
