package database

import (
	"fmt"
	"log/slog"
	"time"

	"realtime-threads/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts   = 5
	connectRetryDelay = 3 * time.Second
)

// NewPostgresConnection opens the primary store and sizes its pool. The
// first connection is retried while the database is still starting.
func NewPostgresConnection(dburi string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = gorm.Open(postgres.Open(dburi), &gorm.Config{
			PrepareStmt:            false,
			SkipDefaultTransaction: true,
			AllowGlobalUpdate:      false,
			Logger:                 logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		slog.Warn("Failed to connect to database", "attempt", attempt, "maxAttempts", connectAttempts, "error", err)
		if attempt < connectAttempts {
			time.Sleep(connectRetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("PostgreSQL connection established")
	return db, nil
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.User{},
		&models.Category{},
		&models.Thread{},
		&models.Reply{},
		&models.ThreadReaction{},
		&models.DirectMessage{},
		&models.Notification{},
	}

	for _, model := range modelsToMigrate {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	return seedCategories(db)
}

var defaultCategories = []models.Category{
	{Slug: "general", Name: "General"},
	{Slug: "help", Name: "Help"},
	{Slug: "showcase", Name: "Showcase"},
	{Slug: "off-topic", Name: "Off-topic"},
}

// seedCategories inserts the default categories. Existing slugs are left alone.
func seedCategories(db *gorm.DB) error {
	categories := make([]models.Category, len(defaultCategories))
	copy(categories, defaultCategories)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&categories).Error
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	return nil
}
