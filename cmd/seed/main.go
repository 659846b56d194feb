package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"realtime-threads/internal/config"
	"realtime-threads/internal/database"
	"realtime-threads/internal/models"
	"realtime-threads/internal/repository"
	"realtime-threads/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type seedUser struct {
	externalID string
	name       string
	handle     string
}

var demoUsers = []seedUser{
	{externalID: "seed|admin", name: "Admin", handle: "admin"},
	{externalID: "seed|alice", name: "Alice", handle: "alice"},
	{externalID: "seed|bob", name: "Bob", handle: "bob"},
	{externalID: "seed|charlie", name: "Charlie", handle: "charlie"},
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	config.SetupLogger(cfg.Log)

	slog.Info("Starting database seeding...")

	// Connect to database
	db, err := database.NewPostgresConnection(cfg.Database.URI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	slog.Info("Database connection established")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// Seed initial users
	slog.Info("Creating initial users...")
	users := make(map[string]*models.User, len(demoUsers))
	for _, u := range demoUsers {
		name := u.name
		user, err := userRepo.UpsertByExternalID(ctx, u.externalID, &name, nil)
		if err != nil {
			log.Fatal("Failed to upsert user:", err)
		}
		if user.Handle == nil {
			if _, err := userRepo.UpdateProfile(ctx, user.ID, map[string]interface{}{"handle": u.handle}); err != nil {
				slog.Warn("Could not set handle", "handle", u.handle, "error", err)
			}
		}
		users[u.handle] = user
		slog.Info("Seeded user", "handle", u.handle, "id", user.ID)
	}

	if err := seedSampleContent(ctx, db, users, threadRepo, chatRepo); err != nil {
		slog.Warn("Failed to seed sample content", "error", err)
	} else {
		slog.Info("Sample content created successfully")
	}

	// Print development credentials
	for _, u := range demoUsers {
		token, err := service.IssueCredential(cfg.Auth.JWTSecret, service.CredentialClaims{
			Name: u.name,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   u.externalID,
				Issuer:    cfg.Auth.Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * 24 * time.Hour)),
			},
		})
		if err != nil {
			log.Fatal("Failed to issue credential:", err)
		}
		fmt.Printf("%-8s %s\n", u.handle, token)
	}

	slog.Info("Database seeding completed successfully!")
}

// seedSampleContent only runs against an empty threads table.
func seedSampleContent(ctx context.Context, db *gorm.DB, users map[string]*models.User, threads repository.ThreadRepository, chats repository.ChatRepository) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Thread{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		slog.Info("Threads already present, skipping sample content")
		return nil
	}

	admin, alice, bob := users["admin"], users["alice"], users["bob"]

	general, err := threads.FindCategoryBySlug(ctx, "general")
	if err != nil {
		return err
	}
	thread, err := threads.CreateThread(ctx, general.ID, admin.ID, "Welcome to threads", "Say hello and introduce yourself here.")
	if err != nil {
		return err
	}
	for _, r := range []struct {
		author *models.User
		body   string
	}{
		{alice, "Hi everyone! Excited to be here."},
		{bob, "Hello! Looking forward to working together."},
	} {
		if _, err := threads.InsertReply(ctx, thread.ID, r.author.ID, r.body); err != nil {
			return err
		}
	}
	if _, err := threads.LikeThread(ctx, thread.ID, alice.ID); err != nil {
		return err
	}

	directMessages := []struct {
		from, to *models.User
		body     string
	}{
		{admin, alice, "Hey Alice, welcome to the team!"},
		{alice, admin, "Thank you! I'm excited to get started."},
		{bob, alice, "Hi Alice! If you need any help, feel free to ask."},
	}
	for _, m := range directMessages {
		body := m.body
		if _, err := chats.InsertMessage(ctx, m.from.ID, m.to.ID, &body, nil); err != nil {
			slog.Warn("Failed to create direct message", "error", err)
		}
	}
	return nil
}
