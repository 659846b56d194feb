package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"realtime-threads/internal/models"
)

var (
	ErrNotAuthenticated = errors.New("connection is not authenticated")
	ErrInvalidRecipient = errors.New("recipient user id must be a positive integer")
	ErrSelfMessage      = errors.New("cannot target yourself")
	ErrEmptyMessage     = errors.New("message needs a body or an image")
)

// IsValidationError reports whether err means the inbound event was rejected
// before anything was persisted or published.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrInvalidRecipient) ||
		errors.Is(err, ErrSelfMessage) ||
		errors.Is(err, ErrEmptyMessage)
}

// MessageStore persists direct messages.
type MessageStore interface {
	InsertMessage(ctx context.Context, senderID, recipientID uint, body, imageURL *string) (*models.DirectMessage, error)
	GetMessageByID(ctx context.Context, id uint) (*models.DirectMessage, error)
}

// Messenger handles the send and typing events of authenticated connections.
type Messenger struct {
	store    MessageStore
	router   *Router
	activity ActivitySink
}

func NewMessenger(store MessageStore, router *Router, activity ActivitySink) *Messenger {
	if activity == nil {
		activity = noopActivity{}
	}
	return &Messenger{store: store, router: router, activity: activity}
}

// HandleSend persists a direct message and publishes the stored record to the
// chat channels of both participants.
func (m *Messenger) HandleSend(ctx context.Context, from Subscriber, p SendPayload) error {
	senderID := from.UserID()
	recipientID, err := validateTarget(senderID, p.RecipientUserID)
	if err != nil {
		return err
	}

	body := trimmedOrNil(p.Body)
	imageURL := trimmedOrNil(p.ImageURL)
	if body == nil && imageURL == nil {
		return ErrEmptyMessage
	}

	inserted, err := m.store.InsertMessage(ctx, senderID, recipientID, body, imageURL)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	stored, err := m.store.GetMessageByID(ctx, inserted.ID)
	if err != nil {
		return fmt.Errorf("reload message %d: %w", inserted.ID, err)
	}

	msg := stored.ToResponse()
	delivered := m.router.PublishMany([]string{ChatChannel(senderID), ChatChannel(recipientID)}, EventMessage, msg)
	slog.Debug("Direct message delivered", "messageID", msg.ID, "userID", senderID, "recipientUserID", recipientID, "connections", delivered)

	if err := m.activity.MessageCreated(ctx, msg); err != nil {
		slog.Warn("Failed to record message activity", "messageID", msg.ID, "error", err)
	}
	return nil
}

// HandleTyping relays a typing indicator to the recipient only.
func (m *Messenger) HandleTyping(from Subscriber, p TypingPayload) error {
	senderID := from.UserID()
	recipientID, err := validateTarget(senderID, p.RecipientUserID)
	if err != nil {
		return err
	}

	m.router.Publish(ChatChannel(recipientID), EventTyping, TypingEvent{
		SenderUserID:    senderID,
		RecipientUserID: recipientID,
		IsTyping:        p.IsTyping,
	})
	return nil
}

func validateTarget(senderID uint, recipient int64) (uint, error) {
	if senderID == 0 {
		return 0, ErrNotAuthenticated
	}
	if recipient <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidRecipient, recipient)
	}
	recipientID := uint(recipient)
	if recipientID == senderID {
		return 0, ErrSelfMessage
	}
	return recipientID, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
