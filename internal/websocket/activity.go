package websocket

import (
	"context"

	"realtime-threads/internal/models"
)

// ActivitySink receives every persisted message and notification after it
// has been fanned out. Implementations must not block for long.
type ActivitySink interface {
	MessageCreated(ctx context.Context, msg models.DirectMessageResponse) error
	NotificationCreated(ctx context.Context, recipientUserID uint, n models.NotificationResponse) error
}

type noopActivity struct{}

func (noopActivity) MessageCreated(context.Context, models.DirectMessageResponse) error {
	return nil
}

func (noopActivity) NotificationCreated(context.Context, uint, models.NotificationResponse) error {
	return nil
}
