package service

import (
	"context"
	"fmt"

	"realtime-threads/internal/models"
	"realtime-threads/internal/repository"
)

type NotificationService interface {
	List(ctx context.Context, userID uint, unreadOnly bool) ([]models.NotificationResponse, error)
	MarkRead(ctx context.Context, userID, notificationID uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, userID uint, unreadOnly bool) ([]models.NotificationResponse, error) {
	rows, err := s.repo.List(ctx, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	out := make([]models.NotificationResponse, 0, len(rows))
	for _, n := range rows {
		out = append(out, n.ToResponse())
	}
	return out, nil
}

// MarkRead is idempotent and silently ignores notifications owned by
// someone else.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	if notificationID == 0 {
		return fmt.Errorf("%w: invalid notification id", ErrInvalidRequest)
	}
	_, err := s.repo.MarkRead(ctx, notificationID, userID)
	return err
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
