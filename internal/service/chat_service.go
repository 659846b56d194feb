package service

import (
	"context"
	"fmt"

	"realtime-threads/internal/models"
	"realtime-threads/internal/repository"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

type ChatService interface {
	ListChatUsers(ctx context.Context, userID uint) ([]models.ChatUserResponse, error)
	GetConversation(ctx context.Context, userID, otherUserID uint, limit int) ([]models.DirectMessageResponse, error)
}

type chatService struct {
	users repository.UserRepository
	chats repository.ChatRepository
}

func NewChatService(users repository.UserRepository, chats repository.ChatRepository) ChatService {
	return &chatService{users: users, chats: chats}
}

func (s *chatService) ListChatUsers(ctx context.Context, userID uint) ([]models.ChatUserResponse, error) {
	users, err := s.users.ListOthers(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ChatUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToChatUserResponse())
	}
	return out, nil
}

func (s *chatService) GetConversation(ctx context.Context, userID, otherUserID uint, limit int) ([]models.DirectMessageResponse, error) {
	if otherUserID == 0 {
		return nil, fmt.Errorf("%w: invalid user id", ErrInvalidRequest)
	}

	msgs, err := s.chats.FindConversation(ctx, userID, otherUserID, ClampHistoryLimit(limit))
	if err != nil {
		return nil, err
	}
	out := make([]models.DirectMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ToResponse())
	}
	return out, nil
}

// ClampHistoryLimit maps a requested page size into [1, MaxHistoryLimit];
// zero or negative means the default.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
