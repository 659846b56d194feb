package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"realtime-threads/internal/models"
	"realtime-threads/internal/repository"
)

// Custom errors
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrThreadNotFound    = errors.New("thread not found")
	ErrReplyNotFound     = errors.New("reply not found")
	ErrForbidden         = errors.New("forbidden")
)

type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*models.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uint, req *models.UpdateProfileRequest) (*models.UserProfileResponse, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*models.UserProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := user.ToProfileResponse()
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, req *models.UpdateProfileRequest) (*models.UserProfileResponse, error) {
	updates := make(map[string]interface{})
	setTrimmed(updates, "display_name", req.DisplayName)
	setTrimmed(updates, "handle", req.Handle)
	setTrimmed(updates, "bio", req.Bio)
	setTrimmed(updates, "avatar_url", req.AvatarURL)

	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: at least one field must be provided", ErrInvalidRequest)
	}

	user, err := s.repo.UpdateProfile(ctx, userID, updates)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := user.ToProfileResponse()
	return &resp, nil
}

// setTrimmed records a field only when it was sent; blank strings clear it.
func setTrimmed(updates map[string]interface{}, column string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		updates[column] = nil
		return
	}
	updates[column] = trimmed
}
