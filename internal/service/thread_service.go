package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"realtime-threads/internal/models"
	"realtime-threads/internal/repository"
)

const (
	minReplyLength = 2
	maxReplyLength = 5000
)

// Thread list paging.
const (
	DefaultThreadPage     = 1
	DefaultThreadPageSize = 20
	MaxThreadPageSize     = 50
)

// Notifier receives domain writes that may produce a realtime notification.
// Both calls return immediately and never fail.
type Notifier interface {
	NotifyReplyCreated(ctx context.Context, threadID, actorUserID uint)
	NotifyLikeCreated(ctx context.Context, threadID, actorUserID uint)
}

type ThreadService interface {
	ListCategories(ctx context.Context) ([]models.CategoryResponse, error)
	ListThreads(ctx context.Context, filter repository.ThreadFilter) ([]models.ThreadSummaryResponse, error)
	CreateThread(ctx context.Context, authorID uint, req *models.CreateThreadRequest) (*models.ThreadResponse, error)
	GetThread(ctx context.Context, threadID, viewerID uint) (*models.ThreadStatsResponse, error)
	ListReplies(ctx context.Context, threadID uint) ([]models.ReplyResponse, error)
	CreateReply(ctx context.Context, threadID, authorID uint, body string) (*models.ReplyResponse, error)
	DeleteReply(ctx context.Context, replyID, userID uint) error
	Like(ctx context.Context, threadID, userID uint) error
	Unlike(ctx context.Context, threadID, userID uint) error
}

type threadService struct {
	repo     repository.ThreadRepository
	notifier Notifier
}

func NewThreadService(repo repository.ThreadRepository, notifier Notifier) ThreadService {
	return &threadService{repo: repo, notifier: notifier}
}

// NewThreadFilter normalizes a list query: page below 1 becomes the first
// page, page size is clamped into [1, MaxThreadPageSize] with 0 meaning the
// default, and any sort other than oldest means newest.
func NewThreadFilter(page, pageSize int, categorySlug, search, sort string) repository.ThreadFilter {
	if page < 1 {
		page = DefaultThreadPage
	}
	switch {
	case pageSize == 0:
		pageSize = DefaultThreadPageSize
	case pageSize < 1:
		pageSize = 1
	case pageSize > MaxThreadPageSize:
		pageSize = MaxThreadPageSize
	}
	if sort != repository.SortOldest {
		sort = repository.SortNewest
	}
	return repository.ThreadFilter{
		Page:         page,
		PageSize:     pageSize,
		CategorySlug: strings.TrimSpace(categorySlug),
		Search:       strings.TrimSpace(search),
		Sort:         sort,
	}
}

func (s *threadService) ListCategories(ctx context.Context) ([]models.CategoryResponse, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.ToResponse())
	}
	return out, nil
}

func (s *threadService) ListThreads(ctx context.Context, filter repository.ThreadFilter) ([]models.ThreadSummaryResponse, error) {
	threads, err := s.repo.ListThreads(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]models.ThreadSummaryResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, t.ToSummary())
	}
	return out, nil
}

func (s *threadService) CreateThread(ctx context.Context, authorID uint, req *models.CreateThreadRequest) (*models.ThreadResponse, error) {
	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	slug := strings.TrimSpace(req.CategorySlug)
	if title == "" || body == "" || slug == "" {
		return nil, fmt.Errorf("%w: title, body and category are required", ErrInvalidRequest)
	}

	category, err := s.repo.FindCategoryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid category %q", ErrInvalidRequest, slug)
		}
		return nil, err
	}

	thread, err := s.repo.CreateThread(ctx, category.ID, authorID, title, body)
	if err != nil {
		return nil, err
	}
	resp := thread.ToResponse()
	return &resp, nil
}

func (s *threadService) GetThread(ctx context.Context, threadID, viewerID uint) (*models.ThreadStatsResponse, error) {
	thread, err := s.findThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, threadID, viewerID)
	if err != nil {
		return nil, err
	}
	return &models.ThreadStatsResponse{
		ThreadResponse: thread.ToResponse(),
		LikeCount:      stats.LikeCount,
		ReplyCount:     stats.ReplyCount,
		ViewerHasLiked: stats.ViewerHasLiked,
	}, nil
}

func (s *threadService) ListReplies(ctx context.Context, threadID uint) ([]models.ReplyResponse, error) {
	replies, err := s.repo.ListReplies(ctx, threadID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ReplyResponse, 0, len(replies))
	for _, r := range replies {
		out = append(out, r.ToResponse())
	}
	return out, nil
}

// CreateReply stores the reply and then hands the event to the notifier;
// notification problems never fail the reply.
func (s *threadService) CreateReply(ctx context.Context, threadID, authorID uint, body string) (*models.ReplyResponse, error) {
	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n < minReplyLength || n > maxReplyLength {
		return nil, fmt.Errorf("%w: reply body must be between %d and %d characters", ErrInvalidRequest, minReplyLength, maxReplyLength)
	}
	if _, err := s.findThread(ctx, threadID); err != nil {
		return nil, err
	}

	reply, err := s.repo.InsertReply(ctx, threadID, authorID, body)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyReplyCreated(ctx, threadID, authorID)

	resp := reply.ToResponse()
	return &resp, nil
}

func (s *threadService) DeleteReply(ctx context.Context, replyID, userID uint) error {
	authorID, err := s.repo.FindReplyAuthor(ctx, replyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReplyNotFound
		}
		return err
	}
	if authorID != userID {
		return fmt.Errorf("%w: you are not the author of this reply", ErrForbidden)
	}
	return s.repo.DeleteReply(ctx, replyID)
}

// Like notifies the author only for a new like, so repeated likes do not
// stack notifications.
func (s *threadService) Like(ctx context.Context, threadID, userID uint) error {
	if _, err := s.findThread(ctx, threadID); err != nil {
		return err
	}
	created, err := s.repo.LikeThread(ctx, threadID, userID)
	if err != nil {
		return err
	}
	if created {
		s.notifier.NotifyLikeCreated(ctx, threadID, userID)
	}
	return nil
}

func (s *threadService) Unlike(ctx context.Context, threadID, userID uint) error {
	return s.repo.UnlikeThread(ctx, threadID, userID)
}

func (s *threadService) findThread(ctx context.Context, threadID uint) (*models.Thread, error) {
	if threadID == 0 {
		return nil, ErrThreadNotFound
	}
	thread, err := s.repo.FindThreadByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrThreadNotFound
		}
		return nil, err
	}
	return thread, nil
}
