package repository

import (
	"context"

	"realtime-threads/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ThreadStats struct {
	LikeCount      int64
	ReplyCount     int64
	ViewerHasLiked bool
}

// Thread list orderings.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// ThreadFilter selects one page of threads. Page and PageSize are expected
// to be positive; empty CategorySlug and Search match everything.
type ThreadFilter struct {
	Page         int
	PageSize     int
	CategorySlug string
	Search       string
	Sort         string
}

type ThreadRepository interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateThread(ctx context.Context, categoryID, authorID uint, title, body string) (*models.Thread, error)
	FindThreadByID(ctx context.Context, threadID uint) (*models.Thread, error)
	ListThreads(ctx context.Context, filter ThreadFilter) ([]*models.Thread, error)
	Stats(ctx context.Context, threadID, viewerID uint) (*ThreadStats, error)
	InsertReply(ctx context.Context, threadID, authorID uint, body string) (*models.Reply, error)
	ListReplies(ctx context.Context, threadID uint) ([]*models.Reply, error)
	FindReplyAuthor(ctx context.Context, replyID uint) (uint, error)
	DeleteReply(ctx context.Context, replyID uint) error
	LikeThread(ctx context.Context, threadID, userID uint) (bool, error)
	UnlikeThread(ctx context.Context, threadID, userID uint) error
}

type threadRepository struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, dbError(err, "list categories")
	}
	return categories, nil
}

func (r *threadRepository) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).Take(&category).Error; err != nil {
		return nil, dbError(err, "find category")
	}
	return &category, nil
}

func (r *threadRepository) CreateThread(ctx context.Context, categoryID, authorID uint, title, body string) (*models.Thread, error) {
	thread := models.Thread{CategoryID: categoryID, AuthorUserID: authorID, Title: title, Body: body}
	if err := r.db.WithContext(ctx).Omit("Author", "Category").Create(&thread).Error; err != nil {
		return nil, dbError(err, "create thread")
	}
	return r.FindThreadByID(ctx, thread.ID)
}

func (r *threadRepository) FindThreadByID(ctx context.Context, threadID uint) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.WithContext(ctx).
		Joins("Author").
		Joins("Category").
		Where("threads.id = ?", threadID).
		First(&thread).Error
	if err != nil {
		return nil, dbError(err, "find thread")
	}
	return &thread, nil
}

// ListThreads returns one page of threads with author and category, matching
// the search text against title and body case-insensitively.
func (r *threadRepository) ListThreads(ctx context.Context, filter ThreadFilter) ([]*models.Thread, error) {
	db := r.db.WithContext(ctx)
	q := db.Joins("Author").Joins("Category")

	if filter.CategorySlug != "" {
		q = q.Where("threads.category_id = (?)",
			db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.CategorySlug))
	}
	if filter.Search != "" {
		like := "LIKE"
		if r.db.Dialector.Name() == "postgres" {
			like = "ILIKE"
		}
		pattern := "%" + filter.Search + "%"
		q = q.Where("(threads.title "+like+" ? OR threads.body "+like+" ?)", pattern, pattern)
	}

	if filter.Sort == SortOldest {
		q = q.Order("threads.created_at ASC").Order("threads.id ASC")
	} else {
		q = q.Order("threads.created_at DESC").Order("threads.id DESC")
	}

	var threads []*models.Thread
	err := q.Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&threads).Error
	if err != nil {
		return nil, dbError(err, "list threads")
	}
	return threads, nil
}

func (r *threadRepository) Stats(ctx context.Context, threadID, viewerID uint) (*ThreadStats, error) {
	var stats ThreadStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.ThreadReaction{}).Where("thread_id = ?", threadID).Count(&stats.LikeCount).Error; err != nil {
		return nil, dbError(err, "count likes")
	}
	if err := db.Model(&models.Reply{}).Where("thread_id = ?", threadID).Count(&stats.ReplyCount).Error; err != nil {
		return nil, dbError(err, "count replies")
	}
	if viewerID != 0 {
		var n int64
		if err := db.Model(&models.ThreadReaction{}).Where("thread_id = ? AND user_id = ?", threadID, viewerID).Count(&n).Error; err != nil {
			return nil, dbError(err, "viewer like")
		}
		stats.ViewerHasLiked = n > 0
	}
	return &stats, nil
}

func (r *threadRepository) InsertReply(ctx context.Context, threadID, authorID uint, body string) (*models.Reply, error) {
	reply := models.Reply{ThreadID: threadID, AuthorUserID: authorID, Body: body}
	if err := r.db.WithContext(ctx).Omit("Author").Create(&reply).Error; err != nil {
		return nil, dbError(err, "insert reply")
	}

	var full models.Reply
	err := r.db.WithContext(ctx).
		Joins("Author").
		Where("replies.id = ?", reply.ID).
		First(&full).Error
	if err != nil {
		return nil, dbError(err, "reload reply")
	}
	return &full, nil
}

func (r *threadRepository) ListReplies(ctx context.Context, threadID uint) ([]*models.Reply, error) {
	var replies []*models.Reply
	err := r.db.WithContext(ctx).
		Joins("Author").
		Where("replies.thread_id = ?", threadID).
		Order("replies.created_at ASC").
		Order("replies.id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, dbError(err, "list replies")
	}
	return replies, nil
}

func (r *threadRepository) FindReplyAuthor(ctx context.Context, replyID uint) (uint, error) {
	var reply models.Reply
	err := r.db.WithContext(ctx).
		Select("id", "author_user_id").
		Where("id = ?", replyID).
		Take(&reply).Error
	if err != nil {
		return 0, dbError(err, "find reply author")
	}
	return reply.AuthorUserID, nil
}

func (r *threadRepository) DeleteReply(ctx context.Context, replyID uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Reply{}, "id = ?", replyID).Error; err != nil {
		return dbError(err, "delete reply")
	}
	return nil
}

// LikeThread is idempotent: a second like by the same user is ignored and
// reports created=false.
func (r *threadRepository) LikeThread(ctx context.Context, threadID, userID uint) (bool, error) {
	reaction := models.ThreadReaction{ThreadID: threadID, UserID: userID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&reaction)
	if res.Error != nil {
		return false, dbError(res.Error, "like thread")
	}
	return res.RowsAffected > 0, nil
}

func (r *threadRepository) UnlikeThread(ctx context.Context, threadID, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("thread_id = ? AND user_id = ?", threadID, userID).
		Delete(&models.ThreadReaction{}).Error
	if err != nil {
		return dbError(err, "unlike thread")
	}
	return nil
}
