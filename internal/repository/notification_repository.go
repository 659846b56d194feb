package repository

import (
	"context"
	"time"

	"realtime-threads/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	GetThreadAuthor(ctx context.Context, threadID uint) (uint, error)
	InsertNotification(ctx context.Context, recipientID, threadID, actorID uint, kind models.NotificationType) (*models.Notification, error)
	GetNotificationByID(ctx context.Context, id uint) (*models.Notification, error)
	List(ctx context.Context, userID uint, unreadOnly bool) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) (int64, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *notificationRepository) GetThreadAuthor(ctx context.Context, threadID uint) (uint, error) {
	var thread models.Thread
	err := r.db.WithContext(ctx).
		Select("id", "author_user_id").
		Where("id = ?", threadID).
		Take(&thread).Error
	if err != nil {
		return 0, dbError(err, "get thread author")
	}
	return thread.AuthorUserID, nil
}

func (r *notificationRepository) InsertNotification(ctx context.Context, recipientID, threadID, actorID uint, kind models.NotificationType) (*models.Notification, error) {
	n := models.Notification{
		UserID:      recipientID,
		ThreadID:    threadID,
		ActorUserID: actorID,
		Type:        kind,
	}
	if err := r.db.WithContext(ctx).Omit("Actor", "Thread").Create(&n).Error; err != nil {
		return nil, dbError(err, "insert notification")
	}
	return &n, nil
}

func (r *notificationRepository) GetNotificationByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	err := r.joined(ctx).
		Where("notifications.id = ?", id).
		First(&n).Error
	if err != nil {
		return nil, dbError(err, "get notification")
	}
	return &n, nil
}

func (r *notificationRepository) List(ctx context.Context, userID uint, unreadOnly bool) ([]*models.Notification, error) {
	q := r.joined(ctx).Where("notifications.user_id = ?", userID)
	if unreadOnly {
		q = q.Where("notifications.read_at IS NULL")
	}

	var out []*models.Notification
	if err := q.Order("notifications.created_at DESC").Order("notifications.id DESC").Find(&out).Error; err != nil {
		return nil, dbError(err, "list notifications")
	}
	return out, nil
}

// MarkRead sets read_at only if it is still null, so repeated calls keep the
// first timestamp.
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", gorm.Expr("COALESCE(read_at, ?)", r.now()))
	if res.Error != nil {
		return 0, dbError(res.Error, "mark notification read")
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", r.now())
	if res.Error != nil {
		return 0, dbError(res.Error, "mark all notifications read")
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Joins("Actor").Joins("Thread")
}
