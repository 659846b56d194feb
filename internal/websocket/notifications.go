package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"realtime-threads/internal/models"
	"realtime-threads/internal/repository"
)

// Notification trigger outcomes.
const (
	notifyDelivered  = "delivered"
	notifyStored     = "stored"
	notifySuppressed = "suppressed"
	notifySkipped    = "skipped"
	notifyFailed     = "failed"
)

const defaultNotifyTimeout = 10 * time.Second

// NotificationStore persists notifications about thread activity.
type NotificationStore interface {
	GetThreadAuthor(ctx context.Context, threadID uint) (uint, error)
	InsertNotification(ctx context.Context, recipientID, threadID, actorID uint, kind models.NotificationType) (*models.Notification, error)
	GetNotificationByID(ctx context.Context, id uint) (*models.Notification, error)
}

// Dispatcher turns reply and like writes into stored notifications and
// pushes them to the thread author's live connections.
type Dispatcher struct {
	store    NotificationStore
	router   *Router
	activity ActivitySink
	metrics  *Metrics
	timeout  time.Duration

	wg sync.WaitGroup
}

func NewDispatcher(store NotificationStore, router *Router, activity ActivitySink, metrics *Metrics, timeout time.Duration) *Dispatcher {
	if activity == nil {
		activity = noopActivity{}
	}
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &Dispatcher{
		store:    store,
		router:   router,
		activity: activity,
		metrics:  metrics,
		timeout:  timeout,
	}
}

func (d *Dispatcher) OnReplyCreated(ctx context.Context, threadID, actorUserID uint) error {
	return d.dispatch(ctx, threadID, actorUserID, models.NotificationReplyOnThread)
}

func (d *Dispatcher) OnLikeCreated(ctx context.Context, threadID, actorUserID uint) error {
	return d.dispatch(ctx, threadID, actorUserID, models.NotificationLikeOnThread)
}

// NotifyReplyCreated runs OnReplyCreated in the background.
func (d *Dispatcher) NotifyReplyCreated(ctx context.Context, threadID, actorUserID uint) {
	d.async(ctx, threadID, actorUserID, models.NotificationReplyOnThread)
}

// NotifyLikeCreated runs OnLikeCreated in the background.
func (d *Dispatcher) NotifyLikeCreated(ctx context.Context, threadID, actorUserID uint) {
	d.async(ctx, threadID, actorUserID, models.NotificationLikeOnThread)
}

// Wait blocks until every background notification has finished.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for notifications: %w", ctx.Err())
	}
}

func (d *Dispatcher) async(ctx context.Context, threadID, actorUserID uint, kind models.NotificationType) {
	// the request that triggered us is usually finished before we are
	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()

		if err := d.dispatch(ctx, threadID, actorUserID, kind); err != nil {
			slog.Error("Failed to dispatch notification", "threadID", threadID, "actorUserID", actorUserID, "type", kind, "error", err)
		}
	}()
}

func (d *Dispatcher) dispatch(ctx context.Context, threadID, actorUserID uint, kind models.NotificationType) error {
	outcome := notifyFailed
	defer func() {
		d.metrics.NotificationsOut.WithLabelValues(string(kind), outcome).Inc()
	}()

	authorID, err := d.store.GetThreadAuthor(ctx, threadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			outcome = notifySkipped
			slog.Debug("Notification skipped, thread not found", "threadID", threadID, "type", kind)
			return nil
		}
		return fmt.Errorf("lookup author of thread %d: %w", threadID, err)
	}
	if authorID == actorUserID {
		outcome = notifySuppressed
		return nil
	}

	inserted, err := d.store.InsertNotification(ctx, authorID, threadID, actorUserID, kind)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	stored, err := d.store.GetNotificationByID(ctx, inserted.ID)
	if err != nil {
		return fmt.Errorf("reload notification %d: %w", inserted.ID, err)
	}

	resp := stored.ToResponse()
	if d.router.Publish(NotificationChannel(authorID), EventNotification, resp) > 0 {
		outcome = notifyDelivered
	} else {
		outcome = notifyStored
	}

	if err := d.activity.NotificationCreated(ctx, authorID, resp); err != nil {
		slog.Warn("Failed to record notification activity", "notificationID", resp.ID, "error", err)
	}
	return nil
}
