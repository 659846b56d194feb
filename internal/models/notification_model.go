package models

import (
	"time"
)

// NotificationType tags what happened to the recipient's thread.
type NotificationType string

const (
	NotificationReplyOnThread NotificationType = "REPLY_ON_THREAD"
	NotificationLikeOnThread  NotificationType = "LIKE_ON_THREAD"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationReplyOnThread, NotificationLikeOnThread:
		return true
	default:
		return false
	}
}

/** --------------------ENTITIES-------------------- */
// Notification belongs to UserID (the thread author). ReadAt moves from nil
// to a fixed time exactly once.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;index" json:"userId"`
	ThreadID    uint             `gorm:"not null" json:"threadId"`
	ActorUserID uint             `gorm:"not null" json:"actorUserId"`
	Type        NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	CreatedAt   time.Time        `gorm:"index" json:"createdAt"`
	ReadAt      *time.Time       `json:"readAt"`

	Actor  User   `gorm:"foreignKey:ActorUserID;references:ID" json:"-"`
	Thread Thread `gorm:"foreignKey:ThreadID;references:ID" json:"-"`
}

/** -------------------- DTOs -------------------- */
type NotificationThread struct {
	Title string `json:"title"`
}

// NotificationResponse is the joined record sent on the "notification" event.
type NotificationResponse struct {
	ID        uint               `json:"id"`
	Type      NotificationType   `json:"type"`
	ThreadID  uint               `json:"threadId"`
	CreatedAt time.Time          `json:"createdAt"`
	ReadAt    *time.Time         `json:"readAt"`
	Actor     AuthorSummary      `json:"actor"`
	Thread    NotificationThread `json:"thread"`
}

func (n *Notification) ToResponse() NotificationResponse {
	var readAt *time.Time
	if n.ReadAt != nil {
		t := n.ReadAt.UTC()
		readAt = &t
	}
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		ThreadID:  n.ThreadID,
		CreatedAt: n.CreatedAt.UTC(),
		ReadAt:    readAt,
		Actor:     AuthorSummary{DisplayName: n.Actor.DisplayName, Handle: n.Actor.Handle},
		Thread:    NotificationThread{Title: n.Thread.Title},
	}
}
