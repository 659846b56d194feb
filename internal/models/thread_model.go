package models

import (
	"time"
)

// excerptLength is how many characters of the body a thread summary carries.
const excerptLength = 200

/** --------------------ENTITIES-------------------- */
type Category struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Slug        string  `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string  `gorm:"not null" json:"name"`
	Description *string `json:"description"`
}

type Thread struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CategoryID   uint      `gorm:"not null;index" json:"categoryId"`
	AuthorUserID uint      `gorm:"not null;index" json:"authorUserId"`
	Title        string    `gorm:"not null" json:"title"`
	Body         string    `gorm:"not null" json:"body"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Category Category `gorm:"foreignKey:CategoryID;references:ID" json:"-"`
	Author   User     `gorm:"foreignKey:AuthorUserID;references:ID" json:"-"`
}

type Reply struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ThreadID     uint      `gorm:"not null;index" json:"threadId"`
	AuthorUserID uint      `gorm:"not null" json:"authorUserId"`
	Body         string    `gorm:"not null" json:"body"`
	CreatedAt    time.Time `json:"createdAt"`

	Author User `gorm:"foreignKey:AuthorUserID;references:ID" json:"-"`
}

// ThreadReaction is a like; at most one per (thread, user).
type ThreadReaction struct {
	ThreadID  uint      `gorm:"primaryKey" json:"threadId"`
	UserID    uint      `gorm:"primaryKey" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

/** -------------------- DTOs -------------------- */
// Request
type CreateThreadRequest struct {
	Title        string `json:"title" binding:"required,min=5,max=200"`
	Body         string `json:"body" binding:"required,min=10,max=5000"`
	CategorySlug string `json:"categorySlug" binding:"required"`
}

type CreateReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

// Response
type AuthorSummary struct {
	DisplayName *string `json:"displayName"`
	Handle      *string `json:"handle"`
}

type CategoryResponse struct {
	ID          uint    `json:"id"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type CategorySummary struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type ThreadResponse struct {
	ID        uint            `json:"id"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Category  CategorySummary `json:"category"`
	Author    AuthorSummary   `json:"author"`
}

// ThreadSummaryResponse is a thread list entry.
type ThreadSummaryResponse struct {
	ID        uint            `json:"id"`
	Title     string          `json:"title"`
	Excerpt   string          `json:"excerpt"`
	CreatedAt time.Time       `json:"createdAt"`
	Category  CategorySummary `json:"category"`
	Author    AuthorSummary   `json:"author"`
}

type ThreadStatsResponse struct {
	ThreadResponse
	LikeCount      int64 `json:"likeCount"`
	ReplyCount     int64 `json:"replyCount"`
	ViewerHasLiked bool  `json:"viewerHasLiked"`
}

type ReplyResponse struct {
	ID        uint          `json:"id"`
	Body      string        `json:"body"`
	CreatedAt time.Time     `json:"createdAt"`
	Author    AuthorSummary `json:"author"`
}

func (t *Thread) ToResponse() ThreadResponse {
	return ThreadResponse{
		ID:        t.ID,
		Title:     t.Title,
		Body:      t.Body,
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
		Category:  t.Category.Summary(),
		Author:    AuthorSummary{DisplayName: t.Author.DisplayName, Handle: t.Author.Handle},
	}
}

func (t *Thread) ToSummary() ThreadSummaryResponse {
	return ThreadSummaryResponse{
		ID:        t.ID,
		Title:     t.Title,
		Excerpt:   excerpt(t.Body),
		CreatedAt: t.CreatedAt.UTC(),
		Category:  t.Category.Summary(),
		Author:    AuthorSummary{DisplayName: t.Author.DisplayName, Handle: t.Author.Handle},
	}
}

func (c *Category) ToResponse() CategoryResponse {
	return CategoryResponse{ID: c.ID, Slug: c.Slug, Name: c.Name, Description: c.Description}
}

func (c *Category) Summary() CategorySummary {
	return CategorySummary{Slug: c.Slug, Name: c.Name}
}

func excerpt(body string) string {
	runes := []rune(body)
	if len(runes) <= excerptLength {
		return body
	}
	return string(runes[:excerptLength])
}

func (r *Reply) ToResponse() ReplyResponse {
	return ReplyResponse{
		ID:        r.ID,
		Body:      r.Body,
		CreatedAt: r.CreatedAt.UTC(),
		Author:    AuthorSummary{DisplayName: r.Author.DisplayName, Handle: r.Author.Handle},
	}
}
