package models

import (
	"time"
)

/** --------------------ENTITIES-------------------- */
// User is the local projection of an identity provider account.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExternalID  string    `gorm:"uniqueIndex;not null" json:"externalId"`
	DisplayName *string   `json:"displayName"`
	Handle      *string   `gorm:"uniqueIndex" json:"handle"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatarUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

/** -------------------- DTOs -------------------- */
// Request
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" binding:"omitempty,min=3,max=50"`
	Handle      *string `json:"handle" binding:"omitempty,min=3,max=30"`
	Bio         *string `json:"bio" binding:"omitempty,max=160"`
	AvatarURL   *string `json:"avatarUrl" binding:"omitempty,url"`
}

// Response
type UserProfileResponse struct {
	ID          uint    `json:"id"`
	ExternalID  string  `json:"externalId"`
	DisplayName *string `json:"displayName"`
	Handle      *string `json:"handle"`
	AvatarURL   *string `json:"avatarUrl"`
	Bio         *string `json:"bio"`
}

// ChatUserResponse is a user entry in the chat sidebar.
type ChatUserResponse struct {
	ID          uint    `json:"id"`
	DisplayName *string `json:"displayName"`
	Handle      *string `json:"handle"`
	AvatarURL   *string `json:"avatarUrl"`
}

// UserSummary is the display metadata embedded in realtime payloads.
type UserSummary struct {
	DisplayName *string `json:"displayName"`
	Handle      *string `json:"handle"`
	AvatarURL   *string `json:"avatarUrl"`
}

func (u *User) ToProfileResponse() UserProfileResponse {
	return UserProfileResponse{
		ID:          u.ID,
		ExternalID:  u.ExternalID,
		DisplayName: u.DisplayName,
		Handle:      u.Handle,
		AvatarURL:   u.AvatarURL,
		Bio:         u.Bio,
	}
}

func (u *User) ToChatUserResponse() ChatUserResponse {
	return ChatUserResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Handle:      u.Handle,
		AvatarURL:   u.AvatarURL,
	}
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		DisplayName: u.DisplayName,
		Handle:      u.Handle,
		AvatarURL:   u.AvatarURL,
	}
}
