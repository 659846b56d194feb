package models

import (
	"time"
)

/** --------------------ENTITIES-------------------- */
// DirectMessage is a persisted one-to-one chat message.
// Body and ImageURL are never both nil.
type DirectMessage struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SenderUserID    uint      `gorm:"not null;index:idx_dm_pair" json:"senderUserId"`
	RecipientUserID uint      `gorm:"not null;index:idx_dm_pair" json:"recipientUserId"`
	Body            *string   `json:"body"`
	ImageURL        *string   `json:"imageUrl"`
	CreatedAt       time.Time `gorm:"index" json:"createdAt"`

	Sender    User `gorm:"foreignKey:SenderUserID;references:ID" json:"-"`
	Recipient User `gorm:"foreignKey:RecipientUserID;references:ID" json:"-"`
}

/** -------------------- DTOs -------------------- */
// DirectMessageResponse is the self-contained message record sent to clients,
// both over the websocket "message" event and the history endpoint.
type DirectMessageResponse struct {
	ID              uint        `json:"id"`
	SenderUserID    uint        `json:"senderUserId"`
	RecipientUserID uint        `json:"recipientUserId"`
	Body            *string     `json:"body"`
	ImageURL        *string     `json:"imageUrl"`
	CreatedAt       time.Time   `json:"createdAt"`
	Sender          UserSummary `json:"sender"`
	Recipient       UserSummary `json:"recipient"`
}

func (m *DirectMessage) ToResponse() DirectMessageResponse {
	return DirectMessageResponse{
		ID:              m.ID,
		SenderUserID:    m.SenderUserID,
		RecipientUserID: m.RecipientUserID,
		Body:            m.Body,
		ImageURL:        m.ImageURL,
		CreatedAt:       m.CreatedAt.UTC(),
		Sender:          m.Sender.Summary(),
		Recipient:       m.Recipient.Summary(),
	}
}
