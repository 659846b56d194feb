package repository

import (
	"context"

	"realtime-threads/internal/models"

	"gorm.io/gorm"
)

type ChatRepository interface {
	InsertMessage(ctx context.Context, senderID, recipientID uint, body, imageURL *string) (*models.DirectMessage, error)
	GetMessageByID(ctx context.Context, id uint) (*models.DirectMessage, error)
	FindConversation(ctx context.Context, userID, otherUserID uint, limit int) ([]*models.DirectMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// InsertMessage stores the row and returns it with id and created_at set,
// without sender/recipient metadata; use GetMessageByID for the joined record.
func (r *chatRepository) InsertMessage(ctx context.Context, senderID, recipientID uint, body, imageURL *string) (*models.DirectMessage, error) {
	msg := models.DirectMessage{
		SenderUserID:    senderID,
		RecipientUserID: recipientID,
		Body:            body,
		ImageURL:        imageURL,
	}
	if err := r.db.WithContext(ctx).Omit("Sender", "Recipient").Create(&msg).Error; err != nil {
		return nil, dbError(err, "insert direct message")
	}
	return &msg, nil
}

func (r *chatRepository) GetMessageByID(ctx context.Context, id uint) (*models.DirectMessage, error) {
	var msg models.DirectMessage
	err := r.db.WithContext(ctx).
		Joins("Sender").
		Joins("Recipient").
		Where("direct_messages.id = ?", id).
		First(&msg).Error
	if err != nil {
		return nil, dbError(err, "get direct message")
	}
	return &msg, nil
}

// FindConversation returns the latest limit messages between the two users,
// oldest first.
func (r *chatRepository) FindConversation(ctx context.Context, userID, otherUserID uint, limit int) ([]*models.DirectMessage, error) {
	var msgs []*models.DirectMessage
	err := r.db.WithContext(ctx).
		Joins("Sender").
		Joins("Recipient").
		Where("(direct_messages.sender_user_id = ? AND direct_messages.recipient_user_id = ?) OR (direct_messages.sender_user_id = ? AND direct_messages.recipient_user_id = ?)",
			userID, otherUserID, otherUserID, userID).
		Order("direct_messages.created_at DESC").
		Order("direct_messages.id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, dbError(err, "find conversation")
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
