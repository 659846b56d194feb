package repository

import (
	"context"
	"time"

	"realtime-threads/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	UpsertByExternalID(ctx context.Context, externalID string, displayName, avatarURL *string) (*models.User, error)
	FindByID(ctx context.Context, userID uint) (*models.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint, updates map[string]interface{}) (*models.User, error)
	ListOthers(ctx context.Context, userID uint) ([]*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// UpsertByExternalID creates the user on first sight. Existing rows only get
// updated_at bumped; profile fields edited locally are kept.
func (r *userRepository) UpsertByExternalID(ctx context.Context, externalID string, displayName, avatarURL *string) (*models.User, error) {
	user := models.User{
		ExternalID:  externalID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": time.Now().UTC()}),
		}).
		Create(&user).Error
	if err != nil {
		return nil, dbError(err, "upsert user")
	}
	return r.FindByExternalID(ctx, externalID)
}

func (r *userRepository) FindByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, dbError(err, "find user")
	}
	return &user, nil
}

func (r *userRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "external_id = ?", externalID).Error; err != nil {
		return nil, dbError(err, "find user by external id")
	}
	return &user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, userID uint, updates map[string]interface{}) (*models.User, error) {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return nil, dbError(res.Error, "update user")
	}
	if res.RowsAffected == 0 {
		return nil, dbError(gorm.ErrRecordNotFound, "update user")
	}
	return r.FindByID(ctx, userID)
}

func (r *userRepository) ListOthers(ctx context.Context, userID uint) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", userID).
		Order("COALESCE(display_name, handle, 'User') ASC").
		Find(&users).Error
	if err != nil {
		return nil, dbError(err, "list users")
	}
	return users, nil
}
