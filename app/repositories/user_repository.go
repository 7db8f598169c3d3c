package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/pkg/orm"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := orm.New(ctx, r.db).Model(&models.User{}).Where("email = ?", email).First(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID looks up a user by primary key, loading both profile slots.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := orm.New(ctx, r.db).
		Model(&models.User{}).
		Preload("Farmer").
		Preload("Vendor").
		Where("id = ?", id).
		First(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameTaken reports whether any user already has username.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

// EmailTaken reports whether any user already has email.
func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *UserRepository) exists(ctx context.Context, cond string, arg any) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where(cond, arg).Count(&n).Error
	return n > 0, err
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Farmer", "Vendor").Create(user).Error
}

// UpdatePassword replaces the stored hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
