package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
)

// Rating summarises a farmer's feedback.
type Rating struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// ListByFarmer returns the feedback a farmer received, newest first.
func (r *FeedbackRepository) ListByFarmer(ctx context.Context, farmerID uint) ([]models.Feedback, error) {
	var list []models.Feedback
	err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("date_submitted DESC, id DESC").
		Find(&list).Error
	return list, err
}

// RatingFor averages the farmer's ratings; zero when there are none.
func (r *FeedbackRepository) RatingFor(ctx context.Context, farmerID uint) (Rating, error) {
	var out Rating
	err := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("farmer_id = ?", farmerID).
		Scan(&out).Error
	return out, err
}
