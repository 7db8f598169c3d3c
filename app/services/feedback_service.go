package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/app/repositories"
	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/pkg/apperr"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

// FeedbackService records vendor ratings of farmers.
type FeedbackService struct {
	db *gorm.DB
}

func NewFeedbackService(db *gorm.DB) *FeedbackService {
	return &FeedbackService{db: db}
}

// Target returns the product a vendor is about to rate.
func (s *FeedbackService) Target(ctx context.Context, userID, productID uint) (*models.Product, error) {
	repos := repositories.NewSet(s.db)
	if _, err := vendorFor(ctx, repos.Profiles, userID); err != nil {
		return nil, err
	}
	p, err := repos.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound("find product", err, apperr.NotFound(MsgProductNotFound))
	}
	return p, nil
}

// Submit stores the vendor's feedback on the product's farmer.
func (s *FeedbackService) Submit(ctx context.Context, userID, productID uint, req requests.FeedbackRequest) (*models.Feedback, error) {
	repos := repositories.NewSet(s.db)
	vendor, err := vendorFor(ctx, repos.Profiles, userID)
	if err != nil {
		return nil, err
	}
	p, err := repos.Products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound("find product", err, apperr.NotFound(MsgProductNotFound))
	}

	pid := p.ID
	fb := &models.Feedback{
		VendorID:  vendor.ID,
		FarmerID:  p.FarmerID,
		ProductID: &pid,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := repos.Feedbacks.Create(ctx, fb); err != nil {
		return nil, classify("create feedback", err)
	}
	logger.WithCtx(ctx).Info("feedback submitted", "vendor_id", vendor.ID, "farmer_id", p.FarmerID, "rating", req.Rating)
	return fb, nil
}
