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

// ProfileService reads and edits the role profiles.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// Profile returns the user with the profile of their role.
func (s *ProfileService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	u, err := repositories.NewUserRepository(s.db).FindByID(ctx, userID)
	if err != nil {
		return nil, notFound("find user", err, apperr.Unauthenticated("Please log in to access this page."))
	}
	return u, nil
}

func (s *ProfileService) FarmerProfile(ctx context.Context, userID uint) (*models.Farmer, error) {
	return farmerFor(ctx, repositories.NewProfileRepository(s.db), userID)
}

// UpdateFarmerProfile overwrites farm name and location in place.
func (s *ProfileService) UpdateFarmerProfile(ctx context.Context, userID uint, req requests.FarmerProfileRequest) (*models.Farmer, error) {
	profiles := repositories.NewProfileRepository(s.db)
	f, err := farmerFor(ctx, profiles, userID)
	if err != nil {
		return nil, err
	}
	f.FarmName, f.Location = req.FarmName, req.Location
	if err := profiles.UpdateFarmer(ctx, f); err != nil {
		return nil, classify("update farmer profile", err)
	}
	logger.WithCtx(ctx).Info("farmer profile updated", "farmer_id", f.ID)
	return f, nil
}

func (s *ProfileService) VendorProfile(ctx context.Context, userID uint) (*models.Vendor, error) {
	return vendorFor(ctx, repositories.NewProfileRepository(s.db), userID)
}

// UpdateVendorProfile overwrites full name and shipping address in place.
func (s *ProfileService) UpdateVendorProfile(ctx context.Context, userID uint, req requests.VendorProfileRequest) (*models.Vendor, error) {
	profiles := repositories.NewProfileRepository(s.db)
	v, err := vendorFor(ctx, profiles, userID)
	if err != nil {
		return nil, err
	}
	v.FullName, v.ShippingAddress = req.FullName, req.ShippingAddress
	if err := profiles.UpdateVendor(ctx, v); err != nil {
		return nil, classify("update vendor profile", err)
	}
	logger.WithCtx(ctx).Info("vendor profile updated", "vendor_id", v.ID)
	return v, nil
}
