package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
)

// ProfileRepository stores farmer and vendor profiles.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts p, whichever variant it is.
func (r *ProfileRepository) Create(ctx context.Context, p models.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FarmerByUserID returns the farmer profile owned by userID.
func (r *ProfileRepository) FarmerByUserID(ctx context.Context, userID uint) (*models.Farmer, error) {
	var f models.Farmer
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// VendorByUserID returns the vendor profile owned by userID.
func (r *ProfileRepository) VendorByUserID(ctx context.Context, userID uint) (*models.Vendor, error) {
	var v models.Vendor
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// FarmerByID returns a farmer profile with its user.
func (r *ProfileRepository) FarmerByID(ctx context.Context, id uint) (*models.Farmer, error) {
	var f models.Farmer
	if err := r.db.WithContext(ctx).Preload("User").First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFarmer overwrites the editable farmer fields.
func (r *ProfileRepository) UpdateFarmer(ctx context.Context, f *models.Farmer) error {
	return r.db.WithContext(ctx).Model(f).
		Select("farm_name", "location").
		Updates(map[string]any{"farm_name": f.FarmName, "location": f.Location}).Error
}

// UpdateVendor overwrites the editable vendor fields.
func (r *ProfileRepository) UpdateVendor(ctx context.Context, v *models.Vendor) error {
	return r.db.WithContext(ctx).Model(v).
		Select("full_name", "shipping_address").
		Updates(map[string]any{"full_name": v.FullName, "shipping_address": v.ShippingAddress}).Error
}
