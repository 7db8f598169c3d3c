package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
)

// OrderRepository handles orders and their items.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and its Items.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Omit("Vendor", "Items.Product").Create(o).Error
}

// FindByID loads an order with items and their products.
func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Preload("Items.Product").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByVendor returns a vendor's orders, newest first.
func (r *OrderRepository) ListByVendor(ctx context.Context, vendorID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Where("vendor_id = ?", vendorID).
		Order("date_ordered DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// ListForFarmer returns every order holding at least one item of the
// farmer's products, found through order_items joined to products.
func (r *OrderRepository) ListForFarmer(ctx context.Context, farmerID uint) ([]models.Order, error) {
	db := r.db.WithContext(ctx)
	sub := db.Session(&gorm.Session{NewDB: true}).
		Table("order_items").
		Select("order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.farmer_id = ?", farmerID)

	var orders []models.Order
	err := db.
		Preload("Vendor").
		Preload("Items.Product").
		Where("id IN (?)", sub).
		Order("date_ordered DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// HasFarmerItem reports whether the order holds a product of farmerID.
func (r *OrderRepository) HasFarmerItem(ctx context.Context, orderID, farmerID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("order_items").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ? AND products.farmer_id = ?", orderID, farmerID).
		Count(&n).Error
	return n > 0, err
}

// Transition moves an order from one status to another. It reports false
// when the order was no longer in from.
func (r *OrderRepository) Transition(ctx context.Context, id uint, from, to models.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}
