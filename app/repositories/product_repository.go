package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/pkg/orm"
)

// ProductRepository handles product listings and stock.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Omit("Farmer").Create(p).Error
}

// FindByID returns the product with its farmer.
func (r *ProductRepository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := orm.New(ctx, r.db).Model(&models.Product{}).Preload("Farmer").Where("id = ?", id).First(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByIDs returns the products among ids, keyed by id.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

// Paginate lists products system-wide, newest first.
func (r *ProductRepository) Paginate(ctx context.Context, page, perPage int) ([]models.Product, orm.Page, error) {
	var products []models.Product
	meta, err := orm.New(ctx, r.db).
		Model(&models.Product{}).
		Preload("Farmer").
		Order("date_added DESC, id DESC").
		Paginate(page, perPage, &products)
	return products, meta, err
}

// ListByFarmer returns a farmer's products, newest first.
func (r *ProductRepository) ListByFarmer(ctx context.Context, farmerID uint) ([]models.Product, error) {
	var products []models.Product
	err := orm.New(ctx, r.db).
		Model(&models.Product{}).
		Where("farmer_id = ?", farmerID).
		Order("date_added DESC, id DESC").
		Get(&products)
	return products, err
}

// CountByFarmer returns how many products a farmer lists.
func (r *ProductRepository) CountByFarmer(ctx context.Context, farmerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("farmer_id = ?", farmerID).Count(&n).Error
	return n, err
}

// DecrementStock takes qty units when at least qty are available. It
// reports false, with no change, when stock is short.
func (r *ProductRepository) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity_available >= ?", id, qty).
		UpdateColumn("quantity_available", gorm.Expr("quantity_available - ?", qty))
	return res.RowsAffected == 1, res.Error
}

// RestoreStock returns qty units to a product.
func (r *ProductRepository) RestoreStock(ctx context.Context, id uint, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("quantity_available", gorm.Expr("quantity_available + ?", qty)).Error
}

// UpdatePrice changes the listed price. Existing order items keep theirs.
func (r *ProductRepository) UpdatePrice(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Model(p).UpdateColumn("price", p.Price).Error
}
