// Package repositories is the data access layer. Repositories return raw
// gorm errors; services classify them.
package repositories

import "gorm.io/gorm"

// Set bundles every repository over one connection or transaction.
type Set struct {
	Users     *UserRepository
	Profiles  *ProfileRepository
	Products  *ProductRepository
	Orders    *OrderRepository
	Feedbacks *FeedbackRepository
}

// NewSet builds all repositories over db.
func NewSet(db *gorm.DB) *Set {
	return &Set{
		Users:     NewUserRepository(db),
		Profiles:  NewProfileRepository(db),
		Products:  NewProductRepository(db),
		Orders:    NewOrderRepository(db),
		Feedbacks: NewFeedbackRepository(db),
	}
}
