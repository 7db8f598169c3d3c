// Package migrations lists the farmlink schema migrations in order.
package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/pkg/migration"
	"github.com/shashiranjanraj/farmlink/pkg/queue"
)

// All returns every migration. migration.New orders them by name.
func All() []migration.Named {
	return []migration.Named{
		{Name: "20260101000000_create_users_table", Migration: table{&models.User{}, "users"}},
		{Name: "20260101000001_create_farmers_table", Migration: table{&models.Farmer{}, "farmers"}},
		{Name: "20260101000002_create_vendors_table", Migration: table{&models.Vendor{}, "vendors"}},
		{Name: "20260101000003_create_products_table", Migration: table{&models.Product{}, "products"}},
		{Name: "20260101000004_create_orders_table", Migration: table{&models.Order{}, "orders"}},
		{Name: "20260101000005_create_order_items_table", Migration: table{&models.OrderItem{}, "order_items"}},
		{Name: "20260101000006_create_feedbacks_table", Migration: table{&models.Feedback{}, "feedbacks"}},
		{Name: "20260101000007_create_failed_jobs_table", Migration: table{&queue.FailedJobRecord{}, "farmlink_failed_jobs"}},
	}
}

// table creates one model's table and drops it on rollback.
type table struct {
	model any
	name  string
}

func (m table) Up(db *gorm.DB) error {
	return db.AutoMigrate(m.model)
}

func (m table) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.name)
}
