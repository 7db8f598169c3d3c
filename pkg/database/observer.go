package database

import (
	"time"

	"gorm.io/gorm"
)

// QueryObserver receives the operation name ("create", "query", "update",
// "delete", "row", "raw") and how long the statement took.
type QueryObserver func(operation string, d time.Duration)

const startedKey = "farmlink:started_at"

type observerPlugin struct {
	observe QueryObserver
}

func (p *observerPlugin) Name() string { return "farmlink:observer" }

func (p *observerPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		op := h.op
		if err := h.before("farmlink:before_"+op, func(tx *gorm.DB) {
			tx.InstanceSet(startedKey, time.Now())
		}); err != nil {
			return err
		}
		if err := h.after("farmlink:after_"+op, func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startedKey)
			if !ok {
				return
			}
			if start, ok := v.(time.Time); ok {
				p.observe(op, time.Since(start))
			}
		}); err != nil {
			return err
		}
	}
	return nil
}
