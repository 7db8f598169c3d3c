// Package migration runs and tracks schema migrations.
//
//	r := migration.New(db, migrations.All(), os.Stdout)
//	r.Run()        // farmlink migrate
//	r.Rollback()   // farmlink migrate:rollback
package migration

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

// Migration is implemented by every schema change.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// Named pairs a migration with its timestamp-prefixed name, e.g.
// "20260101000000_create_users_table".
type Named struct {
	Name string
	Migration
}

type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "farmlink_migrations" }

// StatusEntry describes one migration in Status output.
type StatusEntry struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner executes and tracks migrations.
type Runner struct {
	db  *gorm.DB
	set []Named
	out io.Writer
}

// New creates a Runner. Migrations are ordered by name regardless of the
// order given; out receives progress lines and may be io.Discard.
func New(db *gorm.DB, set []Named, out io.Writer) *Runner {
	sorted := append([]Named(nil), set...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, set: sorted, out: out}
}

func (r *Runner) ensureTable() error {
	if err := r.db.AutoMigrate(&record{}); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	return nil
}

func (r *Runner) ran() (map[string]record, error) {
	var rows []record
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	m := make(map[string]record, len(rows))
	for _, rec := range rows {
		m[rec.Name] = rec
	}
	return m, nil
}

// Pending returns the migrations that have not been applied.
func (r *Runner) Pending() ([]Named, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, fmt.Errorf("migration: fetch applied: %w", err)
	}
	var pending []Named
	for _, n := range r.set {
		if _, ok := done[n.Name]; !ok {
			pending = append(pending, n)
		}
	}
	return pending, nil
}

// Run applies every pending migration as one batch and returns how many ran.
func (r *Runner) Run() (int, error) {
	pending, err := r.Pending()
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return 0, nil
	}

	batch, err := r.lastBatch()
	if err != nil {
		return 0, err
	}
	batch++

	for _, n := range pending {
		logger.Info("migration: running", "name", n.Name)
		if err := n.Up(r.db); err != nil {
			return 0, fmt.Errorf("migration: %s up: %w", n.Name, err)
		}
		if err := r.db.Create(&record{Name: n.Name, Batch: batch}).Error; err != nil {
			return 0, fmt.Errorf("migration: record %s: %w", n.Name, err)
		}
		fmt.Fprintf(r.out, "Migrated: %s\n", n.Name)
	}

	logger.Info("migration: done", "ran", len(pending), "batch", batch)
	return len(pending), nil
}

// Rollback reverses the most recent batch and returns how many were undone.
func (r *Runner) Rollback() (int, error) {
	if err := r.ensureTable(); err != nil {
		return 0, err
	}
	batch, err := r.lastBatch()
	if err != nil {
		return 0, err
	}
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return 0, nil
	}

	var rows []record
	if err := r.db.Where("batch = ?", batch).Order("id desc").Find(&rows).Error; err != nil {
		return 0, err
	}

	byName := make(map[string]Migration, len(r.set))
	for _, n := range r.set {
		byName[n.Name] = n.Migration
	}

	for _, rec := range rows {
		m, ok := byName[rec.Name]
		if !ok {
			return 0, fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}
		logger.Info("migration: rolling back", "name", rec.Name)
		if err := m.Down(r.db); err != nil {
			return 0, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.Delete(&rec).Error; err != nil {
			return 0, err
		}
		fmt.Fprintf(r.out, "Rolled back: %s\n", rec.Name)
	}
	return len(rows), nil
}

// Status reports every known migration and writes a table to out.
func (r *Runner) Status() ([]StatusEntry, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}

	entries := make([]StatusEntry, 0, len(r.set))
	fmt.Fprintf(r.out, "%-50s  %-8s  %s\n", "Migration", "Status", "Batch")
	fmt.Fprintln(r.out, strings.Repeat("-", 70))
	for _, n := range r.set {
		e := StatusEntry{Name: n.Name}
		if rec, ok := done[n.Name]; ok {
			e.Ran, e.Batch = true, rec.Batch
			fmt.Fprintf(r.out, "%-50s  %-8s  %d\n", n.Name, "Ran", rec.Batch)
		} else {
			fmt.Fprintf(r.out, "%-50s  %-8s  -\n", n.Name, "Pending")
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *Runner) lastBatch() (int, error) {
	var row struct{ Max int }
	if err := r.db.Model(&record{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&row).Error; err != nil {
		return 0, fmt.Errorf("migration: read batch: %w", err)
	}
	return row.Max, nil
}
