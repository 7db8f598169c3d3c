// Package orm layers small query helpers over *gorm.DB.
package orm

import (
	"context"

	"gorm.io/gorm"
)

// Page describes one slice of a paginated listing.
type Page struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Query is a chainable wrapper; every method returns a new Query.
type Query struct {
	db       *gorm.DB
	preloads []preload
}

type preload struct {
	query string
	args  []any
}

// New starts a query bound to ctx.
func New(ctx context.Context, db *gorm.DB) *Query {
	return &Query{db: db.WithContext(ctx)}
}

func (q *Query) with(db *gorm.DB) *Query {
	return &Query{db: db, preloads: q.preloads}
}

func (q *Query) Model(v any) *Query {
	return q.with(q.db.Model(v))
}

func (q *Query) Where(query any, args ...any) *Query {
	return q.with(q.db.Where(query, args...))
}

func (q *Query) Order(value any) *Query {
	return q.with(q.db.Order(value))
}

// Preload is applied to the row fetch only, never to Paginate's count.
func (q *Query) Preload(query string, args ...any) *Query {
	next := q.with(q.db)
	next.preloads = append(append([]preload(nil), q.preloads...), preload{query: query, args: args})
	return next
}

func (q *Query) Get(dest any) error {
	return q.fetch().Find(dest).Error
}

func (q *Query) First(dest any) error {
	return q.fetch().First(dest).Error
}

func (q *Query) fetch() *gorm.DB {
	db := q.db
	for _, p := range q.preloads {
		db = db.Preload(p.query, p.args...)
	}
	return db
}

// Paginate loads page (1-based) of perPage rows into dest. Pages below 1
// are treated as 1.
func (q *Query) Paginate(page, perPage int, dest any) (Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var total int64
	if err := q.db.Session(&gorm.Session{}).Model(dest).Count(&total).Error; err != nil {
		return Page{}, err
	}

	if err := q.fetch().Offset((page - 1) * perPage).Limit(perPage).Find(dest).Error; err != nil {
		return Page{}, err
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return Page{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}, nil
}
