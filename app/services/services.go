// Package services holds the farmlink business operations. Every service
// is built explicitly with its collaborators and returns *apperr.Error
// values for the presentation boundary to map.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/app/repositories"
	"github.com/shashiranjanraj/farmlink/pkg/apperr"
	"github.com/shashiranjanraj/farmlink/pkg/queue"
)

// Domain events fired on the bus.
const (
	EventUserRegistered = "user.registered"
	EventProductCreated = "product.created"
	EventOrderPlaced    = "order.placed"
)

// Dispatcher queues background jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// Events fires domain events.
type Events interface {
	Fire(ctx context.Context, event string, payload any)
}

type noEvents struct{}

func (noEvents) Fire(context.Context, string, any) {}

func eventsOrNop(e Events) Events {
	if e == nil {
		return noEvents{}
	}
	return e
}

// classify keeps typed errors and wraps everything else as a persistence
// failure for op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *apperr.Error
	if errors.As(err, &e) {
		return e
	}
	return apperr.Persistence(op, err)
}

// notFound maps gorm.ErrRecordNotFound to nf.
func notFound(op string, err error, nf *apperr.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return classify(op, err)
}

// farmerFor returns the farmer profile of userID, or a 403.
func farmerFor(ctx context.Context, profiles *repositories.ProfileRepository, userID uint) (*models.Farmer, error) {
	f, err := profiles.FarmerByUserID(ctx, userID)
	if err != nil {
		return nil, notFound("load farmer profile", err, apperr.Forbidden("Only farmers can do that."))
	}
	return f, nil
}

// vendorFor returns the vendor profile of userID, or a 403.
func vendorFor(ctx context.Context, profiles *repositories.ProfileRepository, userID uint) (*models.Vendor, error) {
	v, err := profiles.VendorByUserID(ctx, userID)
	if err != nil {
		return nil, notFound("load vendor profile", err, apperr.Forbidden("Only vendors can do that."))
	}
	return v, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
