package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/farmlink/app/jobs"
	"github.com/shashiranjanraj/farmlink/app/models"
	"github.com/shashiranjanraj/farmlink/pkg/event"
	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

// Publisher broadcasts to live-feed subscribers.
type Publisher interface {
	Publish(eventType string, data any)
}

// ProductFeedItem is the live-feed frame for a new product.
type ProductFeedItem struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	FarmerID uint            `json:"farmer_id"`
}

// OrderFeedItem is the live-feed frame for a placed order.
type OrderFeedItem struct {
	Reference string          `json:"reference"`
	Items     int             `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

// Feeds publishes to several feeds at once.
type Feeds []Publisher

func (f Feeds) Publish(eventType string, data any) {
	for _, p := range f {
		p.Publish(eventType, data)
	}
}

// Listen wires the domain events to mail jobs and the live feed.
func Listen(bus *event.Bus, queue Dispatcher, feed Publisher, adminEmail string) {
	bus.Listen(EventUserRegistered, func(ctx context.Context, payload any) {
		u, ok := payload.(*models.User)
		if !ok {
			return
		}
		dispatch(ctx, queue, jobs.NewSendMail([]string{u.Email}, "Welcome to FarmLink",
			fmt.Sprintf("Hello %s,\n\nYour %s account is ready. You can now log in.", u.Username, u.Role)))
	})

	bus.Listen(EventProductCreated, func(_ context.Context, payload any) {
		p, ok := payload.(*models.Product)
		if !ok || feed == nil {
			return
		}
		feed.Publish(EventProductCreated, ProductFeedItem{ID: p.ID, Name: p.Name, Price: p.Price, FarmerID: p.FarmerID})
	})

	bus.Listen(EventOrderPlaced, func(ctx context.Context, payload any) {
		o, ok := payload.(*models.Order)
		if !ok {
			return
		}
		if feed != nil {
			feed.Publish(EventOrderPlaced, OrderFeedItem{Reference: o.Reference, Items: len(o.Items), Total: o.TotalPrice})
		}
		if adminEmail != "" {
			dispatch(ctx, queue, jobs.NewSendMail([]string{adminEmail}, "New order "+o.Reference,
				fmt.Sprintf("Order %s was placed with %d item(s), total %s.", o.Reference, len(o.Items), o.TotalPrice.StringFixed(2))))
		}
	})
}

func dispatch(ctx context.Context, queue Dispatcher, job *jobs.SendMail) {
	if queue == nil {
		return
	}
	if err := queue.Dispatch(ctx, job); err != nil {
		logger.WithCtx(ctx).Error("mail not queued", "subject", job.Subject, "error", err)
	}
}
