// Package event is a synchronous in-process event dispatcher.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any)

// Bus routes named events to their listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers handler for event.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Fire calls every listener of event in registration order. A panicking
// listener is logged and does not stop the others.
func (b *Bus) Fire(ctx context.Context, event string, payload any) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[event]...)
	b.mu.RUnlock()

	for _, h := range hs {
		b.call(ctx, event, h, payload)
	}
}

func (b *Bus) call(ctx context.Context, event string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", event, "error", fmt.Sprint(r))
		}
	}()
	h(ctx, payload)
}

// Listeners returns how many listeners event has.
func (b *Bus) Listeners(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}
