// Package sse streams server events to clients that cannot open a
// WebSocket, as text/event-stream.
//
//	feed := sse.NewBroker()
//	router.Get("/events/feed", "events.feed", feed.ServeHTTP)
//
//	feed.Publish("product.created", product)
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

const (
	heartbeatEvery = 25 * time.Second
	sendBuffer     = 64
)

// Stream is one open event stream.
type Stream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// Open sets the stream headers and flushes them. The write deadline of the
// server is lifted for the life of the stream.
func Open(w http.ResponseWriter) (*Stream, error) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	_ = rc.SetWriteDeadline(time.Time{})
	if err := rc.Flush(); err != nil {
		return nil, fmt.Errorf("sse: flush: %w", err)
	}
	return &Stream{w: w, rc: rc}, nil
}

// Send writes one named event whose data line is raw.
func (s *Stream) Send(event string, raw []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, raw); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Comment writes a keepalive comment.
func (s *Stream) Comment(msg string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		return err
	}
	return s.rc.Flush()
}

type frame struct {
	event string
	data  []byte
}

// Broker fans published events out to every open stream. Slow streams
// miss frames rather than holding up Publish.
type Broker struct {
	mu      sync.Mutex
	clients map[chan frame]struct{}
}

func NewBroker() *Broker {
	return &Broker{clients: map[chan frame]struct{}{}}
}

// Publish sends an event to all streams. It never blocks.
func (b *Broker) Publish(eventType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Error("sse: encode event", "type", eventType, "error", err)
		return
	}
	f := frame{event: eventType, data: raw}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- f:
		default:
		}
	}
}

// ClientCount returns the number of open streams.
func (b *Broker) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broker) subscribe() chan frame {
	ch := make(chan frame, sendBuffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) unsubscribe(ch chan frame) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
}

// ServeHTTP holds the request open and streams events until the client
// goes away.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stream, err := Open(w)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("sse: stream not supported", "error", err)
		return
	}
	ch := b.subscribe()
	defer b.unsubscribe(ch)

	ticker := time.NewTicker(heartbeatEvery)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case f := <-ch:
			if err := stream.Send(f.event, f.data); err != nil {
				return
			}
		case <-ticker.C:
			if err := stream.Comment("ping"); err != nil {
				return
			}
		}
	}
}
