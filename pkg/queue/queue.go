// Package queue runs background jobs with bounded retries.
//
//	q := queue.New(queue.NewMemoryDriver(1000), queue.Options{MaxRetry: 3})
//	q.Register("send_mail", func() queue.Job { return &jobs.SendMail{Mailer: m} })
//	q.Start(ctx, 2)
//	err := q.Dispatch(ctx, &jobs.SendMail{Message: msg})
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

// Job is a unit of background work. Jobs travel through the driver as
// JSON, so exported fields are the payload.
type Job interface {
	// Type names the job; it must match the name passed to Register.
	Type() string
	Handle(ctx context.Context) error
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is available. A nil payload with nil
	// error means the wait timed out.
	Pop(ctx context.Context) ([]byte, error)
}

// FailedJob describes a job that exhausted its retries.
type FailedJob struct {
	Type     string
	Payload  json.RawMessage
	Err      error
	FailedAt time.Time
	Attempts int
}

// Options configures a Manager.
type Options struct {
	// MaxRetry is the number of attempts per job (default 3).
	MaxRetry int
	// Backoff is multiplied by the attempt number between retries
	// (default 1s).
	Backoff time.Duration
	// DB, when set, receives failed jobs in farmlink_failed_jobs.
	DB *gorm.DB
	// Observe, when set, is called once per job with "success" or "failed".
	Observe func(jobType, status string, start time.Time)
}

// Manager dispatches and processes jobs.
type Manager struct {
	driver Driver
	opts   Options

	mu       sync.RWMutex
	registry map[string]func() Job
	failed   []FailedJob

	wg sync.WaitGroup
}

// New returns a Manager over driver.
func New(driver Driver, opts Options) *Manager {
	if opts.MaxRetry <= 0 {
		opts.MaxRetry = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Manager{driver: driver, opts: opts, registry: map[string]func() Job{}}
}

// Register makes a job type decodable by name.
func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatch pushes job onto the queue.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job %s: %w", job.Type(), err)
	}
	env, err := json.Marshal(envelope{Type: job.Type(), Payload: payload})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}
	if err := m.driver.Push(ctx, env); err != nil {
		return fmt.Errorf("queue: push %s: %w", job.Type(), err)
	}
	return nil
}

// Start launches n workers that run until ctx is cancelled.
func (m *Manager) Start(ctx context.Context, n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		m.wg.Add(1)
		go m.work(ctx)
	}
	logger.Info("queue: workers started", "count", n)
}

// Wait blocks until every worker has returned.
func (m *Manager) Wait() { m.wg.Wait() }

// FailedJobs returns a snapshot of the failures recorded in memory.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]FailedJob(nil), m.failed...)
}

func (m *Manager) work(ctx context.Context) {
	defer m.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}
		m.process(ctx, raw)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= m.opts.MaxRetry; attempt++ {
		if lastErr = job.Handle(ctx); lastErr == nil {
			logger.Info("queue: job processed", "type", env.Type, "attempt", attempt)
			m.observe(env.Type, "success", start)
			return
		}
		logger.Warn("queue: job failed", "type", env.Type, "attempt", attempt, "error", lastErr)
		if attempt < m.opts.MaxRetry && !sleep(ctx, time.Duration(attempt)*m.opts.Backoff) {
			break
		}
	}

	m.observe(env.Type, "failed", start)
	m.recordFailed(env, lastErr)
	logger.Error("queue: job exhausted retries", "type", env.Type, "error", lastErr)
}

func (m *Manager) observe(jobType, status string, start time.Time) {
	if m.opts.Observe != nil {
		m.opts.Observe(jobType, status, start)
	}
}

// sleep waits d or until ctx ends; it reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
