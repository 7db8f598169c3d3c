// Package schedule runs housekeeping tasks at fixed intervals.
//
//	s := schedule.New()
//	s.Every("ratelimit.evict", time.Minute, limiter.Evict)
//	s.Start(ctx)
//
// A task never overlaps with itself: a tick that arrives while the
// previous run is still going is skipped.
package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

// Task is one unit of scheduled work.
type Task func()

type entry struct {
	name     string
	interval time.Duration
	task     Task
	running  atomic.Bool
	runs     atomic.Int64
}

// Scheduler owns a set of interval tasks.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	started bool
	wg      sync.WaitGroup
}

func New() *Scheduler { return &Scheduler{} }

// Every registers task to run every interval after Start. Registering
// after Start panics.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) {
	if interval <= 0 {
		panic(fmt.Sprintf("schedule: task %q needs a positive interval", name))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		panic(fmt.Sprintf("schedule: task %q registered after Start", name))
	}
	s.entries = append(s.entries, &entry{name: name, interval: interval, task: task})
}

// Start runs every registered task on its own ticker until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.started = true
	entries := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	for _, e := range entries {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
	logger.Info("schedule: started", "tasks", len(entries))
}

// Wait blocks until every task loop has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.running.CompareAndSwap(false, true) {
				logger.Warn("schedule: skipping overlapping run", "task", e.name)
				continue
			}
			go s.run(e)
		}
	}
}

func (s *Scheduler) run(e *entry) {
	defer func() {
		e.running.Store(false)
		if r := recover(); r != nil {
			logger.Error("schedule: task panicked", "task", e.name, "panic", r)
		}
	}()
	e.task()
	e.runs.Add(1)
}

// Entry describes a registered task.
type Entry struct {
	Name     string
	Interval time.Duration
	Runs     int64
}

// List returns the registered tasks sorted by name.
func (s *Scheduler) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, Entry{Name: e.name, Interval: e.interval, Runs: e.runs.Load()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
