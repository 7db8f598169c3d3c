package schedule_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/farmlink/pkg/schedule"
)

func TestTasksRunUntilCancelled(t *testing.T) {
	s := schedule.New()
	var n atomic.Int64
	s.Every("tick", 5*time.Millisecond, func() { n.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "tick", list[0].Name)
	assert.Equal(t, 5*time.Millisecond, list[0].Interval)
}

func TestPanickingTaskKeepsRunning(t *testing.T) {
	s := schedule.New()
	var n atomic.Int64
	s.Every("boom", 5*time.Millisecond, func() {
		n.Add(1)
		panic("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	require.Eventually(t, func() bool { return n.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestSlowTaskDoesNotOverlap(t *testing.T) {
	s := schedule.New()
	var active, maxActive atomic.Int64
	s.Every("slow", 2*time.Millisecond, func() {
		cur := active.Add(1)
		if cur > maxActive.Load() {
			maxActive.Store(cur)
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(80 * time.Millisecond)
	cancel()
	s.Wait()
	assert.Equal(t, int64(1), maxActive.Load())
}

func TestRegistrationRules(t *testing.T) {
	s := schedule.New()
	assert.Panics(t, func() { s.Every("zero", 0, func() {}) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	assert.Panics(t, func() { s.Every("late", time.Second, func() {}) })
}
