package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/farmlink/pkg/database"
	"github.com/shashiranjanraj/farmlink/pkg/queue"
)

type echoJob struct {
	Val  string `json:"val"`
	seen chan string
}

func (j *echoJob) Type() string { return "echo" }

func (j *echoJob) Handle(context.Context) error {
	j.seen <- j.Val
	return nil
}

type failJob struct {
	calls *atomic.Int32
}

func (j *failJob) Type() string { return "fail" }

func (j *failJob) Handle(context.Context) error {
	j.calls.Add(1)
	return errors.New("always fails")
}

func start(t *testing.T, d queue.Driver, opts queue.Options) *queue.Manager {
	t.Helper()
	q := queue.New(d, opts)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		q.Wait()
	})
	q.Start(ctx, 2)
	return q
}

func TestDispatchAndProcess(t *testing.T) {
	seen := make(chan string, 1)
	q := start(t, queue.NewMemoryDriver(10), queue.Options{})
	q.Register("echo", func() queue.Job { return &echoJob{seen: seen} })

	require.NoError(t, q.Dispatch(context.Background(), &echoJob{Val: "hello"}))

	select {
	case v := <-seen:
		assert.Equal(t, "hello", v)
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestRetriesThenRecordsFailure(t *testing.T) {
	db, err := database.Open("sqlite", "file:failedjobs?mode=memory&cache=shared", database.WithoutPool())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.AutoMigrate(&queue.FailedJobRecord{}))

	var calls atomic.Int32
	q := start(t, queue.NewMemoryDriver(10), queue.Options{MaxRetry: 2, Backoff: time.Millisecond, DB: db})
	q.Register("fail", func() queue.Job { return &failJob{calls: &calls} })

	require.NoError(t, q.Dispatch(context.Background(), &failJob{calls: &calls}))

	require.Eventually(t, func() bool { return len(q.FailedJobs()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())

	failed := q.FailedJobs()[0]
	assert.Equal(t, "fail", failed.Type)
	assert.EqualError(t, failed.Err, "always fails")

	var rows []queue.FailedJobRecord
	require.Eventually(t, func() bool {
		return db.Find(&rows).Error == nil && len(rows) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, rows[0].Attempts)
}

func TestMemoryDriverFull(t *testing.T) {
	d := queue.NewMemoryDriver(1)
	require.NoError(t, d.Push(context.Background(), []byte("a")))
	assert.ErrorIs(t, d.Push(context.Background(), []byte("b")), queue.ErrQueueFull)
	assert.Equal(t, 1, d.Len())
}

func TestRedisDriverFIFO(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	d := queue.NewRedisDriver(rdb)
	ctx := context.Background()
	require.NoError(t, d.Push(ctx, []byte("first")))
	require.NoError(t, d.Push(ctx, []byte("second")))

	n, err := d.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := d.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
	got, err = d.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestRedisDriverEndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	seen := make(chan string, 1)
	q := start(t, queue.NewRedisDriver(rdb), queue.Options{})
	q.Register("echo", func() queue.Job { return &echoJob{seen: seen} })

	require.NoError(t, q.Dispatch(context.Background(), &echoJob{Val: "via redis"}))
	select {
	case v := <-seen:
		assert.Equal(t, "via redis", v)
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}
}
