package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2})
	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, d.Enqueue(context.Background(), "notify", "sendMessage", func(context.Context) error {
			n.Add(1)
			return nil
		}))
	}
	d.Close()
	assert.Equal(t, int32(10), n.Load())
	assert.Equal(t, Stats{Delivered: 10}, d.Stats())
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "notify", "", func(context.Context) error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, Stats{Delivered: 1}, d.Stats())
}

func TestDispatcherReportsPermanentFailure(t *testing.T) {
	var (
		mu     sync.Mutex
		failed []string
	)
	d := NewDispatcher(Options{
		Workers:      1,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		OnFailure: func(action string, _ error) {
			mu.Lock()
			defer mu.Unlock()
			failed = append(failed, action)
		},
	})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "alert", "", func(context.Context) error {
		calls.Add(1)
		return errors.New("chat not found")
	}))
	d.Close()

	assert.Equal(t, int32(1), calls.Load(), "non-transient errors are not retried")
	assert.Equal(t, Stats{Failed: 1}, d.Stats())
	assert.Equal(t, []string{"alert"}, failed)
}

func TestDispatcherJobOutlivesCallerContext(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	var jobErr error
	require.NoError(t, d.Enqueue(ctx, "notify", "", func(jobCtx context.Context) error {
		close(started)
		jobErr = jobCtx.Err()
		return nil
	}))
	cancel()
	d.Close()
	<-started
	assert.NoError(t, jobErr)
}

func TestDispatcherClosed(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	err := d.Enqueue(context.Background(), "notify", "", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.Error(t, d.Enqueue(context.Background(), "notify", "", nil))
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	block := func(context.Context) error { <-release; return nil }

	require.NoError(t, d.Enqueue(context.Background(), "a", "", block))
	var full bool
	for i := 0; i < 3 && !full; i++ {
		full = errors.Is(d.Enqueue(context.Background(), "b", "", block), ErrQueueFull)
	}
	close(release)
	d.Close()
	assert.True(t, full)
	assert.NotZero(t, d.Stats().Dropped)
}

func TestDispatcherStopsRetryingAtDeadline(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 5, RetryBackoff: time.Hour, MaxDuration: 20 * time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "notify", "", func(context.Context) error {
		calls.Add(1)
		return &tele.Error{Code: 502, Description: "Bad Gateway"}
	}))
	d.Close()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, Stats{Failed: 1}, d.Stats())
}

func TestRedactToken(t *testing.T) {
	msg := `Post "https://api.telegram.org/bot123456:AAbb-cc_dd/sendMessage": timeout`
	assert.NotContains(t, redactToken(msg), "AAbb")
	assert.Contains(t, redactToken(msg), "bot<redacted>")
}
