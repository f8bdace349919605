// Package sender delivers best-effort Bot API calls off the update goroutine:
// failure notices to shoppers and ERROR alerts to the operator chat.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the job did not fit into the queue.
	ErrQueueFull = errors.New("telegram sender: queue full")

	botTokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

const component = "tg.sender"

// Options controls the dispatcher. Zero values select the defaults.
type Options struct {
	QueueSize int // 256
	Workers   int // 4
	// MaxRetries is the number of repeats after the first attempt.
	MaxRetries int
	// RetryBackoff grows linearly per attempt; a flood-control answer overrides it.
	RetryBackoff time.Duration // 2s
	// MaxDuration bounds one job including retries.
	MaxDuration time.Duration // 12s
	// OnFailure is called once for every job that was not delivered.
	OnFailure func(action string, err error)
}

// Stats counts finished and rejected jobs since the dispatcher started.
type Stats struct {
	Delivered uint64
	Failed    uint64
	Dropped   uint64
}

// RunFunc performs one delivery attempt. ctx carries the job deadline.
type RunFunc func(ctx context.Context) error

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      RunFunc
	queuedAt time.Time
}

// Dispatcher runs queued jobs on a fixed worker pool.
type Dispatcher struct {
	opts  Options
	queue chan job

	// mu guards closed; Enqueue sends under the read lock so Close never races a send.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	workers   sync.WaitGroup

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	opts.MaxRetries = max(opts.MaxRetries, 0)
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{opts: opts, queue: make(chan job, opts.QueueSize)}
	d.workers.Add(opts.Workers)
	for range opts.Workers {
		go func() {
			defer d.workers.Done()
			for j := range d.queue {
				d.deliver(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run without waiting for it. run may be repeated on
// transient failures. ctx supplies log correlation; its cancellation is ignored.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run RunFunc) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queue <- job{ctx: ctx, action: action, endpoint: endpoint, run: run, queuedAt: time.Now()}:
		return nil
	default:
		d.dropped.Add(1)
		return ErrQueueFull
	}
}

// Stats returns a snapshot of the job counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

// Close rejects new jobs and waits until every queued job has finished.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
		d.workers.Wait()
	})
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempt, err := 0, error(nil)
	for {
		attempt++
		if err = j.run(ctx); err == nil {
			break
		}
		if attempt > d.opts.MaxRetries || !netutil.ShouldRetry(err) {
			break
		}
		wait := d.backoff(attempt, err)
		logger.Debug(j.ctx, component, "send.retry",
			append(j.attrs(), slog.Int("attempt", attempt), slog.Duration("wait", wait), errAttr(err))...,
		)
		if werr := sleep(ctx, wait); werr != nil {
			err = werr
			break
		}
	}

	attrs := append(j.attrs(),
		slog.Int("attempts", attempt),
		slog.Duration("queue_wait", start.Sub(j.queuedAt)),
		slog.Duration("duration", time.Since(start)),
	)
	if err == nil {
		d.delivered.Add(1)
		level := slog.LevelDebug
		if attempt > 1 {
			level = slog.LevelInfo
		}
		logger.LogEvent(j.ctx, logger.Component(component), level, "send.ok", attrs...)
		return
	}

	d.failed.Add(1)
	logger.Error(j.ctx, component, "send.fail",
		append(attrs, errAttr(err), slog.String("err_code", string(netutil.Classify(err))))...,
	)
	if d.opts.OnFailure != nil {
		d.opts.OnFailure(j.action, err)
	}
}

func (d *Dispatcher) backoff(attempt int, err error) time.Duration {
	if wait := netutil.RetryAfter(err); wait > 0 {
		return wait
	}
	return d.opts.RetryBackoff * time.Duration(attempt)
}

func (j job) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errAttr(err error) slog.Attr {
	return slog.String("err", redactToken(err.Error()))
}

// redactToken hides bot tokens that Bot API client errors embed in request URLs.
func redactToken(msg string) string {
	return botTokenRe.ReplaceAllString(msg, "bot<redacted>")
}
