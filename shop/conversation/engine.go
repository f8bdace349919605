package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/metrics"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/state"
)

// Status is the outcome of one turn.
type Status string

const (
	// StatusOK: handler ran and its next state was stored.
	StatusOK Status = "ok"
	// StatusReset: the reset signal ran START and the next state was stored.
	StatusReset Status = "reset"
	// StatusExpired: no stored session for a non-reset event; nothing stored.
	StatusExpired Status = "expired"
	// StatusFailed: the session read or the handler failed; stored state unchanged.
	StatusFailed Status = "failed"
	// StatusDesynced: the handler ran but its next state could not be stored.
	StatusDesynced Status = "desynced"
	// StatusFatal: the stored label has no handler. The process must stop.
	StatusFatal Status = "fatal"
)

// Result describes one turn. The caller logs it.
type Result struct {
	ChatID   int64
	Token    string
	From     State
	Next     State
	Status   Status
	Err      error
	Duration time.Duration
}

// Fatal reports whether the process must abort.
func (r Result) Fatal() bool {
	return r.Status == StatusFatal
}

// Options wires an Engine.
type Options struct {
	Store     state.Store
	Gateway   Gateway
	Transport Transport
	// Notifier delivers failure notices; nil disables them.
	Notifier Notifier
	Metrics  *metrics.Metrics
	// SerializeUsers holds a per-chat lock across read, handle and write.
	SerializeUsers bool
	// NotifyFailures sends a generic notice to the user when a turn fails.
	NotifyFailures bool
}

// Engine runs conversation turns. It is safe for concurrent use.
type Engine struct {
	store          state.Store
	gateway        Gateway
	transport      Transport
	notifier       Notifier
	metrics        *metrics.Metrics
	notifyFailures bool
	locks          *keyedMutex
}

// NewEngine validates opts and builds an Engine.
func NewEngine(opts Options) (*Engine, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("conversation: nil session store")
	case opts.Gateway == nil:
		return nil, errors.New("conversation: nil gateway")
	case opts.Transport == nil:
		return nil, errors.New("conversation: nil transport")
	}
	e := &Engine{
		store:          opts.Store,
		gateway:        opts.Gateway,
		transport:      opts.Transport,
		notifier:       opts.Notifier,
		metrics:        opts.Metrics,
		notifyFailures: opts.NotifyFailures,
	}
	if opts.SerializeUsers {
		e.locks = newKeyedMutex()
	}
	return e, nil
}

// Handle runs one turn for ev. A turn is never interrupted by ctx cancellation;
// store and gateway timeouts bound it instead.
func (e *Engine) Handle(ctx context.Context, ev Event) Result {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	if e.locks != nil {
		unlock := e.locks.Lock(ev.ChatID)
		defer unlock()
	}

	res := e.turn(ctx, ev)
	res.ChatID = ev.ChatID
	res.Token = ev.ReplyToken()
	res.Duration = time.Since(start)
	e.metrics.ObserveTurn(res.From.String(), string(res.Status), res.Duration)

	if res.Status == StatusFailed && e.notifyFailures {
		e.notify(ctx, ev.ChatID, textFailure)
	}
	return res
}

func (e *Engine) turn(ctx context.Context, ev Event) Result {
	from, status := StateStart, StatusReset
	if !ev.IsReset() {
		status = StatusOK
		label, err := e.store.Get(ctx, ev.ChatID)
		switch {
		case errors.Is(err, state.ErrNotFound):
			if sendErr := e.transport.SendText(ctx, ev.ChatID, textSessionExpired, nil); sendErr != nil {
				return Result{Status: StatusExpired, Err: errors.Join(ErrSessionExpired, sendErr)}
			}
			return Result{Status: StatusExpired, Err: ErrSessionExpired}
		case err != nil:
			return Result{Status: StatusFailed, Err: fmt.Errorf("read session: %w", err)}
		}
		from, err = ParseState(label)
		if err != nil {
			return Result{Status: StatusFatal, Err: err}
		}
	}

	next, err := e.dispatch(ctx, from, ev)
	if err != nil {
		if errors.Is(err, ErrConfiguration) {
			return Result{From: from, Next: from, Status: StatusFatal, Err: err}
		}
		return Result{From: from, Next: from, Status: StatusFailed, Err: fmt.Errorf("%s: %w", from, err)}
	}

	if err := e.store.Set(ctx, ev.ChatID, next.Label()); err != nil {
		return Result{From: from, Next: next, Status: StatusDesynced, Err: fmt.Errorf("store session: %w", err)}
	}
	return Result{From: from, Next: next, Status: status}
}

func (e *Engine) notify(ctx context.Context, chatID int64, text string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, chatID, text); err != nil {
		logNotifyFailure(ctx, chatID, err)
	}
}
