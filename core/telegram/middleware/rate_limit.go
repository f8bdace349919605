package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	tghelpers "github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/helpers"
)

// maxTrackedUsers bounds the limiter table; idle entries are evicted past it.
const maxTrackedUsers = 4096

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates of one user.
	Interval time.Duration
	// Exclude lists update kinds (see UpdateKind) that are never limited.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Now is overridable in tests.
	Now func() time.Time
}

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware drops updates that arrive sooner than Interval after
// the previous accepted update of the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var (
		mu    sync.Mutex
		users = make(map[int64]*userLimiter)
	)
	allow := func(userID int64, ts time.Time) bool {
		mu.Lock()
		defer mu.Unlock()
		u, ok := users[userID]
		if !ok {
			if len(users) >= maxTrackedUsers {
				for id, other := range users {
					if ts.Sub(other.lastSeen) > opts.Interval {
						delete(users, id)
					}
				}
			}
			u = &userLimiter{lim: rate.NewLimiter(rate.Every(opts.Interval), 1)}
			users[userID] = u
		}
		u.lastSeen = ts
		return u.lim.AllowN(ts, 1)
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c.Update())]; skip {
				return next(c)
			}
			if allow(user.ID, now()) {
				return next(c)
			}
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "update.rate_limited",
				slog.String("status", "rate_limited"),
				slog.Duration("interval", opts.Interval),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
