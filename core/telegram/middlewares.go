package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/SergIvo/dvmn-fish-shop-bot/core/config"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/metrics"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/middleware"
)

// DefaultMiddlewares returns the global chain in installation order:
// panic recovery, update counters, the optional per-user rate limit and
// the correlation logger.
func DefaultMiddlewares(cfg *coreconfig.Config, m *metrics.Metrics) []Middleware {
	chain := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "metrics", Use: middleware.UpdateMetricsMiddleware(m)},
	}
	if limit, ok := rateLimit(cfg, m); ok {
		chain = append(chain, Middleware{Name: "rate_limit", Use: middleware.RateLimitMiddleware(limit)})
	}
	return append(chain, Middleware{Name: "logger", Use: middleware.LoggerMiddleware})
}

func rateLimit(cfg *coreconfig.Config, m *metrics.Metrics) (middleware.RateLimitOptions, bool) {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return middleware.RateLimitOptions{}, false
	}
	opts := middleware.RateLimitOptions{
		Interval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		Exclude:  make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates)),
	}
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		opts.Exclude[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
	}
	if m != nil {
		opts.OnLimited = func(tele.Context) error {
			m.RateLimited.Inc()
			return nil
		}
	}
	return opts, true
}
