package middleware

import (
	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/config"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/metrics"
)

// UpdateKind classifies an update the way rate limit exclusions name it.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return config.UpdateCallback
	case upd.Message != nil:
		return config.UpdateMessage
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// UpdateMetricsMiddleware counts every update by kind.
func UpdateMetricsMiddleware(m *metrics.Metrics) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if m == nil {
			return next
		}
		return func(c tele.Context) error {
			m.Updates.WithLabelValues(UpdateKind(c.Update())).Inc()
			return next(c)
		}
	}
}
