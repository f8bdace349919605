package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/callbacks"
	tghelpers "github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/helpers"
)

// LoggerMiddleware attaches the update correlation context to c and logs a
// sampled "update.received" line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

// receiptAttrs describes what arrived. Ids come from the context.
func receiptAttrs(c tele.Context) []slog.Attr {
	upd := c.Update()
	attrs := []slog.Attr{slog.String("kind", UpdateKind(upd))}
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
	case upd.Message != nil && upd.Message.Text != "":
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(upd.Message.Text, 256)))
	}
	return attrs
}
