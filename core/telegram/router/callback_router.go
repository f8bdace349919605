package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	tg "github.com/SergIvo/dvmn-fish-shop-bot/core/telegram"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/callbacks"
)

// CallbackOptions customises CallbackRoute.
type CallbackOptions struct {
	// NotFound overrides the registry's not-found handler.
	NotFound tele.HandlerFunc
	// KeepSpinner leaves the button loading indicator for the handler to clear.
	KeepSpinner bool
}

// CallbackRoute dispatches button presses by their unique. Data without a
// registered unique (legacy buttons, foreign payloads) goes to the not-found
// handler.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	return tg.Route{Endpoint: tele.OnCallback, Handler: func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		if !opts.KeepSpinner {
			_ = c.Respond()
		}

		key, payload := callbacks.ParseCallbackData(cb)
		extras := []slog.Attr{slog.String("cb_key", logger.SanitizeLimit(key, 64))}
		h, ok := reg.Callback(key)
		if !ok || h == nil {
			h = opts.NotFound
			if h == nil {
				h = reg.CallbackNotFound()
			}
			extras = append(extras,
				slog.String("reason", "not_found"),
				slog.String("payload", logger.SanitizeLimit(payload, 64)),
			)
		}
		if h == nil {
			h = func(tele.Context) error { return nil }
		}
		return observe(c, handlerName("callback", key), h, extras...)
	}}
}
