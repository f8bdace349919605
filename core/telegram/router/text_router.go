package router

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	tg "github.com/SergIvo/dvmn-fish-shop-bot/core/telegram"
)

// TextRoute handles free text. Slash-prefixed text that telebot did not
// match (odd casing, another bot's suffix) is looked up in the registry
// before it reaches the text fallback.
func TextRoute(reg *tg.Registry) tg.Route {
	return tg.Route{Endpoint: tele.OnText, Handler: func(c tele.Context) error {
		if text := strings.TrimSpace(c.Text()); strings.HasPrefix(text, "/") {
			if cmd, ok := reg.LookupCommand(text); ok {
				return observe(c, handlerName("command", cmd.Name), cmd.Handler)
			}
		}
		if fallback := reg.TextFallback(); fallback != nil {
			return observe(c, "text", fallback)
		}
		return nil
	}}
}
