package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	tg "github.com/SergIvo/dvmn-fish-shop-bot/core/telegram"
)

// CommandRoutes returns one route per registered command name and alias.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	var routes []tg.Route
	cmds := reg.Commands()
	for _, cmd := range cmds {
		h := commandHandler(cmd)
		routes = append(routes, tg.Route{Endpoint: cmd.Name, Handler: h})
		for _, alias := range cmd.Aliases {
			routes = append(routes, tg.Route{Endpoint: "/" + trimSlash(alias), Handler: h})
		}
	}
	logger.LogEvent(logger.Background(), logger.TWire, slog.LevelInfo, "routes.commands",
		slog.Int("commands", len(cmds)),
		slog.Int("routes", len(routes)),
		slog.Int("callbacks", len(reg.Callbacks())),
	)
	return routes
}

func commandHandler(cmd tg.Command) tele.HandlerFunc {
	name := handlerName("command", cmd.Name)
	return func(c tele.Context) error {
		return observe(c, name, cmd.Handler)
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}
