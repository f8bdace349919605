package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	tghelpers "github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/helpers"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/netutil"
)

// observe runs fn with the handler tagged on the update context and logs one
// "handler.handled" line: debug on success, warn on error.
func observe(c tele.Context, name string, fn tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)
	err := fn(c)

	level := slog.LevelDebug
	attrs := append([]slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	}, extras...)
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
	return err
}

// handlerName builds "kind.key" with key lowercased, unslashed and
// underscored.
func handlerName(kind, key string) string {
	key = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(key), "/"))
	if key == "" {
		key = "unknown"
	}
	return kind + "." + strings.Join(strings.Fields(key), "_")
}

// errorCode prefers an explicit Code() anywhere in the chain, then the
// transport classification, then the concrete type name.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return upperSnake(code)
		}
	}
	if kind := netutil.Classify(err); kind != netutil.KindUnknown {
		return upperSnake(string(kind))
	}
	name := fmt.Sprintf("%T", err)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return upperSnake(strings.TrimLeft(name, "*"))
}

func upperSnake(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), "_"))
}
