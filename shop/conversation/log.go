package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
)

// LogResult writes the turn summary line. Failures log at WARN, fatal turns at ERROR.
func LogResult(ctx context.Context, r Result) {
	level := slog.LevelInfo
	switch r.Status {
	case StatusFailed, StatusDesynced:
		level = slog.LevelWarn
	case StatusFatal:
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("status", string(r.Status)),
		slog.String("state", r.From.String()),
	}
	if r.Next != 0 {
		attrs = append(attrs, slog.String("next_state", r.Next.String()))
	}
	if r.Token != "" {
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(r.Token, 64)))
	}
	attrs = append(attrs, slog.Duration("duration", r.Duration))
	if r.Err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(r.Err.Error(), 512)),
			slog.String("err_code", errorCode(r.Err)),
		)
	}
	logger.LogEvent(ctx, logger.Conversation, level, "turn", attrs...)
}

func logNotifyFailure(ctx context.Context, chatID int64, err error) {
	logger.LogEvent(ctx, logger.Conversation, slog.LevelWarn, "notify.enqueue",
		slog.String("status", "fail"),
		slog.Int64("chat_id", chatID),
		slog.String("err", err.Error()),
	)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrUnexpectedInput):
		return "unexpected_input"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		return strings.ToLower(c.Code())
	}
	return "internal"
}
