package telegram

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	tgsender "github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/sender"
)

// telegramTextLimit is the maximum message length accepted by sendMessage.
const telegramTextLimit = 4096

// AlertSink forwards ERROR log lines to a Telegram chat through the dispatcher.
type AlertSink struct {
	bot        tele.API
	dispatcher *tgsender.Dispatcher
	chat       tele.ChatID
}

// NewAlertSink builds a sink delivering to chatID.
func NewAlertSink(bot tele.API, dispatcher *tgsender.Dispatcher, chatID int64) *AlertSink {
	return &AlertSink{bot: bot, dispatcher: dispatcher, chat: tele.ChatID(chatID)}
}

// Forward matches logger.AlertFunc. It never blocks the logging caller.
func (s *AlertSink) Forward(component string, line []byte) {
	text := logger.SanitizeLimit(string(line), telegramTextLimit)
	err := s.dispatcher.Enqueue(context.Background(), "alert", "sendMessage", func(context.Context) error {
		_, err := s.bot.Send(s.chat, text, &tele.SendOptions{DisableWebPagePreview: true})
		return err
	})
	if err != nil {
		logger.Warn(context.Background(), "tg.alert", "alert.dropped",
			slog.String("source", component),
			slog.String("err", err.Error()),
		)
	}
}
