package tgbinding

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/sender"
	"github.com/SergIvo/dvmn-fish-shop-bot/shop/conversation"
)

// Notifier queues plain notices on the sender dispatcher.
type Notifier struct {
	api        tele.API
	dispatcher *sender.Dispatcher
}

// NewNotifier builds a Notifier delivering through api.
func NewNotifier(api tele.API, dispatcher *sender.Dispatcher) *Notifier {
	return &Notifier{api: api, dispatcher: dispatcher}
}

var _ conversation.Notifier = (*Notifier)(nil)

// Notify enqueues text for chatID and returns once the job is queued.
func (n *Notifier) Notify(ctx context.Context, chatID int64, text string) error {
	return n.dispatcher.Enqueue(ctx, "notify", "sendMessage", func(context.Context) error {
		_, err := n.api.Send(tele.ChatID(chatID), text)
		return err
	})
}
