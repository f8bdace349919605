package tgbinding

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	tg "github.com/SergIvo/dvmn-fish-shop-bot/core/telegram"
	tghelpers "github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/helpers"
	"github.com/SergIvo/dvmn-fish-shop-bot/shop/conversation"
)

// Engine runs one conversation turn.
type Engine interface {
	Handle(ctx context.Context, ev conversation.Event) conversation.Result
}

// Binding feeds telebot updates to the engine.
type Binding struct {
	engine  Engine
	onFatal func(error)
}

// New builds a Binding. onFatal is called with the error of a turn that
// requires the process to stop.
func New(engine Engine, onFatal func(error)) *Binding {
	return &Binding{engine: engine, onFatal: onFatal}
}

// Dispatch is the telebot handler for every shop update. Turn failures are
// logged here and never returned to telebot.
func (b *Binding) Dispatch(c tele.Context) error {
	ev, ok := DecodeEvent(c)
	if !ok {
		logger.Debug(tghelpers.BuildContext(c), "tg", "update.skip",
			slog.String("reason", "unsupported"),
		)
		return nil
	}

	ctx := tghelpers.BuildContext(c)
	res := b.engine.Handle(ctx, ev)
	conversation.LogResult(ctx, res)
	if res.Fatal() && b.onFatal != nil {
		b.onFatal(res.Err)
	}
	return nil
}

// Register binds the reset command, every shop callback unique and the text
// fallback to Dispatch.
func (b *Binding) Register(reg *tg.Registry) error {
	if err := reg.RegisterCommand(tg.Command{
		Name:        conversation.ResetCommand,
		Handler:     b.Dispatch,
		Description: "Open the catalog",
	}); err != nil {
		return err
	}
	for _, unique := range Uniques {
		if err := reg.RegisterCallback(unique, b.Dispatch); err != nil {
			return err
		}
	}
	// legacy and foreign data still reach the engine, which decides per state
	reg.SetCallbackNotFound(b.Dispatch)
	reg.SetTextFallback(b.Dispatch)
	return nil
}
