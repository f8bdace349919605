// Package app assembles the fish-shop bot: session store, store API client,
// conversation engine and the Telegram routes feeding it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/bootstrap"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/cmd"
	coreconfig "github.com/SergIvo/dvmn-fish-shop-bot/core/config"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/metrics"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/router"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/sender"
	"github.com/SergIvo/dvmn-fish-shop-bot/shop/commerce"
	"github.com/SergIvo/dvmn-fish-shop-bot/shop/conversation"
	"github.com/SergIvo/dvmn-fish-shop-bot/shop/tgbinding"
)

// ErrFatalTurn is the run error after a turn reported a fatal condition.
var ErrFatalTurn = errors.New("app: fatal conversation error")

// Config carries the core configuration through cmd.Run.
type Config struct {
	core *coreconfig.Config
}

// CoreConfig implements cmd.ConfigCarrier.
func (c Config) CoreConfig() *coreconfig.Config { return c.core }

// LoadConfig reads path (optional) and the environment.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return Config{core: cfg}, nil
}

// App owns the infrastructure shared by every turn.
type App struct {
	cfg     *coreconfig.Config
	infra   *bootstrap.Result
	gateway *commerce.Client
	metrics *metrics.Metrics

	run  func(ctx context.Context, opts telegram.RunOptions) error
	stop context.CancelCauseFunc
}

// Bootstrap is the cmd.Options.Bootstrap hook.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	return New(ctx, carrier.CoreConfig(), bootstrap.Options{})
}

// New runs the bootstrap pipeline and builds the store API client.
func New(ctx context.Context, cfg *coreconfig.Config, opts bootstrap.Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	opts.Config = cfg
	infra, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	gateway, err := commerce.New(cfg.Commerce, &http.Client{Transport: telegram.BuildTransport()})
	if err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	return &App{
		cfg:     cfg,
		infra:   infra,
		gateway: gateway,
		metrics: metrics.New(),
		run:     telegram.RunTelegram,
	}, nil
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	return telegram.RunOptions{
		Config:   a.cfg,
		Registry: telegram.NewRegistry(),
		DispatcherOptions: sender.Options{
			MaxRetries: 2,
			OnFailure: func(string, error) {
				a.metrics.SendFailures.Inc()
			},
		},
		Middlewares: telegram.DefaultMiddlewares(a.cfg, a.metrics),
		BuildRoutes: a.buildRoutes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

// Run implements cmd.Runner. A fatal turn stops the bot and becomes the run error.
func (a *App) Run(ctx context.Context, opts telegram.RunOptions) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	a.stop = cancel
	return a.run(ctx, opts)
}

func (a *App) buildRoutes(rt telegram.Runtime) ([]telegram.Route, error) {
	engine, err := a.newEngine(rt.Bot, rt.Dispatcher)
	if err != nil {
		return nil, err
	}
	if err := tgbinding.New(engine, a.fatal).Register(rt.Registry); err != nil {
		return nil, fmt.Errorf("app: register shop handlers: %w", err)
	}

	routes := router.CommandRoutes(rt.Registry)
	routes = append(routes,
		router.CallbackRoute(rt.Registry, router.CallbackOptions{}),
		router.TextRoute(rt.Registry),
	)
	return routes, nil
}

func (a *App) newEngine(api tele.API, dispatcher *sender.Dispatcher) (*conversation.Engine, error) {
	return conversation.NewEngine(conversation.Options{
		Store:          a.infra.Store,
		Gateway:        a.gateway,
		Transport:      tgbinding.NewTransport(api),
		Notifier:       tgbinding.NewNotifier(api, dispatcher),
		Metrics:        a.metrics,
		SerializeUsers: a.cfg.Conversation.SerializeUsers,
		NotifyFailures: a.cfg.NotifyFailures(),
	})
}

func (a *App) fatal(err error) {
	logger.L.With("component", "app").Error("stopping after fatal turn",
		slog.String("event", "fatal"),
		slog.String("err", err.Error()),
	)
	if a.stop != nil {
		a.stop(fmt.Errorf("%w: %w", ErrFatalTurn, err))
	}
}

func (a *App) onStart(ctx context.Context, _ telegram.Runtime) error {
	listen := a.cfg.Metrics.Listen
	if listen == "" {
		return nil
	}
	go func() {
		if err := a.metrics.Serve(ctx, listen); err != nil {
			logger.L.With("component", "metrics").Error("metrics listener failed",
				slog.String("event", "listen"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

func (a *App) onStop(_ context.Context, rt telegram.Runtime) error {
	if rt.Dispatcher != nil {
		stats := rt.Dispatcher.Stats()
		logger.L.With("component", "app").Info("notice delivery summary",
			slog.String("event", "sender.summary"),
			slog.Uint64("delivered", stats.Delivered),
			slog.Uint64("failed", stats.Failed),
			slog.Uint64("dropped", stats.Dropped),
		)
	}
	if err := a.infra.Close(); err != nil {
		return fmt.Errorf("app: release resources: %w", err)
	}
	return nil
}
