// Package cmd is the shared entry point of bot binaries: it loads the
// configuration, bootstraps the application and runs it until a signal.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/SergIvo/dvmn-fish-shop-bot/core/config"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
	coretelegram "github.com/SergIvo/dvmn-fish-shop-bot/core/telegram"
)

const defaultConfigEnv = "CONFIG_PATH"

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp builds the options for one bot run.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Runner is implemented by apps that wrap the bot run, e.g. to stop it from a handler.
type Runner interface {
	Run(ctx context.Context, opts coretelegram.RunOptions) error
}

// Options wires an application into Run.
type Options struct {
	// ConfigEnvVar names the variable holding the config path; CONFIG_PATH by default.
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	// RunTelegram overrides the run function; by default a Runner app runs itself.
	RunTelegram func(ctx context.Context, opts coretelegram.RunOptions) error
}

// Run loads the configuration, bootstraps the app and serves updates until
// SIGINT or SIGTERM. An empty config path means environment-only config.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return errors.New("cmd: LoadConfig and Bootstrap are required")
	}

	path, source := configPath(opts)
	log.Printf("loading config from %s", source)
	carrier, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if carrier == nil || carrier.CoreConfig() == nil {
		return errors.New("cmd: loaded config is missing core configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer flushLogs(opts.ShutdownLogger)

	started := time.Now()
	app, err := opts.Bootstrap(ctx, carrier)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}
	announce(&runOpts, started)
	return runnerFor(opts, app)(ctx, runOpts)
}

func configPath(opts Options) (path, source string) {
	env := opts.ConfigEnvVar
	if env == "" {
		env = defaultConfigEnv
	}
	if p := os.Getenv(env); p != "" {
		return p, p
	}
	if opts.DefaultConfigPath != "" {
		return opts.DefaultConfigPath, opts.DefaultConfigPath
	}
	return "", "environment (" + env + " not set)"
}

func flushLogs(shutdown func() error) {
	if shutdown == nil {
		shutdown = logger.Shutdown
	}
	if err := shutdown(); err != nil {
		log.Printf("logger shutdown error: %v", err)
	}
}

// announce logs "app.ready" after the app's own OnStart and "app.shutdown"
// before its OnStop.
func announce(opts *coretelegram.RunOptions, started time.Time) {
	onStart, onStop := opts.OnStart, opts.OnStop
	opts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		attrs := []slog.Attr{slog.Duration("startup", logger.Took(started))}
		if rt.Bot != nil && rt.Bot.Me != nil {
			attrs = append(attrs, slog.String("bot", rt.Bot.Me.Username))
		}
		logger.Info(ctx, "app", "app.ready", attrs...)
		return nil
	}
	opts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "app.shutdown")
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
}

func runnerFor(opts Options, app TelegramApp) func(context.Context, coretelegram.RunOptions) error {
	if opts.RunTelegram != nil {
		return opts.RunTelegram
	}
	if r, ok := app.(Runner); ok {
		return r.Run
	}
	return coretelegram.RunTelegram
}
