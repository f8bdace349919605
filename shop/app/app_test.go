package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/bootstrap"
	coreconfig "github.com/SergIvo/dvmn-fish-shop-bot/core/config"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/sender"
	"github.com/SergIvo/dvmn-fish-shop-bot/shop/conversation"
)

func testConfig() *coreconfig.Config {
	notify := true
	return &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{Token: "123:abc", RunMode: coreconfig.RunModeLongpoll},
		Session:  coreconfig.SessionConfig{Backend: coreconfig.BackendMemory, OpTimeoutMS: 200},
		Commerce: coreconfig.CommerceConfig{
			APIURL:         "http://127.0.0.1:1/",
			ClientID:       "id",
			ClientSecret:   "secret",
			PriceBookID:    "pb",
			Currency:       "USD",
			TimeoutSeconds: 1,
		},
		Conversation: coreconfig.ConversationConfig{NotifyFailures: &notify},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(context.Background(), testConfig(), bootstrap.Options{
		LoggerInit: func(*coreconfig.Config) error { return nil },
	})
	require.NoError(t, err)
	return a
}

func offlineRuntime(t *testing.T, opts telegram.RunOptions) telegram.Runtime {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Token: "123:abc", Offline: true})
	require.NoError(t, err)
	d := sender.NewDispatcher(opts.DispatcherOptions)
	t.Cleanup(d.Close)
	return telegram.Runtime{Bot: bot, Dispatcher: d, Registry: opts.Registry}
}

func TestNewRejectsBadCommerceConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Commerce.ClientSecret = ""
	_, err := New(context.Background(), cfg, bootstrap.Options{
		LoggerInit: func(*coreconfig.Config) error { return nil },
	})
	assert.ErrorContains(t, err, "client credentials")

	_, err = New(context.Background(), nil, bootstrap.Options{})
	assert.Error(t, err)
}

func TestBuildRoutes(t *testing.T) {
	a := newTestApp(t)
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)

	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "metrics", "logger"}, names)

	routes, err := opts.BuildRoutes(offlineRuntime(t, opts))
	require.NoError(t, err)
	var endpoints []any
	for _, r := range routes {
		endpoints = append(endpoints, r.Endpoint)
	}
	assert.ElementsMatch(t, []any{"/start", tele.OnCallback, tele.OnText}, endpoints)
	assert.Len(t, opts.Registry.Callbacks(), 6)

	require.NoError(t, opts.OnStop(context.Background(), telegram.Runtime{}))
}

func TestFatalTurnStopsRun(t *testing.T) {
	a := newTestApp(t)
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)

	// a label no handler knows makes the next turn fatal
	require.NoError(t, a.infra.Store.Set(context.Background(), 42, "CHECKOUT_V2"))

	a.run = func(ctx context.Context, opts telegram.RunOptions) error {
		if _, err := opts.BuildRoutes(offlineRuntime(t, opts)); err != nil {
			return err
		}
		h, ok := opts.Registry.Callback("cart")
		require.True(t, ok)
		require.NoError(t, h(tele.NewContext(nil, tele.Update{
			ID: 10,
			Callback: &tele.Callback{
				Data:    "\fcart",
				Sender:  &tele.User{ID: 42},
				Message: &tele.Message{ID: 3, Chat: &tele.Chat{ID: 42}},
			},
		})))
		<-ctx.Done()
		return context.Cause(ctx)
	}

	err = a.Run(context.Background(), opts)
	assert.ErrorIs(t, err, ErrFatalTurn)
	assert.ErrorIs(t, err, conversation.ErrConfiguration)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("EP_API_URL", "https://useast.api.elasticpath.com")
	t.Setenv("EP_CLIENT_ID", "id")
	t.Setenv("EP_CLIENT_SECRET", "secret")
	t.Setenv("MOLTIN_PRICE_BOOK_ID", "pb")

	carrier, err := LoadConfig("testdata/missing.yaml")
	require.NoError(t, err)
	cfg := carrier.CoreConfig()
	assert.Equal(t, "https://useast.api.elasticpath.com/", cfg.Commerce.APIURL)
	assert.True(t, cfg.NotifyFailures())
}
