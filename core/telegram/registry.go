package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
)

// Command is a slash command with its menu entry.
type Command struct {
	// Name is the canonical command, e.g. "/start".
	Name        string
	Handler     tele.HandlerFunc
	Description string
	// Hidden keeps the command out of the Telegram command menu.
	Hidden bool
	// Aliases route to the same handler; the leading slash is optional.
	Aliases []string
}

// Registry holds bot commands, callback handlers keyed by button unique, and
// the fallbacks for unknown callbacks and free text. It is safe for concurrent use.
type Registry struct {
	mu               sync.RWMutex
	commands         map[string]Command
	names            map[string]string // name or alias -> canonical name
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry. Unknown callbacks get a short notice.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		names:     make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "This button is no longer supported."})
		},
	}
}

func slashed(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" && !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return name
}

func reject(event, key, reason string) error {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, event,
		slog.String("key", key),
		slog.String("reason", reason),
	)
	return fmt.Errorf("telegram: %s %q: %s", strings.TrimPrefix(event, "register."), key, reason)
}

// RegisterCommand adds cmd. Names and aliases must be unique across commands.
func (r *Registry) RegisterCommand(cmd Command) error {
	if cmd.Handler == nil || cmd.Description == "" {
		return reject("register.command", cmd.Name, "invalid")
	}
	if !strings.HasPrefix(cmd.Name, "/") {
		return reject("register.command", cmd.Name, "no_slash_prefix")
	}
	cmd.Name = slashed(cmd.Name)
	names := []string{cmd.Name}
	for _, alias := range cmd.Aliases {
		names = append(names, slashed(alias))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, taken := r.names[name]; taken {
			return reject("register.command", name, "duplicate")
		}
	}
	for _, name := range names {
		r.names[name] = cmd.Name
	}
	r.commands[cmd.Name] = cmd
	return nil
}

// Commands returns every command sorted by name.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		list = append(list, cmd)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// MenuCommands lists the visible commands for the Telegram command menu.
func (r *Registry) MenuCommands() []tele.Command {
	var menu []tele.Command
	for _, cmd := range r.Commands() {
		if !cmd.Hidden {
			menu = append(menu, tele.Command{Text: cmd.Name, Description: cmd.Description})
		}
	}
	return menu
}

// LookupCommand resolves message text to a command by name or alias.
// Case, arguments and a @botname suffix are ignored: "/START@shop_bot deep" finds "/start".
func (r *Registry) LookupCommand(text string) (Command, bool) {
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "@")
	name = slashed(name)
	if name == "" {
		return Command{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.names[name]
	if !ok {
		return Command{}, false
	}
	return r.commands[canonical], true
}

// RegisterCallback binds handler to a button unique.
func (r *Registry) RegisterCallback(unique string, handler tele.HandlerFunc) error {
	if unique == "" || handler == nil {
		return reject("register.callback", unique, "invalid")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[unique]; exists {
		return reject("register.callback", unique, "duplicate")
	}
	r.callbacks[unique] = handler
	return nil
}

// Callback returns the handler bound to unique.
func (r *Registry) Callback(unique string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[unique]
	return h, ok
}

// Callbacks returns the registered uniques, sorted.
func (r *Registry) Callbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uniques := make([]string, 0, len(r.callbacks))
	for u := range r.callbacks {
		uniques = append(uniques, u)
	}
	sort.Strings(uniques)
	return uniques
}

// SetCallbackNotFound replaces the handler for callbacks without a registered unique.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the handler for unknown callbacks.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that is not a known command.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

// TextFallback returns the free text handler, nil when unset.
func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// InitBotCommands publishes the visible commands to the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	menu := reg.MenuCommands()
	if len(menu) == 0 {
		return
	}
	if err := bot.SetCommands(menu); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
