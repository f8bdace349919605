package conversation

import (
	"fmt"
	"strings"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/state"
)

// State is one conversation position.
type State int

const (
	StateStart State = iota + 1
	StateBrowsing
	StateViewingItem
	StateViewingCart
	StateAwaitingEmail
)

// allStates lists every state; dispatch must cover each of them.
var allStates = []State{StateStart, StateBrowsing, StateViewingItem, StateViewingCart, StateAwaitingEmail}

func (s State) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateBrowsing:
		return "BROWSING"
	case StateViewingItem:
		return "VIEWING_ITEM"
	case StateViewingCart:
		return "VIEWING_CART"
	case StateAwaitingEmail:
		return "AWAITING_EMAIL"
	case 0:
		return "NONE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Label is the persisted form of s.
func (s State) Label() state.Label {
	return state.Label(s.String())
}

// legacyLabels are the labels written by earlier deployments of the bot.
var legacyLabels = map[state.Label]State{
	"HANDLE_MENU":        StateBrowsing,
	"HANDLE_DESCRIPTION": StateViewingItem,
	"HANDLE_CART":        StateViewingCart,
	"WAITING_EMAIL":      StateAwaitingEmail,
}

// ParseState resolves a stored label. A label outside the enumeration is a
// configuration error.
func ParseState(label state.Label) (State, error) {
	normalized := state.Label(strings.ToUpper(strings.TrimSpace(string(label))))
	for _, s := range allStates {
		if s.Label() == normalized {
			return s, nil
		}
	}
	if s, ok := legacyLabels[normalized]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("%w: unknown state label %q", ErrConfiguration, string(label))
}
