package conversation

import (
	"strings"
)

// Kind discriminates events.
type Kind int

const (
	KindText Kind = iota + 1
	KindButton
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindButton:
		return "button"
	}
	return "unknown"
}

// ResetCommand is the reset signal.
const ResetCommand = "/start"

// Event is one inbound user action.
type Event struct {
	Kind   Kind
	ChatID int64
	UserID int64
	// DisplayName is the sender's name used for customer records.
	DisplayName string

	// Text is set for text events.
	Text string

	// Payload, MessageID, Caption and Keyboard describe a button press and the
	// message the button was attached to.
	Payload   Payload
	MessageID int
	Caption   string
	Keyboard  Keyboard
}

// ReplyToken is the normalised input: the text, or the payload token.
func (e Event) ReplyToken() string {
	switch e.Kind {
	case KindText:
		return strings.TrimSpace(e.Text)
	case KindButton:
		if e.Payload != nil {
			return e.Payload.String()
		}
	}
	return ""
}

// IsReset reports whether e is the reset signal: /start, optionally with a
// @botname suffix or arguments.
func (e Event) IsReset() bool {
	if e.Kind != KindText {
		return false
	}
	cmd, _, _ := strings.Cut(strings.TrimSpace(e.Text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.EqualFold(cmd, ResetCommand)
}

// Button is an inline button carrying a payload.
type Button struct {
	Text    string
	Payload Payload
}

// Keyboard is an inline keyboard, one slice per row.
type Keyboard [][]Button

// Empty reports whether the keyboard has no buttons.
func (k Keyboard) Empty() bool {
	for _, row := range k {
		if len(row) > 0 {
			return false
		}
	}
	return true
}
