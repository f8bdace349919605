package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Prefix marks callback data produced by telebot's markup.Data buttons.
const Prefix = "\f"

// Decode splits telebot's \f<unique>|<part>|<part> encoding.
// Data without the prefix has no unique and is returned whole as the single part.
func Decode(data string) (string, []string) {
	if !strings.HasPrefix(data, Prefix) {
		if data == "" {
			return "", nil
		}
		return "", []string{data}
	}
	fields := strings.Split(strings.TrimPrefix(data, Prefix), "|")
	unique := strings.TrimSpace(fields[0])
	if len(fields) == 1 {
		return unique, nil
	}
	return unique, fields[1:]
}

// Encode is the inverse of Decode for prefixed data.
func Encode(unique string, parts ...string) string {
	if len(parts) == 0 {
		return Prefix + unique
	}
	return Prefix + unique + "|" + strings.Join(parts, "|")
}

// ParseCallbackData returns the unique and the raw payload after the first '|'.
// Callbacks already routed by telebot carry Unique and a bare payload in Data.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	unique, parts := Decode(cb.Data)
	return unique, strings.Join(parts, "|")
}
