package tgbinding

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/keyboard"
	"github.com/SergIvo/dvmn-fish-shop-bot/shop/conversation"
)

// toMarkup renders kb. A nil result means no keyboard.
func toMarkup(kb conversation.Keyboard) (*tele.ReplyMarkup, error) {
	if kb.Empty() {
		return nil, nil
	}
	rows := make([][]keyboard.Button, 0, len(kb))
	for _, row := range kb {
		r := make([]keyboard.Button, 0, len(row))
		for _, b := range row {
			unique, parts, err := EncodePayload(b.Payload)
			if err != nil {
				return nil, err
			}
			r = append(r, keyboard.Button{Text: b.Text, Unique: unique, Data: strings.Join(parts, "|")})
		}
		rows = append(rows, r)
	}
	return keyboard.Markup(rows...), nil
}

// fromMarkup decodes the keyboard of a received message.
func fromMarkup(m *tele.ReplyMarkup) conversation.Keyboard {
	if m == nil {
		return nil
	}
	rows := keyboard.Parse(m.InlineKeyboard)
	if len(rows) == 0 {
		return nil
	}
	kb := make(conversation.Keyboard, 0, len(rows))
	for _, row := range rows {
		r := make([]conversation.Button, 0, len(row))
		for _, b := range row {
			var parts []string
			if b.Data != "" || b.Unique == "" {
				parts = strings.Split(b.Data, "|")
			}
			r = append(r, conversation.Button{Text: b.Text, Payload: DecodePayload(b.Unique, parts)})
		}
		kb = append(kb, r)
	}
	return kb
}
