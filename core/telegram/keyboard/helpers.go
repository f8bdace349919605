// Package keyboard converts between plain button rows and telebot inline
// keyboards.
package keyboard

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/callbacks"
)

// Button is one inline button. Data holds the '|' joined payload; with an
// empty Unique, Data is sent verbatim.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Markup builds an inline keyboard, skipping empty rows. telebot rewrites
// the markup on send, so it must not be reused.
func Markup(rows ...[]Button) *tele.ReplyMarkup {
	kb := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, tele.InlineButton{Text: b.Text, Unique: b.Unique, Data: b.Data})
		}
		kb = append(kb, line)
	}
	return &tele.ReplyMarkup{InlineKeyboard: kb}
}

// Parse turns a keyboard received from Telegram back into Button rows.
// Buttons without callback data (URL buttons and the like) are dropped.
func Parse(kb [][]tele.InlineButton) [][]Button {
	var rows [][]Button
	for _, line := range kb {
		var row []Button
		for _, b := range line {
			if b.Data == "" {
				continue
			}
			unique, parts := callbacks.Decode(b.Data)
			row = append(row, Button{Text: b.Text, Unique: unique, Data: strings.Join(parts, "|")})
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}
