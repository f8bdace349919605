package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestMarkup(t *testing.T) {
	markup := Markup(
		[]Button{{Text: "1 kg", Unique: "add", Data: "1|P1"}, {Text: "5 kg", Unique: "add", Data: "5|P1"}},
		nil,
		[]Button{{Text: "Legacy", Data: "5##P1"}},
	)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "add", markup.InlineKeyboard[0][1].Unique)
	assert.Equal(t, "5|P1", markup.InlineKeyboard[0][1].Data)
	assert.Equal(t, "", markup.InlineKeyboard[1][0].Unique)
	assert.Equal(t, "5##P1", markup.InlineKeyboard[1][0].Data)
}

func TestParse(t *testing.T) {
	received := [][]tele.InlineButton{
		{{Text: "1 kg", Data: "\fadd|1|P1"}, {Text: "Site", URL: "https://example.com"}},
		{{Text: "Cart", Data: "\fcart"}},
		{{Text: "Docs", URL: "https://example.com/docs"}},
		{{Text: "Old", Data: "10##P1"}},
	}
	assert.Equal(t, [][]Button{
		{{Text: "1 kg", Unique: "add", Data: "1|P1"}},
		{{Text: "Cart", Unique: "cart"}},
		{{Text: "Old", Data: "10##P1"}},
	}, Parse(received))
	assert.Nil(t, Parse(nil))
}
