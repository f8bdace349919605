package tgbinding

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/shop/conversation"
)

// DecodeEvent turns a text message or a callback into an event.
// Other updates report false.
func DecodeEvent(c tele.Context) (conversation.Event, bool) {
	var ev conversation.Event
	if user := c.Sender(); user != nil {
		ev.UserID = user.ID
		ev.DisplayName = displayName(user)
	}

	if cb := c.Callback(); cb != nil {
		ev.Kind = conversation.KindButton
		ev.Payload = decodeCallback(cb)
		if msg := cb.Message; msg != nil {
			ev.MessageID = msg.ID
			ev.Caption = msg.Caption
			ev.Keyboard = fromMarkup(msg.ReplyMarkup)
			if msg.Chat != nil {
				ev.ChatID = msg.Chat.ID
			}
		}
		if ev.ChatID == 0 {
			ev.ChatID = ev.UserID
		}
		return ev, ev.ChatID != 0
	}

	msg := c.Message()
	if msg == nil || msg.Text == "" {
		return ev, false
	}
	ev.Kind = conversation.KindText
	ev.Text = msg.Text
	if msg.Chat != nil {
		ev.ChatID = msg.Chat.ID
	}
	if ev.ChatID == 0 {
		ev.ChatID = ev.UserID
	}
	return ev, ev.ChatID != 0
}

func decodeCallback(cb *tele.Callback) conversation.Payload {
	if cb.Unique != "" {
		// already split by telebot
		return DecodePayload(cb.Unique, splitData(cb.Data))
	}
	return DecodeData(cb.Data)
}

func splitData(data string) []string {
	if data == "" {
		return nil
	}
	return strings.Split(data, "|")
}

func displayName(u *tele.User) string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	}
	return ""
}
