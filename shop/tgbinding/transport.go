package tgbinding

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/shop/conversation"
)

// Transport sends conversation output through the Bot API.
type Transport struct {
	api tele.API
}

// NewTransport wraps api, usually a *tele.Bot.
func NewTransport(api tele.API) *Transport {
	return &Transport{api: api}
}

var _ conversation.Transport = (*Transport)(nil)

func (t *Transport) SendText(ctx context.Context, chatID int64, text string, kb conversation.Keyboard) error {
	opts, err := sendOptions(kb)
	if err != nil {
		return err
	}
	_, err = t.api.Send(tele.ChatID(chatID), text, opts)
	return err
}

func (t *Transport) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb conversation.Keyboard) error {
	opts, err := sendOptions(kb)
	if err != nil {
		return err
	}
	photo := &tele.Photo{File: tele.FromURL(photoURL), Caption: caption}
	_, err = t.api.Send(tele.ChatID(chatID), photo, opts)
	return err
}

func (t *Transport) EditCaption(ctx context.Context, chatID int64, messageID int, caption string, kb conversation.Keyboard) error {
	opts, err := sendOptions(kb)
	if err != nil {
		return err
	}
	_, err = t.api.EditCaption(storedMessage(chatID, messageID), caption, opts)
	return err
}

func (t *Transport) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return t.api.Delete(storedMessage(chatID, messageID))
}

func storedMessage(chatID int64, messageID int) tele.StoredMessage {
	return tele.StoredMessage{ChatID: chatID, MessageID: strconv.Itoa(messageID)}
}

func sendOptions(kb conversation.Keyboard) (*tele.SendOptions, error) {
	markup, err := toMarkup(kb)
	if err != nil {
		return nil, err
	}
	return &tele.SendOptions{ReplyMarkup: markup}, nil
}
