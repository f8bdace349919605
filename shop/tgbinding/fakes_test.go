package tgbinding

import (
	"context"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/SergIvo/dvmn-fish-shop-bot/shop/conversation"
)

type apiCall struct {
	Method  string
	To      string
	What    any
	Caption string
	Opts    []any
}

// fakeAPI implements the Bot API calls the binding uses; any other call panics.
type fakeAPI struct {
	tele.API
	mu    sync.Mutex
	calls []apiCall
	err   error
}

func (f *fakeAPI) record(c apiCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if err := f.record(apiCall{Method: "send", To: to.Recipient(), What: what, Opts: opts}); err != nil {
		return nil, err
	}
	return &tele.Message{ID: 1}, nil
}

func (f *fakeAPI) EditCaption(msg tele.Editable, caption string, opts ...interface{}) (*tele.Message, error) {
	id, chat := msg.MessageSig()
	if err := f.record(apiCall{Method: "edit_caption", To: id, What: chat, Caption: caption, Opts: opts}); err != nil {
		return nil, err
	}
	return &tele.Message{ID: 1}, nil
}

func (f *fakeAPI) Delete(msg tele.Editable) error {
	id, chat := msg.MessageSig()
	return f.record(apiCall{Method: "delete", To: id, What: chat})
}

func (f *fakeAPI) snapshot() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

type fakeEngine struct {
	mu     sync.Mutex
	events []conversation.Event
	result conversation.Result
}

func (f *fakeEngine) Handle(_ context.Context, ev conversation.Event) conversation.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.result
}
