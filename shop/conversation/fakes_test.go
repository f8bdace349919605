package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/state"
	"github.com/SergIvo/dvmn-fish-shop-bot/shop/commerce"
)

type sentMessage struct {
	Op        string
	ChatID    int64
	MessageID int
	Text      string
	Photo     string
	Keyboard  Keyboard
}

type fakeTransport struct {
	mu      sync.Mutex
	sent    []sentMessage
	nextID  int
	failOps map[string]error
}

func (f *fakeTransport) record(m sentMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOps[m.Op]; err != nil {
		return err
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string, kb Keyboard) error {
	return f.record(sentMessage{Op: "text", ChatID: chatID, Text: text, Keyboard: kb})
}

func (f *fakeTransport) SendPhoto(_ context.Context, chatID int64, photoURL, caption string, kb Keyboard) error {
	return f.record(sentMessage{Op: "photo", ChatID: chatID, Photo: photoURL, Text: caption, Keyboard: kb})
}

func (f *fakeTransport) EditCaption(_ context.Context, chatID int64, messageID int, caption string, kb Keyboard) error {
	return f.record(sentMessage{Op: "edit", ChatID: chatID, MessageID: messageID, Text: caption, Keyboard: kb})
}

func (f *fakeTransport) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	return f.record(sentMessage{Op: "delete", ChatID: chatID, MessageID: messageID})
}

func (f *fakeTransport) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeTransport) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Op)
	}
	return out
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

type addCall struct {
	CartID, ProductID string
	Qty               int
}

type fakeGateway struct {
	mu        sync.Mutex
	products  []commerce.Product
	prices    map[string]int64
	images    map[string]string
	carts     map[string][]commerce.LineItem
	adds      []addCall
	customers [][2]string
	seq       int
	err       error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		products: []commerce.Product{
			{ID: "P1", Name: "Salmon", Description: "Fresh salmon", SKU: "SAL", ImageID: "img-1"},
			{ID: "P2", Name: "Trout", Description: "River trout", SKU: "TRO", ImageID: "img-2"},
		},
		prices: map[string]int64{"SAL": 150, "TRO": 100},
		images: map[string]string{"img-1": "https://img/salmon.jpg", "img-2": "https://img/trout.jpg"},
		carts:  map[string][]commerce.LineItem{},
	}
}

func (g *fakeGateway) ListProducts(context.Context) ([]commerce.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return append([]commerce.Product(nil), g.products...), nil
}

func (g *fakeGateway) GetProduct(_ context.Context, id string) (commerce.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.products {
		if p.ID == id {
			return p, nil
		}
	}
	return commerce.Product{}, &commerce.APIError{Status: 404}
}

func (g *fakeGateway) GetPrice(_ context.Context, sku string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.prices[sku]
	if !ok {
		return 0, commerce.ErrPriceNotFound
	}
	return amount, nil
}

func (g *fakeGateway) GetImage(_ context.Context, id string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	href, ok := g.images[id]
	if !ok {
		return "", commerce.ErrNoImage
	}
	return href, nil
}

func (g *fakeGateway) AddToCart(_ context.Context, cartID, productID string, qty int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.adds = append(g.adds, addCall{cartID, productID, qty})
	var name, desc string
	for _, p := range g.products {
		if p.ID == productID {
			name, desc = p.Name, p.Description
		}
	}
	g.seq++
	g.carts[cartID] = append(g.carts[cartID], commerce.LineItem{
		ID:          fmt.Sprintf("item-%d", g.seq),
		ProductID:   productID,
		Name:        name,
		Description: desc,
		UnitPrice:   "$1.50",
		Quantity:    qty,
		LineTotal:   fmt.Sprintf("$%.2f", 1.5*float64(qty)),
	})
	return nil
}

func (g *fakeGateway) GetCart(_ context.Context, cartID string) (commerce.Cart, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	items := append([]commerce.LineItem(nil), g.carts[cartID]...)
	total := 0.0
	for _, it := range items {
		total += 1.5 * float64(it.Quantity)
	}
	return commerce.Cart{Items: items, TotalFormatted: fmt.Sprintf("$%.2f", total)}, nil
}

func (g *fakeGateway) RemoveFromCart(_ context.Context, cartID, itemID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	items := g.carts[cartID]
	for i, it := range items {
		if it.ID == itemID {
			g.carts[cartID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return &commerce.APIError{Status: 404}
}

func (g *fakeGateway) CreateCustomer(_ context.Context, name, email string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.customers = append(g.customers, [2]string{name, email})
	return "cus-1", nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (n *fakeNotifier) Notify(_ context.Context, _ int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return nil
}

// flakyStore wraps a Store with injectable failures.
type flakyStore struct {
	state.Store
	getErr error
	setErr error
}

func (s *flakyStore) Get(ctx context.Context, id int64) (state.Label, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.Store.Get(ctx, id)
}

func (s *flakyStore) Set(ctx context.Context, id int64, label state.Label) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.Store.Set(ctx, id, label)
}

var errBoom = errors.New("boom")
