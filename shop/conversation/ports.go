package conversation

import (
	"context"

	"github.com/SergIvo/dvmn-fish-shop-bot/shop/commerce"
)

// Transport sends and edits chat messages.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb Keyboard) error
	EditCaption(ctx context.Context, chatID int64, messageID int, caption string, kb Keyboard) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Gateway is the catalog and cart backend. The cart id is the chat id.
type Gateway interface {
	ListProducts(ctx context.Context) ([]commerce.Product, error)
	GetProduct(ctx context.Context, id string) (commerce.Product, error)
	GetPrice(ctx context.Context, sku string) (int64, error)
	GetImage(ctx context.Context, imageID string) (string, error)
	AddToCart(ctx context.Context, cartID, productID string, qty int) error
	GetCart(ctx context.Context, cartID string) (commerce.Cart, error)
	RemoveFromCart(ctx context.Context, cartID, itemID string) error
	CreateCustomer(ctx context.Context, name, email string) (string, error)
}

// Notifier delivers best-effort notices outside the turn.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

var _ Gateway = (*commerce.Client)(nil)
