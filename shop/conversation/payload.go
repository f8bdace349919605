package conversation

import (
	"strconv"
)

// Token names a control reachable from several states.
type Token string

const (
	TokenCart Token = "cart"
	TokenMenu Token = "menu"
	TokenPay  Token = "pay"
)

// Payload is the structured content of a button press. It is built once by the
// transport binding; handlers never parse raw callback data.
type Payload interface {
	// String is the reply token used in logs.
	String() string
	isPayload()
}

// SelectProduct opens a product card.
type SelectProduct struct{ ProductID string }

// AddToCart adds Quantity units of a product.
type AddToCart struct {
	ProductID string
	Quantity  int
}

// RemoveFromCart drops one cart line.
type RemoveFromCart struct{ ItemID string }

// Global is a cross-state control.
type Global struct{ Token Token }

// Legacy is a bare identifier from keyboards rendered by earlier deployments.
// Its meaning depends on the state: a product on the item view, a cart line on the cart.
type Legacy struct{ Token string }

// Invalid is callback data that did not decode.
type Invalid struct{ Raw string }

func (p SelectProduct) String() string { return "product:" + p.ProductID }
func (p AddToCart) String() string {
	return "add:" + strconv.Itoa(p.Quantity) + ":" + p.ProductID
}
func (p RemoveFromCart) String() string { return "remove:" + p.ItemID }
func (p Global) String() string         { return string(p.Token) }
func (p Legacy) String() string         { return "legacy:" + p.Token }
func (p Invalid) String() string        { return "invalid:" + p.Raw }

func (SelectProduct) isPayload()  {}
func (AddToCart) isPayload()      {}
func (RemoveFromCart) isPayload() {}
func (Global) isPayload()         {}
func (Legacy) isPayload()         {}
func (Invalid) isPayload()        {}
