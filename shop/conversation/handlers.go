package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// dispatch runs the handler of st. Every State has exactly one case.
func (e *Engine) dispatch(ctx context.Context, st State, ev Event) (State, error) {
	switch st {
	case StateStart:
		return e.handleStart(ctx, ev)
	case StateBrowsing:
		return e.handleBrowsing(ctx, ev)
	case StateViewingItem:
		return e.handleViewingItem(ctx, ev)
	case StateViewingCart:
		return e.handleViewingCart(ctx, ev)
	case StateAwaitingEmail:
		return e.handleAwaitingEmail(ctx, ev)
	}
	return st, fmt.Errorf("%w: no handler for %s", ErrConfiguration, st)
}

func (e *Engine) handleStart(ctx context.Context, ev Event) (State, error) {
	products, err := e.gateway.ListProducts(ctx)
	if err != nil {
		return StateStart, fmt.Errorf("list products: %w", err)
	}
	if err := e.transport.SendText(ctx, ev.ChatID, textWelcome, catalogKeyboard(products)); err != nil {
		return StateStart, fmt.Errorf("send catalog: %w", err)
	}
	return StateBrowsing, nil
}

// handleBrowsing accepts the catalog's own buttons; anything else re-renders the catalog.
func (e *Engine) handleBrowsing(ctx context.Context, ev Event) (State, error) {
	if ev.Kind == KindButton {
		switch p := ev.Payload.(type) {
		case SelectProduct:
			return e.showProduct(ctx, ev, p.ProductID)
		case Legacy:
			return e.showProduct(ctx, ev, p.Token)
		case Global:
			if p.Token == TokenCart {
				return e.showCart(ctx, ev)
			}
		}
	}
	return e.showCatalog(ctx, ev)
}

func (e *Engine) handleViewingItem(ctx context.Context, ev Event) (State, error) {
	if ev.Kind == KindText {
		return e.handleBrowsing(ctx, ev)
	}
	switch p := ev.Payload.(type) {
	case Global:
		switch p.Token {
		case TokenCart:
			return e.showCart(ctx, ev)
		case TokenMenu:
			return e.showCatalog(ctx, ev)
		}
	case AddToCart:
		return e.addToCart(ctx, ev, p)
	case SelectProduct:
		return e.showProduct(ctx, ev, p.ProductID)
	case Legacy:
		return e.showProduct(ctx, ev, p.Token)
	}
	return StateViewingItem, unexpected(StateViewingItem, ev)
}

func (e *Engine) handleViewingCart(ctx context.Context, ev Event) (State, error) {
	if ev.Kind == KindText {
		return e.handleBrowsing(ctx, ev)
	}
	switch p := ev.Payload.(type) {
	case Global:
		switch p.Token {
		case TokenMenu:
			return e.showCatalog(ctx, ev)
		case TokenPay:
			return e.requestEmail(ctx, ev)
		case TokenCart:
			return e.showCart(ctx, ev)
		}
	case RemoveFromCart:
		return e.removeAndShowCart(ctx, ev, p.ItemID)
	case Legacy:
		return e.removeAndShowCart(ctx, ev, p.Token)
	case SelectProduct:
		// a product button on a catalog message still on screen
		return e.showProduct(ctx, ev, p.ProductID)
	}
	return StateViewingCart, unexpected(StateViewingCart, ev)
}

func (e *Engine) handleAwaitingEmail(ctx context.Context, ev Event) (State, error) {
	if ev.Kind == KindText {
		email := strings.TrimSpace(ev.Text)
		if _, err := e.gateway.CreateCustomer(ctx, ev.DisplayName, email); err != nil {
			return StateAwaitingEmail, fmt.Errorf("create customer: %w", err)
		}
		if err := e.transport.SendText(ctx, ev.ChatID, fmt.Sprintf(textPaymentRequest, email), menuKeyboard()); err != nil {
			return StateAwaitingEmail, fmt.Errorf("send confirmation: %w", err)
		}
		return StateBrowsing, nil
	}
	if p, ok := ev.Payload.(Global); ok && p.Token == TokenMenu {
		return e.showCatalog(ctx, ev)
	}
	return e.requestEmail(ctx, ev)
}

func (e *Engine) showCatalog(ctx context.Context, ev Event) (State, error) {
	products, err := e.gateway.ListProducts(ctx)
	if err != nil {
		return StateBrowsing, fmt.Errorf("list products: %w", err)
	}
	if err := e.deleteAttached(ctx, ev); err != nil {
		return StateBrowsing, err
	}
	if err := e.transport.SendText(ctx, ev.ChatID, textChooseProduct, catalogKeyboard(products)); err != nil {
		return StateBrowsing, fmt.Errorf("send catalog: %w", err)
	}
	return StateViewingItem, nil
}

func (e *Engine) showProduct(ctx context.Context, ev Event, productID string) (State, error) {
	product, err := e.gateway.GetProduct(ctx, productID)
	if err != nil {
		return StateViewingItem, fmt.Errorf("get product %s: %w", productID, err)
	}

	var (
		imageURL string
		amount   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		imageURL, err = e.gateway.GetImage(gctx, product.ImageID)
		if err != nil {
			return fmt.Errorf("get image of %s: %w", productID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		amount, err = e.gateway.GetPrice(gctx, product.SKU)
		if err != nil {
			return fmt.Errorf("get price of %s: %w", product.SKU, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return StateViewingItem, err
	}

	if err := e.deleteAttached(ctx, ev); err != nil {
		return StateViewingItem, err
	}
	if err := e.transport.SendPhoto(ctx, ev.ChatID, imageURL, productCaption(product, amount), productKeyboard(productID)); err != nil {
		return StateViewingItem, fmt.Errorf("send product: %w", err)
	}
	return StateViewingItem, nil
}

// addToCart edits the product card in place, keeping its buttons.
func (e *Engine) addToCart(ctx context.Context, ev Event, p AddToCart) (State, error) {
	if err := e.gateway.AddToCart(ctx, cartID(ev), p.ProductID, p.Quantity); err != nil {
		return StateViewingItem, fmt.Errorf("add %s to cart: %w", p.ProductID, err)
	}
	kb := ev.Keyboard
	if kb.Empty() {
		kb = productKeyboard(p.ProductID)
	}
	caption := textAddedToCart
	if ev.Caption != "" {
		caption = ev.Caption + "\n" + textAddedToCart
	}
	if err := e.transport.EditCaption(ctx, ev.ChatID, ev.MessageID, caption, kb); err != nil {
		return StateViewingItem, fmt.Errorf("edit caption: %w", err)
	}
	return StateViewingItem, nil
}

func (e *Engine) removeAndShowCart(ctx context.Context, ev Event, itemID string) (State, error) {
	if err := e.gateway.RemoveFromCart(ctx, cartID(ev), itemID); err != nil {
		return StateViewingCart, fmt.Errorf("remove %s from cart: %w", itemID, err)
	}
	return e.showCart(ctx, ev)
}

func (e *Engine) showCart(ctx context.Context, ev Event) (State, error) {
	cart, err := e.gateway.GetCart(ctx, cartID(ev))
	if err != nil {
		return StateViewingCart, fmt.Errorf("get cart: %w", err)
	}
	if err := e.deleteAttached(ctx, ev); err != nil {
		return StateViewingCart, err
	}
	if err := e.transport.SendText(ctx, ev.ChatID, cartText(cart), cartKeyboard(cart)); err != nil {
		return StateViewingCart, fmt.Errorf("send cart: %w", err)
	}
	return StateViewingCart, nil
}

func (e *Engine) requestEmail(ctx context.Context, ev Event) (State, error) {
	if err := e.transport.SendText(ctx, ev.ChatID, textAskEmail, menuKeyboard()); err != nil {
		return StateAwaitingEmail, fmt.Errorf("send email prompt: %w", err)
	}
	return StateAwaitingEmail, nil
}

// deleteAttached removes the message the pressed button belongs to. Text events have none.
func (e *Engine) deleteAttached(ctx context.Context, ev Event) error {
	if ev.Kind != KindButton || ev.MessageID == 0 {
		return nil
	}
	if err := e.transport.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
		return fmt.Errorf("delete message %d: %w", ev.MessageID, err)
	}
	return nil
}

func cartID(ev Event) string {
	return strconv.FormatInt(ev.ChatID, 10)
}

func unexpected(st State, ev Event) error {
	return fmt.Errorf("%w in %s: %q", ErrUnexpectedInput, st, ev.ReplyToken())
}
