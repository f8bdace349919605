package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/format"
	"github.com/SergIvo/dvmn-fish-shop-bot/shop/commerce"
)

func catalogKeyboard(products []commerce.Product) Keyboard {
	kb := make(Keyboard, 0, len(products)+1)
	for _, p := range products {
		kb = append(kb, []Button{{Text: p.Name, Payload: SelectProduct{ProductID: p.ID}}})
	}
	return append(kb, []Button{{Text: buttonCart, Payload: Global{Token: TokenCart}}})
}

func productKeyboard(productID string) Keyboard {
	presets := make([]Button, 0, len(quantityPresets))
	for _, qty := range quantityPresets {
		presets = append(presets, Button{
			Text:    strconv.Itoa(qty) + " kg",
			Payload: AddToCart{ProductID: productID, Quantity: qty},
		})
	}
	return Keyboard{
		presets,
		{
			{Text: buttonBack, Payload: Global{Token: TokenMenu}},
			{Text: buttonCart, Payload: Global{Token: TokenCart}},
		},
	}
}

func productCaption(p commerce.Product, amount int64) string {
	return fmt.Sprintf("%s\n%s\nPrice: $%s", p.Name, p.Description, format.MinorUnits(amount))
}

func cartText(cart commerce.Cart) string {
	var b strings.Builder
	if len(cart.Items) == 0 {
		b.WriteString(textCartEmpty)
		b.WriteString("\n\n")
	}
	for _, it := range cart.Items {
		fmt.Fprintf(&b, "%s\n%s\n%s per kg\n%d kg in cart for %s\n\n",
			it.Name, it.Description, it.UnitPrice, it.Quantity, it.LineTotal)
	}
	fmt.Fprintf(&b, "Total: %s", cart.TotalFormatted)
	return b.String()
}

func cartKeyboard(cart commerce.Cart) Keyboard {
	kb := make(Keyboard, 0, len(cart.Items)+1)
	for _, it := range cart.Items {
		kb = append(kb, []Button{{Text: "Remove " + it.Name, Payload: RemoveFromCart{ItemID: it.ID}}})
	}
	return append(kb, []Button{
		{Text: buttonMenu, Payload: Global{Token: TokenMenu}},
		{Text: buttonPay, Payload: Global{Token: TokenPay}},
	})
}

func menuKeyboard() Keyboard {
	return Keyboard{{{Text: buttonMenu, Payload: Global{Token: TokenMenu}}}}
}
