package tgbinding

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/telegram/callbacks"
	"github.com/SergIvo/dvmn-fish-shop-bot/shop/conversation"
)

// Callback uniques of the shop keyboards.
const (
	UniqueProduct = "product"
	UniqueAdd     = "add"
	UniqueRemove  = "remove"
	UniqueCart    = string(conversation.TokenCart)
	UniqueMenu    = string(conversation.TokenMenu)
	UniquePay     = string(conversation.TokenPay)
)

// Uniques lists every unique the binding decodes.
var Uniques = []string{UniqueProduct, UniqueAdd, UniqueRemove, UniqueCart, UniqueMenu, UniquePay}

// legacySep joins quantity and product id in keyboards of earlier deployments.
const legacySep = "##"

// EncodePayload returns the callback unique and data parts for p.
// An empty unique means the single part is sent as raw data.
func EncodePayload(p conversation.Payload) (string, []string, error) {
	switch v := p.(type) {
	case conversation.SelectProduct:
		return UniqueProduct, []string{v.ProductID}, nil
	case conversation.AddToCart:
		return UniqueAdd, []string{strconv.Itoa(v.Quantity), v.ProductID}, nil
	case conversation.RemoveFromCart:
		return UniqueRemove, []string{v.ItemID}, nil
	case conversation.Global:
		return string(v.Token), nil, nil
	case conversation.Legacy:
		return "", []string{v.Token}, nil
	case conversation.Invalid:
		// sent back verbatim when a received keyboard is re-attached
		return "", []string{v.Raw}, nil
	}
	return "", nil, fmt.Errorf("tgbinding: payload %T cannot be encoded", p)
}

// DecodePayload builds a payload from callback unique and data parts as
// returned by callbacks.Decode. Anything malformed is Invalid.
func DecodePayload(unique string, parts []string) conversation.Payload {
	if unique == "" {
		if len(parts) != 1 {
			return conversation.Invalid{Raw: strings.Join(parts, "|")}
		}
		return decodeLegacy(parts[0])
	}

	raw := callbacks.Encode(unique, parts...)
	switch unique {
	case UniqueProduct:
		if len(parts) == 1 && validID(parts[0]) {
			return conversation.SelectProduct{ProductID: parts[0]}
		}
	case UniqueAdd:
		if len(parts) == 2 && validID(parts[1]) {
			if qty, ok := parseQuantity(parts[0]); ok {
				return conversation.AddToCart{ProductID: parts[1], Quantity: qty}
			}
		}
	case UniqueRemove:
		if len(parts) == 1 && validID(parts[0]) {
			return conversation.RemoveFromCart{ItemID: parts[0]}
		}
	case UniqueCart, UniqueMenu, UniquePay:
		if len(parts) == 0 {
			return conversation.Global{Token: conversation.Token(unique)}
		}
	}
	return conversation.Invalid{Raw: raw}
}

// DecodeData decodes raw callback data.
func DecodeData(data string) conversation.Payload {
	return DecodePayload(callbacks.Decode(data))
}

// decodeLegacy handles unprefixed data: bare global tokens, qty##id, or a bare id.
func decodeLegacy(data string) conversation.Payload {
	token := strings.TrimSpace(data)
	switch conversation.Token(token) {
	case conversation.TokenCart, conversation.TokenMenu, conversation.TokenPay:
		return conversation.Global{Token: conversation.Token(token)}
	}
	if qtyStr, id, found := strings.Cut(token, legacySep); found {
		qty, ok := parseQuantity(qtyStr)
		if ok && validID(id) && !strings.Contains(id, legacySep) {
			return conversation.AddToCart{ProductID: id, Quantity: qty}
		}
		return conversation.Invalid{Raw: data}
	}
	if !validID(token) {
		return conversation.Invalid{Raw: data}
	}
	return conversation.Legacy{Token: token}
}

func parseQuantity(s string) (int, bool) {
	qty, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || qty <= 0 {
		return 0, false
	}
	return qty, true
}

func validID(s string) bool {
	return s != "" && strings.TrimSpace(s) == s && !strings.ContainsAny(s, "|\f")
}
