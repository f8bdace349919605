// Package commerce is a client for the Elastic Path (formerly Moltin) store API:
// catalog, price book, files, carts and customers.
package commerce

// Product is a catalog entry.
type Product struct {
	ID          string
	Name        string
	Description string
	SKU         string
	// ImageID references the main image file, empty when the product has none.
	ImageID string
}

// LineItem is one cart line with display prices already formatted by the store.
type LineItem struct {
	ID          string
	ProductID   string
	Name        string
	Description string
	UnitPrice   string
	Quantity    int
	LineTotal   string
}

// Cart is the current content of a cart.
type Cart struct {
	Items          []LineItem
	TotalFormatted string
}

// wire shapes

type envelope[T any] struct {
	Data T `json:"data"`
}

type productDTO struct {
	ID         string `json:"id"`
	Attributes struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		SKU         string `json:"sku"`
	} `json:"attributes"`
	Relationships struct {
		MainImage struct {
			Data *struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"main_image"`
	} `json:"relationships"`
}

func (p productDTO) product() Product {
	out := Product{
		ID:          p.ID,
		Name:        p.Attributes.Name,
		Description: p.Attributes.Description,
		SKU:         p.Attributes.SKU,
	}
	if img := p.Relationships.MainImage.Data; img != nil {
		out.ImageID = img.ID
	}
	return out
}

type priceDTO struct {
	Attributes struct {
		SKU        string `json:"sku"`
		Currencies map[string]struct {
			Amount      int64 `json:"amount"`
			IncludesTax bool  `json:"includes_tax"`
		} `json:"currencies"`
	} `json:"attributes"`
}

type fileDTO struct {
	Link struct {
		Href string `json:"href"`
	} `json:"link"`
}

type formattedPrice struct {
	Formatted string `json:"formatted"`
}

type cartItemDTO struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Meta        struct {
		DisplayPrice struct {
			WithTax struct {
				Unit  formattedPrice `json:"unit"`
				Value formattedPrice `json:"value"`
			} `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
}

func (i cartItemDTO) lineItem() LineItem {
	return LineItem{
		ID:          i.ID,
		ProductID:   i.ProductID,
		Name:        i.Name,
		Description: i.Description,
		UnitPrice:   i.Meta.DisplayPrice.WithTax.Unit.Formatted,
		Quantity:    i.Quantity,
		LineTotal:   i.Meta.DisplayPrice.WithTax.Value.Formatted,
	}
}

type cartDTO struct {
	ID   string `json:"id"`
	Meta struct {
		DisplayPrice struct {
			WithTax formattedPrice `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
}

type cartItemRequest struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

type customerRequest struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type customerDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
