package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/buildinfo"
	coreconfig "github.com/SergIvo/dvmn-fish-shop-bot/core/config"
	"github.com/SergIvo/dvmn-fish-shop-bot/core/logger"
)

const (
	tokenPath       = "oauth/access_token"
	maxResponseSize = 4 << 20
)

// Client talks to one store. It is safe for concurrent use; the access token
// is cached and refreshed by the oauth2 token source.
type Client struct {
	base      *url.URL
	http      *http.Client
	priceBook string
	currency  string
}

// New builds a client from cfg. base carries the transport for both token and API
// requests; nil uses http.DefaultTransport.
func New(cfg coreconfig.CommerceConfig, base *http.Client) (*Client, error) {
	apiURL := strings.TrimSpace(cfg.APIURL)
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("commerce: parse api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("commerce: api url %q must be absolute", cfg.APIURL)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("commerce: client credentials are required")
	}
	if base == nil {
		base = &http.Client{}
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     u.JoinPath(tokenPath).String(),
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	httpClient := cc.Client(tokenCtx)
	httpClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "USD"
	}
	return &Client{
		base:      u,
		http:      httpClient,
		priceBook: cfg.PriceBookID,
		currency:  currency,
	}, nil
}

// ListProducts returns the catalog in the order the API lists it.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var env envelope[[]productDTO]
	if err := c.do(ctx, "products.list", http.MethodGet, "pcm/products", nil, &env); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(env.Data))
	for _, p := range env.Data {
		products = append(products, p.product())
	}
	return products, nil
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	var env envelope[productDTO]
	if err := c.do(ctx, "products.get", http.MethodGet, "pcm/products/"+url.PathEscape(id), nil, &env); err != nil {
		return Product{}, err
	}
	return env.Data.product(), nil
}

// GetPrice returns the minor-unit amount for sku in the configured currency.
func (c *Client) GetPrice(ctx context.Context, sku string) (int64, error) {
	var env envelope[[]priceDTO]
	path := "pcm/pricebooks/" + url.PathEscape(c.priceBook) + "/prices"
	if err := c.do(ctx, "prices.list", http.MethodGet, path, nil, &env); err != nil {
		return 0, err
	}
	for _, p := range env.Data {
		if p.Attributes.SKU != sku {
			continue
		}
		if cur, ok := p.Attributes.Currencies[c.currency]; ok {
			return cur.Amount, nil
		}
	}
	return 0, fmt.Errorf("%w: sku %q currency %s", ErrPriceNotFound, sku, c.currency)
}

// GetImage resolves a file id to its public URL.
func (c *Client) GetImage(ctx context.Context, imageID string) (string, error) {
	if imageID == "" {
		return "", ErrNoImage
	}
	var env envelope[fileDTO]
	if err := c.do(ctx, "files.get", http.MethodGet, "v2/files/"+url.PathEscape(imageID), nil, &env); err != nil {
		return "", err
	}
	return env.Data.Link.Href, nil
}

// AddToCart adds qty units of productID to the cart, creating the cart if needed.
func (c *Client) AddToCart(ctx context.Context, cartID, productID string, qty int) error {
	body := envelope[cartItemRequest]{Data: cartItemRequest{ID: productID, Type: "cart_item", Quantity: qty}}
	return c.do(ctx, "cart.add", http.MethodPost, c.cartPath(cartID, "items"), body, nil)
}

// GetCart returns the line items and the formatted total with tax.
func (c *Client) GetCart(ctx context.Context, cartID string) (Cart, error) {
	var (
		items envelope[[]cartItemDTO]
		cart  envelope[cartDTO]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.do(gctx, "cart.items", http.MethodGet, c.cartPath(cartID, "items"), nil, &items)
	})
	g.Go(func() error {
		return c.do(gctx, "cart.get", http.MethodGet, c.cartPath(cartID), nil, &cart)
	})
	if err := g.Wait(); err != nil {
		return Cart{}, err
	}

	out := Cart{
		Items:          make([]LineItem, 0, len(items.Data)),
		TotalFormatted: cart.Data.Meta.DisplayPrice.WithTax.Formatted,
	}
	for _, it := range items.Data {
		out.Items = append(out.Items, it.lineItem())
	}
	return out, nil
}

// RemoveFromCart deletes one line item.
func (c *Client) RemoveFromCart(ctx context.Context, cartID, itemID string) error {
	return c.do(ctx, "cart.remove", http.MethodDelete, c.cartPath(cartID, "items", itemID), nil, nil)
}

// CreateCustomer registers a customer and returns its id.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	body := envelope[customerRequest]{Data: customerRequest{Type: "customer", Name: name, Email: email}}
	var env envelope[customerDTO]
	if err := c.do(ctx, "customers.create", http.MethodPost, "v2/customers", body, &env); err != nil {
		return "", err
	}
	return env.Data.ID, nil
}

func (c *Client) cartPath(cartID string, rest ...string) string {
	parts := []string{"v2", "carts", url.PathEscape(cartID)}
	for _, r := range rest {
		parts = append(parts, url.PathEscape(r))
	}
	return strings.Join(parts, "/")
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, path, in, out)

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("op", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		if apiErr, ok := err.(*APIError); ok {
			attrs = append(attrs,
				slog.Int("http_code", apiErr.Status),
				slog.String("err_code", apiErr.Code()),
			)
		}
		logger.LogEvent(ctx, logger.Commerce, slog.LevelWarn, "api.call", attrs...)
		return err
	}
	logger.LogEvent(ctx, logger.Commerce, slog.LevelDebug, "api.call", attrs...)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("commerce: encode %s body: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("commerce: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("commerce: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("commerce: read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("commerce: decode %s response: %w", path, err)
	}
	return nil
}
