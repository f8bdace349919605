package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergIvo/dvmn-fish-shop-bot/core/buildinfo"
	coreconfig "github.com/SergIvo/dvmn-fish-shop-bot/core/config"
)

type fakeStore struct {
	t          *testing.T
	tokenCalls atomic.Int32
	mux        *http.ServeMux
}

func newFakeStore(t *testing.T) (*fakeStore, *Client) {
	t.Helper()
	fs := &fakeStore{t: t, mux: http.NewServeMux()}
	fs.mux.HandleFunc("POST /oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		fs.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/access_token" && r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fs.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := New(coreconfig.CommerceConfig{
		APIURL:         srv.URL,
		ClientID:       "id",
		ClientSecret:   "secret",
		PriceBookID:    "pb-1",
		Currency:       "usd",
		TimeoutSeconds: 5,
	}, srv.Client())
	require.NoError(t, err)
	return fs, client
}

func (fs *fakeStore) json(pattern, body string) {
	fs.mux.HandleFunc(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
}

func TestListAndGetProducts(t *testing.T) {
	fs, client := newFakeStore(t)
	fs.json("GET /pcm/products", `{"data":[
		{"id":"p-1","attributes":{"name":"Salmon","description":"Fresh","sku":"SAL"},
		 "relationships":{"main_image":{"data":{"id":"img-1","type":"file"}}}},
		{"id":"p-2","attributes":{"name":"Trout","description":"River","sku":"TRO"}}
	]}`)
	fs.json("GET /pcm/products/p-1", `{"data":{"id":"p-1","attributes":{"name":"Salmon","description":"Fresh","sku":"SAL"},
		"relationships":{"main_image":{"data":{"id":"img-1"}}}}}`)

	ctx := context.Background()
	products, err := client.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Product{
		{ID: "p-1", Name: "Salmon", Description: "Fresh", SKU: "SAL", ImageID: "img-1"},
		{ID: "p-2", Name: "Trout", Description: "River", SKU: "TRO"},
	}, products)

	p, err := client.GetProduct(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "img-1", p.ImageID)

	assert.Equal(t, int32(1), fs.tokenCalls.Load(), "token is cached across calls")
}

func TestGetPrice(t *testing.T) {
	fs, client := newFakeStore(t)
	fs.json("GET /pcm/pricebooks/pb-1/prices", `{"data":[
		{"attributes":{"sku":"TRO","currencies":{"USD":{"amount":999}}}},
		{"attributes":{"sku":"SAL","currencies":{"USD":{"amount":150,"includes_tax":true}}}}
	]}`)

	amount, err := client.GetPrice(context.Background(), "SAL")
	require.NoError(t, err)
	assert.Equal(t, int64(150), amount)

	_, err = client.GetPrice(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrPriceNotFound)
}

func TestGetImage(t *testing.T) {
	fs, client := newFakeStore(t)
	fs.json("GET /v2/files/img-1", `{"data":{"link":{"href":"https://files.example/salmon.jpg"}}}`)

	href, err := client.GetImage(context.Background(), "img-1")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/salmon.jpg", href)

	_, err = client.GetImage(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestCartOperations(t *testing.T) {
	fs, client := newFakeStore(t)

	var added cartItemRequest
	fs.mux.HandleFunc("POST /v2/carts/42/items", func(w http.ResponseWriter, r *http.Request) {
		var body envelope[cartItemRequest]
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		added = body.Data
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":[]}`)
	})
	fs.json("GET /v2/carts/42/items", `{"data":[{"id":"it-1","product_id":"p-1","name":"Salmon","description":"Fresh","quantity":5,
		"meta":{"display_price":{"with_tax":{"unit":{"formatted":"$1.50"},"value":{"formatted":"$7.50"}}}}}]}`)
	fs.json("GET /v2/carts/42", `{"data":{"id":"42","meta":{"display_price":{"with_tax":{"formatted":"$7.50"}}}}}`)
	var removed atomic.Bool
	fs.mux.HandleFunc("DELETE /v2/carts/42/items/it-1", func(w http.ResponseWriter, _ *http.Request) {
		removed.Store(true)
		_, _ = io.WriteString(w, `{"data":[]}`)
	})

	ctx := context.Background()
	require.NoError(t, client.AddToCart(ctx, "42", "p-1", 5))
	assert.Equal(t, cartItemRequest{ID: "p-1", Type: "cart_item", Quantity: 5}, added)

	cart, err := client.GetCart(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "$7.50", cart.TotalFormatted)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, LineItem{
		ID: "it-1", ProductID: "p-1", Name: "Salmon", Description: "Fresh",
		UnitPrice: "$1.50", Quantity: 5, LineTotal: "$7.50",
	}, cart.Items[0])

	require.NoError(t, client.RemoveFromCart(ctx, "42", "it-1"))
	assert.True(t, removed.Load())
}

func TestCreateCustomer(t *testing.T) {
	fs, client := newFakeStore(t)
	fs.mux.HandleFunc("POST /v2/customers", func(w http.ResponseWriter, r *http.Request) {
		var body envelope[customerRequest]
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, customerRequest{Type: "customer", Name: "Ann", Email: "a@b.com"}, body.Data)
		assert.Equal(t, buildinfo.UserAgent(), r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"cus-1","name":"Ann","email":"a@b.com"}}`)
	})

	id, err := client.CreateCustomer(context.Background(), "Ann", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "cus-1", id)
}

func TestAPIError(t *testing.T) {
	fs, client := newFakeStore(t)
	fs.mux.HandleFunc("GET /pcm/products/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errors":[{"status":404,"title":"Not Found","detail":"product missing"}]}`)
	})
	fs.mux.HandleFunc("DELETE /v2/carts/1/items/x", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream down")
	})

	_, err := client.GetProduct(context.Background(), "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Not Found", apiErr.Title)
	assert.Equal(t, "product missing", apiErr.Detail)
	assert.Equal(t, "commerce_not_found", apiErr.Code())
	assert.False(t, apiErr.Temporary())
	assert.True(t, IsNotFound(err))

	err = client.RemoveFromCart(context.Background(), "1", "x")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream down", apiErr.Detail)
	assert.True(t, apiErr.Temporary())
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(coreconfig.CommerceConfig{APIURL: "not a url", ClientID: "a", ClientSecret: "b"}, nil)
	assert.Error(t, err)
	_, err = New(coreconfig.CommerceConfig{APIURL: "https://api.example/"}, nil)
	assert.Error(t, err)
}
