package commerce

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrPriceNotFound means the price book has no entry for the SKU in the configured currency.
	ErrPriceNotFound = errors.New("commerce: price not found")
	// ErrNoImage means the product has no main image.
	ErrNoImage = errors.New("commerce: product has no image")
)

// APIError is a non-2xx answer from the store API.
type APIError struct {
	Method string
	Path   string
	Status int
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("commerce: %s %s: %d", e.Method, e.Path, e.Status)
	if e.Title != "" {
		msg += " " + e.Title
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Code is a short machine-readable error code used in logs.
func (e *APIError) Code() string {
	if e.Status == 0 {
		return "commerce_unknown"
	}
	text := strings.ToLower(http.StatusText(e.Status))
	if text == "" {
		return fmt.Sprintf("commerce_http_%d", e.Status)
	}
	return "commerce_" + strings.ReplaceAll(text, " ", "_")
}

// Temporary reports whether retrying later may succeed.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type errorBody struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Errors) > 0 {
		apiErr.Title = eb.Errors[0].Title
		apiErr.Detail = eb.Errors[0].Detail
		return apiErr
	}
	apiErr.Detail = strings.TrimSpace(string(body))
	if len(apiErr.Detail) > 256 {
		apiErr.Detail = apiErr.Detail[:256]
	}
	return apiErr
}
