// Package client is an HTTP client for the inventory purchase API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrServer is returned when the service answers with a 5xx status.
var ErrServer = errors.New("inventory service failed to process the request")

// LineItem is one requested product and quantity.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PurchaseRequest is the body of POST /api/purchases. Date uses the YYYY-MM-DD layout.
type PurchaseRequest struct {
	Date         string     `json:"date"`
	ClientIDType string     `json:"client_id_type"`
	ClientID     string     `json:"client_id"`
	ClientName   string     `json:"client_name"`
	Products     []LineItem `json:"products"`
}

// PurchaseLine is a purchased product as returned by the listing endpoint.
type PurchaseLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// Purchase is a recorded purchase.
type Purchase struct {
	ID           string         `json:"id"`
	Date         string         `json:"date"`
	ClientIDType string         `json:"client_id_type"`
	ClientID     string         `json:"client_id"`
	ClientName   string         `json:"client_name"`
	Products     []PurchaseLine `json:"products"`
}

// RejectionError carries the business rule that refused a purchase, or the
// binding error when the request body was malformed (Reason is empty then).
type RejectionError struct {
	Reason    string `json:"reason"`
	Message   string `json:"error"`
	ProductID string `json:"product_id"`
}

func (e *RejectionError) Error() string {
	if e.Reason == "" {
		return "purchase rejected: " + e.Message
	}
	return fmt.Sprintf("purchase rejected (%s): %s", e.Reason, e.Message)
}

type Client struct {
	http *resty.Client
}

// New creates a client for the service at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")

	for _, opt := range opts {
		opt(rc)
	}
	return &Client{http: rc}
}

// Option configures the underlying resty client.
type Option func(*resty.Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithHTTPClient swaps the transport, which is useful for tracing round trippers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *resty.Client) {
		c.SetTransport(hc.Transport)
	}
}

// SubmitPurchase posts a purchase. A rule violation returns *RejectionError.
// Purchases are never retried.
func (c *Client) SubmitPurchase(ctx context.Context, req PurchaseRequest) error {
	var rejection RejectionError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetError(&rejection).
		Post("/api/purchases")
	if err != nil {
		return fmt.Errorf("failed to submit purchase: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusBadRequest:
		return &rejection
	case resp.StatusCode() >= http.StatusInternalServerError:
		return ErrServer
	case resp.IsError():
		return fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return nil
}

// ListPurchases fetches every recorded purchase.
func (c *Client) ListPurchases(ctx context.Context) ([]Purchase, error) {
	var purchases []Purchase
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&purchases).
		Get("/api/purchases")
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	if resp.StatusCode() >= http.StatusInternalServerError {
		return nil, ErrServer
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}
	return purchases, nil
}
