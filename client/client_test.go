package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestSubmitPurchase_Success(t *testing.T) {
	req := PurchaseRequest{
		Date:         "2024-03-15",
		ClientIDType: "CC",
		ClientID:     "1020304050",
		ClientName:   "Ana Souza",
		Products:     []LineItem{{ProductID: "p1", Quantity: 3}},
	}

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/purchases", r.URL.Path)

		var got PurchaseRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, req, got)

		writeJSON(w, http.StatusOK, map[string]string{"result": "success"})
	})

	require.NoError(t, c.SubmitPurchase(context.Background(), req))
}

func TestSubmitPurchase_Rejected(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":      "The product is not available",
			"reason":     "NOT_AVAILABLE",
			"product_id": "p9",
		})
	})

	err := c.SubmitPurchase(context.Background(), PurchaseRequest{})

	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, "NOT_AVAILABLE", rejection.Reason)
	assert.Equal(t, "p9", rejection.ProductID)
	assert.Equal(t, "purchase rejected (NOT_AVAILABLE): The product is not available", rejection.Error())
}

func TestSubmitPurchase_ServerError(t *testing.T) {
	calls := 0
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save purchase"})
	})

	err := c.SubmitPurchase(context.Background(), PurchaseRequest{})

	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, 1, calls)
}

func TestSubmitPurchase_UnexpectedStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.SubmitPurchase(context.Background(), PurchaseRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestListPurchases(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, http.StatusOK, []map[string]any{{
			"id":             "id-1",
			"date":           "2024-03-15",
			"client_id_type": "CC",
			"client_id":      "1020304050",
			"client_name":    "Ana Souza",
			"products":       []map[string]any{{"product_id": "p1", "name": "Coffee", "quantity": 2}},
		}})
	})

	purchases, err := c.ListPurchases(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []Purchase{{
		ID:           "id-1",
		Date:         "2024-03-15",
		ClientIDType: "CC",
		ClientID:     "1020304050",
		ClientName:   "Ana Souza",
		Products:     []PurchaseLine{{ProductID: "p1", Name: "Coffee", Quantity: 2}},
	}}, purchases)
}

func TestListPurchases_ServerError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list purchases"})
	})

	_, err := c.ListPurchases(context.Background())

	assert.ErrorIs(t, err, ErrServer)
}

type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return http.DefaultTransport.RoundTrip(r)
}

func TestOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, http.StatusOK, []any{})
	}))
	t.Cleanup(srv.Close)

	transport := &countingTransport{}
	c := New(srv.URL, WithHTTPClient(&http.Client{Transport: transport}))
	_, err := c.ListPurchases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, transport.calls)

	c = New(srv.URL, WithTimeout(5*time.Millisecond))
	_, err = c.ListPurchases(context.Background())
	assert.Error(t, err)
}
