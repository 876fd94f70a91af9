package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapClient_CreateTransaction(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/snap/v1/transactions", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "server-key", user)
		assert.Empty(t, pass)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"tok-1","redirect_url":"https://pay.example/tok-1"}`))
	}))
	defer srv.Close()

	c := NewSnapClient(srv.URL+"/", "server-key", time.Second)
	tx, err := c.CreateTransaction(context.Background(), TransactionRequest{
		OrderID:     "ORDER-1",
		GrossAmount: decimal.RequireFromString("300000"),
		Email:       "alice@example.com",
		Items:       []Item{{ID: "3", Name: "Jazz Night", Price: decimal.RequireFromString("150000"), Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tx.Token)
	assert.Equal(t, "https://pay.example/tok-1", tx.RedirectURL)

	details := got["transaction_details"].(map[string]any)
	assert.Equal(t, "ORDER-1", details["order_id"])
	assert.Equal(t, float64(300000), details["gross_amount"])
	items := got["item_details"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(2), items[0].(map[string]any)["quantity"])
}

func TestSnapClient_CreateTransaction_ErrorMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_messages":["transaction_details.gross_amount is required"]}`))
	}))
	defer srv.Close()

	_, err := NewSnapClient(srv.URL, "k", time.Second).CreateTransaction(context.Background(), TransactionRequest{OrderID: "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gross_amount is required")
}

func TestSignature(t *testing.T) {
	sig := Signature("ORDER-1", "200", "300000.00", "secret")
	assert.Len(t, sig, 128)
	assert.True(t, VerifySignature("ORDER-1", "200", "300000.00", "secret", sig))
	assert.False(t, VerifySignature("ORDER-1", "201", "300000.00", "secret", sig))
	assert.False(t, VerifySignature("ORDER-1", "200", "300000.00", "other", sig))
	assert.False(t, VerifySignature("ORDER-1", "200", "300000.00", "secret", ""))
}
