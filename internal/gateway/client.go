// Package gateway talks to the Snap-style payment gateway: it creates
// checkout transactions and verifies the signature of the notifications
// the gateway posts back.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Item is one line of the checkout shown by the gateway.
type Item struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// TransactionRequest describes the order a checkout is created for.
type TransactionRequest struct {
	OrderID     string
	GrossAmount decimal.Decimal
	Email       string
	Items       []Item
}

// Transaction is the gateway's answer: a token for the embedded
// checkout and the hosted payment page.
type Transaction struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Client creates checkout transactions.
type Client interface {
	CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error)
}

// SnapClient is the HTTP implementation of Client.
type SnapClient struct {
	// baseURL is the gateway root, e.g. https://app.sandbox.midtrans.com.
	baseURL string

	// serverKey authenticates the merchant via HTTP basic auth.
	serverKey string

	hc *http.Client
}

// NewSnapClient builds a client with the given request timeout.  It is
// constructed once at startup and shared.
func NewSnapClient(baseURL, serverKey string, timeout time.Duration) *SnapClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SnapClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		serverKey: serverKey,
		hc:        &http.Client{Timeout: timeout},
	}
}

type snapItem struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

type snapRequest struct {
	TransactionDetails struct {
		OrderID     string      `json:"order_id"`
		GrossAmount json.Number `json:"gross_amount"`
	} `json:"transaction_details"`
	ItemDetails     []snapItem `json:"item_details,omitempty"`
	CustomerDetails *struct {
		Email string `json:"email"`
	} `json:"customer_details,omitempty"`
}

// CreateTransaction registers the order with the gateway.
func (c *SnapClient) CreateTransaction(ctx context.Context, r TransactionRequest) (*Transaction, error) {
	var body snapRequest
	body.TransactionDetails.OrderID = r.OrderID
	body.TransactionDetails.GrossAmount = json.Number(r.GrossAmount.String())
	for _, it := range r.Items {
		body.ItemDetails = append(body.ItemDetails, snapItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    json.Number(it.Price.String()),
			Quantity: it.Quantity,
		})
	}
	if r.Email != "" {
		body.CustomerDetails = &struct {
			Email string `json:"email"`
		}{Email: r.Email}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/snap/v1/transactions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gateway: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.serverKey, "")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("gateway: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var fail struct {
			ErrorMessages []string `json:"error_messages"`
		}
		_ = json.Unmarshal(raw, &fail)
		if len(fail.ErrorMessages) > 0 {
			return nil, fmt.Errorf("gateway: status %d: %s", resp.StatusCode, strings.Join(fail.ErrorMessages, "; "))
		}
		return nil, fmt.Errorf("gateway: status %d", resp.StatusCode)
	}

	var tx Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, fmt.Errorf("gateway: decode: %w", err)
	}
	if tx.Token == "" {
		return nil, errors.New("gateway: empty token in response")
	}
	return &tx, nil
}
