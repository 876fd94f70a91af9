package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment records one purchase attempt of Quantity tickets for an event.
// It is created as pending when the purchase is initiated and moves to
// paid once the gateway confirms the transaction.  Paid is terminal.
//
// Fields:
//  ID           – primary key identifier.
//  OrderID      – externally visible order token shared with the gateway.
//  EventID      – event the tickets belong to.
//  UserID       – buyer.
//  Quantity     – number of tickets purchased (> 0).
//  Amount       – price × quantity at creation time.
//  Status       – pending, paid or failed.
//  PaymentToken – gateway transaction token (nullable until created).
//  RedirectURL  – gateway checkout page (nullable until created).
//  PaidAt       – when the payment was confirmed.
//  EventTitle   – denormalized from events.title when loaded with a join.
type Payment struct {
	ID           uint64          `json:"id"`                      // payments.id
	OrderID      string          `json:"order_id"`                // payments.order_id
	EventID      uint64          `json:"event_id"`                // payments.event_id
	UserID       uint64          `json:"user_id"`                 // payments.user_id
	Quantity     int             `json:"quantity"`                // payments.quantity
	Amount       decimal.Decimal `json:"amount"`                  // payments.amount
	Status       PaymentStatus   `json:"payment_status"`          // payments.payment_status
	PaymentToken *string         `json:"payment_token,omitempty"` // payments.payment_token
	RedirectURL  *string         `json:"redirect_url,omitempty"`  // payments.redirect_url
	PaidAt       *time.Time      `json:"paid_at,omitempty"`       // payments.paid_at
	CreatedAt    time.Time       `json:"created_at"`              // payments.created_at
	UpdatedAt    time.Time       `json:"updated_at"`              // payments.updated_at
	EventTitle   string          `json:"event_title,omitempty"`
}

// IsPaid reports whether the payment has reached its terminal state.
func (p *Payment) IsPaid() bool { return p.Status == PaymentPaid }
