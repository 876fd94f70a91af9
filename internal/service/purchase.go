package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/metrics"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// PurchaseRequest is a buyer's intent to pay for Quantity tickets.
type PurchaseRequest struct {
	UserID   uint64
	Email    string
	EventID  uint64
	Quantity int
}

// PurchaseResult carries what the client needs to open the checkout.
type PurchaseResult struct {
	PaymentToken string `json:"paymentToken"`
	RedirectURL  string `json:"redirectUrl"`
	OrderID      string `json:"order_id"`
}

// Purchase creates a pending payment and a gateway checkout for it.
// Quota is only checked here, never taken; it is taken when the
// gateway confirms the payment.
func (s *PaymentService) Purchase(ctx context.Context, r PurchaseRequest) (*PurchaseResult, error) {
	res, err := s.purchase(ctx, r)
	if err != nil {
		metrics.Purchase("rejected")
		return nil, err
	}
	metrics.Purchase("created")
	return res, nil
}

func (s *PaymentService) purchase(ctx context.Context, r PurchaseRequest) (*PurchaseResult, error) {
	if r.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	ev, err := s.events.GetByID(ctx, r.EventID)
	if err != nil {
		return nil, err
	}
	if !CanFulfill(ev.Quota, r.Quantity) {
		return nil, ErrInsufficientQuota
	}

	p := &model.Payment{
		OrderID:    s.newOrderID(),
		EventID:    ev.ID,
		UserID:     r.UserID,
		Quantity:   r.Quantity,
		Amount:     ev.Price.Mul(decimal.NewFromInt(int64(r.Quantity))),
		Status:     model.PaymentPending,
		EventTitle: ev.Title,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	tx, err := s.gw.CreateTransaction(ctx, gateway.TransactionRequest{
		OrderID:     p.OrderID,
		GrossAmount: p.Amount,
		Email:       r.Email,
		Items: []gateway.Item{{
			ID:       strconv.FormatUint(ev.ID, 10),
			Name:     ev.Title,
			Price:    ev.Price,
			Quantity: r.Quantity,
		}},
	})
	if err != nil {
		s.log.Error("gateway create transaction failed", "order_id", p.OrderID, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err := s.payments.SetGatewayTransaction(ctx, p.ID, tx.Token, tx.RedirectURL); err != nil {
		return nil, fmt.Errorf("save gateway transaction: %w", err)
	}

	s.log.Info("purchase initiated",
		"order_id", p.OrderID,
		"event_id", ev.ID,
		"user_id", r.UserID,
		"quantity", r.Quantity,
		"amount", p.Amount.String(),
	)
	return &PurchaseResult{PaymentToken: tx.Token, RedirectURL: tx.RedirectURL, OrderID: p.OrderID}, nil
}

// newOrderID returns ORDER-<unix ms>-<8 hex chars>.
func (s *PaymentService) newOrderID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORDER-%d-%s", s.now().UnixMilli(), suffix)
}
