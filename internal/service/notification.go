package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/metrics"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

const (
	publishTimeout    = 5 * time.Second
	maxInsertAttempts = 3
)

// Notification is the body the gateway posts when a transaction changes
// state.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	TransactionStatus string `json:"transaction_status"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionID     string `json:"transaction_id"`
	PaymentType       string `json:"payment_type"`
}

// UnmarshalJSON accepts status_code and gross_amount as JSON strings or
// numbers; gateways differ on which they send.  Numbers keep their
// literal text so the signature is computed over what was sent.
func (n *Notification) UnmarshalJSON(b []byte) error {
	type plain Notification
	var raw struct {
		plain
		StatusCode  jsonScalar `json:"status_code"`
		GrossAmount jsonScalar `json:"gross_amount"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*n = Notification(raw.plain)
	n.StatusCode = string(raw.StatusCode)
	n.GrossAmount = string(raw.GrossAmount)
	return nil
}

// jsonScalar decodes a JSON string or number into its text.
type jsonScalar string

func (s *jsonScalar) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = jsonScalar(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = jsonScalar(num.String())
	return nil
}

// Outcome summarises what a notification did.
type Outcome string

const (
	OutcomePaid        Outcome = "paid"
	OutcomePending     Outcome = "pending"
	OutcomeAlreadyPaid Outcome = "already_paid"
)

// NotificationResult is returned for every accepted notification.
type NotificationResult struct {
	Outcome Outcome        `json:"outcome"`
	Payment *model.Payment `json:"payment"`
	Tickets []model.Ticket `json:"tickets"`
}

// HandleNotification applies a gateway notification to its payment.
//
// The payment row is locked for the whole transaction, so notifications
// for one order are applied one at a time.  On success the quota
// decrement, the ticket inserts and the paid transition commit
// together or not at all.  A payment that is already paid is left
// untouched and its existing tickets are returned.
func (s *PaymentService) HandleNotification(ctx context.Context, n Notification) (*NotificationResult, error) {
	start := s.now()
	res, err := s.handleNotification(ctx, n)
	if err != nil {
		metrics.Notification(notificationErrorLabel(err), time.Since(start))
		return nil, err
	}
	metrics.Notification(string(res.Outcome), time.Since(start))

	s.log.Info("payment notification applied",
		"order_id", n.OrderID,
		"outcome", res.Outcome,
		"payment_id", res.Payment.ID,
		"tickets", len(res.Tickets),
	)
	if res.Outcome == OutcomePaid {
		metrics.TicketsIssued(len(res.Tickets))
		s.announce(ctx, res)
	}
	return res, nil
}

func (s *PaymentService) handleNotification(ctx context.Context, n Notification) (*NotificationResult, error) {
	if s.opts.VerifySignature && s.opts.ServerKey != "" {
		if !gateway.VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, s.opts.ServerKey, n.SignatureKey) {
			return nil, ErrInvalidSignature
		}
	}

	var res *NotificationResult
	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		p, err := s.payments.GetByOrderIDForUpdateTx(ctx, tx, n.OrderID)
		if err != nil {
			return err
		}
		ev, err := s.events.GetByIDTx(ctx, tx, p.EventID)
		if err != nil {
			return err
		}
		p.EventTitle = ev.Title

		if p.IsPaid() {
			tickets, err := s.tickets.ListByPaymentTx(ctx, tx, p.ID)
			if err != nil {
				return fmt.Errorf("list tickets: %w", err)
			}
			res = &NotificationResult{Outcome: OutcomeAlreadyPaid, Payment: p, Tickets: tickets}
			return nil
		}

		switch ClassifySignal(n.StatusCode, n.TransactionStatus) {
		case SignalPending:
			if err := s.payments.UpdateStatusTx(ctx, tx, p.ID, model.PaymentPending, nil); err != nil {
				return fmt.Errorf("mark pending: %w", err)
			}
			p.Status = model.PaymentPending
			res = &NotificationResult{Outcome: OutcomePending, Payment: p, Tickets: []model.Ticket{}}
			return nil

		case SignalSuccess:
			if err := reserve(ctx, s.events, tx, ev.ID, p.Quantity); err != nil {
				return err
			}
			tickets, err := s.issueTickets(ctx, tx, p)
			if err != nil {
				return err
			}
			paidAt := s.now().UTC()
			if err := s.payments.UpdateStatusTx(ctx, tx, p.ID, model.PaymentPaid, &paidAt); err != nil {
				return fmt.Errorf("mark paid: %w", err)
			}
			p.Status = model.PaymentPaid
			p.PaidAt = &paidAt
			res = &NotificationResult{Outcome: OutcomePaid, Payment: p, Tickets: tickets}
			return nil

		default:
			return ErrUnrecognizedStatus
		}
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// issueTickets mints p.Quantity tickets one at a time so each code
// check sees the codes inserted before it.
func (s *PaymentService) issueTickets(ctx context.Context, tx *sql.Tx, p *model.Payment) ([]model.Ticket, error) {
	tickets := make([]model.Ticket, 0, p.Quantity)
	exists := func(code string) (bool, error) { return s.tickets.CodeExistsTx(ctx, tx, code) }
	for i := 1; i <= p.Quantity; i++ {
		t, err := s.insertTicket(ctx, tx, p.ID, fmt.Sprintf("Ticket %d", i), exists)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, nil
}

func (s *PaymentService) insertTicket(ctx context.Context, tx *sql.Tx, paymentID uint64, name string, exists func(string) (bool, error)) (*model.Ticket, error) {
	for attempt := 0; ; attempt++ {
		code, err := s.codes.Generate(ctx, exists)
		if err != nil {
			return nil, err
		}
		qr, err := RenderQR(code)
		if err != nil {
			return nil, err
		}
		t := &model.Ticket{
			PaymentID: paymentID,
			Name:      name,
			Code:      code,
			QRCode:    qr,
			Status:    model.TicketAvailable,
		}
		err = s.tickets.CreateTx(ctx, tx, t)
		if err == nil {
			return t, nil
		}
		// A concurrent transaction took the code between check and insert.
		if errors.Is(err, repository.ErrConflict) && attempt+1 < maxInsertAttempts {
			continue
		}
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
}

// announce publishes tickets.issued in the background.  Publishing is
// best effort; failures are logged and never reach the gateway.
func (s *PaymentService) announce(ctx context.Context, res *NotificationResult) {
	if s.pub == nil {
		return
	}
	p := res.Payment
	codes := make([]string, 0, len(res.Tickets))
	for _, t := range res.Tickets {
		codes = append(codes, t.Code)
	}
	ev := queue.TicketsIssuedEvent{
		PaymentID:   p.ID,
		OrderID:     p.OrderID,
		UserID:      p.UserID,
		EventID:     p.EventID,
		EventTitle:  p.EventTitle,
		Quantity:    p.Quantity,
		Amount:      p.Amount.StringFixed(2),
		TicketCodes: codes,
	}
	if p.PaidAt != nil {
		ev.PaidAt = p.PaidAt.Format(time.RFC3339)
	}

	s.publishes.Add(1)
	go func() {
		defer s.publishes.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.pub.PublishTicketsIssued(pctx, ev); err != nil {
			s.log.Warn("publish tickets.issued failed", "order_id", ev.OrderID, "err", err)
		}
	}()
}

func notificationErrorLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrPaymentNotFound), errors.Is(err, ErrEventNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientQuota):
		return "insufficient_quota"
	case errors.Is(err, ErrUnrecognizedStatus):
		return "unrecognized_status"
	default:
		return "error"
	}
}
