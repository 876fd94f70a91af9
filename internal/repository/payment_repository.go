package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

const paymentColumns = `p.id, p.order_id, p.event_id, p.user_id, p.quantity, p.amount, p.payment_status,
	p.payment_token, p.redirect_url, p.paid_at, p.created_at, p.updated_at, COALESCE(e.title, '')`

// PaymentRepo provides data access to the payments table.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the provided database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

func scanPayment(s rowScanner) (*model.Payment, error) {
	var (
		p            model.Payment
		status       string
		token, redir sql.NullString
		paidAt       sql.NullTime
	)
	if err := s.Scan(
		&p.ID, &p.OrderID, &p.EventID, &p.UserID, &p.Quantity, &p.Amount, &status,
		&token, &redir, &paidAt, &p.CreatedAt, &p.UpdatedAt, &p.EventTitle,
	); err != nil {
		return nil, err
	}
	p.Status = model.PaymentStatus(status)
	if token.Valid {
		p.PaymentToken = &token.String
	}
	if redir.Valid {
		p.RedirectURL = &redir.String
	}
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	return &p, nil
}

// Create inserts a pending payment and populates the generated ID.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (order_id, event_id, user_id, quantity, amount, payment_status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	if p.Status == "" {
		p.Status = model.PaymentPending
	}
	res, err := r.db.ExecContext(ctx, q, p.OrderID, p.EventID, p.UserID, p.Quantity, p.Amount, string(p.Status))
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// SetGatewayTransaction stores the token and checkout URL returned by
// the payment gateway for a payment.
func (r *PaymentRepo) SetGatewayTransaction(ctx context.Context, id uint64, token, redirectURL string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET payment_token = ?, redirect_url = ? WHERE id = ?`,
		token, redirectURL, id)
	return err
}

// GetByOrderIDForUpdateTx loads the payment for an order together with
// its event title and locks the payment row until the transaction
// ends.  Concurrent notifications for the same order therefore run one
// after the other.  The event is LEFT JOINed so that a dangling event
// reference still yields the payment; callers re-fetch the event.
func (r *PaymentRepo) GetByOrderIDForUpdateTx(ctx context.Context, tx *sql.Tx, orderID string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + `
	           FROM payments p LEFT JOIN events e ON e.id = p.event_id
	           WHERE p.order_id = ?
	           FOR UPDATE OF p`
	p, err := scanPayment(tx.QueryRowContext(ctx, q, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// UpdateStatusTx sets the payment status.  paidAt is written as given,
// so callers pass nil for anything but a paid transition.
func (r *PaymentRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.PaymentStatus, paidAt *time.Time) error {
	var paid any
	if paidAt != nil {
		paid = paidAt.UTC()
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE payments SET payment_status = ?, paid_at = ? WHERE id = ?`,
		string(status), paid, id)
	return err
}

// GetByOrderIDForUser returns a payment owned by the given user.
// Payments belonging to someone else are reported as not found.
func (r *PaymentRepo) GetByOrderIDForUser(ctx context.Context, orderID string, userID uint64) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + `
	           FROM payments p LEFT JOIN events e ON e.id = p.event_id
	           WHERE p.order_id = ? AND p.user_id = ?`
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, orderID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// ListByUser returns the user's payments, newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Payment, error) {
	const q = `SELECT ` + paymentColumns + `
	           FROM payments p LEFT JOIN events e ON e.id = p.event_id
	           WHERE p.user_id = ?
	           ORDER BY p.created_at DESC, p.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	payments := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
