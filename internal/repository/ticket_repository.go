package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

const ticketColumns = `t.id, t.payment_id, t.name, t.code, t.qrcode, t.status, t.used_at, t.created_at`

// TicketRepo provides data access to the tickets table.  Tickets are
// only inserted by the payment confirmation flow; afterwards the only
// mutation is redemption (AVAILABLE -> USED).
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the provided database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

func scanTicket(s rowScanner) (*model.Ticket, error) {
	var (
		t      model.Ticket
		status string
		usedAt sql.NullTime
	)
	if err := s.Scan(&t.ID, &t.PaymentID, &t.Name, &t.Code, &t.QRCode, &status, &usedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Status = model.TicketStatus(status)
	if usedAt.Valid {
		u := usedAt.Time
		t.UsedAt = &u
	}
	return &t, nil
}

// CodeExistsTx reports whether any ticket already carries code.  It
// runs inside the issuing transaction so codes inserted earlier in the
// same batch are visible.
func (r *TicketRepo) CodeExistsTx(ctx context.Context, tx *sql.Tx, code string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM tickets WHERE code = ? LIMIT 1`, code).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts a ticket within the provided transaction and
// populates its ID.  A duplicate code surfaces as ErrConflict.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (payment_id, name, code, qrcode, status) VALUES (?, ?, ?, ?, ?)`
	if t.Status == "" {
		t.Status = model.TicketAvailable
	}
	res, err := tx.ExecContext(ctx, q, t.PaymentID, t.Name, t.Code, t.QRCode, string(t.Status))
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
	t.ID = uint64(id)
	t.CreatedAt = time.Now().UTC()
	return nil
}

// ListByPaymentTx returns the tickets minted for a payment.
func (r *TicketRepo) ListByPaymentTx(ctx context.Context, tx *sql.Tx, paymentID uint64) ([]model.Ticket, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets t WHERE t.payment_id = ? ORDER BY t.id`, paymentID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// ListByPayment is ListByPaymentTx outside a transaction.
func (r *TicketRepo) ListByPayment(ctx context.Context, paymentID uint64) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets t WHERE t.payment_id = ? ORDER BY t.id`, paymentID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// ListByUser returns every ticket bought by the user.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + `
	           FROM tickets t JOIN payments p ON p.id = t.payment_id
	           WHERE p.user_id = ?
	           ORDER BY t.created_at DESC, t.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// GetByIDForUser returns one ticket owned by the user.
func (r *TicketRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + `
	           FROM tickets t JOIN payments p ON p.id = t.payment_id
	           WHERE t.id = ? AND p.user_id = ?`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// Redeem marks the ticket with the given code as USED.  Only the
// organizer of the ticket's event may redeem it (ErrForbidden) and a
// ticket can be redeemed once (ErrTicketUsed).
func (r *TicketRepo) Redeem(ctx context.Context, code string, organizerID uint64) (*model.Ticket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const sel = `SELECT ` + ticketColumns + `, e.organizer_id
	             FROM tickets t
	             JOIN payments p ON p.id = t.payment_id
	             JOIN events e ON e.id = p.event_id
	             WHERE t.code = ?
	             FOR UPDATE OF t`
	var (
		t      model.Ticket
		status string
		usedAt sql.NullTime
		owner  uint64
	)
	err = tx.QueryRowContext(ctx, sel, code).Scan(
		&t.ID, &t.PaymentID, &t.Name, &t.Code, &t.QRCode, &status, &usedAt, &t.CreatedAt, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	if owner != organizerID {
		return nil, ErrForbidden
	}
	if model.TicketStatus(status) == model.TicketUsed {
		return nil, ErrTicketUsed
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = ?, used_at = ? WHERE id = ?`,
		string(model.TicketUsed), now, t.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	t.Status = model.TicketUsed
	t.UsedAt = &now
	return &t, nil
}

func collectTickets(rows *sql.Rows) ([]model.Ticket, error) {
	defer rows.Close()
	tickets := []model.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}
