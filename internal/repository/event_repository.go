// Package repository contains data access logic.  This file holds the
// event repository.  Events carry the quota that the payment
// confirmation flow decrements, so the decrement is exposed as a single
// conditional statement that can never push quota below zero.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-ticketing/internal/model"
)

const eventColumns = `id, organizer_id, title, description, location, starts_at, price, quota, created_at, updated_at`

// EventFilter narrows public event listings.  Query matches title or
// location; Limit and Offset page through results ordered by start time.
type EventFilter struct {
	Query  string
	Limit  int
	Offset int
}

// EventRepo manages persistence for events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (*model.Event, error) {
	var e model.Event
	if err := s.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Location,
		&e.StartsAt, &e.Price, &e.Quota, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event and populates its generated ID and
// timestamps.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (organizer_id, title, description, location, starts_at, price, quota)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.OrganizerID, e.Title, e.Description, e.Location, e.StartsAt.UTC(), e.Price, e.Quota)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*e = *created
	return nil
}

// GetByID loads a single event.  ErrEventNotFound is returned when no
// row matches.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return e, err
}

// GetByIDTx is GetByID inside the caller's transaction.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
	e, err := scanEvent(tx.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return e, err
}

// List returns events matching the filter, soonest first.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		where = append(where, "(title LIKE ? OR location LIKE ?)")
		args = append(args, like, like)
	}
	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY starts_at ASC, id ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	return r.query(ctx, query, args...)
}

// ListByOrganizer returns every event owned by the organizer.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Event, error) {
	return r.query(ctx,
		`SELECT `+eventColumns+` FROM events WHERE organizer_id = ? ORDER BY starts_at ASC, id ASC`,
		organizerID)
}

func (r *EventRepo) query(ctx context.Context, q string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// Update writes the descriptive fields of an event.  Quota is left
// alone: confirmations decrement it concurrently, so writing back a
// value read earlier would resurrect sold units.  Use AdjustQuota.
// Ownership must be checked by the caller.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events SET title = ?, description = ?, location = ?, starts_at = ?, price = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		e.Title, e.Description, e.Location, e.StartsAt.UTC(), e.Price, e.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 when values are unchanged, so confirm existence.
		if _, err := r.GetByID(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}

// AdjustQuota adds delta (which may be negative) to the event's quota
// relative to its current value.  Units sold in the meantime stay sold.
// A change that would take the quota below zero yields ErrConflict.
func (r *EventRepo) AdjustQuota(ctx context.Context, id uint64, delta int) error {
	if delta == 0 {
		return nil
	}
	const q = `UPDATE events SET quota = quota + ? WHERE id = ? AND quota + ? >= 0`
	res, err := r.db.ExecContext(ctx, q, delta, id, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// Delete removes an event.  Events that already have payments cannot
// be deleted and yield ErrConflict.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		if isMySQLError(err, mysqlRowIsReferenced) {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DecrementQuotaTx subtracts quantity from the event's quota only when
// enough quota remains.  The guard and the mutation are one statement,
// so two concurrent confirmations can never both succeed past the last
// unit.  It reports false when the quota was insufficient.
func (r *EventRepo) DecrementQuotaTx(ctx context.Context, tx *sql.Tx, eventID uint64, quantity int) (bool, error) {
	const q = `UPDATE events SET quota = quota - ? WHERE id = ? AND quota >= ?`
	res, err := tx.ExecContext(ctx, q, quantity, eventID, quantity)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
