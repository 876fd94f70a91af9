package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
)

// Transactor runs fn inside one database transaction.  A nil return
// commits; any error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type EventStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error)
	DecrementQuotaTx(ctx context.Context, tx *sql.Tx, eventID uint64, quantity int) (bool, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	SetGatewayTransaction(ctx context.Context, id uint64, token, redirectURL string) error
	GetByOrderIDForUpdateTx(ctx context.Context, tx *sql.Tx, orderID string) (*model.Payment, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.PaymentStatus, paidAt *time.Time) error
}

type TicketStore interface {
	CodeExistsTx(ctx context.Context, tx *sql.Tx, code string) (bool, error)
	CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error
	ListByPaymentTx(ctx context.Context, tx *sql.Tx, paymentID uint64) ([]model.Ticket, error)
}

// TicketsPublisher announces committed ticket batches.
type TicketsPublisher interface {
	PublishTicketsIssued(ctx context.Context, ev queue.TicketsIssuedEvent) error
}
