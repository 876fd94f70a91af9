package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// memStore is an in-memory stand-in for the MySQL repositories.  WithinTx
// holds the store lock for the whole callback and restores a snapshot
// when the callback fails, which gives the same all-or-nothing and
// serialisation guarantees the row lock and transaction give in MySQL.
// Methods ending in Tx assume the lock is held.
type memStore struct {
	mu       sync.Mutex
	events   map[uint64]model.Event
	payments map[string]model.Payment
	tickets  []model.Ticket

	nextPaymentID uint64
	nextTicketID  uint64

	ticketInserts      int
	failOnTicketInsert int
}

func newMemStore() *memStore {
	return &memStore{
		events:   map[uint64]model.Event{},
		payments: map[string]model.Payment{},
	}
}

type snapshot struct {
	events   map[uint64]model.Event
	payments map[string]model.Payment
	tickets  []model.Ticket
}

func (m *memStore) snapshot() snapshot {
	s := snapshot{
		events:   make(map[uint64]model.Event, len(m.events)),
		payments: make(map[string]model.Payment, len(m.payments)),
		tickets:  append([]model.Ticket(nil), m.tickets...),
	}
	for k, v := range m.events {
		s.events[k] = v
	}
	for k, v := range m.payments {
		s.payments[k] = v
	}
	return s
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(nil); err != nil {
		m.events, m.payments, m.tickets = snap.events, snap.payments, snap.tickets
		return err
	}
	return nil
}

func (m *memStore) addEvent(e model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e
}

func (m *memStore) addPayment(p model.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextPaymentID++
	if p.ID == 0 {
		p.ID = m.nextPaymentID
	}
	m.payments[p.OrderID] = p
}

func (m *memStore) quota(eventID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[eventID].Quota
}

func (m *memStore) payment(orderID string) model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[orderID]
}

func (m *memStore) ticketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

// EventStore

func (m *memStore) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GetByIDTx(ctx, nil, id)
}

func (m *memStore) GetByIDTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	return &e, nil
}

func (m *memStore) DecrementQuotaTx(_ context.Context, _ *sql.Tx, eventID uint64, quantity int) (bool, error) {
	e, ok := m.events[eventID]
	if !ok || e.Quota < quantity {
		return false, nil
	}
	e.Quota -= quantity
	m.events[eventID] = e
	return true, nil
}

// PaymentStore

func (m *memStore) Create(_ context.Context, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.payments[p.OrderID]; dup {
		return repository.ErrConflict
	}
	m.nextPaymentID++
	p.ID = m.nextPaymentID
	m.payments[p.OrderID] = *p
	return nil
}

func (m *memStore) SetGatewayTransaction(_ context.Context, id uint64, token, redirectURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, p := range m.payments {
		if p.ID == id {
			p.PaymentToken, p.RedirectURL = &token, &redirectURL
			m.payments[k] = p
			return nil
		}
	}
	return repository.ErrPaymentNotFound
}

func (m *memStore) GetByOrderIDForUpdateTx(_ context.Context, _ *sql.Tx, orderID string) (*model.Payment, error) {
	p, ok := m.payments[orderID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	return &p, nil
}

func (m *memStore) UpdateStatusTx(_ context.Context, _ *sql.Tx, id uint64, status model.PaymentStatus, paidAt *time.Time) error {
	for k, p := range m.payments {
		if p.ID == id {
			p.Status, p.PaidAt = status, paidAt
			m.payments[k] = p
			return nil
		}
	}
	return repository.ErrPaymentNotFound
}

// TicketStore

func (m *memStore) CodeExistsTx(_ context.Context, _ *sql.Tx, code string) (bool, error) {
	for _, t := range m.tickets {
		if t.Code == code {
			return true, nil
		}
	}
	return false, nil
}

var errInjected = errors.New("injected failure")

func (m *memStore) CreateTx(_ context.Context, _ *sql.Tx, t *model.Ticket) error {
	m.ticketInserts++
	if m.failOnTicketInsert > 0 && m.ticketInserts == m.failOnTicketInsert {
		return errInjected
	}
	for _, existing := range m.tickets {
		if existing.Code == t.Code {
			return repository.ErrConflict
		}
	}
	m.nextTicketID++
	t.ID = m.nextTicketID
	m.tickets = append(m.tickets, *t)
	return nil
}

func (m *memStore) ListByPaymentTx(_ context.Context, _ *sql.Tx, paymentID uint64) ([]model.Ticket, error) {
	out := []model.Ticket{}
	for _, t := range m.tickets {
		if t.PaymentID == paymentID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeGateway struct {
	err  error
	reqs []gateway.TransactionRequest
}

func (g *fakeGateway) CreateTransaction(_ context.Context, r gateway.TransactionRequest) (*gateway.Transaction, error) {
	g.reqs = append(g.reqs, r)
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.Transaction{Token: "tok-" + r.OrderID, RedirectURL: "https://pay.example/" + r.OrderID}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.TicketsIssuedEvent
	err    error
}

func (p *fakePublisher) PublishTicketsIssued(_ context.Context, ev queue.TicketsIssuedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) published() []queue.TicketsIssuedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.TicketsIssuedEvent(nil), p.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store *memStore, gw gateway.Client, pub TicketsPublisher, opts PaymentOptions) *PaymentService {
	return NewPaymentService(store, store, store, store, gw, pub, discardLogger(), opts)
}
