package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/event-ticketing/internal/gateway"
)

// PaymentOptions configures notification verification.
type PaymentOptions struct {
	// ServerKey is the merchant secret shared with the gateway.
	ServerKey string
	// VerifySignature enables signature checks on notifications.  It
	// has no effect while ServerKey is empty.
	VerifySignature bool
}

// PaymentService runs the purchase and confirmation workflow.  It is
// safe for concurrent use; concurrency control lives in the database.
type PaymentService struct {
	tx       Transactor
	events   EventStore
	payments PaymentStore
	tickets  TicketStore
	gw       gateway.Client
	pub      TicketsPublisher
	codes    *CodeGenerator
	log      *slog.Logger
	opts     PaymentOptions
	now      func() time.Time

	// publishes tracks in-flight tickets.issued messages.
	publishes sync.WaitGroup
}

// NewPaymentService wires the workflow.  pub may be nil, in which case
// nothing is announced after a confirmation.
func NewPaymentService(
	tx Transactor,
	events EventStore,
	payments PaymentStore,
	tickets TicketStore,
	gw gateway.Client,
	pub TicketsPublisher,
	log *slog.Logger,
	opts PaymentOptions,
) *PaymentService {
	if log == nil {
		log = slog.Default()
	}
	return &PaymentService{
		tx:       tx,
		events:   events,
		payments: payments,
		tickets:  tickets,
		gw:       gw,
		pub:      pub,
		codes:    NewCodeGenerator(),
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// Wait blocks until background publishes have finished.
func (s *PaymentService) Wait() { s.publishes.Wait() }
