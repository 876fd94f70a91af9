// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

// TicketsIssuedQueue is the default durable queue tickets.issued
// messages are routed to.
const TicketsIssuedQueue = "tickets.issued"

// TicketsIssuedEvent is published after a payment is confirmed and its
// tickets are committed.  It contains enough information for downstream
// consumers to log, notify or trigger analytics without querying the
// primary database.
type TicketsIssuedEvent struct {
	PaymentID   uint64   `json:"payment_id"`
	OrderID     string   `json:"order_id"`
	UserID      uint64   `json:"user_id"`
	EventID     uint64   `json:"event_id"`
	EventTitle  string   `json:"event_title"`
	Quantity    int      `json:"quantity"`
	Amount      string   `json:"amount"`
	TicketCodes []string `json:"ticket_codes"`
	PaidAt      string   `json:"paid_at"`
}
