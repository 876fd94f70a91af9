package model

import "time"

// TicketStatus is the redemption state of a ticket.
type TicketStatus string

const (
	TicketAvailable TicketStatus = "AVAILABLE"
	TicketUsed      TicketStatus = "USED"
)

// Ticket is one redeemable unit minted when a payment becomes paid.
// A paid payment owns exactly Quantity tickets, all created together.
//
// Fields:
//  ID        – primary key identifier.
//  PaymentID – payment that produced the ticket.
//  Name      – label within the batch ("Ticket 1", "Ticket 2", ...).
//  Code      – globally unique redemption code.
//  QRCode    – PNG data URI that encodes Code.
//  Status    – AVAILABLE or USED.
//  UsedAt    – when the ticket was redeemed.
//  CreatedAt – creation timestamp.
type Ticket struct {
	ID        uint64       `json:"id"`                // tickets.id
	PaymentID uint64       `json:"payment_id"`        // tickets.payment_id
	Name      string       `json:"name"`              // tickets.name
	Code      string       `json:"code"`              // tickets.code
	QRCode    string       `json:"qrcode"`            // tickets.qrcode
	Status    TicketStatus `json:"status"`            // tickets.status
	UsedAt    *time.Time   `json:"used_at,omitempty"` // tickets.used_at
	CreatedAt time.Time    `json:"created_at"`        // tickets.created_at
}
