package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is something an organizer sells tickets for.  Quota is the
// number of units still purchasable; it only ever decreases when a
// payment is confirmed and can never drop below zero.
//
// Fields:
//  ID          – primary key identifier.
//  OrganizerID – user (role ORGANIZER) that owns the event.
//  Title       – public event name.
//  Description – free text shown on the event page.
//  Location    – venue or address.
//  StartsAt    – when the event begins.
//  Price       – price of a single ticket.
//  Quota       – remaining purchasable units.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
	ID          uint64          `json:"id"`           // events.id
	OrganizerID uint64          `json:"organizer_id"` // events.organizer_id
	Title       string          `json:"title"`        // events.title
	Description string          `json:"description"`  // events.description
	Location    string          `json:"location"`     // events.location
	StartsAt    time.Time       `json:"starts_at"`    // events.starts_at
	Price       decimal.Decimal `json:"price"`        // events.price
	Quota       int             `json:"quota"`        // events.quota
	CreatedAt   time.Time       `json:"created_at"`   // events.created_at
	UpdatedAt   time.Time       `json:"updated_at"`   // events.updated_at
}
