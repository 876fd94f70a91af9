// Package service holds the payment workflow: purchase initiation and
// the gateway notification that confirms a payment, guards inventory
// and mints tickets.
package service

import (
	"errors"

	"github.com/iliyamo/event-ticketing/internal/repository"
)

// Lookup failures share identity with the repository sentinels so a
// single errors.Is works at the HTTP boundary whichever layer produced
// them.
var (
	ErrPaymentNotFound = repository.ErrPaymentNotFound
	ErrEventNotFound   = repository.ErrEventNotFound
)

var (
	// ErrInsufficientQuota means the event cannot fulfil the requested
	// quantity.  Nothing was modified.
	ErrInsufficientQuota = errors.New("insufficient quota")

	// ErrUnrecognizedStatus means the notification carried a status
	// that is neither success nor pending.  Nothing was modified.
	ErrUnrecognizedStatus = errors.New("unrecognized transaction status")

	ErrInvalidSignature   = errors.New("invalid notification signature")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrUpstream           = errors.New("payment gateway unavailable")
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique ticket code")
)
