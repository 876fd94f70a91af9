package service

import (
	"context"
	"database/sql"
	"fmt"
)

// CanFulfill reports whether quota covers quantity.  The bound is
// inclusive: the last unit can be sold.
func CanFulfill(quota, quantity int) bool {
	return quantity > 0 && quota >= quantity
}

// reserve takes quantity units off the event inside tx.  The check and
// the decrement are one conditional statement, so concurrent
// confirmations cannot oversell.
func reserve(ctx context.Context, events EventStore, tx *sql.Tx, eventID uint64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	ok, err := events.DecrementQuotaTx(ctx, tx, eventID, quantity)
	if err != nil {
		return fmt.Errorf("decrement quota: %w", err)
	}
	if !ok {
		return ErrInsufficientQuota
	}
	return nil
}
