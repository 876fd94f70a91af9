package service

import "strings"

// Signal is what a gateway notification means for a payment.
type Signal int

const (
	SignalUnknown Signal = iota
	SignalSuccess
	SignalPending
)

func (s Signal) String() string {
	switch s {
	case SignalSuccess:
		return "success"
	case SignalPending:
		return "pending"
	default:
		return "unknown"
	}
}

// ClassifySignal maps a notification to a Signal.  status_code wins
// when present; otherwise transaction_status decides.
func ClassifySignal(statusCode, transactionStatus string) Signal {
	switch strings.TrimSpace(statusCode) {
	case "200":
		return SignalSuccess
	case "201":
		return SignalPending
	case "":
	default:
		return SignalUnknown
	}
	switch strings.ToLower(strings.TrimSpace(transactionStatus)) {
	case "settlement", "capture":
		return SignalSuccess
	case "pending":
		return SignalPending
	}
	return SignalUnknown
}
