package tickets

import "errors"

var (
	// ErrAmountMismatch means the gateway confirmed a different amount than
	// the ticket total. The registration is never marked paid; the stray
	// charge is left for manual follow-up via reconciliation.
	ErrAmountMismatch = errors.New("confirmed amount does not match the ticket price")
)
