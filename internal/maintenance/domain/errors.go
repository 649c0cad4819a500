package maintenance

import "errors"

// ErrNotFound indicates a missing ledger entry.
var ErrNotFound = errors.New("maintenance: entry not found")

// ValidationError reports malformed maintenance input with a caller-facing reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "maintenance: " + e.Reason
}
