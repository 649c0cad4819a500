package alerts

import "errors"

var (
	// ErrNotFound indicates a missing alert record.
	ErrNotFound = errors.New("alert: not found")
	// ErrAlreadyResolved is returned when resolving an alert twice.
	ErrAlreadyResolved = errors.New("alert: already resolved")
	// ErrInvalidType is returned when a maintenance alert is requested with
	// a type that is not UPCOMING_MAINTENANCE or OVERDUE_MAINTENANCE.
	ErrInvalidType = errors.New("alert: invalid maintenance alert type")
)
