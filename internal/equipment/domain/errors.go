package equipment

import "errors"

var (
	// ErrNotFound indicates a missing equipment record.
	ErrNotFound = errors.New("equipment: not found")
	// ErrDuplicateSerial indicates the serial number is already registered.
	ErrDuplicateSerial = errors.New("equipment: duplicate serial number")
)

// ValidationError reports malformed equipment input with a caller-facing reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "equipment: " + e.Reason
}
