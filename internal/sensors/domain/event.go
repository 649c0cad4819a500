package sensors

import (
	"context"
	"time"

	equipment "medasset-sentinel/internal/equipment/domain"
)

// Event is a single status reading from equipment monitoring. Events are
// append-only time-series rows.
type Event struct {
	ID          string           `json:"id"`
	EquipmentID string           `json:"equipment_id"`
	Status      equipment.Status `json:"status"`
	RecordedAt  time.Time        `json:"recorded_at"`
}

// Repository persists sensor events. AppendWithStatus stores the event and
// moves the equipment to the reported status as one unit: a reading must
// never be recorded with the previous status left standing.
type Repository interface {
	AppendWithStatus(ctx context.Context, event *Event, at time.Time) error
	ListByEquipment(ctx context.Context, equipmentID string, limit int) ([]Event, error)
}
