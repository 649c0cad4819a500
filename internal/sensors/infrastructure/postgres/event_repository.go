package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	equipment "medasset-sentinel/internal/equipment/domain"
	sensors "medasset-sentinel/internal/sensors/domain"
)

// EventRepository is a Postgres repository for sensor events.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository constructs a repository.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// AppendWithStatus inserts a sensor event and moves the equipment to the
// reported status in one transaction. Events are append-only.
func (r *EventRepository) AppendWithStatus(ctx context.Context, event *sensors.Event, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("sensor repo: nil db")
	}
	if event == nil {
		return errors.New("sensor repo: nil event")
	}
	if event.ID == "" || event.EquipmentID == "" {
		return errors.New("sensor repo: missing fields")
	}
	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO sensor_events (
	id, equipment_id, status, recorded_at
) VALUES ($1, $2, $3, $4)`,
		event.ID,
		event.EquipmentID,
		string(event.Status),
		event.RecordedAt,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE equipment
SET current_status = $1, updated_at = $2
WHERE id = $3`, string(event.Status), at, event.EquipmentID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListByEquipment lists the newest readings for one equipment item.
func (r *EventRepository) ListByEquipment(ctx context.Context, equipmentID string, limit int) ([]sensors.Event, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("sensor repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, equipment_id, status, recorded_at
FROM sensor_events
WHERE equipment_id = $1
ORDER BY recorded_at DESC
LIMIT $2`, equipmentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []sensors.Event
	for rows.Next() {
		var event sensors.Event
		var status string
		if err := rows.Scan(&event.ID, &event.EquipmentID, &status, &event.RecordedAt); err != nil {
			return nil, err
		}
		event.Status = equipment.Status(status)
		event.RecordedAt = event.RecordedAt.UTC()
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
