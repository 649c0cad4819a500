package maintenance

import (
	"context"
	"time"
)

// Entry is a completed maintenance action. Entries are append-only; once
// written they are never updated or deleted.
type Entry struct {
	ID          string    `json:"id"`
	EquipmentID string    `json:"equipment_id"`
	PerformedAt time.Time `json:"performed_at"`
	PerformedBy string    `json:"performed_by"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScheduleChange carries the equipment schedule fields rewritten when an
// entry is appended.
type ScheduleChange struct {
	EquipmentID         string
	LastMaintenanceDate time.Time
	NextMaintenanceDate time.Time
	UpdatedAt           time.Time
}

// Statistics summarizes ledger and schedule state for dashboards.
type Statistics struct {
	TotalLogs     int `json:"total_maintenance_logs"`
	OverdueCount  int `json:"overdue_count"`
	UpcomingCount int `json:"upcoming_count"`
}

// Ledger persists maintenance entries. In AppendCompleted the entry insert,
// the equipment schedule update and the resolution of open maintenance
// alerts must commit or roll back as one unit. Maintenance must never be
// recorded with its alerts left standing, nor the reverse.
type Ledger interface {
	AppendCompleted(ctx context.Context, entry *Entry, change ScheduleChange) (resolvedAlerts int, err error)
	GetByID(ctx context.Context, id string) (*Entry, error)
	ListByEquipment(ctx context.Context, equipmentID string, limit int) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	Count(ctx context.Context) (int, error)
}
