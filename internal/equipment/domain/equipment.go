package equipment

import (
	"context"
	"fmt"
	"time"
)

// Status is the operational status reported for a piece of equipment.
type Status string

const (
	StatusOK      Status = "OK"
	StatusWarning Status = "WARNING"
	StatusFail    Status = "FAIL"
)

// ParseStatus decodes the persisted status string.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusOK, StatusWarning, StatusFail:
		return Status(value), nil
	default:
		return "", fmt.Errorf("equipment: unknown status %q", value)
	}
}

// Equipment is a registered device with its maintenance schedule.
// LastMaintenanceDate is zero until the first service is logged; date fields
// are day-granular and normalized to UTC midnight.
type Equipment struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	SerialNumber        string    `json:"serial_number"`
	EquipmentType       string    `json:"equipment_type"`
	Location            string    `json:"location,omitempty"`
	Manufacturer        string    `json:"manufacturer,omitempty"`
	MaintenanceInterval int       `json:"maintenance_interval"`
	LastMaintenanceDate time.Time `json:"last_maintenance_date,omitempty"`
	NextMaintenanceDate time.Time `json:"next_maintenance_date"`
	CurrentStatus       Status    `json:"current_status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at,omitempty"`
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RecalculateNextMaintenance derives the next due date from the last service
// date, or from the reference day when the equipment was never serviced.
// Must be re-run whenever the interval or last service date changes.
func (e *Equipment) RecalculateNextMaintenance(today time.Time) {
	if !e.LastMaintenanceDate.IsZero() {
		e.NextMaintenanceDate = Day(e.LastMaintenanceDate).AddDate(0, 0, e.MaintenanceInterval)
		return
	}
	e.NextMaintenanceDate = Day(today).AddDate(0, 0, e.MaintenanceInterval)
}

// IsOverdue reports whether maintenance is strictly past due.
func (e *Equipment) IsOverdue(today time.Time) bool {
	return Day(today).After(Day(e.NextMaintenanceDate))
}

// DaysUntilMaintenance returns the signed day distance to the next due date.
// Negative values mean overdue by that many days.
func (e *Equipment) DaysUntilMaintenance(today time.Time) int {
	delta := Day(e.NextMaintenanceDate).Sub(Day(today))
	return int(delta.Hours() / 24)
}

// Statistics summarizes the registry for dashboards.
type Statistics struct {
	Total              int `json:"total"`
	OK                 int `json:"ok"`
	Warning            int `json:"warning"`
	Fail               int `json:"fail"`
	OverdueMaintenance int `json:"overdue_maintenance"`
}

// Repository manages equipment persistence. Lookups return (nil, nil) when
// the row does not exist.
type Repository interface {
	Create(ctx context.Context, item *Equipment) error
	GetByID(ctx context.Context, id string) (*Equipment, error)
	GetBySerial(ctx context.Context, serial string) (*Equipment, error)
	List(ctx context.Context) ([]Equipment, error)
	ListByStatus(ctx context.Context, status Status) ([]Equipment, error)
	ListOverdue(ctx context.Context, today time.Time) ([]Equipment, error)
	ListDueBetween(ctx context.Context, from, to time.Time) ([]Equipment, error)
	Update(ctx context.Context, item *Equipment) error
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[Status]int, error)
	CountOverdue(ctx context.Context, today time.Time) (int, error)
	CountDueBetween(ctx context.Context, from, to time.Time) (int, error)
}
