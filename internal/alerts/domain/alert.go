package alerts

import (
	"context"
	"fmt"
	"time"
)

// Type classifies an alert.
type Type string

const (
	TypeUpcomingMaintenance Type = "UPCOMING_MAINTENANCE"
	TypeOverdueMaintenance  Type = "OVERDUE_MAINTENANCE"
	TypeEquipmentFailure    Type = "EQUIPMENT_FAILURE"
)

// ParseType decodes the persisted alert type string.
func ParseType(value string) (Type, error) {
	switch Type(value) {
	case TypeUpcomingMaintenance, TypeOverdueMaintenance, TypeEquipmentFailure:
		return Type(value), nil
	default:
		return "", fmt.Errorf("alert: unknown type %q", value)
	}
}

// Severity is the alert priority level.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// ParseSeverity decodes the persisted severity string.
func ParseSeverity(value string) (Severity, error) {
	switch Severity(value) {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return Severity(value), nil
	default:
		return "", fmt.Errorf("alert: unknown severity %q", value)
	}
}

// Rank orders severities for listing, highest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Alert is a stored alert record. Alerts are never deleted; resolution is a
// one-way transition. EquipmentID is empty for system-level alerts and for
// alerts whose equipment was removed after the fact.
type Alert struct {
	ID          string    `json:"id"`
	EquipmentID string    `json:"equipment_id,omitempty"`
	Type        Type      `json:"alert_type"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	Resolved    bool      `json:"resolved"`
	ResolvedAt  time.Time `json:"resolved_at,omitempty"`
}

// MaintenanceTypes are the alert types cleared when maintenance is performed.
// EQUIPMENT_FAILURE is deliberately excluded; a failure alert is only cleared
// by explicit resolution.
var MaintenanceTypes = []Type{TypeUpcomingMaintenance, TypeOverdueMaintenance}

// Statistics summarizes alert state for dashboards.
type Statistics struct {
	TotalAlerts        int `json:"total_alerts"`
	UnresolvedAlerts   int `json:"unresolved_alerts"`
	CriticalUnresolved int `json:"critical_unresolved"`
}

// Repository manages alert persistence. Create must be atomic with respect to
// the open-alert dedup invariant: at most one unresolved alert per
// (equipment, type) pair may ever be visible, enforced in Postgres by a
// partial unique index and ON CONFLICT DO NOTHING. Lookups return (nil, nil)
// when the row does not exist.
type Repository interface {
	// Create inserts the alert and reports whether a row was actually
	// written; false means an unresolved duplicate suppressed it.
	Create(ctx context.Context, alert *Alert) (bool, error)
	GetByID(ctx context.Context, id string) (*Alert, error)
	// MarkResolved flips resolved on a single alert; reports whether the
	// row was still unresolved.
	MarkResolved(ctx context.Context, id string, at time.Time) (bool, error)
	// ResolveMaintenance resolves every open maintenance-type alert for the
	// equipment in one statement and returns the count.
	ResolveMaintenance(ctx context.Context, equipmentID string, at time.Time) (int, error)
	ListUnresolved(ctx context.Context, limit int) ([]Alert, error)
	ListRecent(ctx context.Context, limit int, includeResolved bool) ([]Alert, error)
	ListByEquipment(ctx context.Context, equipmentID string, resolved *bool) ([]Alert, error)
	Stats(ctx context.Context) (Statistics, error)
}
