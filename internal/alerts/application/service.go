package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	alerts "medasset-sentinel/internal/alerts/domain"
	equipment "medasset-sentinel/internal/equipment/domain"
	"medasset-sentinel/internal/observability/metrics"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service owns the alert lifecycle: creation with dedup, one-way resolution
// and read-only views.
type Service struct {
	alerts    alerts.Repository
	equipment equipment.Repository
	clock     Clock
}

// ServiceOption customizes the alert service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService constructs an alert service.
func NewService(alertsRepo alerts.Repository, equipmentRepo equipment.Repository, opts ...ServiceOption) (*Service, error) {
	if alertsRepo == nil {
		return nil, errors.New("alerts: nil alert repository")
	}
	if equipmentRepo == nil {
		return nil, errors.New("alerts: nil equipment repository")
	}
	service := &Service{
		alerts:    alertsRepo,
		equipment: equipmentRepo,
		clock:     systemClock{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// CreateAlert inserts an alert, suppressing it when an unresolved alert of
// the same (equipment, type) pair already exists. Suppression is a success:
// the result is (nil, nil), not an error. System-level alerts (empty
// equipmentID) are never deduplicated.
func (s *Service) CreateAlert(ctx context.Context, equipmentID string, typ alerts.Type, severity alerts.Severity, message string) (*alerts.Alert, error) {
	alert := &alerts.Alert{
		ID:          uuid.NewString(),
		EquipmentID: equipmentID,
		Type:        typ,
		Severity:    severity,
		Message:     message,
		CreatedAt:   s.clock.Now().UTC(),
	}
	created, err := s.alerts.Create(ctx, alert)
	if err != nil {
		return nil, err
	}
	if !created {
		metrics.IncAlertSuppressed(string(typ))
		return nil, nil
	}
	metrics.IncAlertCreated(string(typ))
	return alert, nil
}

// CreateEquipmentFailureAlert raises a CRITICAL failure alert naming the
// equipment. The caller is responsible for invoking this after a status
// change to FAIL; status updates never raise alerts on their own.
func (s *Service) CreateEquipmentFailureAlert(ctx context.Context, equipmentID string) (*alerts.Alert, error) {
	item, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, equipment.ErrNotFound
	}
	message := fmt.Sprintf("CRITICAL: %s (%s) has FAILED", item.Name, item.SerialNumber)
	return s.CreateAlert(ctx, equipmentID, alerts.TypeEquipmentFailure, alerts.SeverityCritical, message)
}

// CreateMaintenanceAlert raises an OVERDUE_MAINTENANCE (CRITICAL) or
// UPCOMING_MAINTENANCE (WARNING) alert; days is the overdue count or the
// days remaining depending on the type. Returns whether a new alert was
// actually written: false on dedup suppression and on missing equipment.
func (s *Service) CreateMaintenanceAlert(ctx context.Context, equipmentID string, typ alerts.Type, days int) (bool, error) {
	item, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	var severity alerts.Severity
	var message string
	switch typ {
	case alerts.TypeOverdueMaintenance:
		severity = alerts.SeverityCritical
		message = fmt.Sprintf("OVERDUE: %s (%s) maintenance overdue by %d days", item.Name, item.SerialNumber, days)
	case alerts.TypeUpcomingMaintenance:
		severity = alerts.SeverityWarning
		message = fmt.Sprintf("UPCOMING: %s (%s) maintenance due in %d days", item.Name, item.SerialNumber, days)
	default:
		return false, alerts.ErrInvalidType
	}

	alert, err := s.CreateAlert(ctx, equipmentID, typ, severity, message)
	if err != nil {
		return false, err
	}
	return alert != nil, nil
}

// ResolveAlert marks an alert resolved. Resolution is one-way: a second
// attempt fails with ErrAlreadyResolved and leaves the resolved timestamp
// untouched.
func (s *Service) ResolveAlert(ctx context.Context, id string) (*alerts.Alert, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, alerts.ErrNotFound
	}
	if alert.Resolved {
		return nil, alerts.ErrAlreadyResolved
	}
	resolvedAt := s.clock.Now().UTC()
	resolved, err := s.alerts.MarkResolved(ctx, id, resolvedAt)
	if err != nil {
		return nil, err
	}
	if !resolved {
		// Lost the race against a concurrent resolve.
		return nil, alerts.ErrAlreadyResolved
	}
	alert.Resolved = true
	alert.ResolvedAt = resolvedAt
	metrics.IncAlertResolved(string(alert.Type))
	return alert, nil
}

// ResolveMaintenanceAlerts resolves every open UPCOMING_MAINTENANCE and
// OVERDUE_MAINTENANCE alert for the equipment in a single batch and returns
// the count. EQUIPMENT_FAILURE alerts are left standing.
func (s *Service) ResolveMaintenanceAlerts(ctx context.Context, equipmentID string) (int, error) {
	count, err := s.alerts.ResolveMaintenance(ctx, equipmentID, s.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		metrics.AddAlertsResolved(count)
	}
	return count, nil
}

// UnresolvedAlerts lists open alerts, highest severity first, newest first
// within a severity. limit <= 0 means no limit.
func (s *Service) UnresolvedAlerts(ctx context.Context, limit int) ([]alerts.Alert, error) {
	return s.alerts.ListUnresolved(ctx, limit)
}

// RecentAlerts lists the latest alerts, optionally including resolved ones.
func (s *Service) RecentAlerts(ctx context.Context, limit int, includeResolved bool) ([]alerts.Alert, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.alerts.ListRecent(ctx, limit, includeResolved)
}

// AlertsByEquipment lists alerts for one equipment item, newest first.
// resolved filters by resolution state when non-nil.
func (s *Service) AlertsByEquipment(ctx context.Context, equipmentID string, resolved *bool) ([]alerts.Alert, error) {
	return s.alerts.ListByEquipment(ctx, equipmentID, resolved)
}

// Statistics returns alert counts for dashboards.
func (s *Service) Statistics(ctx context.Context) (alerts.Statistics, error) {
	return s.alerts.Stats(ctx)
}
