package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	equipment "medasset-sentinel/internal/equipment/domain"
	maintenance "medasset-sentinel/internal/maintenance/domain"
	"medasset-sentinel/internal/observability/metrics"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service owns maintenance logging and ledger queries.
type Service struct {
	ledger    maintenance.Ledger
	equipment equipment.Repository
	clock     Clock
}

// ServiceOption customizes the maintenance service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService constructs a maintenance service.
func NewService(ledger maintenance.Ledger, equipmentRepo equipment.Repository, opts ...ServiceOption) (*Service, error) {
	if ledger == nil {
		return nil, errors.New("maintenance: nil ledger")
	}
	if equipmentRepo == nil {
		return nil, errors.New("maintenance: nil equipment repository")
	}
	service := &Service{ledger: ledger, equipment: equipmentRepo, clock: systemClock{}}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// LogMaintenance records a completed maintenance action. The ledger entry,
// the rewritten schedule (last date = day of performedAt, next date = last +
// interval) and the resolution of open maintenance alerts commit as one
// transaction. A zero performedAt defaults to now; future timestamps are
// rejected. Returns the entry and the number of alerts resolved with it.
func (s *Service) LogMaintenance(ctx context.Context, equipmentID, performedBy, notes string, performedAt time.Time) (*maintenance.Entry, int, error) {
	item, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, 0, err
	}
	if item == nil {
		return nil, 0, equipment.ErrNotFound
	}

	performedBy = strings.TrimSpace(performedBy)
	if performedBy == "" {
		return nil, 0, &maintenance.ValidationError{Reason: "performed by is required"}
	}

	now := s.clock.Now().UTC()
	if performedAt.IsZero() {
		performedAt = now
	}
	performedAt = performedAt.UTC()
	if performedAt.After(now) {
		return nil, 0, &maintenance.ValidationError{Reason: "maintenance date cannot be in the future"}
	}

	entry := &maintenance.Entry{
		ID:          uuid.NewString(),
		EquipmentID: equipmentID,
		PerformedAt: performedAt,
		PerformedBy: performedBy,
		Notes:       notes,
		CreatedAt:   now,
	}

	lastDate := equipment.Day(performedAt)
	change := maintenance.ScheduleChange{
		EquipmentID:         equipmentID,
		LastMaintenanceDate: lastDate,
		NextMaintenanceDate: lastDate.AddDate(0, 0, item.MaintenanceInterval),
		UpdatedAt:           now,
	}

	resolved, err := s.ledger.AppendCompleted(ctx, entry, change)
	if err != nil {
		return nil, 0, err
	}
	metrics.IncMaintenanceLogged()
	if resolved > 0 {
		metrics.AddAlertsResolved(resolved)
	}
	return entry, resolved, nil
}

// History lists maintenance entries for one equipment item, newest first.
// limit <= 0 means no limit.
func (s *Service) History(ctx context.Context, equipmentID string, limit int) ([]maintenance.Entry, error) {
	item, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, equipment.ErrNotFound
	}
	return s.ledger.ListByEquipment(ctx, equipmentID, limit)
}

// Recent lists the latest entries across all equipment.
func (s *Service) Recent(ctx context.Context, limit int) ([]maintenance.Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.ledger.ListRecent(ctx, limit)
}

// Get fetches one ledger entry.
func (s *Service) Get(ctx context.Context, id string) (*maintenance.Entry, error) {
	entry, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, maintenance.ErrNotFound
	}
	return entry, nil
}

// Statistics returns ledger and schedule counts for dashboards.
func (s *Service) Statistics(ctx context.Context) (maintenance.Statistics, error) {
	total, err := s.ledger.Count(ctx)
	if err != nil {
		return maintenance.Statistics{}, err
	}
	today := equipment.Day(s.clock.Now())
	overdue, err := s.equipment.CountOverdue(ctx, today)
	if err != nil {
		return maintenance.Statistics{}, err
	}
	upcoming, err := s.equipment.CountDueBetween(ctx, today, today.AddDate(0, 0, upcomingWindowDays))
	if err != nil {
		return maintenance.Statistics{}, err
	}
	return maintenance.Statistics{
		TotalLogs:     total,
		OverdueCount:  overdue,
		UpcomingCount: upcoming,
	}, nil
}
