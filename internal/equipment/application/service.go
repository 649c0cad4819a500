package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	equipment "medasset-sentinel/internal/equipment/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// CreateInput carries the fields for registering equipment.
type CreateInput struct {
	Name                string `json:"name"`
	SerialNumber        string `json:"serial_number"`
	EquipmentType       string `json:"equipment_type"`
	Location            string `json:"location"`
	Manufacturer        string `json:"manufacturer"`
	MaintenanceInterval int    `json:"maintenance_interval"`
}

// UpdateInput carries the mutable fields of an equipment record. Nil fields
// are left unchanged.
type UpdateInput struct {
	Name                *string `json:"name"`
	EquipmentType       *string `json:"equipment_type"`
	Location            *string `json:"location"`
	Manufacturer        *string `json:"manufacturer"`
	MaintenanceInterval *int    `json:"maintenance_interval"`
}

// Service owns equipment registration, mutation and queries.
type Service struct {
	repo  equipment.Repository
	clock Clock
}

// ServiceOption customizes the equipment service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService constructs an equipment service.
func NewService(repo equipment.Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("equipment: nil repository")
	}
	service := &Service{repo: repo, clock: systemClock{}}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create registers new equipment with status OK and a next maintenance date
// computed from the creation day.
func (s *Service) Create(ctx context.Context, input CreateInput) (*equipment.Equipment, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.SerialNumber) == "" || strings.TrimSpace(input.EquipmentType) == "" {
		return nil, &equipment.ValidationError{Reason: "name, serial number and type are required"}
	}
	if input.MaintenanceInterval <= 0 {
		return nil, &equipment.ValidationError{Reason: "maintenance interval must be greater than 0"}
	}

	existing, err := s.repo.GetBySerial(ctx, input.SerialNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, equipment.ErrDuplicateSerial
	}

	now := s.clock.Now().UTC()
	item := &equipment.Equipment{
		ID:                  uuid.NewString(),
		Name:                strings.TrimSpace(input.Name),
		SerialNumber:        strings.TrimSpace(input.SerialNumber),
		EquipmentType:       strings.TrimSpace(input.EquipmentType),
		Location:            input.Location,
		Manufacturer:        input.Manufacturer,
		MaintenanceInterval: input.MaintenanceInterval,
		CurrentStatus:       equipment.StatusOK,
		CreatedAt:           now,
	}
	item.RecalculateNextMaintenance(now)

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Get fetches equipment by id.
func (s *Service) Get(ctx context.Context, id string) (*equipment.Equipment, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, equipment.ErrNotFound
	}
	return item, nil
}

// GetBySerial fetches equipment by serial number.
func (s *Service) GetBySerial(ctx context.Context, serial string) (*equipment.Equipment, error) {
	item, err := s.repo.GetBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, equipment.ErrNotFound
	}
	return item, nil
}

// List returns all equipment ordered by serial number.
func (s *Service) List(ctx context.Context) ([]equipment.Equipment, error) {
	return s.repo.List(ctx)
}

// ListByStatus returns equipment in the given operational status.
func (s *Service) ListByStatus(ctx context.Context, status equipment.Status) ([]equipment.Equipment, error) {
	return s.repo.ListByStatus(ctx, status)
}

// ListFailing returns equipment currently reporting FAIL.
func (s *Service) ListFailing(ctx context.Context) ([]equipment.Equipment, error) {
	return s.repo.ListByStatus(ctx, equipment.StatusFail)
}

// ListOverdue returns equipment strictly past its next maintenance date.
func (s *Service) ListOverdue(ctx context.Context) ([]equipment.Equipment, error) {
	return s.repo.ListOverdue(ctx, equipment.Day(s.clock.Now()))
}

// ListUpcoming returns equipment due within the next days, today inclusive.
func (s *Service) ListUpcoming(ctx context.Context, days int) ([]equipment.Equipment, error) {
	if days <= 0 {
		days = 7
	}
	today := equipment.Day(s.clock.Now())
	return s.repo.ListDueBetween(ctx, today, today.AddDate(0, 0, days))
}

// Update mutates the allowed equipment fields; changing the interval
// recomputes the next maintenance date.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*equipment.Equipment, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, equipment.ErrNotFound
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, &equipment.ValidationError{Reason: "name must not be blank"}
		}
		item.Name = strings.TrimSpace(*input.Name)
	}
	if input.EquipmentType != nil {
		if strings.TrimSpace(*input.EquipmentType) == "" {
			return nil, &equipment.ValidationError{Reason: "equipment type must not be blank"}
		}
		item.EquipmentType = strings.TrimSpace(*input.EquipmentType)
	}
	if input.Location != nil {
		item.Location = *input.Location
	}
	if input.Manufacturer != nil {
		item.Manufacturer = *input.Manufacturer
	}
	if input.MaintenanceInterval != nil {
		if *input.MaintenanceInterval <= 0 {
			return nil, &equipment.ValidationError{Reason: "maintenance interval must be greater than 0"}
		}
		item.MaintenanceInterval = *input.MaintenanceInterval
		item.RecalculateNextMaintenance(s.clock.Now())
	}
	item.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateStatus records a new operational status. It never raises alerts:
// callers transitioning to FAIL must invoke the alert engine themselves.
func (s *Service) UpdateStatus(ctx context.Context, id string, status equipment.Status) (*equipment.Equipment, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, equipment.ErrNotFound
	}
	now := s.clock.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, status, now); err != nil {
		return nil, err
	}
	item.CurrentStatus = status
	item.UpdatedAt = now
	return item, nil
}

// Delete removes equipment. Maintenance logs and sensor history go with it;
// alerts keep their rows with the equipment reference nulled, as the
// permanent audit trail.
func (s *Service) Delete(ctx context.Context, id string) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return equipment.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// Statistics returns registry counts for dashboards.
func (s *Service) Statistics(ctx context.Context) (equipment.Statistics, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return equipment.Statistics{}, err
	}
	overdue, err := s.repo.CountOverdue(ctx, equipment.Day(s.clock.Now()))
	if err != nil {
		return equipment.Statistics{}, err
	}
	stats := equipment.Statistics{
		OK:                 byStatus[equipment.StatusOK],
		Warning:            byStatus[equipment.StatusWarning],
		Fail:               byStatus[equipment.StatusFail],
		OverdueMaintenance: overdue,
	}
	stats.Total = stats.OK + stats.Warning + stats.Fail
	return stats, nil
}
