package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	alerts "medasset-sentinel/internal/alerts/domain"
	equipment "medasset-sentinel/internal/equipment/domain"
	"medasset-sentinel/internal/observability/metrics"
	sensors "medasset-sentinel/internal/sensors/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// FailureAlertCreator is the alert engine surface the ingest path drives.
type FailureAlertCreator interface {
	CreateEquipmentFailureAlert(ctx context.Context, equipmentID string) (*alerts.Alert, error)
}

// Service ingests status readings. It is the collaborator responsible for
// raising EQUIPMENT_FAILURE alerts on a FAIL reading; the equipment status
// update itself has no alert side effects.
type Service struct {
	events    sensors.Repository
	equipment equipment.Repository
	alerts    FailureAlertCreator
	clock     Clock
}

// ServiceOption customizes the sensor service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewService constructs a sensor ingest service.
func NewService(events sensors.Repository, equipmentRepo equipment.Repository, alertCreator FailureAlertCreator, opts ...ServiceOption) (*Service, error) {
	if events == nil {
		return nil, errors.New("sensors: nil event repository")
	}
	if equipmentRepo == nil {
		return nil, errors.New("sensors: nil equipment repository")
	}
	if alertCreator == nil {
		return nil, errors.New("sensors: nil alert creator")
	}
	service := &Service{
		events:    events,
		equipment: equipmentRepo,
		alerts:    alertCreator,
		clock:     systemClock{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// RecordReading appends a status event and moves the equipment to the
// reported status as one unit, then on FAIL explicitly invokes the failure
// alert (deduplicated by the alert engine).
func (s *Service) RecordReading(ctx context.Context, equipmentID string, status equipment.Status, recordedAt time.Time) (*sensors.Event, error) {
	item, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, equipment.ErrNotFound
	}

	now := s.clock.Now().UTC()
	if recordedAt.IsZero() {
		recordedAt = now
	}

	event := &sensors.Event{
		ID:          uuid.NewString(),
		EquipmentID: equipmentID,
		Status:      status,
		RecordedAt:  recordedAt.UTC(),
	}
	if err := s.events.AppendWithStatus(ctx, event, now); err != nil {
		return nil, err
	}
	metrics.IncSensorReading(string(status))

	if status == equipment.StatusFail {
		if _, err := s.alerts.CreateEquipmentFailureAlert(ctx, equipmentID); err != nil {
			return nil, err
		}
	}
	return event, nil
}

// History lists the latest readings for one equipment item, newest first.
func (s *Service) History(ctx context.Context, equipmentID string, limit int) ([]sensors.Event, error) {
	item, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, equipment.ErrNotFound
	}
	if limit <= 0 {
		limit = 50
	}
	return s.events.ListByEquipment(ctx, equipmentID, limit)
}
