package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	equipmentmemory "medasset-sentinel/internal/equipment/infrastructure/memory"
	sensors "medasset-sentinel/internal/sensors/domain"
)

// EventRepository is an in-memory sensor event store.
type EventRepository struct {
	mu        sync.RWMutex
	events    []sensors.Event
	equipment *equipmentmemory.EquipmentRepository
}

// NewEventRepository constructs a repository. When an equipment repository
// is given, its delete cascade drops the equipment's event history.
func NewEventRepository(equipmentRepo *equipmentmemory.EquipmentRepository) *EventRepository {
	repo := &EventRepository{equipment: equipmentRepo}
	if equipmentRepo != nil {
		equipmentRepo.OnDelete(repo.dropByEquipment)
	}
	return repo
}

// AppendWithStatus stores a sensor event and moves the equipment to the
// reported status.
func (r *EventRepository) AppendWithStatus(ctx context.Context, event *sensors.Event, at time.Time) error {
	if r.equipment == nil {
		return errors.New("sensor repo: nil equipment repository")
	}
	if err := r.equipment.UpdateStatus(ctx, event.EquipmentID, event.Status, at); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// ListByEquipment lists the newest readings for one equipment item.
func (r *EventRepository) ListByEquipment(ctx context.Context, equipmentID string, limit int) ([]sensors.Event, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []sensors.Event
	for _, event := range r.events {
		if event.EquipmentID == equipmentID {
			result = append(result, event)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RecordedAt.After(result[j].RecordedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *EventRepository) dropByEquipment(equipmentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.events[:0]
	for _, event := range r.events {
		if event.EquipmentID != equipmentID {
			kept = append(kept, event)
		}
	}
	r.events = kept
}
