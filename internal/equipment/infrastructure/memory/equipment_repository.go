package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	equipment "medasset-sentinel/internal/equipment/domain"
)

// EquipmentRepository is an in-memory repository for equipment, used in tests
// and local runs without a database.
type EquipmentRepository struct {
	mu   sync.RWMutex
	data map[string]*equipment.Equipment

	// Cascade hooks invoked on Delete, mirroring the foreign key behavior
	// of the Postgres schema.
	onDelete []func(equipmentID string)
}

// NewEquipmentRepository constructs a repository.
func NewEquipmentRepository() *EquipmentRepository {
	return &EquipmentRepository{data: make(map[string]*equipment.Equipment)}
}

// OnDelete registers a cascade hook fired after an equipment row is removed.
func (r *EquipmentRepository) OnDelete(hook func(equipmentID string)) {
	r.mu.Lock()
	r.onDelete = append(r.onDelete, hook)
	r.mu.Unlock()
}

// Create inserts a new equipment record.
func (r *EquipmentRepository) Create(ctx context.Context, item *equipment.Equipment) error {
	_ = ctx
	if item == nil {
		return equipment.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.SerialNumber == item.SerialNumber {
			return equipment.ErrDuplicateSerial
		}
	}
	clone := *item
	r.data[item.ID] = &clone
	return nil
}

// GetByID fetches equipment by id.
func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*equipment.Equipment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	clone := *item
	return &clone, nil
}

// GetBySerial fetches equipment by serial number.
func (r *EquipmentRepository) GetBySerial(ctx context.Context, serial string) (*equipment.Equipment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.data {
		if item.SerialNumber == serial {
			clone := *item
			return &clone, nil
		}
	}
	return nil, nil
}

// List returns all equipment ordered by serial number.
func (r *EquipmentRepository) List(ctx context.Context) ([]equipment.Equipment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]equipment.Equipment, 0, len(r.data))
	for _, item := range r.data {
		result = append(result, *item)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SerialNumber < result[j].SerialNumber
	})
	return result, nil
}

// ListByStatus returns equipment in the given status.
func (r *EquipmentRepository) ListByStatus(ctx context.Context, status equipment.Status) ([]equipment.Equipment, error) {
	return r.filter(ctx, func(item *equipment.Equipment) bool {
		return item.CurrentStatus == status
	})
}

// ListOverdue returns equipment strictly past its next maintenance date.
func (r *EquipmentRepository) ListOverdue(ctx context.Context, today time.Time) ([]equipment.Equipment, error) {
	day := equipment.Day(today)
	return r.filter(ctx, func(item *equipment.Equipment) bool {
		return equipment.Day(item.NextMaintenanceDate).Before(day)
	})
}

// ListDueBetween returns equipment due in [from, to], both ends inclusive.
func (r *EquipmentRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]equipment.Equipment, error) {
	fromDay, toDay := equipment.Day(from), equipment.Day(to)
	return r.filter(ctx, func(item *equipment.Equipment) bool {
		next := equipment.Day(item.NextMaintenanceDate)
		return !next.Before(fromDay) && !next.After(toDay)
	})
}

// Update rewrites an equipment record.
func (r *EquipmentRepository) Update(ctx context.Context, item *equipment.Equipment) error {
	_ = ctx
	if item == nil {
		return equipment.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[item.ID]; !ok {
		return equipment.ErrNotFound
	}
	clone := *item
	r.data[item.ID] = &clone
	return nil
}

// UpdateStatus records a status transition.
func (r *EquipmentRepository) UpdateStatus(ctx context.Context, id string, status equipment.Status, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.data[id]
	if !ok {
		return equipment.ErrNotFound
	}
	item.CurrentStatus = status
	item.UpdatedAt = at
	return nil
}

// Delete removes equipment and fires the registered cascade hooks.
func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	if _, ok := r.data[id]; !ok {
		r.mu.Unlock()
		return equipment.ErrNotFound
	}
	delete(r.data, id)
	hooks := make([]func(string), len(r.onDelete))
	copy(hooks, r.onDelete)
	r.mu.Unlock()

	for _, hook := range hooks {
		hook(id)
	}
	return nil
}

// CountByStatus returns equipment counts keyed by status.
func (r *EquipmentRepository) CountByStatus(ctx context.Context) (map[equipment.Status]int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[equipment.Status]int)
	for _, item := range r.data {
		counts[item.CurrentStatus]++
	}
	return counts, nil
}

// CountOverdue counts equipment strictly past due.
func (r *EquipmentRepository) CountOverdue(ctx context.Context, today time.Time) (int, error) {
	items, err := r.ListOverdue(ctx, today)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// CountDueBetween counts equipment due in [from, to], both ends inclusive.
func (r *EquipmentRepository) CountDueBetween(ctx context.Context, from, to time.Time) (int, error) {
	items, err := r.ListDueBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *EquipmentRepository) filter(ctx context.Context, keep func(*equipment.Equipment) bool) ([]equipment.Equipment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []equipment.Equipment
	for _, item := range r.data {
		if keep(item) {
			result = append(result, *item)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SerialNumber < result[j].SerialNumber
	})
	return result, nil
}
