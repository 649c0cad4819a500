package memory

import (
	"context"
	"sort"
	"sync"

	alertmemory "medasset-sentinel/internal/alerts/infrastructure/memory"
	equipment "medasset-sentinel/internal/equipment/domain"
	equipmentmemory "medasset-sentinel/internal/equipment/infrastructure/memory"
	maintenance "medasset-sentinel/internal/maintenance/domain"
)

// LedgerRepository is an in-memory maintenance ledger. AppendCompleted
// applies the same three writes the Postgres transaction does, against the
// in-memory equipment and alert repositories.
type LedgerRepository struct {
	mu      sync.RWMutex
	entries map[string]*maintenance.Entry

	equipment *equipmentmemory.EquipmentRepository
	alerts    *alertmemory.AlertRepository
}

// NewLedgerRepository constructs a ledger bound to the in-memory equipment
// and alert repositories.
func NewLedgerRepository(equipmentRepo *equipmentmemory.EquipmentRepository, alertRepo *alertmemory.AlertRepository) *LedgerRepository {
	repo := &LedgerRepository{
		entries:   make(map[string]*maintenance.Entry),
		equipment: equipmentRepo,
		alerts:    alertRepo,
	}
	if equipmentRepo != nil {
		equipmentRepo.OnDelete(repo.dropByEquipment)
		if alertRepo != nil {
			equipmentRepo.OnDelete(alertRepo.DetachEquipment)
		}
	}
	return repo
}

// AppendCompleted writes the entry, rewrites the equipment schedule and
// resolves open maintenance alerts.
func (r *LedgerRepository) AppendCompleted(ctx context.Context, entry *maintenance.Entry, change maintenance.ScheduleChange) (int, error) {
	if entry == nil {
		return 0, maintenance.ErrNotFound
	}

	item, err := r.equipment.GetByID(ctx, change.EquipmentID)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return 0, equipment.ErrNotFound
	}
	item.LastMaintenanceDate = change.LastMaintenanceDate
	item.NextMaintenanceDate = change.NextMaintenanceDate
	item.UpdatedAt = change.UpdatedAt
	if err := r.equipment.Update(ctx, item); err != nil {
		return 0, err
	}

	resolved, err := r.alerts.ResolveMaintenance(ctx, entry.EquipmentID, change.UpdatedAt)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	clone := *entry
	r.entries[entry.ID] = &clone
	r.mu.Unlock()
	return resolved, nil
}

// GetByID fetches one ledger entry.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*maintenance.Entry, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	clone := *entry
	return &clone, nil
}

// ListByEquipment lists entries for one equipment item, newest first.
func (r *LedgerRepository) ListByEquipment(ctx context.Context, equipmentID string, limit int) ([]maintenance.Entry, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []maintenance.Entry
	for _, entry := range r.entries {
		if entry.EquipmentID == equipmentID {
			result = append(result, *entry)
		}
	}
	sortByPerformedAt(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListRecent lists the newest entries across all equipment.
func (r *LedgerRepository) ListRecent(ctx context.Context, limit int) ([]maintenance.Entry, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]maintenance.Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, *entry)
	}
	sortByPerformedAt(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Count returns the total number of ledger entries.
func (r *LedgerRepository) Count(ctx context.Context) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries), nil
}

func (r *LedgerRepository) dropByEquipment(equipmentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.entries {
		if entry.EquipmentID == equipmentID {
			delete(r.entries, id)
		}
	}
}

func sortByPerformedAt(entries []maintenance.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PerformedAt.After(entries[j].PerformedAt)
	})
}
