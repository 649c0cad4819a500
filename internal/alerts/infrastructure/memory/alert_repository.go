package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	alerts "medasset-sentinel/internal/alerts/domain"
)

// AlertRepository is an in-memory repository for alerts, used in tests and
// local runs without a database. The mutex held across the duplicate check
// and the insert gives the same atomicity the Postgres partial unique index
// provides.
type AlertRepository struct {
	mu   sync.RWMutex
	data map[string]*alerts.Alert
}

// NewAlertRepository constructs a repository.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{data: make(map[string]*alerts.Alert)}
}

// Create inserts an alert unless an unresolved duplicate for the same
// (equipment, type) pair exists. System-level alerts skip the check.
func (r *AlertRepository) Create(ctx context.Context, alert *alerts.Alert) (bool, error) {
	_ = ctx
	if alert == nil {
		return false, alerts.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if alert.EquipmentID != "" {
		for _, existing := range r.data {
			if !existing.Resolved && existing.EquipmentID == alert.EquipmentID && existing.Type == alert.Type {
				return false, nil
			}
		}
	}
	clone := *alert
	r.data[alert.ID] = &clone
	return true, nil
}

// GetByID fetches an alert by id.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*alerts.Alert, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	alert, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	clone := *alert
	return &clone, nil
}

// MarkResolved resolves a single alert if still unresolved.
func (r *AlertRepository) MarkResolved(ctx context.Context, id string, at time.Time) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.data[id]
	if !ok || alert.Resolved {
		return false, nil
	}
	alert.Resolved = true
	alert.ResolvedAt = at
	return true, nil
}

// ResolveMaintenance resolves every open maintenance-type alert for the equipment.
func (r *AlertRepository) ResolveMaintenance(ctx context.Context, equipmentID string, at time.Time) (int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, alert := range r.data {
		if alert.Resolved || alert.EquipmentID != equipmentID {
			continue
		}
		if alert.Type != alerts.TypeUpcomingMaintenance && alert.Type != alerts.TypeOverdueMaintenance {
			continue
		}
		alert.Resolved = true
		alert.ResolvedAt = at
		count++
	}
	return count, nil
}

// DetachEquipment nulls the equipment reference on the equipment's alerts,
// mirroring the ON DELETE SET NULL foreign key.
func (r *AlertRepository) DetachEquipment(equipmentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alert := range r.data {
		if alert.EquipmentID == equipmentID {
			alert.EquipmentID = ""
		}
	}
}

// ListUnresolved lists open alerts, highest severity first, newest first
// within a severity.
func (r *AlertRepository) ListUnresolved(ctx context.Context, limit int) ([]alerts.Alert, error) {
	result, err := r.filter(ctx, func(alert *alerts.Alert) bool {
		return !alert.Resolved
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Severity.Rank() != result[j].Severity.Rank() {
			return result[i].Severity.Rank() > result[j].Severity.Rank()
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListRecent lists the newest alerts.
func (r *AlertRepository) ListRecent(ctx context.Context, limit int, includeResolved bool) ([]alerts.Alert, error) {
	result, err := r.filter(ctx, func(alert *alerts.Alert) bool {
		return includeResolved || !alert.Resolved
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListByEquipment lists alerts for one equipment item, newest first.
func (r *AlertRepository) ListByEquipment(ctx context.Context, equipmentID string, resolved *bool) ([]alerts.Alert, error) {
	result, err := r.filter(ctx, func(alert *alerts.Alert) bool {
		if alert.EquipmentID != equipmentID {
			return false
		}
		return resolved == nil || alert.Resolved == *resolved
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Stats returns alert counts.
func (r *AlertRepository) Stats(ctx context.Context) (alerts.Statistics, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats alerts.Statistics
	for _, alert := range r.data {
		stats.TotalAlerts++
		if !alert.Resolved {
			stats.UnresolvedAlerts++
			if alert.Severity == alerts.SeverityCritical {
				stats.CriticalUnresolved++
			}
		}
	}
	return stats, nil
}

func (r *AlertRepository) filter(ctx context.Context, keep func(*alerts.Alert) bool) ([]alerts.Alert, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []alerts.Alert
	for _, alert := range r.data {
		if keep(alert) {
			result = append(result, *alert)
		}
	}
	return result, nil
}
