package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	alerts "medasset-sentinel/internal/alerts/domain"
	maintenance "medasset-sentinel/internal/maintenance/domain"
)

const entryColumns = `id, equipment_id, performed_at, performed_by, notes, created_at`

// LedgerRepository is a Postgres repository for the maintenance ledger.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository constructs a repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// AppendCompleted writes the ledger entry, rewrites the equipment schedule
// and resolves open maintenance alerts inside one transaction. Any failure
// rolls all three back: maintenance is never recorded with stale alerts
// left standing, nor alerts cleared without the entry.
func (r *LedgerRepository) AppendCompleted(ctx context.Context, entry *maintenance.Entry, change maintenance.ScheduleChange) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("ledger repo: nil db")
	}
	if entry == nil {
		return 0, errors.New("ledger repo: nil entry")
	}
	if entry.ID == "" || entry.EquipmentID == "" || entry.PerformedBy == "" {
		return 0, errors.New("ledger repo: missing fields")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO maintenance_log (
	id, equipment_id, performed_at, performed_by, notes, created_at
) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID,
		entry.EquipmentID,
		entry.PerformedAt,
		entry.PerformedBy,
		nullableString(entry.Notes),
		entry.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
UPDATE equipment
SET last_maintenance_date = $1, next_maintenance_date = $2, updated_at = $3
WHERE id = $4`,
		change.LastMaintenanceDate,
		change.NextMaintenanceDate,
		change.UpdatedAt,
		change.EquipmentID,
	)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	result, err := tx.ExecContext(ctx, `
UPDATE alerts
SET resolved = true, resolved_at = $1
WHERE equipment_id = $2 AND NOT resolved
	AND alert_type IN ($3, $4)`,
		change.UpdatedAt,
		entry.EquipmentID,
		string(alerts.TypeUpcomingMaintenance),
		string(alerts.TypeOverdueMaintenance),
	)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	resolved, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(resolved), nil
}

// GetByID fetches one ledger entry.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*maintenance.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+entryColumns+`
FROM maintenance_log
WHERE id = $1`, id)
	return scanEntry(row)
}

// ListByEquipment lists entries for one equipment item, newest first.
// limit <= 0 disables the limit.
func (r *LedgerRepository) ListByEquipment(ctx context.Context, equipmentID string, limit int) ([]maintenance.Entry, error) {
	query := `
SELECT ` + entryColumns + `
FROM maintenance_log
WHERE equipment_id = $1
ORDER BY performed_at DESC`
	args := []any{equipmentID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

// ListRecent lists the newest entries across all equipment.
func (r *LedgerRepository) ListRecent(ctx context.Context, limit int) ([]maintenance.Entry, error) {
	return r.list(ctx, `
SELECT `+entryColumns+`
FROM maintenance_log
ORDER BY performed_at DESC
LIMIT $1`, limit)
}

// Count returns the total number of ledger entries.
func (r *LedgerRepository) Count(ctx context.Context) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("ledger repo: nil db")
	}
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM maintenance_log`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LedgerRepository) list(ctx context.Context, query string, args ...any) ([]maintenance.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []maintenance.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type entryScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row entryScanner) (*maintenance.Entry, error) {
	var entry maintenance.Entry
	var notes sql.NullString
	if err := row.Scan(
		&entry.ID,
		&entry.EquipmentID,
		&entry.PerformedAt,
		&entry.PerformedBy,
		&notes,
		&entry.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	entry.Notes = notes.String
	entry.PerformedAt = entry.PerformedAt.UTC()
	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
