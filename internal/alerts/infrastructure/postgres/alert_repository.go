package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	alerts "medasset-sentinel/internal/alerts/domain"
)

const alertColumns = `id, equipment_id, alert_type, severity, message, created_at, resolved, resolved_at`

// AlertRepository is a Postgres repository for alerts.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository constructs a repository.
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts an alert. At most one unresolved alert may exist per
// (equipment, type); the partial unique index ux_alerts_open enforces that,
// and ON CONFLICT DO NOTHING turns a duplicate into a suppressed insert.
// Returns false when the insert was suppressed. System-level alerts carry a
// NULL equipment_id and are never deduplicated.
func (r *AlertRepository) Create(ctx context.Context, alert *alerts.Alert) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("alert repo: nil db")
	}
	if alert == nil {
		return false, errors.New("alert repo: nil alert")
	}
	if alert.ID == "" || alert.Type == "" || alert.Severity == "" {
		return false, errors.New("alert repo: missing fields")
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.ExecContext(ctx, `
INSERT INTO alerts (
	id, equipment_id, alert_type, severity, message, created_at, resolved
) VALUES (
	$1, $2, $3, $4, $5, $6, false
)
ON CONFLICT (equipment_id, alert_type) WHERE NOT resolved DO NOTHING`,
		alert.ID,
		nullableString(alert.EquipmentID),
		string(alert.Type),
		string(alert.Severity),
		alert.Message,
		alert.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetByID fetches an alert by id.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+alertColumns+`
FROM alerts
WHERE id = $1`, id)
	return scanAlert(row)
}

// MarkResolved resolves a single alert; the NOT resolved guard keeps the
// transition one-way even under concurrent resolvers.
func (r *AlertRepository) MarkResolved(ctx context.Context, id string, at time.Time) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("alert repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE alerts
SET resolved = true, resolved_at = $1
WHERE id = $2 AND NOT resolved`, at, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ResolveMaintenance resolves every open maintenance-type alert for the
// equipment and reports how many rows changed.
func (r *AlertRepository) ResolveMaintenance(ctx context.Context, equipmentID string, at time.Time) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("alert repo: nil db")
	}
	if equipmentID == "" {
		return 0, errors.New("alert repo: empty equipment id")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE alerts
SET resolved = true, resolved_at = $1
WHERE equipment_id = $2 AND NOT resolved
	AND alert_type IN ($3, $4)`,
		at, equipmentID,
		string(alerts.TypeUpcomingMaintenance), string(alerts.TypeOverdueMaintenance))
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// ListUnresolved lists open alerts, highest severity first, newest first
// within a severity. limit <= 0 disables the limit.
func (r *AlertRepository) ListUnresolved(ctx context.Context, limit int) ([]alerts.Alert, error) {
	query := `
SELECT ` + alertColumns + `
FROM alerts
WHERE NOT resolved
ORDER BY CASE severity
	WHEN 'CRITICAL' THEN 3
	WHEN 'WARNING' THEN 2
	ELSE 1
END DESC, created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

// ListRecent lists the newest alerts.
func (r *AlertRepository) ListRecent(ctx context.Context, limit int, includeResolved bool) ([]alerts.Alert, error) {
	query := `
SELECT ` + alertColumns + `
FROM alerts`
	if !includeResolved {
		query += " WHERE NOT resolved"
	}
	query += " ORDER BY created_at DESC LIMIT $1"
	return r.list(ctx, query, limit)
}

// ListByEquipment lists alerts for one equipment item, newest first.
func (r *AlertRepository) ListByEquipment(ctx context.Context, equipmentID string, resolved *bool) ([]alerts.Alert, error) {
	query := `
SELECT ` + alertColumns + `
FROM alerts
WHERE equipment_id = $1`
	args := []any{equipmentID}
	if resolved != nil {
		query += " AND resolved = $2"
		args = append(args, *resolved)
	}
	query += " ORDER BY created_at DESC"
	return r.list(ctx, query, args...)
}

// Stats returns alert counts.
func (r *AlertRepository) Stats(ctx context.Context) (alerts.Statistics, error) {
	if r == nil || r.db == nil {
		return alerts.Statistics{}, errors.New("alert repo: nil db")
	}
	var stats alerts.Statistics
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
	COUNT(*) FILTER (WHERE NOT resolved),
	COUNT(*) FILTER (WHERE NOT resolved AND severity = $1)
FROM alerts`, string(alerts.SeverityCritical)).Scan(
		&stats.TotalAlerts,
		&stats.UnresolvedAlerts,
		&stats.CriticalUnresolved,
	)
	if err != nil {
		return alerts.Statistics{}, err
	}
	return stats, nil
}

func (r *AlertRepository) list(ctx context.Context, query string, args ...any) ([]alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []alerts.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type alertScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row alertScanner) (*alerts.Alert, error) {
	var alert alerts.Alert
	var equipmentID sql.NullString
	var alertType string
	var severity string
	var resolvedAt sql.NullTime
	if err := row.Scan(
		&alert.ID,
		&equipmentID,
		&alertType,
		&severity,
		&alert.Message,
		&alert.CreatedAt,
		&alert.Resolved,
		&resolvedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	alert.EquipmentID = equipmentID.String
	alert.Type = alerts.Type(alertType)
	alert.Severity = alerts.Severity(severity)
	alert.CreatedAt = alert.CreatedAt.UTC()
	if resolvedAt.Valid {
		alert.ResolvedAt = resolvedAt.Time.UTC()
	}
	return &alert, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
