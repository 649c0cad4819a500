package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	equipment "medasset-sentinel/internal/equipment/domain"
)

const selectColumns = `id, name, serial_number, equipment_type, location, manufacturer,
	maintenance_interval, last_maintenance_date, next_maintenance_date,
	current_status, created_at, updated_at`

// EquipmentRepository is a Postgres repository for equipment.
type EquipmentRepository struct {
	db *sql.DB
}

// NewEquipmentRepository constructs a repository.
func NewEquipmentRepository(db *sql.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// Create inserts a new equipment record.
func (r *EquipmentRepository) Create(ctx context.Context, item *equipment.Equipment) error {
	if r == nil || r.db == nil {
		return errors.New("equipment repo: nil db")
	}
	if item == nil {
		return errors.New("equipment repo: nil equipment")
	}
	if item.ID == "" || item.SerialNumber == "" {
		return errors.New("equipment repo: missing fields")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO equipment (
	id, name, serial_number, equipment_type, location, manufacturer,
	maintenance_interval, last_maintenance_date, next_maintenance_date,
	current_status, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6,
	$7, $8, $9,
	$10, $11, $12
)`,
		item.ID,
		item.Name,
		item.SerialNumber,
		item.EquipmentType,
		nullableString(item.Location),
		nullableString(item.Manufacturer),
		item.MaintenanceInterval,
		nullableTime(item.LastMaintenanceDate),
		item.NextMaintenanceDate,
		string(item.CurrentStatus),
		item.CreatedAt,
		nullableTime(item.UpdatedAt),
	)
	if isUniqueViolation(err) {
		// Concurrent creates race past the service-level serial check; the
		// serial_number unique constraint is the backstop.
		return equipment.ErrDuplicateSerial
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// GetByID fetches equipment by id.
func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*equipment.Equipment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("equipment repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+selectColumns+`
FROM equipment
WHERE id = $1`, id)
	return scanEquipment(row)
}

// GetBySerial fetches equipment by serial number.
func (r *EquipmentRepository) GetBySerial(ctx context.Context, serial string) (*equipment.Equipment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("equipment repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT `+selectColumns+`
FROM equipment
WHERE serial_number = $1`, serial)
	return scanEquipment(row)
}

// List returns all equipment ordered by serial number.
func (r *EquipmentRepository) List(ctx context.Context) ([]equipment.Equipment, error) {
	return r.list(ctx, `
SELECT `+selectColumns+`
FROM equipment
ORDER BY serial_number`)
}

// ListByStatus returns equipment in the given status.
func (r *EquipmentRepository) ListByStatus(ctx context.Context, status equipment.Status) ([]equipment.Equipment, error) {
	return r.list(ctx, `
SELECT `+selectColumns+`
FROM equipment
WHERE current_status = $1
ORDER BY serial_number`, string(status))
}

// ListOverdue returns equipment with a next maintenance date strictly before today.
func (r *EquipmentRepository) ListOverdue(ctx context.Context, today time.Time) ([]equipment.Equipment, error) {
	return r.list(ctx, `
SELECT `+selectColumns+`
FROM equipment
WHERE next_maintenance_date < $1
ORDER BY next_maintenance_date`, equipment.Day(today))
}

// ListDueBetween returns equipment due in [from, to], both ends inclusive.
func (r *EquipmentRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]equipment.Equipment, error) {
	return r.list(ctx, `
SELECT `+selectColumns+`
FROM equipment
WHERE next_maintenance_date >= $1 AND next_maintenance_date <= $2
ORDER BY next_maintenance_date`, equipment.Day(from), equipment.Day(to))
}

// Update rewrites the mutable fields and schedule of an equipment record.
func (r *EquipmentRepository) Update(ctx context.Context, item *equipment.Equipment) error {
	if r == nil || r.db == nil {
		return errors.New("equipment repo: nil db")
	}
	if item == nil || item.ID == "" {
		return errors.New("equipment repo: nil equipment")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE equipment
SET name = $1, equipment_type = $2, location = $3, manufacturer = $4,
	maintenance_interval = $5, last_maintenance_date = $6,
	next_maintenance_date = $7, updated_at = $8
WHERE id = $9`,
		item.Name,
		item.EquipmentType,
		nullableString(item.Location),
		nullableString(item.Manufacturer),
		item.MaintenanceInterval,
		nullableTime(item.LastMaintenanceDate),
		item.NextMaintenanceDate,
		nullableTime(item.UpdatedAt),
		item.ID,
	)
	return err
}

// UpdateStatus records a status transition.
func (r *EquipmentRepository) UpdateStatus(ctx context.Context, id string, status equipment.Status, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("equipment repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE equipment
SET current_status = $1, updated_at = $2
WHERE id = $3`, string(status), at, id)
	return err
}

// Delete removes equipment. Foreign keys cascade the maintenance log and
// sensor history and null the equipment reference on alerts.
func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("equipment repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	return err
}

// CountByStatus returns equipment counts keyed by status.
func (r *EquipmentRepository) CountByStatus(ctx context.Context) (map[equipment.Status]int, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("equipment repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT current_status, COUNT(*)
FROM equipment
GROUP BY current_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[equipment.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[equipment.Status(status)] = count
	}
	return counts, rows.Err()
}

// CountOverdue counts equipment strictly past due.
func (r *EquipmentRepository) CountOverdue(ctx context.Context, today time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM equipment WHERE next_maintenance_date < $1`, equipment.Day(today))
}

// CountDueBetween counts equipment due in [from, to], both ends inclusive.
func (r *EquipmentRepository) CountDueBetween(ctx context.Context, from, to time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM equipment WHERE next_maintenance_date >= $1 AND next_maintenance_date <= $2`,
		equipment.Day(from), equipment.Day(to))
}

func (r *EquipmentRepository) list(ctx context.Context, query string, args ...any) ([]equipment.Equipment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("equipment repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []equipment.Equipment
	for rows.Next() {
		item, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *EquipmentRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("equipment repo: nil db")
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type equipmentScanner interface {
	Scan(dest ...any) error
}

func scanEquipment(row equipmentScanner) (*equipment.Equipment, error) {
	var item equipment.Equipment
	var location sql.NullString
	var manufacturer sql.NullString
	var lastDate sql.NullTime
	var status string
	var updatedAt sql.NullTime
	if err := row.Scan(
		&item.ID,
		&item.Name,
		&item.SerialNumber,
		&item.EquipmentType,
		&location,
		&manufacturer,
		&item.MaintenanceInterval,
		&lastDate,
		&item.NextMaintenanceDate,
		&status,
		&item.CreatedAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	item.Location = location.String
	item.Manufacturer = manufacturer.String
	if lastDate.Valid {
		item.LastMaintenanceDate = equipment.Day(lastDate.Time)
	}
	item.NextMaintenanceDate = equipment.Day(item.NextMaintenanceDate)
	item.CurrentStatus = equipment.Status(status)
	item.CreatedAt = item.CreatedAt.UTC()
	if updatedAt.Valid {
		item.UpdatedAt = updatedAt.Time.UTC()
	}
	return &item, nil
}

func nullableTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value, Valid: true}
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
