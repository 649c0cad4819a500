package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS equipment (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	serial_number TEXT NOT NULL UNIQUE,
	equipment_type TEXT NOT NULL,
	location TEXT,
	manufacturer TEXT,
	maintenance_interval INT NOT NULL,
	last_maintenance_date TIMESTAMPTZ,
	next_maintenance_date TIMESTAMPTZ NOT NULL,
	current_status TEXT NOT NULL DEFAULT 'OK',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ
)`,
	`CREATE TABLE IF NOT EXISTS maintenance_log (
	id TEXT PRIMARY KEY,
	equipment_id TEXT NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
	performed_by TEXT NOT NULL,
	notes TEXT,
	performed_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS ix_maintenance_log_equipment ON maintenance_log (equipment_id, performed_at DESC)`,
	`CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	equipment_id TEXT REFERENCES equipment(id) ON DELETE SET NULL,
	alert_type TEXT NOT NULL,
	severity TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	resolved BOOLEAN NOT NULL DEFAULT FALSE,
	resolved_at TIMESTAMPTZ
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_alerts_open ON alerts (equipment_id, alert_type) WHERE NOT resolved`,
	`CREATE INDEX IF NOT EXISTS ix_alerts_created ON alerts (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS sensor_events (
	id TEXT PRIMARY KEY,
	equipment_id TEXT NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
	status TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS ix_sensor_events_equipment ON sensor_events (equipment_id, recorded_at DESC)`,
	`CREATE TABLE IF NOT EXISTS admins (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	actor TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id TEXT NOT NULL DEFAULT '',
	metadata JSONB,
	payload_digest TEXT NOT NULL DEFAULT '',
	ip TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS ix_audit_logs_created ON audit_logs (created_at DESC)`,
}

func main() {
	dsn := flag.String("dsn", "", "Postgres DSN (defaults to DATABASE_URL or PG_DSN)")
	flag.Parse()

	connString := *dsn
	if connString == "" {
		connString = os.Getenv("DATABASE_URL")
	}
	if connString == "" {
		connString = os.Getenv("PG_DSN")
	}
	if connString == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}

	db, err := sql.Open("pgx", connString)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("apply schema: %v\nstatement: %s", err, stmt)
		}
	}
	log.Printf("schema applied: %d statements", len(statements))
}
