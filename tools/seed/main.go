package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gopkg.in/yaml.v3"

	"medasset-sentinel/internal/auth"
	equipment "medasset-sentinel/internal/equipment/domain"
	equipmentpg "medasset-sentinel/internal/equipment/infrastructure/postgres"
)

type fixtures struct {
	Admins []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"admins"`
	Equipment []struct {
		Name                string `yaml:"name"`
		SerialNumber        string `yaml:"serial_number"`
		EquipmentType       string `yaml:"equipment_type"`
		Location            string `yaml:"location"`
		Manufacturer        string `yaml:"manufacturer"`
		MaintenanceInterval int    `yaml:"maintenance_interval"`
		LastMaintenanceDate string `yaml:"last_maintenance_date"`
	} `yaml:"equipment"`
}

func main() {
	dsn := flag.String("dsn", "", "Postgres DSN (defaults to DATABASE_URL or PG_DSN)")
	file := flag.String("fixtures", "fixtures.yaml", "path to fixtures file")
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

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read fixtures: %v", err)
	}
	var data fixtures
	if err := yaml.Unmarshal(raw, &data); err != nil {
		log.Fatalf("parse fixtures: %v", err)
	}

	db, err := sql.Open("pgx", connString)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	now := time.Now().UTC()

	for _, admin := range data.Admins {
		hash, err := auth.HashPassword(admin.Password)
		if err != nil {
			log.Fatalf("hash password for %s: %v", admin.Username, err)
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO admins (id, username, password_hash, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (username) DO NOTHING
		`, uuid.NewString(), admin.Username, hash, now)
		if err != nil {
			log.Fatalf("seed admin %s: %v", admin.Username, err)
		}
	}

	repo := equipmentpg.NewEquipmentRepository(db)
	seeded := 0
	for _, item := range data.Equipment {
		existing, err := repo.GetBySerial(ctx, item.SerialNumber)
		if err != nil {
			log.Fatalf("lookup %s: %v", item.SerialNumber, err)
		}
		if existing != nil {
			continue
		}

		record := &equipment.Equipment{
			ID:                  uuid.NewString(),
			Name:                item.Name,
			SerialNumber:        item.SerialNumber,
			EquipmentType:       item.EquipmentType,
			Location:            item.Location,
			Manufacturer:        item.Manufacturer,
			MaintenanceInterval: item.MaintenanceInterval,
			CurrentStatus:       equipment.StatusOK,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if item.LastMaintenanceDate != "" {
			last, err := time.Parse("2006-01-02", item.LastMaintenanceDate)
			if err != nil {
				log.Fatalf("parse last_maintenance_date for %s: %v", item.SerialNumber, err)
			}
			record.LastMaintenanceDate = last.UTC()
		}
		record.RecalculateNextMaintenance(now)

		if err := repo.Create(ctx, record); err != nil {
			log.Fatalf("seed equipment %s: %v", item.SerialNumber, err)
		}
		seeded++
	}

	log.Printf("seeded %d admins, %d equipment records", len(data.Admins), seeded)
}
