package application

import (
	"context"
	"testing"
	"time"

	alertapp "medasset-sentinel/internal/alerts/application"
	alerts "medasset-sentinel/internal/alerts/domain"
	alertmemory "medasset-sentinel/internal/alerts/infrastructure/memory"
	equipment "medasset-sentinel/internal/equipment/domain"
	equipmentmemory "medasset-sentinel/internal/equipment/infrastructure/memory"
)

type scannerFixture struct {
	scanner   *Scanner
	equipment *equipmentmemory.EquipmentRepository
	alerts    *alertmemory.AlertRepository
}

func newScannerFixture(t *testing.T) scannerFixture {
	t.Helper()
	equipmentRepo := equipmentmemory.NewEquipmentRepository()
	alertRepo := alertmemory.NewAlertRepository()
	alertSvc, err := alertapp.NewService(alertRepo, equipmentRepo)
	if err != nil {
		t.Fatalf("alert service: %v", err)
	}
	scanner, err := NewScanner(equipmentRepo, alertSvc, WithScannerClock(fixedClock{now: testNow}))
	if err != nil {
		t.Fatalf("scanner: %v", err)
	}
	return scannerFixture{scanner: scanner, equipment: equipmentRepo, alerts: alertRepo}
}

func (f scannerFixture) seedWithDueDate(t *testing.T, id string, due time.Time) {
	t.Helper()
	err := f.equipment.Create(context.Background(), &equipment.Equipment{
		ID:                  id,
		Name:                "Analyzer " + id,
		SerialNumber:        "SN-" + id,
		EquipmentType:       "analyzer",
		MaintenanceInterval: 30,
		NextMaintenanceDate: due,
		CurrentStatus:       equipment.StatusOK,
	})
	if err != nil {
		t.Fatalf("seed equipment: %v", err)
	}
}

func TestCheckCompliance_ClassifiesSchedule(t *testing.T) {
	f := newScannerFixture(t)
	today := equipment.Day(testNow)
	f.seedWithDueDate(t, "eq-overdue", today.AddDate(0, 0, -5))
	f.seedWithDueDate(t, "eq-upcoming", today.AddDate(0, 0, 3))
	f.seedWithDueDate(t, "eq-edge", today.AddDate(0, 0, 7))
	f.seedWithDueDate(t, "eq-far", today.AddDate(0, 0, 30))

	summary, err := f.scanner.CheckCompliance(context.Background(), testNow)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.TotalEquipment != 4 {
		t.Fatalf("TotalEquipment = %d, want 4", summary.TotalEquipment)
	}
	if summary.OverdueAlertsCreated != 1 {
		t.Fatalf("OverdueAlertsCreated = %d, want 1", summary.OverdueAlertsCreated)
	}
	if summary.UpcomingAlertsCreated != 2 {
		t.Fatalf("UpcomingAlertsCreated = %d, want 2", summary.UpcomingAlertsCreated)
	}

	open, err := f.alerts.ListByEquipment(context.Background(), "eq-overdue", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 1 || open[0].Type != alerts.TypeOverdueMaintenance {
		t.Fatalf("expected one overdue alert, got %+v", open)
	}
	want := "OVERDUE: Analyzer eq-overdue (SN-eq-overdue) maintenance overdue by 5 days"
	if open[0].Message != want {
		t.Fatalf("message = %q, want %q", open[0].Message, want)
	}
}

func TestCheckCompliance_DueTodayIsUpcoming(t *testing.T) {
	f := newScannerFixture(t)
	f.seedWithDueDate(t, "eq-today", equipment.Day(testNow))

	summary, err := f.scanner.CheckCompliance(context.Background(), testNow)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.UpcomingAlertsCreated != 1 || summary.OverdueAlertsCreated != 0 {
		t.Fatalf("expected one upcoming alert, got %+v", summary)
	}
}

func TestCheckCompliance_RepeatScanCreatesNothing(t *testing.T) {
	f := newScannerFixture(t)
	today := equipment.Day(testNow)
	f.seedWithDueDate(t, "eq-overdue", today.AddDate(0, 0, -2))
	f.seedWithDueDate(t, "eq-upcoming", today.AddDate(0, 0, 4))
	ctx := context.Background()

	first, err := f.scanner.CheckCompliance(ctx, testNow)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if first.OverdueAlertsCreated+first.UpcomingAlertsCreated != 2 {
		t.Fatalf("expected 2 alerts on first scan, got %+v", first)
	}

	second, err := f.scanner.CheckCompliance(ctx, testNow)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if second.OverdueAlertsCreated != 0 || second.UpcomingAlertsCreated != 0 {
		t.Fatalf("expected repeat scan to create nothing, got %+v", second)
	}
}

func TestCheckCompliance_EmptyRegistry(t *testing.T) {
	f := newScannerFixture(t)

	summary, err := f.scanner.CheckCompliance(context.Background(), testNow)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.TotalEquipment != 0 || summary.OverdueAlertsCreated != 0 || summary.UpcomingAlertsCreated != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}
