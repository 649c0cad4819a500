package application

import (
	"context"
	"errors"
	"testing"
	"time"

	alerts "medasset-sentinel/internal/alerts/domain"
	alertmemory "medasset-sentinel/internal/alerts/infrastructure/memory"
	equipment "medasset-sentinel/internal/equipment/domain"
	equipmentmemory "medasset-sentinel/internal/equipment/infrastructure/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*Service, *equipmentmemory.EquipmentRepository, *alertmemory.AlertRepository) {
	t.Helper()
	equipmentRepo := equipmentmemory.NewEquipmentRepository()
	alertRepo := alertmemory.NewAlertRepository()
	service, err := NewService(alertRepo, equipmentRepo, WithClock(fixedClock{now: time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, equipmentRepo, alertRepo
}

func seedEquipment(t *testing.T, repo *equipmentmemory.EquipmentRepository, id string) {
	t.Helper()
	err := repo.Create(context.Background(), &equipment.Equipment{
		ID:                  id,
		Name:                "Ventilator A",
		SerialNumber:        "SN-" + id,
		EquipmentType:       "ventilator",
		MaintenanceInterval: 90,
		CurrentStatus:       equipment.StatusOK,
	})
	if err != nil {
		t.Fatalf("seed equipment: %v", err)
	}
}

func TestCreateAlert_DedupSuppressesSecondOpen(t *testing.T) {
	service, equipmentRepo, _ := newTestService(t)
	seedEquipment(t, equipmentRepo, "eq-1")
	ctx := context.Background()

	first, err := service.CreateAlert(ctx, "eq-1", alerts.TypeOverdueMaintenance, alerts.SeverityCritical, "overdue")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first == nil {
		t.Fatal("expected first alert to be created")
	}

	second, err := service.CreateAlert(ctx, "eq-1", alerts.TypeOverdueMaintenance, alerts.SeverityCritical, "overdue again")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second != nil {
		t.Fatal("expected duplicate open alert to be suppressed")
	}

	// A different type for the same equipment is not a duplicate.
	other, err := service.CreateAlert(ctx, "eq-1", alerts.TypeUpcomingMaintenance, alerts.SeverityWarning, "upcoming")
	if err != nil {
		t.Fatalf("other type create: %v", err)
	}
	if other == nil {
		t.Fatal("expected alert of a different type to be created")
	}
}

func TestCreateAlert_ResolvedAlertDoesNotBlockNewOne(t *testing.T) {
	service, equipmentRepo, _ := newTestService(t)
	seedEquipment(t, equipmentRepo, "eq-1")
	ctx := context.Background()

	first, err := service.CreateAlert(ctx, "eq-1", alerts.TypeEquipmentFailure, alerts.SeverityCritical, "failed")
	if err != nil || first == nil {
		t.Fatalf("first create: alert=%v err=%v", first, err)
	}
	if _, err := service.ResolveAlert(ctx, first.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	second, err := service.CreateAlert(ctx, "eq-1", alerts.TypeEquipmentFailure, alerts.SeverityCritical, "failed again")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second == nil {
		t.Fatal("expected a new alert after the previous one was resolved")
	}
}

func TestCreateAlert_SystemAlertsNeverDeduplicated(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := service.CreateAlert(ctx, "", alerts.TypeEquipmentFailure, alerts.SeverityInfo, "system notice")
	if err != nil || first == nil {
		t.Fatalf("first create: alert=%v err=%v", first, err)
	}
	second, err := service.CreateAlert(ctx, "", alerts.TypeEquipmentFailure, alerts.SeverityInfo, "system notice")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second == nil {
		t.Fatal("expected system alerts to bypass dedup")
	}
}

func TestCreateEquipmentFailureAlert(t *testing.T) {
	service, equipmentRepo, _ := newTestService(t)
	seedEquipment(t, equipmentRepo, "eq-1")

	alert, err := service.CreateEquipmentFailureAlert(context.Background(), "eq-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if alert.Severity != alerts.SeverityCritical {
		t.Fatalf("expected CRITICAL severity, got %s", alert.Severity)
	}
	want := "CRITICAL: Ventilator A (SN-eq-1) has FAILED"
	if alert.Message != want {
		t.Fatalf("message = %q, want %q", alert.Message, want)
	}
}

func TestCreateEquipmentFailureAlert_UnknownEquipment(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.CreateEquipmentFailureAlert(context.Background(), "missing")
	if !errors.Is(err, equipment.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateMaintenanceAlert(t *testing.T) {
	service, equipmentRepo, _ := newTestService(t)
	seedEquipment(t, equipmentRepo, "eq-1")
	ctx := context.Background()

	created, err := service.CreateMaintenanceAlert(ctx, "eq-1", alerts.TypeOverdueMaintenance, 5)
	if err != nil {
		t.Fatalf("overdue create: %v", err)
	}
	if !created {
		t.Fatal("expected overdue alert to be created")
	}

	list, err := service.AlertsByEquipment(ctx, "eq-1", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(list))
	}
	want := "OVERDUE: Ventilator A (SN-eq-1) maintenance overdue by 5 days"
	if list[0].Message != want {
		t.Fatalf("message = %q, want %q", list[0].Message, want)
	}
	if list[0].Severity != alerts.SeverityCritical {
		t.Fatalf("expected CRITICAL severity, got %s", list[0].Severity)
	}
}

func TestCreateMaintenanceAlert_UpcomingIsWarning(t *testing.T) {
	service, equipmentRepo, _ := newTestService(t)
	seedEquipment(t, equipmentRepo, "eq-1")
	ctx := context.Background()

	created, err := service.CreateMaintenanceAlert(ctx, "eq-1", alerts.TypeUpcomingMaintenance, 3)
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}

	list, _ := service.AlertsByEquipment(ctx, "eq-1", nil)
	if list[0].Severity != alerts.SeverityWarning {
		t.Fatalf("expected WARNING severity, got %s", list[0].Severity)
	}
	want := "UPCOMING: Ventilator A (SN-eq-1) maintenance due in 3 days"
	if list[0].Message != want {
		t.Fatalf("message = %q, want %q", list[0].Message, want)
	}
}

func TestCreateMaintenanceAlert_RejectsOtherTypes(t *testing.T) {
	service, equipmentRepo, _ := newTestService(t)
	seedEquipment(t, equipmentRepo, "eq-1")

	_, err := service.CreateMaintenanceAlert(context.Background(), "eq-1", alerts.TypeEquipmentFailure, 0)
	if !errors.Is(err, alerts.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestCreateMaintenanceAlert_MissingEquipmentIsSkipped(t *testing.T) {
	service, _, _ := newTestService(t)

	created, err := service.CreateMaintenanceAlert(context.Background(), "gone", alerts.TypeOverdueMaintenance, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created {
		t.Fatal("expected no alert for missing equipment")
	}
}

func TestResolveAlert_OneWay(t *testing.T) {
	service, equipmentRepo, _ := newTestService(t)
	seedEquipment(t, equipmentRepo, "eq-1")
	ctx := context.Background()

	alert, err := service.CreateAlert(ctx, "eq-1", alerts.TypeEquipmentFailure, alerts.SeverityCritical, "failed")
	if err != nil || alert == nil {
		t.Fatalf("create: alert=%v err=%v", alert, err)
	}

	resolved, err := service.ResolveAlert(ctx, alert.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolved.Resolved || resolved.ResolvedAt.IsZero() {
		t.Fatal("expected alert to be marked resolved with a timestamp")
	}

	if _, err := service.ResolveAlert(ctx, alert.ID); !errors.Is(err, alerts.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestResolveAlert_Unknown(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.ResolveAlert(context.Background(), "missing")
	if !errors.Is(err, alerts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveMaintenanceAlerts_LeavesFailureAlertsOpen(t *testing.T) {
	service, equipmentRepo, _ := newTestService(t)
	seedEquipment(t, equipmentRepo, "eq-1")
	ctx := context.Background()

	if _, err := service.CreateMaintenanceAlert(ctx, "eq-1", alerts.TypeOverdueMaintenance, 4); err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if _, err := service.CreateMaintenanceAlert(ctx, "eq-1", alerts.TypeUpcomingMaintenance, 2); err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if _, err := service.CreateEquipmentFailureAlert(ctx, "eq-1"); err != nil {
		t.Fatalf("failure: %v", err)
	}

	count, err := service.ResolveMaintenanceAlerts(ctx, "eq-1")
	if err != nil {
		t.Fatalf("batch resolve: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 resolved alerts, got %d", count)
	}

	open, err := service.UnresolvedAlerts(ctx, 0)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 || open[0].Type != alerts.TypeEquipmentFailure {
		t.Fatalf("expected only the failure alert to remain open, got %+v", open)
	}
}

func TestUnresolvedAlerts_OrderedBySeverity(t *testing.T) {
	service, equipmentRepo, _ := newTestService(t)
	seedEquipment(t, equipmentRepo, "eq-1")
	seedEquipment(t, equipmentRepo, "eq-2")
	ctx := context.Background()

	if _, err := service.CreateAlert(ctx, "eq-1", alerts.TypeUpcomingMaintenance, alerts.SeverityWarning, "upcoming"); err != nil {
		t.Fatalf("warning: %v", err)
	}
	if _, err := service.CreateAlert(ctx, "eq-2", alerts.TypeOverdueMaintenance, alerts.SeverityCritical, "overdue"); err != nil {
		t.Fatalf("critical: %v", err)
	}

	list, err := service.UnresolvedAlerts(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(list))
	}
	if list[0].Severity != alerts.SeverityCritical {
		t.Fatalf("expected CRITICAL first, got %s", list[0].Severity)
	}
}

func TestStatistics(t *testing.T) {
	service, equipmentRepo, _ := newTestService(t)
	seedEquipment(t, equipmentRepo, "eq-1")
	ctx := context.Background()

	alert, err := service.CreateAlert(ctx, "eq-1", alerts.TypeUpcomingMaintenance, alerts.SeverityWarning, "upcoming")
	if err != nil || alert == nil {
		t.Fatalf("create: alert=%v err=%v", alert, err)
	}
	if _, err := service.CreateEquipmentFailureAlert(ctx, "eq-1"); err != nil {
		t.Fatalf("failure: %v", err)
	}
	if _, err := service.ResolveAlert(ctx, alert.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	stats, err := service.Statistics(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalAlerts != 2 {
		t.Fatalf("TotalAlerts = %d, want 2", stats.TotalAlerts)
	}
	if stats.UnresolvedAlerts != 1 {
		t.Fatalf("UnresolvedAlerts = %d, want 1", stats.UnresolvedAlerts)
	}
	if stats.CriticalUnresolved != 1 {
		t.Fatalf("CriticalUnresolved = %d, want 1", stats.CriticalUnresolved)
	}
}
