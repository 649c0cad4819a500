package application

import (
	"context"
	"errors"
	"testing"
	"time"

	alertapp "medasset-sentinel/internal/alerts/application"
	alerts "medasset-sentinel/internal/alerts/domain"
	alertmemory "medasset-sentinel/internal/alerts/infrastructure/memory"
	equipment "medasset-sentinel/internal/equipment/domain"
	equipmentmemory "medasset-sentinel/internal/equipment/infrastructure/memory"
	sensormemory "medasset-sentinel/internal/sensors/infrastructure/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, time.June, 10, 8, 0, 0, 0, time.UTC)

type fixture struct {
	service   *Service
	equipment *equipmentmemory.EquipmentRepository
	alerts    *alertmemory.AlertRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	equipmentRepo := equipmentmemory.NewEquipmentRepository()
	alertRepo := alertmemory.NewAlertRepository()
	eventRepo := sensormemory.NewEventRepository(equipmentRepo)
	alertSvc, err := alertapp.NewService(alertRepo, equipmentRepo)
	if err != nil {
		t.Fatalf("alert service: %v", err)
	}
	service, err := NewService(eventRepo, equipmentRepo, alertSvc, WithClock(fixedClock{now: testNow}))
	if err != nil {
		t.Fatalf("sensor service: %v", err)
	}
	return fixture{service: service, equipment: equipmentRepo, alerts: alertRepo}
}

func (f fixture) seed(t *testing.T, id string) {
	t.Helper()
	err := f.equipment.Create(context.Background(), &equipment.Equipment{
		ID:                  id,
		Name:                "Dialysis Machine",
		SerialNumber:        "SN-" + id,
		EquipmentType:       "dialysis",
		MaintenanceInterval: 60,
		CurrentStatus:       equipment.StatusOK,
	})
	if err != nil {
		t.Fatalf("seed equipment: %v", err)
	}
}

func TestRecordReading_UpdatesStatus(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "eq-1")
	ctx := context.Background()

	event, err := f.service.RecordReading(ctx, "eq-1", equipment.StatusWarning, time.Time{})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !event.RecordedAt.Equal(testNow) {
		t.Fatalf("RecordedAt = %v, want %v", event.RecordedAt, testNow)
	}

	item, err := f.equipment.GetByID(ctx, "eq-1")
	if err != nil {
		t.Fatalf("get equipment: %v", err)
	}
	if item.CurrentStatus != equipment.StatusWarning {
		t.Fatalf("status = %s, want WARNING", item.CurrentStatus)
	}

	open, err := f.alerts.ListByEquipment(ctx, "eq-1", nil)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("a WARNING reading must not raise alerts, got %d", len(open))
	}
}

func TestRecordReading_FailRaisesFailureAlert(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "eq-1")
	ctx := context.Background()

	if _, err := f.service.RecordReading(ctx, "eq-1", equipment.StatusFail, time.Time{}); err != nil {
		t.Fatalf("record: %v", err)
	}

	open, err := f.alerts.ListByEquipment(ctx, "eq-1", nil)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 failure alert, got %d", len(open))
	}
	if open[0].Type != alerts.TypeEquipmentFailure || open[0].Severity != alerts.SeverityCritical {
		t.Fatalf("unexpected alert %+v", open[0])
	}
}

func TestRecordReading_RepeatedFailDeduplicated(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "eq-1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.service.RecordReading(ctx, "eq-1", equipment.StatusFail, time.Time{}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	open, err := f.alerts.ListByEquipment(ctx, "eq-1", nil)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected repeated FAIL readings to keep a single open alert, got %d", len(open))
	}
}

func TestRecordReading_UnknownEquipment(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.RecordReading(context.Background(), "missing", equipment.StatusOK, time.Time{})
	if !errors.Is(err, equipment.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistory_NewestFirstWithLimit(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "eq-1")
	ctx := context.Background()

	times := []time.Time{
		testNow.Add(-3 * time.Hour),
		testNow.Add(-2 * time.Hour),
		testNow.Add(-1 * time.Hour),
	}
	for _, at := range times {
		if _, err := f.service.RecordReading(ctx, "eq-1", equipment.StatusOK, at); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	history, err := f.service.History(ctx, "eq-1", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 events, got %d", len(history))
	}
	if !history[0].RecordedAt.Equal(times[2]) {
		t.Fatalf("expected newest first, got %v", history[0].RecordedAt)
	}
}
