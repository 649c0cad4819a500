package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	alerts "medasset-sentinel/internal/alerts/domain"
	equipment "medasset-sentinel/internal/equipment/domain"
	"medasset-sentinel/internal/observability/metrics"
)

// upcomingWindowDays is the fixed lookahead for UPCOMING_MAINTENANCE alerts.
const upcomingWindowDays = 7

// MaintenanceAlertCreator is the alert engine surface the scanner drives.
type MaintenanceAlertCreator interface {
	CreateMaintenanceAlert(ctx context.Context, equipmentID string, typ alerts.Type, days int) (bool, error)
}

// ScanSummary reports one compliance pass.
type ScanSummary struct {
	TotalEquipment        int       `json:"total_equipment"`
	UpcomingAlertsCreated int       `json:"upcoming_alerts_created"`
	OverdueAlertsCreated  int       `json:"overdue_alerts_created"`
	CheckedAt             time.Time `json:"checked_at"`
}

// Scanner classifies every equipment item against its maintenance schedule
// and materializes the matching alerts. The scan is idempotent: alert dedup
// makes repeated passes over an unchanged registry produce nothing new. It
// is driven by an external scheduler collaborator; no timer lives here.
type Scanner struct {
	equipment equipment.Repository
	alerts    MaintenanceAlertCreator
	clock     Clock
	log       logrus.FieldLogger
}

// ScannerOption customizes the scanner.
type ScannerOption func(*Scanner)

// WithScannerClock assigns a clock.
func WithScannerClock(clock Clock) ScannerOption {
	return func(s *Scanner) {
		s.clock = clock
	}
}

// WithScannerLogger assigns a logger.
func WithScannerLogger(log logrus.FieldLogger) ScannerOption {
	return func(s *Scanner) {
		s.log = log
	}
}

// NewScanner constructs a compliance scanner.
func NewScanner(equipmentRepo equipment.Repository, alertCreator MaintenanceAlertCreator, opts ...ScannerOption) (*Scanner, error) {
	if equipmentRepo == nil {
		return nil, errors.New("compliance: nil equipment repository")
	}
	if alertCreator == nil {
		return nil, errors.New("compliance: nil alert creator")
	}
	scanner := &Scanner{
		equipment: equipmentRepo,
		alerts:    alertCreator,
		clock:     systemClock{},
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(scanner)
	}
	return scanner, nil
}

// CheckCompliance walks the whole registry once. Strictly overdue equipment
// gets an OVERDUE_MAINTENANCE alert citing the days overdue; equipment due
// between today and today+7 inclusive gets an UPCOMING_MAINTENANCE alert
// citing the days remaining. The two branches are mutually exclusive per
// item. A zero today defaults to the current day.
func (s *Scanner) CheckCompliance(ctx context.Context, today time.Time) (ScanSummary, error) {
	start := s.clock.Now().UTC()
	if today.IsZero() {
		today = start
	}
	today = equipment.Day(today)

	items, err := s.equipment.List(ctx)
	if err != nil {
		metrics.ObserveComplianceScan("error", s.clock.Now().Sub(start))
		return ScanSummary{}, err
	}

	summary := ScanSummary{TotalEquipment: len(items), CheckedAt: start}
	for i := range items {
		item := &items[i]
		days := item.DaysUntilMaintenance(today)
		switch {
		case days < 0:
			created, err := s.alerts.CreateMaintenanceAlert(ctx, item.ID, alerts.TypeOverdueMaintenance, -days)
			if err != nil {
				metrics.ObserveComplianceScan("error", s.clock.Now().Sub(start))
				return ScanSummary{}, err
			}
			if created {
				summary.OverdueAlertsCreated++
			}
		case days <= upcomingWindowDays:
			created, err := s.alerts.CreateMaintenanceAlert(ctx, item.ID, alerts.TypeUpcomingMaintenance, days)
			if err != nil {
				metrics.ObserveComplianceScan("error", s.clock.Now().Sub(start))
				return ScanSummary{}, err
			}
			if created {
				summary.UpcomingAlertsCreated++
			}
		}
	}

	metrics.ObserveComplianceScan("success", s.clock.Now().Sub(start))
	s.log.WithFields(logrus.Fields{
		"scanned":  summary.TotalEquipment,
		"upcoming": summary.UpcomingAlertsCreated,
		"overdue":  summary.OverdueAlertsCreated,
	}).Info("compliance scan finished")
	return summary, nil
}
