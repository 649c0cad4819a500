package equipment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestRecalculateNextMaintenance_FromLastService(t *testing.T) {
	item := &Equipment{
		MaintenanceInterval: 90,
		LastMaintenanceDate: date(2026, time.January, 10),
	}
	item.RecalculateNextMaintenance(date(2026, time.March, 1))

	assert.Equal(t, date(2026, time.April, 10), item.NextMaintenanceDate)
}

func TestRecalculateNextMaintenance_NeverServiced(t *testing.T) {
	item := &Equipment{MaintenanceInterval: 30}
	item.RecalculateNextMaintenance(date(2026, time.February, 1))

	assert.Equal(t, date(2026, time.March, 3), item.NextMaintenanceDate)
}

func TestRecalculateNextMaintenance_TruncatesToDay(t *testing.T) {
	item := &Equipment{
		MaintenanceInterval: 7,
		LastMaintenanceDate: time.Date(2026, time.May, 4, 17, 45, 12, 0, time.UTC),
	}
	item.RecalculateNextMaintenance(time.Now())

	assert.Equal(t, date(2026, time.May, 11), item.NextMaintenanceDate)
}

func TestIsOverdue(t *testing.T) {
	item := &Equipment{NextMaintenanceDate: date(2026, time.June, 15)}

	assert.False(t, item.IsOverdue(date(2026, time.June, 14)))
	assert.False(t, item.IsOverdue(date(2026, time.June, 15)), "due today is not overdue")
	assert.True(t, item.IsOverdue(date(2026, time.June, 16)))
}

func TestIsOverdue_IgnoresTimeOfDay(t *testing.T) {
	item := &Equipment{NextMaintenanceDate: date(2026, time.June, 15)}

	lateEvening := time.Date(2026, time.June, 15, 23, 59, 0, 0, time.UTC)
	assert.False(t, item.IsOverdue(lateEvening))
}

func TestDaysUntilMaintenance(t *testing.T) {
	item := &Equipment{NextMaintenanceDate: date(2026, time.June, 15)}

	assert.Equal(t, 5, item.DaysUntilMaintenance(date(2026, time.June, 10)))
	assert.Equal(t, 0, item.DaysUntilMaintenance(date(2026, time.June, 15)))
	assert.Equal(t, -3, item.DaysUntilMaintenance(date(2026, time.June, 18)))
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"OK", "WARNING", "FAIL"} {
		status, err := ParseStatus(valid)
		assert.NoError(t, err)
		assert.Equal(t, Status(valid), status)
	}

	_, err := ParseStatus("ok")
	assert.Error(t, err, "status strings are case sensitive")
	_, err = ParseStatus("BROKEN")
	assert.Error(t, err)
}
