package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	equipment "medasset-sentinel/internal/equipment/domain"
)

func sampleInventory() []equipment.Equipment {
	due := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	return []equipment.Equipment{
		{
			ID: "eq-1", Name: "MRI Scanner", SerialNumber: "MRI-001", EquipmentType: "imaging",
			Location: "Radiology", Manufacturer: "Siemens", MaintenanceInterval: 180,
			NextMaintenanceDate: due, CurrentStatus: equipment.StatusOK,
		},
		{
			ID: "eq-2", Name: "Ventilator", SerialNumber: "VT-002", EquipmentType: "ventilator",
			MaintenanceInterval: 90, CurrentStatus: equipment.StatusFail,
		},
	}
}

func TestBuildInventoryXLSX(t *testing.T) {
	data, err := BuildInventoryXLSX(sampleInventory(), time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("inventory", "A5")
	require.NoError(t, err)
	require.Equal(t, "MRI Scanner", name)

	status, err := f.GetCellValue("inventory", "F6")
	require.NoError(t, err)
	require.Equal(t, "FAIL", status)

	// Never-serviced equipment exports blank date cells.
	next, err := f.GetCellValue("inventory", "I6")
	require.NoError(t, err)
	require.Empty(t, next)
}

func TestBuildInventoryPDF(t *testing.T) {
	data, err := BuildInventoryPDF(sampleInventory(), time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")), "expected a PDF header")
}
