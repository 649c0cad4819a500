package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	equipment "medasset-sentinel/internal/equipment/domain"
)

const dateLayout = "2006-01-02"

// BuildInventoryXLSX renders an XLSX inventory report.
func BuildInventoryXLSX(items []equipment.Equipment, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "inventory"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Equipment Inventory")
	_ = f.SetCellValue(sheet, "A2", "Generated")
	_ = f.SetCellValue(sheet, "B2", generatedAt.Format(time.RFC3339))

	headers := []string{"Name", "Serial", "Type", "Location", "Manufacturer", "Status", "Interval (days)", "Last Maintenance", "Next Maintenance"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 4)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, header)
	}

	for i, item := range items {
		row := i + 5
		last := ""
		if !item.LastMaintenanceDate.IsZero() {
			last = item.LastMaintenanceDate.Format(dateLayout)
		}
		next := ""
		if !item.NextMaintenanceDate.IsZero() {
			next = item.NextMaintenanceDate.Format(dateLayout)
		}
		values := []any{item.Name, item.SerialNumber, item.EquipmentType, item.Location, item.Manufacturer, string(item.CurrentStatus), item.MaintenanceInterval, last, next}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildInventoryPDF renders a PDF inventory report.
func BuildInventoryPDF(items []equipment.Equipment, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Equipment Inventory")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Items: %d", len(items)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(50, 6, "Name", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Serial", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Location", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Next Due", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, item := range items {
		next := ""
		if !item.NextMaintenanceDate.IsZero() {
			next = item.NextMaintenanceDate.Format(dateLayout)
		}
		pdf.CellFormat(50, 6, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, item.SerialNumber, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, item.EquipmentType, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, item.Location, "1", 0, "L", false, 0, "")
		pdf.CellFormat(22, 6, string(item.CurrentStatus), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, next, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
