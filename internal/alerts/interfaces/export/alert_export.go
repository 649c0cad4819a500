package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	alerts "medasset-sentinel/internal/alerts/domain"
)

const timestampLayout = "2006-01-02 15:04"

// BuildOpenAlertsXLSX renders an XLSX report of open alerts.
func BuildOpenAlertsXLSX(items []alerts.Alert, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "open-alerts"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Open Alerts")
	_ = f.SetCellValue(sheet, "A2", "Generated")
	_ = f.SetCellValue(sheet, "B2", generatedAt.Format(time.RFC3339))

	headers := []string{"Severity", "Type", "Equipment", "Message", "Created"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 4)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, header)
	}

	for i, alert := range items {
		row := i + 5
		values := []any{
			string(alert.Severity),
			string(alert.Type),
			alert.EquipmentID,
			alert.Message,
			alert.CreatedAt.Format(timestampLayout),
		}
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

// BuildOpenAlertsPDF renders a PDF report of open alerts.
func BuildOpenAlertsPDF(items []alerts.Alert, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Open Alerts")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Alerts: %d", len(items)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(25, 6, "Severity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Equipment", "1", 0, "C", false, 0, "")
	pdf.CellFormat(120, 6, "Message", "1", 0, "C", false, 0, "")
	pdf.CellFormat(32, 6, "Created", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, alert := range items {
		pdf.CellFormat(25, 6, string(alert.Severity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, string(alert.Type), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, alert.EquipmentID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(120, 6, alert.Message, "1", 0, "L", false, 0, "")
		pdf.CellFormat(32, 6, alert.CreatedAt.Format(timestampLayout), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
