package httpapi

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/undesputed/senior-care-central-sub001/internal/domain"
)

const invoiceSheet = "Invoices"

// InvoiceExportHeader column order of GET /invoices/export
var InvoiceExportHeader = []string{
	"Invoice ID",
	"Contract ID",
	"Patient ID",
	"Family ID",
	"Status",
	"Currency",
	"Subtotal",
	"Tax",
	"Total",
	"Due Date",
	"Created At",
}

var invoiceColumnWidths = []float64{38, 38, 38, 38, 10, 10, 12, 12, 12, 14, 22}

// GenerateInvoiceExport renders invoices as a single-sheet workbook.
// Amounts are written in major units (minor / 100).
func GenerateInvoiceExport(invoices []*domain.Invoice) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(invoiceSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range InvoiceExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(invoiceSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(invoiceSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(invoiceSheet, name, name, invoiceColumnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, inv := range invoices {
		row := []any{
			inv.InvoiceID,
			inv.ContractID,
			inv.PatientID,
			inv.FamilyID,
			string(inv.Status),
			inv.Currency,
			float64(inv.AmountSubtotal) / 100,
			float64(inv.AmountTax) / 100,
			float64(inv.AmountTotal) / 100,
			inv.DueDate.Format("2006-01-02"),
			inv.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(invoiceSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel: %w", err)
	}
	return buf.Bytes(), nil
}
