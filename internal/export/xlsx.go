// Package export renders scan history for download.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"ticketscan/backend/internal/ticketparser/core"
)

const SheetName = "Scans"

var headers = []string{"ID", "Event Date", "Venue", "Title", "Image URL", "Scanned At"}

// ScansXLSX writes scans into a one-sheet workbook, one row per scan in the given order.
// Absent fields become empty cells.
func ScansXLSX(scans []core.ScanResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	for i, scan := range scans {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		write(1, scan.ID)
		if scan.Fields.EventDate != nil {
			write(2, scan.Fields.EventDate.String())
		}
		if scan.Fields.Venue != nil {
			write(3, *scan.Fields.Venue)
		}
		if scan.Fields.Title != nil {
			write(4, *scan.Fields.Title)
		}
		write(5, scan.ImageURL)
		if !scan.CreatedAt.IsZero() {
			write(6, scan.CreatedAt.UTC().Format(time.RFC3339))
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 38) // uuid
	_ = f.SetColWidth(SheetName, "B", "B", 12)
	_ = f.SetColWidth(SheetName, "C", "C", 28)
	_ = f.SetColWidth(SheetName, "D", "D", 56)
	_ = f.SetColWidth(SheetName, "E", "E", 48)
	_ = f.SetColWidth(SheetName, "F", "F", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
