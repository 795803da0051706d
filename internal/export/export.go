// Package export renders a period of attendance events as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kozaktomas/face-attendance/internal/apperr"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []any{
	"User ID", "Name", "Date", "Time", "Similarity", "Confidence", "Status",
	"Location Valid", "Location Message", "Latitude", "Longitude",
}

// FileName returns the download name of a period's workbook
func FileName(period string) string {
	return fmt.Sprintf("absensi_%s.xlsx", period)
}

// SheetName returns the worksheet name of a period
func SheetName(period string) string {
	return "Absensi " + period
}

// Workbook builds a workbook with one row per event, in the given order.
// The caller must Close the returned file.
func Workbook(period string, events []database.AttendanceEvent) (*excelize.File, error) {
	if len(events) == 0 {
		return nil, apperr.NotFound("no data to export")
	}

	f := excelize.NewFile()
	sheet := SheetName(period)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", "K1", style)
	}

	for i, ev := range events {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := eventRow(ev)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "D", 14)
	_ = f.SetColWidth(sheet, "I", "I", 40)
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, period string, events []database.AttendanceEvent) error {
	f, err := Workbook(period, events)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func eventRow(ev database.AttendanceEvent) []any {
	locationValid := "No"
	if ev.LocationVerified {
		locationValid = "Yes"
	}
	message := ev.LocationMessage
	if message == "" {
		message = "Not available"
	}

	return []any{
		ev.IdentityID,
		ev.Name,
		ev.Date,
		ev.Time,
		fmt.Sprintf("%.2f%%", ev.Similarity*100),
		ev.Confidence,
		ev.Status,
		locationValid,
		message,
		optional(ev.Latitude),
		optional(ev.Longitude),
	}
}

// optional leaves the cell empty for missing coordinates
func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
