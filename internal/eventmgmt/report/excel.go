package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName = "Event Report"
	tableName = "EventTable"
	// ContentType is the MIME type of rendered reports.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// Filename is suggested to clients downloading a report.
	Filename = "events_report.xlsx"

	cellDateLayout = "2006-01-02 15:04:05"
)

// Headers are the column titles of the report sheet.
var Headers = []string{"Event Name", "Description", "Date", "Location", "Category", "Is Featured"}

var columnWidths = []float64{30, 45, 20, 25, 20, 12}

// Render writes rows to a single-sheet workbook wrapped in a table.
func Render(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("report: rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9EAD3"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("report: header style: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("report: write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Headers), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("report: apply header style: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		featured := "No"
		if row.IsFeatured {
			featured = "Yes"
		}
		values := []any{row.Name, row.Description, row.Date.UTC().Format(cellDateLayout), row.Location, row.Category, featured}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("report: write row %d: %w", i+2, err)
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("report: column width: %w", err)
		}
	}

	end, err := excelize.CoordinatesToCellName(len(Headers), len(rows)+1)
	if err != nil {
		return nil, err
	}
	if err := f.AddTable(sheetName, &excelize.Table{Range: "A1:" + end, Name: tableName}); err != nil {
		return nil, fmt.Errorf("report: add table: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
