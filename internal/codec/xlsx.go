package codec

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"rackplan/internal/domain"
)

// SheetName is the worksheet holding the device table
const SheetName = "Devices"

// XLSXExporter writes the device table as an Excel workbook. Numeric
// columns are stored as numbers and flags as booleans.
type XLSXExporter struct{}

// NewXLSXExporter creates a new XLSX exporter
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Format returns the exporter format identifier
func (e *XLSXExporter) Format() string {
	return "xlsx"
}

// ContentType returns the MIME type of the export
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Export writes a single-sheet workbook
func (e *XLSXExporter) Export(w io.Writer, devices []domain.Device) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, d := range devices {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := xlsxRow(d)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write device %s: %w", d.ID, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// xlsxRow types the table cells: counts and slots as ints, flags as bools,
// empty placement cells left blank
func xlsxRow(d domain.Device) []interface{} {
	cells := Row(d)
	row := make([]interface{}, len(cells))
	for i, cell := range cells {
		switch Columns[i] {
		case "Ports", "Size", "BeforeStart", "BeforeEnd", "AfterStart", "AfterEnd":
			if n, err := strconv.Atoi(cell); err == nil {
				row[i] = n
				continue
			}
		case "Mounted", "Cabled", "Powered", "Tested":
			row[i] = cell == "true"
			continue
		}
		row[i] = cell
	}
	return row
}
