package codec

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"rackplan/internal/domain"
)

// CSVExporter writes the device table as comma separated text with a
// header row and \n line endings. A cell is quoted only when it holds a
// comma, a double quote, CR or LF.
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Format returns the exporter format identifier
func (e *CSVExporter) Format() string {
	return "csv"
}

// ContentType returns the MIME type of the export
func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Export writes the header and one line per device in the given order
func (e *CSVExporter) Export(w io.Writer, devices []domain.Device) error {
	bw := bufio.NewWriter(w)
	writeCSVLine(bw, Columns)
	for _, d := range devices {
		writeCSVLine(bw, Row(d))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func writeCSVLine(w *bufio.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteString(QuoteCSV(cell))
	}
	w.WriteByte('\n')
}

// QuoteCSV quotes a cell when it contains a comma, a double quote, CR or
// LF, doubling any quotes inside
func QuoteCSV(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
