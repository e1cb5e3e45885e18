// Package export writes the rows visible on a page to CSV, XLSX or a Google
// Sheet. Columns follow the csv tags of the record type.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/k2nservice/console/internal/repository/sheets"
)

// Format is an export target.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSheets Format = "sheets"
)

// ParseFormat reads the format query parameter; empty means CSV.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatSheets:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", value)
	}
}

// ContentType returns the MIME type of a file format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename names the downloaded file for a page.
func (f Format) Filename(page string) string {
	return page + "." + string(f)
}

// WriteCSV writes rows (a slice of csv-tagged structs) with a header line.
func WriteCSV(w io.Writer, rows any) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("marshal csv: %w", err)
	}
	return nil
}

// Table renders rows as a header line followed by one line per record.
func Table(rows any) ([][]string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	table, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rendered csv: %w", err)
	}
	return table, nil
}

// WriteXLSX writes rows to a single-sheet workbook.
func WriteXLSX(w io.Writer, sheet string, rows any) error {
	table, err := Table(rows)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)
	for r, line := range table {
		for c, value := range line {
			f.SetCellValue(sheet, cellName(c, r), value)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// cellName converts zero-based column and row indexes to an A1 reference.
func cellName(col, row int) string {
	name := ""
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return fmt.Sprintf("%s%d", name, row+1)
}

// SheetExporter appends page rows to a spreadsheet, one tab per page.
type SheetExporter struct {
	repo   sheets.Repository
	logger *zap.Logger
}

// NewSheetExporter wraps a Sheets repository.
func NewSheetExporter(repo sheets.Repository, logger *zap.Logger) *SheetExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetExporter{repo: repo, logger: logger}
}

// Export appends rows under the tab named sheet. The header line is written
// only when the tab is empty. It returns the number of records appended.
func (e *SheetExporter) Export(ctx context.Context, sheet string, rows any) (int, error) {
	table, err := Table(rows)
	if err != nil {
		return 0, err
	}
	if len(table) == 0 {
		return 0, nil
	}

	existing, err := e.repo.ReadRange(ctx, sheet+"!1:1")
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		table = table[1:]
	}

	values := make([][]interface{}, len(table))
	for i, line := range table {
		values[i] = make([]interface{}, len(line))
		for j, cell := range line {
			values[i][j] = cell
		}
	}

	if _, err := e.repo.AppendRows(ctx, sheet+"!A1", values); err != nil {
		return 0, err
	}

	records := len(table)
	if len(existing) == 0 {
		records--
	}
	e.logger.Info("page exported to sheet", zap.String("sheet", sheet), zap.Int("records", records))
	return records, nil
}
