package export

import (
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// pixelsPerWidthUnit converts grid pixel widths to spreadsheet column units.
const pixelsPerWidthUnit = 7.0

const defaultSheet = "Sheet1"

// sheetName makes title a legal worksheet name.
func sheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	if name == "" {
		return defaultSheet
	}
	return name
}

// WriteXLSX writes one sheet with a bold header row and the data rows.
// Cells are written as text so codes keep their leading zeros.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Title)
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return errors.Wrap(err, "naming sheet")
		}
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	if len(t.Columns) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return errors.Wrap(err, "creating header style")
		}
		last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return errors.Wrap(err, "styling header")
		}
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		cells := t.Cells(row)
		values := make([]any, len(cells))
		for j, v := range cells {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "writing row %d", i+1)
		}
	}

	for i, c := range t.Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(c.Width)/pixelsPerWidthUnit); err != nil {
			return errors.Wrapf(err, "sizing column %s", col)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}
