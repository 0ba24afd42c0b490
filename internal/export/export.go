// Package export renders grid rows to CSV, XLSX and PDF. All three formats
// take their header text, column order and relative widths from the same
// column metadata that drives the grid.
package export

import (
	"bytes"
	"fmt"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/go-faster/errors"
)

// Format is an export file format.
type Format int

const (
	CSV Format = iota
	XLSX
	PDF
)

func (f Format) String() string {
	switch f {
	case CSV:
		return "csv"
	case XLSX:
		return "xlsx"
	case PDF:
		return "pdf"
	}
	return "unknown"
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "csv":
		return CSV, nil
	case "xlsx", "excel":
		return XLSX, nil
	case "pdf":
		return PDF, nil
	}
	return 0, errors.Wrapf(domain.ErrInvalidInput, "export format %q", name)
}

// FormatOf maps an export action to its format.
func FormatOf(a domain.Action) (Format, bool) {
	switch a {
	case domain.ActionExportCSV:
		return CSV, true
	case domain.ActionExportXLSX:
		return XLSX, true
	case domain.ActionExportPDF:
		return PDF, true
	}
	return 0, false
}

// Table is the rendered grid.
type Table struct {
	Title   string
	Columns []entity.Column
	Rows    []domain.Record
	// Footer is printed under the PDF table. Empty means "Total: N".
	Footer string
}

// Cells returns the row values in column order.
func (t Table) Cells(row domain.Record) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = row[c.Field]
	}
	return out
}

// Options tunes rendering.
type Options struct {
	// PDFFontPath is a TrueType font with Hangul glyphs. Without it PDFs use
	// the core Helvetica font and fail with ErrUnsupportedText on Hangul.
	PDFFontPath string
	// DisablePDFCompression leaves PDF content streams readable.
	DisablePDFCompression bool
}

// Download is a rendered export ready to be sent to the browser.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Render writes t in format f. The filename is base plus the format
// extension.
func Render(f Format, base string, t Table, opts Options) (*Download, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case CSV:
		err = WriteCSV(&buf, t)
	case XLSX:
		err = WriteXLSX(&buf, t)
	case PDF:
		err = WritePDF(&buf, t, opts)
	default:
		err = errors.Errorf("unknown format %d", f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "rendering %s", f)
	}
	return &Download{
		Filename:    fmt.Sprintf("%s.%s", base, f),
		ContentType: f.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}
