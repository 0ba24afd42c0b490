package export

import (
	"fmt"
	"io"

	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/go-faster/errors"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

// ErrUnsupportedText is returned when a PDF without a TrueType font would
// have to print text outside the core fonts' cp1252 range.
var ErrUnsupportedText = errors.New("text not representable in the core PDF font")

const (
	pdfFontFamily = "console"
	pdfCoreFont   = "Helvetica"
	pdfMargin     = 10.0
	pdfRowHeight  = 7.0
)

// WritePDF writes a landscape A4 document: title, header row, data rows
// and a trailing row count. Column widths keep the grid's proportions.
func WritePDF(w io.Writer, t Table, opts Options) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCompression(!opts.DisablePDFCompression)

	family := pdfCoreFont
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.PDFFontPath != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", opts.PDFFontPath)
		pdf.AddUTF8Font(pdfFontFamily, "B", opts.PDFFontPath)
		family = pdfFontFamily
		tr = func(s string) string { return s }
	} else if err := checkCoreText(t); err != nil {
		return err
	}

	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	widths := scaleWidths(t.Columns, pageW-2*pdfMargin)

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 10, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	header := func() {
		pdf.SetFont(family, "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, c := range t.Columns {
			pdf.CellFormat(widths[i], pdfRowHeight+1, tr(c.Header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(family, "", 9)
	}
	header()

	_, pageH := pdf.GetPageSize()
	for _, row := range t.Rows {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}
		for i, v := range t.Cells(row) {
			pdf.CellFormat(widths[i], pdfRowHeight, tr(fit(pdf, v, widths[i])), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	footer := t.Footer
	if footer == "" {
		footer = fmt.Sprintf("Total: %d", len(t.Rows))
	}
	pdf.Ln(2)
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(0, pdfRowHeight, tr(footer), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}

// checkCoreText reports the first string of t the core font would print
// as placeholder dots.
func checkCoreText(t Table) error {
	enc := charmap.Windows1252.NewEncoder()
	check := func(what, s string) error {
		if _, err := enc.String(s); err != nil {
			return errors.Wrapf(ErrUnsupportedText, "%s %q (set PDF_FONT_PATH to a Hangul TrueType font)", what, s)
		}
		return nil
	}
	if err := check("title", t.Title); err != nil {
		return err
	}
	if err := check("footer", t.Footer); err != nil {
		return err
	}
	for _, c := range t.Columns {
		if err := check("header", c.Header); err != nil {
			return err
		}
	}
	for _, row := range t.Rows {
		for _, v := range t.Cells(row) {
			if err := check("value", v); err != nil {
				return err
			}
		}
	}
	return nil
}

// scaleWidths distributes avail across the columns in proportion to their
// pixel widths.
func scaleWidths(cols []entity.Column, avail float64) []float64 {
	total := 0
	for _, c := range cols {
		total += c.Width
	}
	out := make([]float64, len(cols))
	for i, c := range cols {
		if total == 0 {
			out[i] = avail / float64(len(cols))
			continue
		}
		out[i] = avail * float64(c.Width) / float64(total)
	}
	return out
}

// fit truncates s so it fits into a cell of width w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	const padding = 2.0
	if pdf.GetStringWidth(s) <= w-padding {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"…") > w-padding {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
