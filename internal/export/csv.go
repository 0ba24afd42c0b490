package export

import (
	"encoding/csv"
	"io"

	"github.com/go-faster/errors"
)

// utf8BOM lets spreadsheet applications detect UTF-8 Hangul.
const utf8BOM = "\ufeff"

// WriteCSV writes a header row and one line per row.
func WriteCSV(w io.Writer, t Table) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return errors.Wrap(err, "writing bom")
	}
	cw := csv.NewWriter(w)
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Header
	}
	if err := cw.Write(headers); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, row := range t.Rows {
		if err := cw.Write(t.Cells(row)); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	cw.Flush()
	return cw.Error()
}
