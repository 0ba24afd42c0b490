package card

import (
	"context"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/export"
	"github.com/bcnelson/erp-console/internal/storage"
	"github.com/go-faster/errors"
)

func (c *Card) gridTable() export.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := export.Table{
		Title:   c.schema.Title,
		Columns: c.columnsLocked(),
	}
	if c.state != StateError {
		t.Rows = append([]domain.Record(nil), c.cache.Rows...)
	}
	return t
}

func (c *Card) render(f export.Format) (*Result, error) {
	d, err := export.Render(f, c.schema.Key, c.gridTable(), c.export)
	if err != nil {
		c.log.WithError(err).Warnf("%s export failed", f)
		n := domain.Blocking(domain.MsgExportFailed)
		n.Detail = err.Error()
		return &Result{Notice: n}, err
	}
	return &Result{Download: d}, nil
}

// ExportCSV renders the grid rows as CSV.
func (c *Card) ExportCSV(ctx context.Context) (*Result, error) {
	return c.render(export.CSV)
}

// ExportXLSX renders the grid rows as a workbook.
func (c *Card) ExportXLSX(ctx context.Context) (*Result, error) {
	return c.render(export.XLSX)
}

// ExportPDF renders the grid rows as a PDF document.
func (c *Card) ExportPDF(ctx context.Context) (*Result, error) {
	return c.render(export.PDF)
}

// Print returns the printable grid.
func (c *Card) Print(ctx context.Context) (*Result, error) {
	t := c.gridTable()
	return &Result{Print: &PrintView{
		Title:   t.Title,
		Columns: t.Columns,
		Rows:    t.Rows,
		Count:   len(t.Rows),
	}}, nil
}

// Reset returns the card to its initial state and deletes its persisted
// conditions, results and column layout. In-flight searches are dropped.
func (c *Card) Reset(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return nil, domain.ErrCardUnmounted
	}
	c.seq++
	c.state = StateIdle
	c.cache = newCache()
	c.selected = ""
	c.conditions = c.schema.DefaultConditions()
	c.columns = nil
	c.form = nil
	c.prompt = nil
	c.notice = nil
	snapshot := c.cache.Clone()
	c.mu.Unlock()

	if c.persist != nil {
		err := c.persist.Delete(ctx, c.scope,
			c.stateKey(storage.SuffixConditions),
			c.stateKey(storage.SuffixResults),
			c.stateKey(storage.SuffixColumns))
		if err != nil {
			c.log.WithError(err).Warn("Clearing persisted state failed")
			return nil, errors.Wrap(err, "resetting")
		}
	}
	c.report(snapshot)
	return &Result{}, nil
}
