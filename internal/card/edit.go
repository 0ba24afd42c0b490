package card

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/gateway"
	"github.com/bcnelson/erp-console/internal/storage"
	"github.com/bcnelson/erp-console/internal/validation"
	"github.com/go-faster/errors"
	"github.com/wI2L/jsondiff"
)

// Create opens an empty form.
func (c *Card) Create(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return nil, domain.ErrCardUnmounted
	}
	c.prompt = nil
	c.form = &Form{Mode: ModeCreate, Record: c.schema.EmptyRecord()}
	f := *c.form
	return &Result{Form: &f}, nil
}

// Edit opens the form on the selected row, re-fetched through the detail
// statement when the entity has one.
func (c *Card) Edit(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return nil, domain.ErrCardUnmounted
	}
	key := c.selected
	row, ok := c.cache.ByKey[key]
	c.mu.Unlock()
	if key == "" || !ok {
		return &Result{Notice: domain.Blocking(domain.MsgSelectForEdit)}, domain.ErrNoSelection
	}

	rec := c.schema.EmptyRecord()
	rec.Merge(row)
	if detail := c.schema.Maps.Detail; detail != "" {
		ctx, cancel := c.bind(ctx)
		defer cancel()
		rows, err := c.client.Query(ctx, c.request(detail, map[string]string{c.schema.PrimaryKey: key}))
		if err != nil {
			n := domain.Blocking(domain.MsgSearchFailed)
			n.Detail = err.Error()
			return &Result{Notice: n}, errors.Wrapf(err, "loading %s", key)
		}
		if len(rows) > 0 {
			rec.Merge(rows[0])
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return nil, domain.ErrCardUnmounted
	}
	c.prompt = nil
	c.form = &Form{Mode: ModeEdit, Original: rec.Clone(), Record: rec}
	f := *c.form
	return &Result{Form: &f}, nil
}

// Save submits the open form. Edits send the primary key plus the changed
// fields; creates send the whole record. The cache changes only after the
// gateway accepted the write.
func (c *Card) Save(ctx context.Context, input domain.Record) (*Result, error) {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return nil, domain.ErrCardUnmounted
	}
	if c.form == nil {
		c.mu.Unlock()
		return nil, errors.Wrap(domain.ErrPreconditionFailed, "no open form")
	}
	form := *c.form
	c.mu.Unlock()

	pk := c.schema.PrimaryKey
	base := form.Record.Clone()
	base.Merge(input)
	rec := validation.NormalizeRecord(c.schema, base)
	if form.Mode == ModeEdit {
		rec[pk] = form.Original[pk]
	}

	if errs := validation.ValidateRecord(c.schema, rec); errs.HasErrors() {
		c.mu.Lock()
		if c.form != nil {
			c.form.Record = rec
			c.form.Errors = errs.ByField()
		}
		c.mu.Unlock()
		n := domain.Blocking(domain.MsgInvalidRecord)
		n.Detail = errs.Error()
		return &Result{Notice: n}, errs
	}

	var (
		kind   gateway.WriteKind
		params map[string]string
		failed string
	)
	switch form.Mode {
	case ModeEdit:
		changed, err := changedFields(validation.NormalizeRecord(c.schema, form.Original), rec)
		if err != nil {
			return nil, err
		}
		if len(changed) == 0 {
			c.Cancel()
			return &Result{Notice: domain.Info(domain.MsgNoChanges)}, nil
		}
		params = map[string]string{pk: rec[pk]}
		for _, f := range changed {
			params[f] = rec[f]
		}
		kind, failed = gateway.WriteUpdate, domain.MsgUpdateFailed
	default:
		params = map[string]string(rec.Clone())
		kind, failed = gateway.WriteInsert, domain.MsgInsertFailed
	}

	mapName := c.schema.Maps.Insert
	if kind == gateway.WriteUpdate {
		mapName = c.schema.Maps.Update
	}

	bound, cancel := c.bind(ctx)
	defer cancel()
	if err := c.client.Write(bound, kind, c.request(mapName, params)); err != nil {
		c.log.WithError(err).Warnf("Save (%s) failed", kind)
		n := domain.Blocking(failed)
		n.Detail = err.Error()
		return &Result{Notice: n}, errors.Wrapf(err, "saving %s", rec[pk])
	}

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return nil, domain.ErrCardUnmounted
	}
	row := domain.Record{}
	if prev, ok := c.cache.ByKey[rec[pk]]; ok {
		row = prev.Clone()
	}
	row.Merge(domain.Record(params))
	c.cache.put(row, pk)
	c.selected = rec[pk]
	c.form = nil
	if c.state != StateError {
		c.state = StateLoaded
	}
	snapshot := c.cache.Clone()
	c.mu.Unlock()

	c.schedule(storage.SuffixResults, snapshot.Rows)
	c.report(snapshot)
	return &Result{Notice: domain.Info(domain.MsgSaved)}, nil
}

// changedFields returns the top-level fields that differ between from
// and to, in the order the diff reports them.
func changedFields(from, to domain.Record) ([]string, error) {
	src, err := json.Marshal(from)
	if err != nil {
		return nil, errors.Wrap(err, "encoding original")
	}
	dst, err := json.Marshal(to)
	if err != nil {
		return nil, errors.Wrap(err, "encoding record")
	}
	patch, err := jsondiff.CompareJSON(src, dst)
	if err != nil {
		return nil, errors.Wrap(err, "diffing record")
	}

	seen := make(map[string]bool, len(patch))
	var fields []string
	for _, op := range patch {
		name := pointerField(op.Path)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, name)
	}
	return fields, nil
}

// pointerField decodes the first reference token of a JSON pointer.
func pointerField(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if i := strings.IndexByte(ptr, '/'); i >= 0 {
		ptr = ptr[:i]
	}
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(ptr)
}

// Delete asks for confirmation before deleting the selected row.
func (c *Card) Delete(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return nil, domain.ErrCardUnmounted
	}
	if _, ok := c.cache.ByKey[c.selected]; c.selected == "" || !ok {
		return &Result{Notice: domain.Blocking(domain.MsgSelectForDelete)}, domain.ErrNoSelection
	}
	c.form = nil
	c.prompt = &Prompt{
		Key:       c.selected,
		MessageID: domain.MsgConfirmDelete,
		Data:      map[string]any{"Title": c.schema.Title},
	}
	p := *c.prompt
	return &Result{Prompt: &p}, nil
}

// Confirm answers the pending delete confirmation.
func (c *Card) Confirm(ctx context.Context, yes bool) (*Result, error) {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return nil, domain.ErrCardUnmounted
	}
	p := c.prompt
	c.prompt = nil
	c.mu.Unlock()

	if p == nil {
		return nil, domain.ErrNotConfirmed
	}
	if !yes {
		return &Result{}, nil
	}

	pk := c.schema.PrimaryKey
	bound, cancel := c.bind(ctx)
	defer cancel()
	err := c.client.Write(bound, gateway.WriteDelete, c.request(c.schema.Maps.Delete, map[string]string{pk: p.Key}))
	if err != nil {
		c.log.WithError(err).Warn("Delete failed")
		n := domain.Blocking(domain.MsgDeleteFailed)
		n.Detail = err.Error()
		return &Result{Notice: n}, errors.Wrapf(err, "deleting %s", p.Key)
	}

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return nil, domain.ErrCardUnmounted
	}
	c.cache.remove(p.Key, pk)
	if c.selected == p.Key {
		c.selected = ""
	}
	snapshot := c.cache.Clone()
	c.mu.Unlock()

	c.schedule(storage.SuffixResults, snapshot.Rows)
	c.report(snapshot)
	return &Result{Notice: domain.Info(domain.MsgDeleted)}, nil
}
