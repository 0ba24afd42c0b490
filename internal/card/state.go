package card

import (
	"context"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/bcnelson/erp-console/internal/storage"
	"github.com/bcnelson/erp-console/internal/validation"
)

func (c *Card) stateKey(suffix string) string {
	return storage.EntityKey(c.schema.Key, suffix)
}

// restore loads the cache from the shell mirror or durable storage, plus
// the persisted conditions and column layout. Storage is best effort.
// It reports whether the cache came from durable storage.
func (c *Card) restore(ctx context.Context, mirror *Cache) (fromStore bool) {
	if c.persist == nil {
		if mirror != nil {
			c.cache = mirror.Clone()
		}
		return false
	}
	store := c.persist.Store()

	if mirror != nil {
		c.cache = mirror.Clone()
	} else {
		var rows []domain.Record
		ok, err := storage.GetJSON(ctx, store, c.scope, c.stateKey(storage.SuffixResults), &rows)
		if err != nil {
			c.log.WithError(err).Warn("Restoring results failed")
		}
		if ok {
			c.cache = cacheFromRows(rows, c.schema.PrimaryKey)
			fromStore = true
		}
	}
	if c.cache.Len() > 0 {
		c.state = StateLoaded
	}

	var conds map[string]string
	ok, err := storage.GetJSON(ctx, store, c.scope, c.stateKey(storage.SuffixConditions), &conds)
	if err != nil {
		c.log.WithError(err).Warn("Restoring conditions failed")
	}
	if ok {
		c.applyConditions(conds)
	}

	var cols []entity.Column
	ok, err = storage.GetJSON(ctx, store, c.scope, c.stateKey(storage.SuffixColumns), &cols)
	if err != nil {
		c.log.WithError(err).Warn("Restoring columns failed")
	}
	if ok {
		if err := validation.ValidateLayout(c.schema, cols); err != nil {
			c.log.WithError(err).Warn("Ignoring persisted column layout")
		} else {
			c.columns = cols
		}
	}
	return fromStore
}

// applyConditions copies the known condition values of conds.
func (c *Card) applyConditions(conds map[string]string) {
	for _, cond := range c.schema.Conditions {
		if v, ok := conds[cond.Name]; ok {
			c.conditions[cond.Name] = v
		}
	}
}

func (c *Card) schedule(suffix string, v any) {
	if c.persist == nil {
		return
	}
	if err := c.persist.ScheduleJSON(c.scope, c.stateKey(suffix), v); err != nil {
		c.log.WithError(err).Warn("Scheduling persist failed")
	}
}

// SetConditions updates the search inputs. Unknown names are ignored.
func (c *Card) SetConditions(conds map[string]string) {
	c.mu.Lock()
	c.applyConditions(conds)
	snapshot := cloneMap(c.conditions)
	c.mu.Unlock()

	c.schedule(storage.SuffixConditions, snapshot)
}

// SetColumns replaces the grid layout after validating it.
func (c *Card) SetColumns(cols []entity.Column) error {
	if err := validation.ValidateLayout(c.schema, cols); err != nil {
		return err
	}
	cols = append([]entity.Column(nil), cols...)

	c.mu.Lock()
	c.columns = cols
	c.mu.Unlock()

	c.schedule(storage.SuffixColumns, cols)
	return nil
}
