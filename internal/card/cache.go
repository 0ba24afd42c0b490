package card

import "github.com/bcnelson/erp-console/internal/domain"

// Cache is the result cache of one entity: rows by primary key plus the
// ordered rows fed to the grid. Records are never mutated in place, so
// copies may share them.
type Cache struct {
	ByKey map[string]domain.Record
	Rows  []domain.Record
}

func newCache() Cache {
	return Cache{ByKey: make(map[string]domain.Record)}
}

// cacheFromRows indexes rows by pk. A later row wins over an earlier one
// with the same key.
func cacheFromRows(rows []domain.Record, pk string) Cache {
	c := newCache()
	c.merge(rows, pk)
	return c
}

// Clone returns a copy that shares records but not the containers.
func (c Cache) Clone() Cache {
	out := Cache{
		ByKey: make(map[string]domain.Record, len(c.ByKey)),
		Rows:  append([]domain.Record(nil), c.Rows...),
	}
	for k, v := range c.ByKey {
		out.ByKey[k] = v
	}
	return out
}

// Len returns the number of rows.
func (c Cache) Len() int {
	return len(c.Rows)
}

// merge overwrites rows sharing a primary key in place and appends the
// rest in arrival order.
func (c *Cache) merge(rows []domain.Record, pk string) {
	index := make(map[string]int, len(c.Rows))
	for i, r := range c.Rows {
		index[r[pk]] = i
	}
	for _, r := range rows {
		key := r[pk]
		if i, ok := index[key]; ok {
			c.Rows[i] = r
		} else {
			index[key] = len(c.Rows)
			c.Rows = append(c.Rows, r)
		}
		c.ByKey[key] = r
	}
}

// put inserts or replaces one row.
func (c *Cache) put(r domain.Record, pk string) {
	c.merge([]domain.Record{r}, pk)
}

// remove drops the row with key.
func (c *Cache) remove(key, pk string) {
	delete(c.ByKey, key)
	for i, r := range c.Rows {
		if r[pk] == key {
			c.Rows = append(c.Rows[:i:i], c.Rows[i+1:]...)
			return
		}
	}
}
