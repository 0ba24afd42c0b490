package card

import (
	"context"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/bcnelson/erp-console/internal/storage"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// Search runs the select statement with the current conditions. Only the
// most recent search may update the cache; older responses are dropped.
func (c *Card) Search(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return nil, domain.ErrCardUnmounted
	}
	c.seq++
	seq := c.seq
	c.state = StateLoading
	params := c.schema.SearchParams(c.conditions)
	c.mu.Unlock()

	ctx, cancel := c.bind(ctx)
	defer cancel()
	rows, err := c.client.Query(ctx, c.request(c.schema.Maps.Select, params))

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return nil, domain.ErrCardUnmounted
	}
	if seq != c.seq {
		c.mu.Unlock()
		c.log.WithFields(logrus.Fields{"seq": seq}).Debug("Dropping stale search response")
		return nil, domain.ErrStaleResponse
	}
	if err != nil {
		c.state = StateError
		c.notice = searchNotice(err)
		n := c.notice
		c.mu.Unlock()
		c.log.WithError(err).Warn("Search failed")
		return &Result{Notice: n}, errors.Wrapf(err, "searching %s", c.schema.Key)
	}

	if c.schema.SearchPolicy == entity.SearchReplace {
		c.cache = cacheFromRows(rows, c.schema.PrimaryKey)
	} else {
		c.cache.merge(rows, c.schema.PrimaryKey)
	}
	if _, ok := c.cache.ByKey[c.selected]; !ok {
		c.selected = ""
	}
	c.state = StateLoaded
	c.notice = nil
	snapshot := c.cache.Clone()
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"rows": len(rows), "cached": snapshot.Len()}).Debug("Search completed")
	c.schedule(storage.SuffixResults, snapshot.Rows)
	c.report(snapshot)
	return &Result{}, nil
}

func searchNotice(err error) *domain.Notice {
	if errors.Is(err, domain.ErrInvalidFormat) {
		return domain.Inline(domain.MsgInvalidFormat, "")
	}
	return domain.Inline(domain.MsgSearchFailed, err.Error())
}
