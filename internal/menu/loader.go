package menu

import (
	"context"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/gateway"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Loader fetches the menu rows and common codes of a tenant.
type Loader struct {
	client gateway.Client
	logger *logrus.Logger
}

// NewLoader creates a Loader.
func NewLoader(client gateway.Client, logger *logrus.Logger) *Loader {
	return &Loader{client: client, logger: logger}
}

// Load fetches both lists concurrently. A failure of either yields an empty
// tree; the shell then renders an empty sidebar.
func (l *Loader) Load(ctx context.Context, table string) *Tree {
	var menuRows, codeRows []domain.Record

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		rows, err := l.client.Query(egCtx, gateway.Request{
			Map:    gateway.MapMenu,
			Table:  table,
			Params: map[string]string{"buttonid": ""},
		})
		menuRows = rows
		return err
	})
	eg.Go(func() error {
		rows, err := l.client.Query(egCtx, gateway.Request{
			Map:   gateway.MapCommonCode,
			Table: table,
		})
		codeRows = rows
		return err
	})

	if err := eg.Wait(); err != nil {
		l.logger.WithError(err).WithField("table", table).Error("loading menu failed")
		return Empty()
	}

	tree := Build(menuRows, codeRows, l.logger)
	l.logger.WithFields(logrus.Fields{
		"table": table,
		"mains": len(tree.mains),
		"subs":  len(tree.index),
	}).Info("menu loaded")
	return tree
}
