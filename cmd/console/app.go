package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bcnelson/erp-console/internal/config"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/bcnelson/erp-console/internal/export"
	"github.com/bcnelson/erp-console/internal/gateway"
	"github.com/bcnelson/erp-console/internal/permission"
	"github.com/bcnelson/erp-console/internal/service"
	"github.com/bcnelson/erp-console/internal/session"
	"github.com/bcnelson/erp-console/internal/shell"
	"github.com/bcnelson/erp-console/internal/storage"
	"github.com/bcnelson/erp-console/internal/storage/memory"
	"github.com/bcnelson/erp-console/internal/storage/redis"
	"github.com/bcnelson/erp-console/internal/storage/sql"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// app is the wired core shared by every subcommand.
type app struct {
	store    storage.Storage
	persist  *service.PersistService
	sessions *session.Manager
	registry *prometheus.Registry
	logger   *logrus.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	logger.WithField("driver", cfg.Storage.Driver).Info("Storage ready")

	var client gateway.Client
	if cfg.UseFileShim() {
		logger.WithField("path", cfg.Gateway.FileShim).Info("Using file shim for the data gateway")
		client = gateway.NewFileShim(cfg.Gateway.FileShim, logger)
	} else {
		c, err := gateway.NewHTTPClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout, cfg.Gateway.LoginTable, logger)
		if err != nil {
			store.Close()
			return nil, errors.Wrap(err, "initializing gateway client")
		}
		client = c
	}
	client = gateway.Instrument(client, gateway.NewMetrics(reg))

	registry := entity.Default()
	resolver, err := newResolver(cfg.Permission, registry)
	if err != nil {
		store.Close()
		return nil, err
	}

	persist := service.NewPersistService(store, cfg.Persist.Debounce, logger)
	sessions := session.NewManager(session.Config{
		Client:   client,
		Registry: registry,
		Resolver: resolver,
		Persist:  persist,
		Metrics:  shell.NewMetrics(reg),
		Export:   export.Options{PDFFontPath: cfg.Export.PDFFontPath},
		Duration: cfg.Session.Duration,
		Logger:   logger,
	})

	return &app{
		store:    store,
		persist:  persist,
		sessions: sessions,
		registry: reg,
		logger:   logger,
	}, nil
}

// Close tears down every session, flushes pending state and closes storage.
func (a *app) Close(ctx context.Context) {
	a.sessions.Close()
	if err := a.persist.Stop(ctx); err != nil {
		a.logger.WithError(err).Warn("Flushing client state failed")
	}
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Warn("Closing storage failed")
	}
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "redis":
		s, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, errors.Wrap(err, "initializing redis storage")
		}
		return s, nil
	case "sqlite3":
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "creating data directory")
			}
		}
	}
	s, err := sql.New(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "initializing storage")
	}
	return s, nil
}

func newResolver(cfg config.PermissionConfig, registry *entity.Registry) (permission.Resolver, error) {
	if cfg.Backend == "casbin" {
		r, err := permission.NewCasbinResolver(cfg.PolicyPath)
		if err != nil {
			return nil, errors.Wrap(err, "initializing casbin resolver")
		}
		return r, nil
	}
	return permission.NewStaticResolver(registry, cfg.Delay), nil
}
