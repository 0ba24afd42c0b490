package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcnelson/erp-console/internal/api"
	"github.com/bcnelson/erp-console/internal/auth"
	"github.com/bcnelson/erp-console/internal/i18n"
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
)

const sweepInterval = time.Minute

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web console and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), root)
		},
	}
}

func runServe(ctx context.Context, root *rootOptions) error {
	cfg, logger, err := root.load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	secret, err := cfg.Session.SecretBytes()
	if err != nil {
		return err
	}
	cookies, err := auth.NewSessionManager(secret, cfg.Session.Duration, cfg.Server.SecureCookies)
	if err != nil {
		return err
	}
	csrf, err := auth.NewCSRFStore(secret, cfg.Server.SecureCookies)
	if err != nil {
		return err
	}
	bundle, err := i18n.New(cfg.Locale.Default)
	if err != nil {
		return errors.Wrap(err, "loading message catalogs")
	}

	router := api.NewRouter(api.Dependencies{
		Sessions:    a.sessions,
		Cookies:     cookies,
		CSRF:        csrf,
		I18n:        bundle,
		Gatherer:    a.registry,
		CORSOrigins: cfg.Server.AllowedOrigins(),
		Logger:      logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := a.sessions.Sweep(ctx); n > 0 {
					logger.WithField("count", n).Info("Expired sessions removed")
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting ERP console on http://%s", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "server failed")
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	logger.Info("Server stopped")
	return nil
}
