package main

import (
	"os"

	"github.com/bcnelson/erp-console/internal/config"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "console",
		Short:         "ERP admin console",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "load environment variables from this file first")

	cmd.AddCommand(newServeCmd(opts), newExportCmd(opts))
	return cmd
}

// load reads and validates the configuration and builds the logger.
func (o *rootOptions) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid configuration")
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "LOG_LEVEL %q", cfg.Level)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
