package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/export"
	"github.com/bcnelson/erp-console/internal/session"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	user       string
	password   string
	module     string
	format     string
	out        string
	conditions map[string]string
	wait       time.Duration
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Log in, search one entity and write the grid as CSV, XLSX or PDF",
		Example: `  console export --user demo --entity w_hc01110 --format xlsx --cond customerType=1
  CONSOLE_PASSWORD=secret console export -u demo -e w_ac01040 -f pdf -o banks.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.password == "" {
				opts.password = os.Getenv("CONSOLE_PASSWORD")
			}
			return runExport(cmd.Context(), root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.user, "user", "u", "", "gateway user id")
	f.StringVarP(&opts.password, "password", "p", "", "gateway password (defaults to $CONSOLE_PASSWORD)")
	f.StringVarP(&opts.module, "entity", "e", "", "module key of the entity to export")
	f.StringVarP(&opts.format, "format", "f", "csv", "csv, xlsx or pdf")
	f.StringVarP(&opts.out, "out", "o", "", "output file (defaults to the export's file name)")
	f.StringToStringVar(&opts.conditions, "cond", nil, "search condition name=value, repeatable")
	f.DurationVar(&opts.wait, "wait", 10*time.Second, "how long to wait for permissions to resolve")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func runExport(ctx context.Context, root *rootOptions, opts *exportOptions) error {
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	action := map[export.Format]domain.Action{
		export.CSV:  domain.ActionExportCSV,
		export.XLSX: domain.ActionExportXLSX,
		export.PDF:  domain.ActionExportPDF,
	}[format]

	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	sess, err := a.sessions.Login(ctx, opts.user, opts.password, cfg.Locale.Default)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.sessions.Logout(context.Background(), sess.ID); err != nil {
			logger.WithError(err).Warn("Logout failed")
		}
	}()

	if _, err := sess.Shell.OpenTab(opts.module); err != nil {
		return err
	}
	if err := waitForPermissions(ctx, sess, opts.module, opts.wait); err != nil {
		return err
	}

	h, err := sess.Shell.Card(opts.module)
	if err != nil {
		return err
	}
	if len(opts.conditions) > 0 {
		conds := h.View().Conditions
		for k, v := range opts.conditions {
			conds[k] = v
		}
		h.SetConditions(conds)
	}

	if _, err := sess.Shell.Dispatch(ctx, domain.ActionSearch); err != nil {
		return errors.Wrap(err, "search")
	}
	out, err := sess.Shell.Dispatch(ctx, action)
	if err != nil {
		return errors.Wrapf(err, "%s export", format)
	}
	if out.Download == nil {
		return errors.Errorf("%s export produced no file", format)
	}

	path := opts.out
	if path == "" {
		path = out.Download.Filename
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
	}
	if err := os.WriteFile(path, out.Download.Body, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	logger.WithFields(logrus.Fields{
		"module": opts.module,
		"rows":   len(h.View().Rows),
		"file":   path,
	}).Info("Export written")
	return nil
}

// waitForPermissions blocks until the tab's permissions grant view or the
// timeout passes.
func waitForPermissions(ctx context.Context, sess *session.Session, moduleKey string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if sess.Shell.Permissions(moduleKey).View {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrapf(domain.ErrPermissionDenied, "no view permission on %s", moduleKey)
		case <-ticker.C:
		}
	}
}
