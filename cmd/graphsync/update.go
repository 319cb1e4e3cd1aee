package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/micahrl/graphsync/internal/assign"
	"github.com/micahrl/graphsync/internal/catalog"
	"github.com/micahrl/graphsync/internal/graph"
	"github.com/micahrl/graphsync/internal/logging"
	"github.com/micahrl/graphsync/internal/reconcile"
	"github.com/micahrl/graphsync/internal/report"
)

var errFailures = errors.New("some objects failed to reconcile")

func newUpdateCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Create or update remote objects from the configuration repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd.Flags(), &cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runUpdate(ctx, cfg, cmd, verbose)
		},
	}
	registerFlags(cmd.Flags())
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list unchanged objects too")
	return cmd
}

func runUpdate(ctx context.Context, cfg config, cmd *cobra.Command, verbose bool) error {
	secret := os.Getenv(envClientSecret)
	if err := cfg.validate(secret); err != nil {
		return err
	}

	log := logging.Configure(cfg.LogLevel, cmd.ErrOrStderr())

	all, err := catalog.Load()
	if err != nil {
		return err
	}
	types, err := catalog.Select(all, cfg.Types)
	if err != nil {
		return err
	}

	cred, err := graph.NewCredential(cfg.TenantID, cfg.ClientID, secret)
	if err != nil {
		return err
	}
	client := graph.New(cfg.graphConfig(), cred, log)
	resolver := assign.NewResolver(client, log)
	rec := reconcile.New(client, resolver, cfg.options(), log)

	if cfg.Report {
		log.Info("report mode, no changes will be made")
	}

	results, runErr := syncTypes(ctx, rec, cfg.Path, types, cfg.FailFast, log)

	if err := report.Write(cmd.OutOrStdout(), results, verbose); err != nil {
		log.WithError(err).Warn("printing report")
	}
	if cfg.ReportFile != "" {
		if err := report.WriteJSON(cfg.ReportFile, results, cfg.Report); err != nil {
			return err
		}
		log.WithField("file", cfg.ReportFile).Info("report written")
	}

	if runErr != nil {
		return runErr
	}
	if n := countFailures(results); n > 0 {
		log.WithFields(logrus.Fields{"failures": n}).Error("run finished with failures")
		return errFailures
	}
	return nil
}

type typeSyncer interface {
	SyncType(ctx context.Context, root string, typ catalog.Type) (*reconcile.Result, error)
}

// syncTypes reconciles each type in order. A type that fails as a whole is
// recorded as a failure of that type and the next type is tried, unless
// failFast is set or ctx is done.
func syncTypes(ctx context.Context, s typeSyncer, root string, types []catalog.Type, failFast bool, log logrus.FieldLogger) ([]*reconcile.Result, error) {
	var results []*reconcile.Result
	for _, typ := range types {
		tlog := log.WithField("type", typ.Name)
		tlog.Info("reconciling")

		res, err := s.SyncType(ctx, root, typ)
		if res == nil {
			res = &reconcile.Result{Type: typ.Name}
		}
		results = append(results, res)
		if err == nil {
			continue
		}
		if failFast || ctx.Err() != nil {
			return results, fmt.Errorf("%s: %w", typ.Name, err)
		}
		tlog.WithError(err).Error("type failed, continuing with the next one")
		res.Failures = append(res.Failures, reconcile.Failure{Type: typ.Name, Err: err})
	}
	return results, nil
}

func countFailures(results []*reconcile.Result) int {
	n := 0
	for _, r := range results {
		n += len(r.Failures)
	}
	return n
}
