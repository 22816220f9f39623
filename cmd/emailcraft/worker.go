package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/emailcraft/pkg/config"
	"github.com/dmitrymomot/emailcraft/pkg/logger"
	"github.com/dmitrymomot/emailcraft/pkg/pg"
	"github.com/dmitrymomot/emailcraft/pkg/queue"
)

var errMemoryQueueWorker = errors.New("a standalone worker needs QUEUE_BACKEND=postgres; the memory queue runs inside serve")

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run scheduled campaign sends",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			if a.queueCfg.Backend != queuePostgres {
				return errMemoryQueueWorker
			}
			w, err := a.newWorker()
			if err != nil {
				return err
			}
			return runWorker(ctx, w)
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the task queue schema to Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		var (
			cfg    pg.Config
			appCfg appConfig
			logCfg logger.Config
		)
		if err := errors.Join(config.Load(&cfg), config.Load(&appCfg), config.Load(&logCfg)); err != nil {
			return err
		}
		log := newLogger(appCfg, logCfg)

		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, queue.Migrations, queue.MigrationsDir, cfg, log); err != nil {
			return err
		}
		log.InfoContext(ctx, "migrations applied", slog.String("dir", queue.MigrationsDir))
		return nil
	},
}
