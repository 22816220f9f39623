package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/emailcraft/modules/api"
	"github.com/dmitrymomot/emailcraft/pkg/config"
	"github.com/dmitrymomot/emailcraft/pkg/environment"
	"github.com/dmitrymomot/emailcraft/pkg/httpserver"
	"github.com/dmitrymomot/emailcraft/pkg/logger"
	"github.com/dmitrymomot/emailcraft/pkg/queue"
)

var serveWithWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves the JSON API, health probes and Prometheus metrics.

With the in-memory queue backend the scheduled-send worker always runs in the
same process, since no other process can see its tasks.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), runServe)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWithWorker, "worker", false, "also run the scheduled-send worker")
}

func runServe(ctx context.Context, a *app) error {
	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}

	router := api.Router(api.RouterOptions{
		Contacts:   a.contacts,
		Templates:  a.templates,
		Campaigns:  a.campaigns,
		Dispatcher: a.dispatcher,
		Dashboard:  a.dashboard,
		Uploader:   a.uploader,
		Files:      a.files,
		Gatherer:   a.registry,
		Checks:     a.checks,
		Logger:     a.log,
	})
	h := environment.Middleware(environment.Parse(a.cfg.Env))(router)

	var w *queue.Worker
	if serveWithWorker || a.queueCfg.Backend == queueMemory || a.queueCfg.Backend == "" {
		var err error
		if w, err = a.newWorker(); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.New(httpCfg, httpserver.WithLogger(a.log)).Run(ctx, h)
	})
	if w != nil {
		g.Go(func() error { return runWorker(ctx, w) })
	}

	a.log.InfoContext(ctx, "emailcraft started", logger.Component("serve"))
	return g.Wait()
}

// runWorker treats cancellation as a clean stop.
func runWorker(ctx context.Context, w *queue.Worker) error {
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
