package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/emailcraft/pkg/ai"
	"github.com/dmitrymomot/emailcraft/pkg/cms"
	"github.com/dmitrymomot/emailcraft/pkg/config"
	"github.com/dmitrymomot/emailcraft/pkg/email"
	"github.com/dmitrymomot/emailcraft/pkg/environment"
	"github.com/dmitrymomot/emailcraft/pkg/file"
	"github.com/dmitrymomot/emailcraft/pkg/httpserver"
	"github.com/dmitrymomot/emailcraft/pkg/logger"
	"github.com/dmitrymomot/emailcraft/pkg/mongo"
	"github.com/dmitrymomot/emailcraft/pkg/pg"
	"github.com/dmitrymomot/emailcraft/pkg/queue"
	"github.com/dmitrymomot/emailcraft/pkg/redis"
	"github.com/dmitrymomot/emailcraft/pkg/requestid"
	"github.com/dmitrymomot/emailcraft/svc/campaign"
	"github.com/dmitrymomot/emailcraft/svc/contact"
	"github.com/dmitrymomot/emailcraft/svc/dashboard"
	"github.com/dmitrymomot/emailcraft/svc/template"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"emailcraft"`
	// RedisEnabled turns on the CMS read cache.
	RedisEnabled bool `env:"REDIS_ENABLED" envDefault:"false"`
}

const (
	queueMemory   = "memory"
	queuePostgres = "postgres"
)

// taskStorage is what both the enqueuer and the worker need from a queue
// backend.
type taskStorage interface {
	queue.EnqueuerRepository
	queue.WorkerRepository
}

// app holds every wired dependency of the process.
type app struct {
	cfg      appConfig
	queueCfg queue.Config
	sendCfg  campaign.Config
	log      *slog.Logger
	registry *prometheus.Registry

	store      cms.Store
	tasks      taskStorage
	contacts   *contact.Service
	templates  *template.Service
	campaigns  *campaign.Service
	dispatcher *campaign.Dispatcher
	dashboard  *dashboard.Service
	uploader   file.Uploader
	files      *file.LocalStorage

	checks  map[string]httpserver.Check
	closers []func(context.Context) error
}

func newLogger(cfg appConfig, logCfg logger.Config) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(environment.Parse(cfg.Env), cfg.ServiceName),
		logger.WithConfig(logCfg),
		logger.WithContextExtractors(requestid.LoggerExtractor(), environment.LoggerExtractor()),
	)
}

// newApp connects the configured backends and builds the services. A
// non-nil app must be closed, also when an error is returned.
func newApp(ctx context.Context) (*app, error) {
	var (
		cfg      appConfig
		logCfg   logger.Config
		cmsCfg   cms.Config
		emailCfg email.Config
		aiCfg    ai.Config
		fileCfg  file.Config
		queueCfg queue.Config
		sendCfg  campaign.Config
	)
	if err := errors.Join(
		config.Load(&cfg),
		config.Load(&logCfg),
		config.Load(&cmsCfg),
		config.Load(&emailCfg),
		config.Load(&aiCfg),
		config.Load(&fileCfg),
		config.Load(&queueCfg),
		config.Load(&sendCfg),
	); err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		queueCfg: queueCfg,
		sendCfg:  sendCfg,
		log:      newLogger(cfg, logCfg),
		registry: prometheus.NewRegistry(),
		checks:   map[string]httpserver.Check{},
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, cosmic, err := a.connectStore(ctx, cmsCfg, cfg.RedisEnabled)
	if err != nil {
		return a, err
	}
	a.store = store
	a.checks["cms"] = store.Ping

	// Cosmic doubles as AI and media backend; a nil client must stay an
	// untyped nil for the factories.
	var (
		textAPI ai.CosmicTextAPI
		media   file.MediaAPI
	)
	if cosmic != nil {
		textAPI, media = cosmic, cosmic
	}

	gen, err := ai.New(ctx, aiCfg, textAPI)
	if err != nil {
		a.log.WarnContext(ctx, "AI generation disabled", logger.Error(err))
		gen = ai.Unavailable(err)
	}
	mailer, err := email.New(ctx, emailCfg, a.log)
	if err != nil {
		return a, err
	}
	a.uploader, a.files, err = file.NewUploader(ctx, fileCfg, media)
	if err != nil {
		a.log.WarnContext(ctx, "image uploads disabled", logger.Error(err))
		a.uploader, a.files = nil, nil
	}

	if a.tasks, err = a.connectQueue(ctx, queueCfg); err != nil {
		return a, err
	}
	enq, err := queue.NewEnqueuer(a.tasks,
		queue.WithDefaultQueue(sendCfg.Queue),
		queue.WithDefaultMaxRetries(queueCfg.MaxRetries),
	)
	if err != nil {
		return a, err
	}

	a.contacts = contact.NewService(store)
	a.templates = template.NewService(store, gen)
	a.campaigns = campaign.NewService(store)
	a.dispatcher = campaign.NewDispatcher(a.campaigns, a.contacts, mailer,
		campaign.WithEnqueuer(enq),
		campaign.WithMetrics(campaign.NewMetrics(a.registry)),
		campaign.WithLogger(a.log),
		campaign.WithConfig(sendCfg),
	)
	a.dashboard = dashboard.NewService(a.contacts, a.templates, a.campaigns)
	return a, nil
}

// connectStore builds the CMS store. The Cosmic client is returned as well
// whenever its keys are configured, whatever the store backend.
func (a *app) connectStore(ctx context.Context, cfg cms.Config, withCache bool) (cms.Store, *cms.CosmicClient, error) {
	deps := cms.Deps{Relations: campaign.Relations}

	if cfg.Backend == cms.BackendMongo {
		var mcfg mongo.Config
		if err := config.Load(&mcfg); err != nil {
			return nil, nil, err
		}
		client, err := mongo.Connect(ctx, mcfg)
		if err != nil {
			return nil, nil, err
		}
		a.onClose(func(ctx context.Context) error { return client.Disconnect(ctx) })
		a.checks["mongo"] = mongo.Healthcheck(client)
		deps.Mongo = client.Database(mcfg.Database)
	}
	if withCache {
		rdb, err := a.connectRedis(ctx)
		if err != nil {
			return nil, nil, err
		}
		deps.Redis = rdb
	}

	store, err := cms.New(ctx, cfg, deps)
	if err != nil {
		return nil, nil, err
	}
	if cc, ok := store.(*cms.CosmicClient); ok {
		return store, cc, nil
	}
	cc, err := cms.NewCosmicClient(cfg, cms.WithCosmicRelations(campaign.Relations))
	if err != nil {
		return store, nil, nil
	}
	return store, cc, nil
}

func (a *app) connectRedis(ctx context.Context) (goredis.UniversalClient, error) {
	var rcfg redis.Config
	if err := config.Load(&rcfg); err != nil {
		return nil, err
	}
	rdb, err := redis.Connect(ctx, rcfg)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { return rdb.Close() })
	a.checks["redis"] = redis.Healthcheck(rdb)
	return rdb, nil
}

func (a *app) connectQueue(ctx context.Context, cfg queue.Config) (taskStorage, error) {
	switch cfg.Backend {
	case queueMemory, "":
		return queue.NewMemoryStorage(), nil
	case queuePostgres:
		pool, err := connectPostgres(ctx)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { pool.Close(); return nil })
		a.checks["postgres"] = pg.Healthcheck(pool)
		return queue.NewPostgresStorage(pool), nil
	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
	}
}

func connectPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return pg.Connect(ctx, cfg)
}

// newWorker builds a queue worker running scheduled campaign sends.
func (a *app) newWorker() (*queue.Worker, error) {
	w, err := queue.NewWorker(a.tasks,
		queue.WithConfig(a.queueCfg),
		queue.WithQueues(a.sendCfg.Queue),
		queue.WithWorkerLogger(a.log),
	)
	if err != nil {
		return nil, err
	}
	w.RegisterHandler(a.dispatcher.TaskHandler())
	return w, nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close releases connections in reverse order of opening.
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.ErrorContext(ctx, "failed to close resource", logger.Error(err))
		}
	}
}
