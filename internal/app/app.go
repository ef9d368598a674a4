package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"NewsHarvester/internal/config"
	"NewsHarvester/internal/harvest"
	"NewsHarvester/internal/infrastructure/feed"
	"NewsHarvester/internal/infrastructure/httpapi"
	"NewsHarvester/internal/infrastructure/ledger"
	"NewsHarvester/internal/infrastructure/metrics"
	"NewsHarvester/internal/infrastructure/parser"
	"NewsHarvester/internal/infrastructure/scheduler"
	"NewsHarvester/internal/infrastructure/storage"
	"NewsHarvester/internal/infrastructure/telegram"
	"NewsHarvester/internal/logging"
	"NewsHarvester/internal/ports"
	"NewsHarvester/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	redis     *redis.Client
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	server    *httpapi.Server
}

// New connects the stores and builds every adapter named in cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.db = db

	if cfg.Database.MigrateOnBoot {
		changed, err := storage.Migrate(db, storage.MigrateUp)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("migrate on boot: %w", err)
		}
		baseLogger.Info("schema migrations applied", "changed", changed)
	}

	processed, err := a.buildLedger(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	harvester, err := buildHarvester(cfg.Feed)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	resolver := parser.NewOGImageResolver(
		&http.Client{Timeout: cfg.Enrichment.Timeout},
		cfg.Enrichment.UserAgent,
		cfg.Enrichment.FallbackImage,
		baseLogger.With("component", "resolver.og_image"),
	)

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	history := &httpapi.RunHistory{}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Sources:            storage.NewSourceRepository(db),
		Collector:          feed.NewCollector(harvester, baseLogger.With("component", "collector")),
		Ledger:             processed,
		Resolver:           resolver,
		Gateway:            storage.NewArticleRepository(db, baseLogger.With("component", "gateway")),
		Notifier:           notifier,
		Recorders:          []ports.RunRecorder{history, metrics.NewRecorder(registry)},
		Logger:             baseLogger.With("component", "pipeline"),
		CourtesyDelay:      cfg.Enrichment.CourtesyDelay,
		NotifyOnlyOnErrors: cfg.Notifications.Telegram.OnlyOnErrors,
	})

	driver := scheduler.NewCronScheduler(
		cfg.Scheduler.CronExpression,
		cfg.Scheduler.Location(),
		cfg.Scheduler.RunOnStart,
		baseLogger.With("component", "scheduler"),
	)
	a.scheduler = usecase.NewScheduler(driver, a.pipeline)

	if cfg.HTTP.Addr != "" {
		a.server = httpapi.NewServer(a.pipeline, history, registry, baseLogger)
	}

	return a, nil
}

func (a *Application) buildLedger(ctx context.Context) (ports.Ledger, error) {
	lc := a.cfg.Ledger
	switch lc.Backend {
	case "", config.LedgerFile:
		return ledger.NewFileLedger(lc.Path), nil
	case config.LedgerRedis:
		client, err := ledger.DialRedis(ctx, lc.Redis.Addr, lc.Redis.Password, lc.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return ledger.NewRedisLedger(client, lc.Redis.Key), nil
	case config.LedgerPostgres:
		return storage.NewProcessedTitleRepository(a.db), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", lc.Backend)
	}
}

func buildHarvester(fc config.FeedConfig) (harvest.Harvester, error) {
	client := &http.Client{Timeout: fc.Timeout}

	registry := harvest.NewRegistry()
	registry.Register(feed.NewServiceHarvester(fc.ParserURL, client))
	registry.Register(feed.NewDirectHarvester(client))

	return registry.Resolve(fc.Harvester)
}

// Run performs a single sweep when RunOnce is set; otherwise it starts the
// scheduler and ops server and blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	if a.cfg.Scheduler.RunOnce {
		run := a.pipeline.Execute(ctx)
		a.logger.Info("single run finished", "run_id", run.RunID, "failed", run.Failed())
		return nil
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			serverErr <- a.server.ListenAndServe(a.cfg.HTTP.Addr)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	if a.server != nil {
		if err := a.server.Shutdown(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
	}
	if err := a.scheduler.Stop(stopCtx); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	return errors.Join(errs...)
}

// Close releases database and redis connections.
func (a *Application) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
