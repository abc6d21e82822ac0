// Package app wires configuration into the repositories, pipeline and
// integrations shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/cache"
	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/forecast"
	"github.com/andresuchdata/demandcast/backend-go/internal/inventory"
	"github.com/andresuchdata/demandcast/backend-go/internal/metrics"
	"github.com/andresuchdata/demandcast/backend-go/internal/narrative"
	"github.com/andresuchdata/demandcast/backend-go/internal/notify"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
	"github.com/andresuchdata/demandcast/backend-go/internal/repository"
	"github.com/andresuchdata/demandcast/backend-go/internal/repository/sqldb"
	"github.com/andresuchdata/demandcast/backend-go/internal/scheduler"
	"github.com/andresuchdata/demandcast/backend-go/internal/service"
	"github.com/andresuchdata/demandcast/backend-go/internal/storage"
)

const scheduledRunTimeout = 30 * time.Minute

// Options adjust how an App is built.
type Options struct {
	// HistoryFile loads sales history from a CSV or XLSX file instead of the database.
	HistoryFile string
	// Model overrides the configured forecasting model.
	Model string
	// SkipIntegrations leaves cache, storage, notifier and LLM unset.
	SkipIntegrations bool
}

type App struct {
	Config   *config.Config
	DB       *sqldb.DB
	History  repository.HistoryRepository
	Runner   *pipeline.Runner
	Service  *service.ForecastService
	Store    *storage.MinioClient
	Notifier notify.Notifier
}

// New builds the application graph. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	if err := a.openHistory(ctx, opts.HistoryFile); err != nil {
		return nil, err
	}

	model := cfg.Forecast.Model
	if opts.Model != "" {
		model = opts.Model
	}
	provider, err := forecast.NewModelProvider(nil, model)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Runner = pipeline.NewRunner(a.History, provider, RunnerConfig(cfg.Forecast)).
		WithObserver(metrics.NewRecorder())

	forecastCache := cache.NewNoopForecastCache()
	var summarizer *narrative.Summarizer
	if !opts.SkipIntegrations {
		if forecastCache, err = cache.NewForecastCache(cfg.Cache); err != nil {
			log.Warn().Err(err).Msg("forecast cache unavailable, continuing without it")
			forecastCache = cache.NewNoopForecastCache()
		}
		summarizer = newSummarizer(cfg.LLM)

		if err := a.openIntegrations(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Service = service.NewForecastService(a.History, a.Runner, forecastCache, summarizer)

	log.Info().
		Str("model", a.Runner.ModelName()).
		Bool("database", a.DB != nil).
		Bool("storage", a.Store != nil).
		Bool("notifier", a.Notifier != nil).
		Msg("application initialized")
	return a, nil
}

func (a *App) openHistory(ctx context.Context, historyFile string) error {
	if historyFile != "" {
		repo, err := repository.LoadHistoryFile(historyFile)
		if err != nil {
			return err
		}
		a.History = repo
		return nil
	}

	db, err := sqldb.NewDB(&a.Config.Database)
	if err != nil {
		return err
	}
	a.DB = db

	if err := repository.EnsureSalesTable(ctx, db, a.Config.Database.SalesTable); err != nil {
		a.Close()
		return err
	}
	repo, err := repository.NewHistoryRepository(db, a.Config.Database.SalesTable)
	if err != nil {
		a.Close()
		return err
	}
	a.History = repo
	return nil
}

func (a *App) openIntegrations(ctx context.Context) error {
	if a.Config.Storage.Enabled {
		store, err := storage.NewMinioClient(a.Config.Storage)
		if err != nil {
			return err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return err
		}
		a.Store = store
	}

	slackNotifier, err := notify.NewSlackNotifier(a.Config.Notify)
	if err != nil {
		return err
	}
	if slackNotifier != nil {
		a.Notifier = slackNotifier
	}
	return nil
}

func newSummarizer(cfg config.LLMConfig) *narrative.Summarizer {
	if !cfg.Enabled {
		return narrative.NewSummarizer(nil)
	}
	gen, err := narrative.NewAnthropicGenerator(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("narrative generator disabled, using template summaries")
		return narrative.NewSummarizer(nil)
	}
	return narrative.NewSummarizer(gen)
}

// RunnerConfig maps forecast settings onto the pipeline configuration.
func RunnerConfig(cfg config.ForecastConfig) pipeline.Config {
	return pipeline.Config{
		Horizon:        cfg.DefaultHorizon,
		MaxHorizon:     cfg.MaxHorizon,
		MinHistoryDays: cfg.MinHistoryDays,
		WorkerCount:    cfg.Workers,
		Params: inventory.Params{
			LeadTimeDays:       cfg.LeadTimeDays,
			ServiceLevel:       cfg.ServiceLevel,
			OrderCost:          cfg.OrderCost,
			HoldingCostPerUnit: cfg.HoldingCostPerUnit,
		},
	}
}

// Job builds the scheduled watchlist job from the current integrations.
func (a *App) Job(watchlistPath string) *scheduler.Job {
	job := &scheduler.Job{
		Runner:        a.Runner,
		WatchlistPath: watchlistPath,
		Notifier:      a.Notifier,
		Timeout:       scheduledRunTimeout,
	}
	if a.Store != nil {
		job.Store = a.Store
	}
	return job
}

// NewScheduler returns nil when scheduling is disabled.
func (a *App) NewScheduler() (*scheduler.Scheduler, error) {
	if !a.Config.Scheduler.Enabled {
		return nil, nil
	}
	if a.Config.Scheduler.WatchlistPath == "" {
		return nil, domain.NewError(domain.KindConfiguration, "SCHEDULER_WATCHLIST is required when the scheduler is enabled")
	}
	return scheduler.New(a.Config.Scheduler.Spec, a.Job(a.Config.Scheduler.WatchlistPath))
}

// Close releases the database handle.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
		a.DB = nil
	}
	return errors.Join(errs...)
}
