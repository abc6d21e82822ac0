package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/forecast"
	"github.com/andresuchdata/demandcast/backend-go/internal/inventory"
)

// Runner sequences history → forecast → metrics → alerts → recommendations
// for one item/store pair. It holds no per-run state and is safe for
// concurrent use.
type Runner struct {
	history   HistoryRepository
	provider  forecast.Provider
	alerts    *inventory.AlertEngine
	recs      *inventory.RecommendationEngine
	cfg       Config
	observers []Observer
	now       func() time.Time
}

// NewRunner creates a new Runner. Zero config values fall back to DefaultConfig.
func NewRunner(history HistoryRepository, provider forecast.Provider, cfg Config) *Runner {
	def := DefaultConfig()
	if cfg.Horizon <= 0 {
		cfg.Horizon = def.Horizon
	}
	if cfg.MaxHorizon <= 0 {
		cfg.MaxHorizon = def.MaxHorizon
	}
	if cfg.Horizon > cfg.MaxHorizon {
		cfg.Horizon = cfg.MaxHorizon
	}
	if cfg.MinHistoryDays <= 0 {
		cfg.MinHistoryDays = def.MinHistoryDays
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.HistoryTail <= 0 {
		cfg.HistoryTail = def.HistoryTail
	}
	if cfg.Params == (inventory.Params{}) {
		cfg.Params = def.Params
	}

	return &Runner{
		history:  history,
		provider: provider,
		alerts:   inventory.NewAlertEngine(),
		recs:     inventory.NewRecommendationEngine(),
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithObserver registers an observer called after each run.
func (r *Runner) WithObserver(o Observer) *Runner {
	if o != nil {
		r.observers = append(r.observers, o)
	}
	return r
}

// Config returns the effective runner configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

// ModelName reports the forecasting model used for every run.
func (r *Runner) ModelName() string {
	return r.provider.ModelName()
}

// Run executes the pipeline for one pair. Failures never escape as errors;
// they are reported in the returned Result.
func (r *Runner) Run(ctx context.Context, req Request) Result {
	start := r.now()
	res := Result{
		RunID:        uuid.NewString(),
		ItemID:       strings.TrimSpace(req.ItemID),
		StoreID:      strings.TrimSpace(req.StoreID),
		CurrentStock: req.CurrentInventory,
		GeneratedAt:  start.UTC(),
	}

	if err := r.run(ctx, req, &res); err != nil {
		res = failed(res, err)
		log.Warn().
			Str("run_id", res.RunID).
			Str("item_id", res.ItemID).
			Str("store_id", res.StoreID).
			Str("kind", string(res.ErrorKind)).
			Err(err).
			Msg("forecast pipeline failed")
	}
	res.Duration = r.now().Sub(start)

	for _, o := range r.observers {
		o.ObserveRun(res)
	}
	return res
}

func (r *Runner) run(ctx context.Context, req Request, res *Result) error {
	if res.ItemID == "" || res.StoreID == "" {
		return domain.NewError(domain.KindInvalidParameter, "item_id and store_id are required")
	}

	horizon := req.Horizon
	if horizon == 0 {
		horizon = r.cfg.Horizon
	}
	if horizon < 0 {
		return domain.NewError(domain.KindInvalidParameter,
			"forecast horizon must be greater than 0 days (got %d)", horizon)
	}
	if horizon > r.cfg.MaxHorizon {
		return domain.NewError(domain.KindInvalidParameter,
			"forecast horizon must be at most %d days (got %d)", r.cfg.MaxHorizon, horizon)
	}
	res.Horizon = horizon

	params := r.cfg.Params
	if req.Params != nil {
		params = *req.Params
	}

	history, err := r.history.FetchHistory(ctx, res.ItemID, res.StoreID)
	if err != nil {
		if domain.KindOf(err) != domain.KindInternal || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return domain.WrapError(domain.KindInternal, err, "failed to load sales history")
	}
	if len(history) < r.cfg.MinHistoryDays {
		return domain.NewError(domain.KindInsufficientData,
			"Insufficient data for forecasting (minimum %d days required, found %d)", r.cfg.MinHistoryDays, len(history))
	}

	points, summary, err := r.provider.FitAndPredict(ctx, history, horizon)
	if err != nil {
		return err
	}
	res.ModelUsed = r.provider.ModelName()

	metrics, err := inventory.CalculateAllMetrics(points, req.CurrentInventory, params)
	if err != nil {
		return err
	}
	alerts := r.alerts.GenerateAllAlerts(metrics, summary, req.CurrentInventory)
	recs := r.recs.GenerateRecommendations(metrics, alerts, req.CurrentInventory)

	rounded := metrics.Rounded()
	res.Success = true
	res.Forecast = points
	res.Summary = &summary
	res.Metrics = &rounded
	res.Alerts = alerts
	res.Recommendations = recs
	res.HistoricalData = tail(history, r.cfg.HistoryTail)
	return nil
}

func failed(res Result, err error) Result {
	msg := domain.UserMessage(err)
	kind := domain.KindOf(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		msg = "forecast run cancelled: " + err.Error()
	}

	return Result{
		RunID:        res.RunID,
		Success:      false,
		Error:        msg,
		ErrorKind:    kind,
		ItemID:       res.ItemID,
		StoreID:      res.StoreID,
		Horizon:      res.Horizon,
		CurrentStock: res.CurrentStock,
		GeneratedAt:  res.GeneratedAt,
	}
}

func tail(history []domain.SalesObservation, n int) []domain.SalesObservation {
	if len(history) <= n {
		out := make([]domain.SalesObservation, len(history))
		copy(out, history)
		return out
	}
	out := make([]domain.SalesObservation, n)
	copy(out, history[len(history)-n:])
	return out
}
