package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/cache"
	"github.com/andresuchdata/demandcast/backend-go/internal/chart"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/forecast"
	"github.com/andresuchdata/demandcast/backend-go/internal/inventory"
	"github.com/andresuchdata/demandcast/backend-go/internal/metrics"
	"github.com/andresuchdata/demandcast/backend-go/internal/narrative"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
	"github.com/andresuchdata/demandcast/backend-go/internal/repository"
)

const (
	defaultItemsLimit = 100
	defaultHoldout    = 28
)

// GenerateOptions selects the presentation extras of a forecast response.
type GenerateOptions struct {
	Narrative bool
	Charts    bool
}

// ForecastResponse is a pipeline result plus its presentation extras.
type ForecastResponse struct {
	pipeline.Result
	Narrative *narrative.Summary `json:"narrative,omitempty"`
	Charts    *chart.Set         `json:"charts,omitempty"`
	Cached    bool               `json:"cached"`
}

type ForecastService struct {
	repo       repository.HistoryRepository
	runner     *pipeline.Runner
	registry   *forecast.Registry
	cache      cache.ForecastCache
	summarizer *narrative.Summarizer
}

func NewForecastService(repo repository.HistoryRepository, runner *pipeline.Runner, cacheImpl cache.ForecastCache, summarizer *narrative.Summarizer) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	if summarizer == nil {
		summarizer = narrative.NewSummarizer(nil)
	}
	return &ForecastService{
		repo:       repo,
		runner:     runner,
		registry:   forecast.NewRegistry(),
		cache:      cacheImpl,
		summarizer: summarizer,
	}
}

// Generate runs the pipeline for one pair, serving successful results from
// the cache when possible. Failures are never cached.
func (s *ForecastService) Generate(ctx context.Context, req pipeline.Request, opts GenerateOptions) ForecastResponse {
	key := s.cacheKey(req)

	var resp ForecastResponse
	if cached, ok, err := s.cache.GetResult(ctx, key); err == nil && ok {
		metrics.CacheLookup(true)
		resp = ForecastResponse{Result: *cached, Cached: true}
	} else {
		if err != nil {
			log.Warn().Err(err).Msg("forecast: cache get result failed")
		}
		metrics.CacheLookup(false)

		resp = ForecastResponse{Result: s.runner.Run(ctx, req)}
		if resp.Success {
			if err := s.cache.SetResult(ctx, key, resp.Result); err != nil {
				log.Warn().Err(err).Msg("forecast: cache set result failed")
			}
		}
	}

	if !resp.Success {
		return resp
	}

	if opts.Charts {
		set := chart.ForResult(resp.Result)
		resp.Charts = &set
	}
	if opts.Narrative {
		summary, err := s.summarizer.Summarize(ctx, resp.Result)
		if err != nil {
			log.Warn().Err(err).Str("run_id", resp.RunID).Msg("forecast: narrative failed")
		} else {
			metrics.NarrativeProduced(string(summary.Source))
			resp.Narrative = &summary
		}
	}
	return resp
}

// RunBatch forecasts many pairs. Entries without ids fail individually.
func (s *ForecastService) RunBatch(ctx context.Context, req pipeline.BatchRequest) pipeline.BatchResult {
	return s.runner.RunBatch(ctx, req)
}

// ListItems returns up to limit distinct item/store pairs.
func (s *ForecastService) ListItems(ctx context.Context, limit int) ([]domain.ItemStore, error) {
	if limit <= 0 {
		limit = defaultItemsLimit
	}

	if items, ok, err := s.cache.GetItems(ctx, limit); err == nil && ok {
		return items, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get items failed")
	}

	items, err := s.repo.ListItems(ctx, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = make([]domain.ItemStore, 0)
	}

	if err := s.cache.SetItems(ctx, limit, items); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set items failed")
	}
	return items, nil
}

// Backtest scores a model on the last holdout days of a pair's history. An
// empty model uses the runner's model.
func (s *ForecastService) Backtest(ctx context.Context, itemID, storeID, model string, holdout int) (forecast.BacktestResult, error) {
	itemID, storeID = strings.TrimSpace(itemID), strings.TrimSpace(storeID)
	if itemID == "" || storeID == "" {
		return forecast.BacktestResult{}, domain.NewError(domain.KindInvalidParameter, "item_id and store_id are required")
	}
	if model == "" {
		model = s.runner.ModelName()
	}
	if holdout == 0 {
		holdout = defaultHoldout
	}

	m, err := s.registry.New(model)
	if err != nil {
		return forecast.BacktestResult{}, err
	}
	history, err := s.repo.FetchHistory(ctx, itemID, storeID)
	if err != nil {
		return forecast.BacktestResult{}, err
	}
	return forecast.Backtest(m, history, holdout, s.runner.Config().MinHistoryDays)
}

// Models lists the registered forecasting models.
func (s *ForecastService) Models() []string {
	return s.registry.Names()
}

// DefaultModel is the model used by Generate and RunBatch.
func (s *ForecastService) DefaultModel() string {
	return s.runner.ModelName()
}

// DefaultParams are the operating parameters used when a request has none.
func (s *ForecastService) DefaultParams() inventory.Params {
	return s.runner.Config().Params
}

// InvalidateCache drops every cached result, for example after an import.
func (s *ForecastService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// cacheKey resolves request defaults so equivalent requests share an entry.
func (s *ForecastService) cacheKey(req pipeline.Request) cache.ForecastKey {
	cfg := s.runner.Config()
	key := cache.ForecastKey{
		ItemID:           strings.TrimSpace(req.ItemID),
		StoreID:          strings.TrimSpace(req.StoreID),
		Horizon:          req.Horizon,
		Model:            s.runner.ModelName(),
		CurrentInventory: req.CurrentInventory,
		Params:           cfg.Params,
	}
	if key.Horizon == 0 {
		key.Horizon = cfg.Horizon
	}
	if req.Params != nil {
		key.Params = *req.Params
	}
	return key
}
