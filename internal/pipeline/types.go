package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/inventory"
)

// HistoryRepository provides the daily sales series of an item/store pair.
// Implementations return an error matching domain.ErrNotFound when no rows exist.
type HistoryRepository interface {
	FetchHistory(ctx context.Context, itemID, storeID string) ([]domain.SalesObservation, error)
}

// Observer is notified after every run, successful or not.
type Observer interface {
	ObserveRun(res Result)
}

// Config holds the runner defaults
type Config struct {
	Horizon        int              // Days forecast when a request leaves it unset
	MaxHorizon     int              // Longest horizon a request may ask for
	MinHistoryDays int              // Observations required before a model is fitted
	WorkerCount    int              // Concurrent pairs in RunBatch
	HistoryTail    int              // Trailing observations echoed back in results
	Params         inventory.Params // Operating parameters when a request has none
}

// DefaultConfig returns the standard runner configuration
func DefaultConfig() Config {
	return Config{
		Horizon:        28,
		MaxHorizon:     365,
		MinHistoryDays: 30,
		WorkerCount:    4,
		HistoryTail:    30,
		Params:         inventory.DefaultParams(),
	}
}

// Request describes one pipeline run. A nil Params uses the runner defaults.
type Request struct {
	ItemID           string            `json:"item_id"`
	StoreID          string            `json:"store_id"`
	Horizon          int               `json:"horizon"`
	CurrentInventory *float64          `json:"current_inventory,omitempty"`
	Params           *inventory.Params `json:"params,omitempty"`
}

// Result is the tagged outcome of a run. On failure only the identity,
// Error and ErrorKind are set.
type Result struct {
	RunID           string                    `json:"run_id"`
	Success         bool                      `json:"success"`
	Error           string                    `json:"error,omitempty"`
	ErrorKind       domain.ErrorKind          `json:"error_kind,omitempty"`
	ItemID          string                    `json:"item_id"`
	StoreID         string                    `json:"store_id"`
	Horizon         int                       `json:"horizon,omitempty"`
	ModelUsed       string                    `json:"model_used,omitempty"`
	Forecast        []domain.ForecastPoint    `json:"forecast,omitempty"`
	Summary         *domain.ForecastSummary   `json:"summary,omitempty"`
	Metrics         *domain.InventoryMetrics  `json:"inventory_metrics,omitempty"`
	Alerts          []domain.Alert            `json:"alerts,omitempty"`
	Recommendations []domain.Recommendation   `json:"recommendations,omitempty"`
	HistoricalData  []domain.SalesObservation `json:"historical_data,omitempty"`
	CurrentStock    *float64                  `json:"current_inventory,omitempty"`
	GeneratedAt     time.Time                 `json:"generated_at"`
	Duration        time.Duration             `json:"-"`
}

// BatchItem is one pair of a batch with its optional on-hand stock.
type BatchItem struct {
	domain.ItemStore `yaml:",inline"`
	CurrentInventory *float64 `json:"current_inventory,omitempty" yaml:"current_inventory,omitempty"`
}

// BatchRequest runs many pairs with a shared horizon and parameters.
type BatchRequest struct {
	Items   []BatchItem       `json:"items" yaml:"items"`
	Horizon int               `json:"horizon" yaml:"horizon"`
	Params  *inventory.Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// BatchResult keeps Results in the order of the request items.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}
