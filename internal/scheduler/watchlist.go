package scheduler

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

// LoadWatchlist reads the batch of pairs forecast on every scheduled run.
//
//	horizon: 28
//	items:
//	  - item_id: FOODS_3_090
//	    store_id: CA_1
//	    current_inventory: 120
func LoadWatchlist(path string) (pipeline.BatchRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.BatchRequest{}, domain.WrapError(domain.KindConfiguration, err, "failed to read watchlist %s", path)
	}
	return ParseWatchlist(data)
}

// ParseWatchlist decodes a watchlist document.
func ParseWatchlist(data []byte) (pipeline.BatchRequest, error) {
	var req pipeline.BatchRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return pipeline.BatchRequest{}, domain.WrapError(domain.KindConfiguration, err, "invalid watchlist")
	}
	if len(req.Items) == 0 {
		return pipeline.BatchRequest{}, domain.NewError(domain.KindConfiguration, "watchlist has no items")
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.ItemID) == "" || strings.TrimSpace(item.StoreID) == "" {
			return pipeline.BatchRequest{}, domain.NewError(domain.KindConfiguration,
				"watchlist entry %d needs item_id and store_id", i+1)
		}
		if v := item.CurrentInventory; v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0) {
			return pipeline.BatchRequest{}, domain.NewError(domain.KindInvalidParameter,
				"watchlist entry %d has invalid current_inventory %v", i+1, *v)
		}
	}
	if req.Params != nil {
		if err := req.Params.Validate(); err != nil {
			return pipeline.BatchRequest{}, fmt.Errorf("watchlist params: %w", err)
		}
	}
	return req, nil
}
