package inventory

import (
	"fmt"
	"math"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

// RecommendationEngine turns metrics and alerts into an ordered action list.
type RecommendationEngine struct {
	// MonitorBand is the multiple of the reorder point under which stock is
	// watched closely rather than reported healthy.
	MonitorBand float64
}

func NewRecommendationEngine() *RecommendationEngine {
	return &RecommendationEngine{MonitorBand: 1.2}
}

// GenerateRecommendations always returns the stock-status recommendation first,
// followed by one entry per overstock or surge alert in alert order.
func (e *RecommendationEngine) GenerateRecommendations(metrics domain.InventoryMetrics, alerts []domain.Alert, currentInventory *float64) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, 1+len(alerts))
	recs = append(recs, e.stockStatus(metrics, currentInventory))

	for _, alert := range alerts {
		switch alert.Kind {
		case domain.AlertOverstock:
			recs = append(recs, domain.Recommendation{
				Priority: domain.PriorityMedium,
				Action:   domain.ActionReduceStock,
				Message:  "Consider promotion or discount to clear excess inventory",
				Details:  alert.Message,
			})
		case domain.AlertDemandSurge:
			recs = append(recs, domain.Recommendation{
				Priority: domain.PriorityHigh,
				Action:   domain.ActionIncreaseStock,
				Message:  "Prepare for demand surge - consider additional safety stock",
				Details:  alert.Message,
			})
		}
	}

	return recs
}

func (e *RecommendationEngine) stockStatus(m domain.InventoryMetrics, currentInventory *float64) domain.Recommendation {
	if currentInventory == nil {
		return domain.Recommendation{
			Priority: domain.PriorityInfo,
			Action:   domain.ActionSetReorderPoint,
			Message:  fmt.Sprintf("Set reorder point to %s units", units(m.ReorderPoint)),
			Details:  fmt.Sprintf("Maintain safety stock of %s units", units(m.SafetyStock)),
		}
	}

	current := *currentInventory
	switch {
	case current <= m.ReorderPoint:
		qty := math.Max(m.EconomicOrderQuantity, m.ReorderPoint-current+m.SafetyStock)
		qty = math.Max(0, qty)
		return domain.Recommendation{
			Priority:          domain.PriorityHigh,
			Action:            domain.ActionPlaceOrder,
			Message:           fmt.Sprintf("Place order for %s units immediately", units(qty)),
			Details:           fmt.Sprintf("Current inventory (%s) is at or below reorder point (%s)", units(current), units(m.ReorderPoint)),
			SuggestedQuantity: domain.Float64Ptr(domain.Round2(qty)),
		}
	case current <= e.MonitorBand*m.ReorderPoint:
		return domain.Recommendation{
			Priority: domain.PriorityMedium,
			Action:   domain.ActionMonitor,
			Message:  "Monitor inventory closely - approaching reorder point",
			Details:  fmt.Sprintf("Reorder when inventory reaches %s units", units(m.ReorderPoint)),
		}
	default:
		details := "Forecast demand is zero; current stock is not being drawn down"
		if m.DaysOfStock != nil {
			details = fmt.Sprintf("Current stock will last approximately %s days", units(*m.DaysOfStock))
		}
		return domain.Recommendation{
			Priority: domain.PriorityLow,
			Action:   domain.ActionOK,
			Message:  "Inventory levels are healthy",
			Details:  details,
		}
	}
}
