package inventory

import (
	"fmt"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

// AlertEngine evaluates the threshold rules over metrics and a forecast summary.
type AlertEngine struct {
	// OverstockDays is the days-of-stock level above which stock is excessive.
	OverstockDays float64
	// SurgeMultiplier is how many times the historical mean the forecast mean
	// must exceed to count as a surge.
	SurgeMultiplier float64
	// CriticalFraction of the reorder point below which a stockout is critical.
	CriticalFraction float64
}

// NewAlertEngine returns an engine with the standard thresholds.
func NewAlertEngine() *AlertEngine {
	return &AlertEngine{
		OverstockDays:    90,
		SurgeMultiplier:  2.0,
		CriticalFraction: 0.5,
	}
}

// GenerateAllAlerts runs the rules in order: stockout, overstock, demand surge.
// Without current inventory the first two rules are skipped.
func (e *AlertEngine) GenerateAllAlerts(metrics domain.InventoryMetrics, summary domain.ForecastSummary, currentInventory *float64) []domain.Alert {
	alerts := make([]domain.Alert, 0, 3)

	if currentInventory != nil {
		if a, ok := e.stockoutAlert(*currentInventory, metrics.ReorderPoint); ok {
			alerts = append(alerts, a)
		}
		if a, ok := e.overstockAlert(*currentInventory, metrics.AvgDailyDemand); ok {
			alerts = append(alerts, a)
		}
	}

	if a, ok := e.surgeAlert(summary.ForecastMean, summary.HistoricalMean); ok {
		alerts = append(alerts, a)
	}

	return alerts
}

func (e *AlertEngine) stockoutAlert(current, reorderPoint float64) (domain.Alert, bool) {
	if current > reorderPoint {
		return domain.Alert{}, false
	}

	urgency := domain.UrgencyHigh
	if current < e.CriticalFraction*reorderPoint {
		urgency = domain.UrgencyCritical
	}

	return domain.Alert{
		Kind:    domain.AlertStockoutRisk,
		Urgency: urgency,
		Message: fmt.Sprintf("Inventory (%s units) is below reorder point (%s units)", units(current), units(reorderPoint)),
	}, true
}

func (e *AlertEngine) overstockAlert(current, avgDailyDemand float64) (domain.Alert, bool) {
	days, ok := DaysOfStock(current, avgDailyDemand)
	if !ok || days <= e.OverstockDays {
		return domain.Alert{}, false
	}

	return domain.Alert{
		Kind:    domain.AlertOverstock,
		Urgency: domain.UrgencyMedium,
		Message: fmt.Sprintf("Excess inventory: %s days of stock (threshold: %s days)", units(days), units(e.OverstockDays)),
	}, true
}

// surgeAlert never fires for a non-positive historical mean; there is no
// baseline to compare against.
func (e *AlertEngine) surgeAlert(forecastMean, historicalMean float64) (domain.Alert, bool) {
	if historicalMean <= 0 {
		return domain.Alert{}, false
	}
	if forecastMean <= historicalMean*e.SurgeMultiplier {
		return domain.Alert{}, false
	}

	return domain.Alert{
		Kind:    domain.AlertDemandSurge,
		Urgency: domain.UrgencyHigh,
		Message: fmt.Sprintf("Forecasted demand (%s) is %.1fx higher than historical average", units(forecastMean), forecastMean/historicalMean),
	}, true
}
