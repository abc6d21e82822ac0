// backend-go/internal/domain/models.go
package domain

import (
	"math"
	"time"
)

// SalesObservation is one day of historical sales for an item/store pair
type SalesObservation struct {
	Date  time.Time `json:"date" db:"date"`
	Sales float64   `json:"sales" db:"sales"`
}

// ItemStore identifies a single forecastable series
type ItemStore struct {
	ItemID  string `json:"item_id" db:"item_id" yaml:"item_id"`
	StoreID string `json:"store_id" db:"store_id" yaml:"store_id"`
}

// ForecastPoint is the predicted demand for one future day
type ForecastPoint struct {
	Date            time.Time `json:"date"`
	PredictedDemand float64   `json:"predicted_demand"`
	LowerBound      float64   `json:"lower_bound"`
	UpperBound      float64   `json:"upper_bound"`
	ConfidenceLevel float64   `json:"confidence_level"`
}

// ForecastSummary aggregates a completed forecast run
type ForecastSummary struct {
	HistoricalMean  float64 `json:"historical_mean"`
	HistoricalStd   float64 `json:"historical_std"`
	ForecastMean    float64 `json:"forecast_mean"`
	ForecastTotal   float64 `json:"forecast_total"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// InventoryMetrics holds the derived decision parameters for one item/store run.
// DaysOfStock is nil when no current inventory was supplied or when average
// daily demand is zero.
type InventoryMetrics struct {
	AvgDailyDemand        float64  `json:"avg_daily_demand"`
	DemandStd             float64  `json:"demand_std"`
	TotalForecast         float64  `json:"total_forecast"`
	SafetyStock           float64  `json:"safety_stock"`
	ReorderPoint          float64  `json:"reorder_point"`
	EconomicOrderQuantity float64  `json:"economic_order_quantity"`
	DaysOfStock           *float64 `json:"days_of_stock"`
	ServiceLevel          float64  `json:"service_level"`
	LeadTimeDays          float64  `json:"lead_time_days"`
}

// Rounded returns a presentation copy with every quantity rounded to 2 decimals.
func (m InventoryMetrics) Rounded() InventoryMetrics {
	out := m
	out.AvgDailyDemand = Round2(m.AvgDailyDemand)
	out.DemandStd = Round2(m.DemandStd)
	out.TotalForecast = Round2(m.TotalForecast)
	out.SafetyStock = Round2(m.SafetyStock)
	out.ReorderPoint = Round2(m.ReorderPoint)
	out.EconomicOrderQuantity = Round2(m.EconomicOrderQuantity)
	if m.DaysOfStock != nil {
		d := Round2(*m.DaysOfStock)
		out.DaysOfStock = &d
	}
	return out
}

// Alert is a flagged inventory condition
type Alert struct {
	Kind    AlertKind `json:"type"`
	Urgency Urgency   `json:"urgency"`
	Message string    `json:"message"`
}

// Recommendation is an action item derived from metrics and alerts
type Recommendation struct {
	Priority          Priority `json:"priority"`
	Action            Action   `json:"action"`
	Message           string   `json:"message"`
	Details           string   `json:"details"`
	SuggestedQuantity *float64 `json:"suggested_quantity,omitempty"`
}

// Round2 rounds v to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
