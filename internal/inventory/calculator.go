package inventory

import (
	"math"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

const daysPerYear = 365

// Params are the operating inputs of the metrics calculation.
type Params struct {
	LeadTimeDays       float64 `json:"lead_time_days" yaml:"lead_time_days"`
	ServiceLevel       float64 `json:"service_level" yaml:"service_level"`
	OrderCost          float64 `json:"order_cost" yaml:"order_cost"`
	HoldingCostPerUnit float64 `json:"holding_cost_per_unit" yaml:"holding_cost_per_unit"`
}

// DefaultParams returns the standard operating parameters
// (7 day lead time, 95% service level, 50 per order, 2 per unit held).
func DefaultParams() Params {
	return Params{
		LeadTimeDays:       7,
		ServiceLevel:       0.95,
		OrderCost:          50,
		HoldingCostPerUnit: 2,
	}
}

// Validate checks the parameters the formulas cannot absorb. A non-positive
// holding cost is allowed and yields a zero EOQ. Every value must be finite.
func (p Params) Validate() error {
	if !finite(p.LeadTimeDays) || p.LeadTimeDays <= 0 {
		return domain.NewError(domain.KindInvalidParameter,
			"lead time must be a finite number greater than 0 days (got %v)", p.LeadTimeDays)
	}
	if !finite(p.ServiceLevel) || p.ServiceLevel <= 0 || p.ServiceLevel > 1 {
		return domain.NewError(domain.KindConfiguration,
			"service level must be between 0 and 1 (got %v)", p.ServiceLevel)
	}
	if !finite(p.OrderCost) || p.OrderCost < 0 {
		return domain.NewError(domain.KindInvalidParameter,
			"order cost must be a finite non-negative number (got %v)", p.OrderCost)
	}
	if !finite(p.HoldingCostPerUnit) {
		return domain.NewError(domain.KindInvalidParameter,
			"holding cost must be a finite number (got %v)", p.HoldingCostPerUnit)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ZScore maps a service level to its normal z-score. Levels other than 90%,
// 95% and 99% intentionally fall back to the 95% score.
func ZScore(serviceLevel float64) float64 {
	switch serviceLevel {
	case 0.90:
		return 1.28
	case 0.95:
		return 1.65
	case 0.99:
		return 2.33
	default:
		return 1.65
	}
}

// SafetyStock = Z × σ × √(lead time), floored at 0.
func SafetyStock(demandStd, leadTimeDays, serviceLevel float64) float64 {
	ss := ZScore(serviceLevel) * demandStd * math.Sqrt(leadTimeDays)
	return math.Max(0, ss)
}

// ReorderPoint = (average daily demand × lead time) + safety stock, floored at 0.
func ReorderPoint(avgDailyDemand, leadTimeDays, safetyStock float64) float64 {
	return math.Max(0, avgDailyDemand*leadTimeDays+safetyStock)
}

// EconomicOrderQuantity = √(2 × annual demand × order cost / holding cost).
// Returns 0 when the holding cost is not positive.
func EconomicOrderQuantity(annualDemand, orderCost, holdingCostPerUnit float64) float64 {
	if holdingCostPerUnit <= 0 {
		return 0
	}
	eoq := math.Sqrt((2 * annualDemand * orderCost) / holdingCostPerUnit)
	if math.IsNaN(eoq) {
		return 0
	}
	return math.Max(0, eoq)
}

// DaysOfStock returns current inventory / average daily demand. The second
// return is false when demand is not positive and the cover is unbounded.
func DaysOfStock(currentInventory, avgDailyDemand float64) (float64, bool) {
	if avgDailyDemand <= 0 {
		return math.Inf(1), false
	}
	return currentInventory / avgDailyDemand, true
}

// CalculateAllMetrics derives the inventory decision parameters from a forecast.
// The returned metrics are unrounded; use Rounded() for presentation.
func CalculateAllMetrics(points []domain.ForecastPoint, currentInventory *float64, params Params) (domain.InventoryMetrics, error) {
	if len(points) == 0 {
		return domain.InventoryMetrics{}, domain.NewError(domain.KindInsufficientData,
			"insufficient forecast data: at least 1 forecast point is required")
	}
	if err := params.Validate(); err != nil {
		return domain.InventoryMetrics{}, err
	}
	if currentInventory != nil && (!finite(*currentInventory) || *currentInventory < 0) {
		return domain.InventoryMetrics{}, domain.NewError(domain.KindInvalidParameter,
			"current inventory must be a finite non-negative number (got %v)", *currentInventory)
	}

	demands := make([]float64, len(points))
	for i, p := range points {
		demands[i] = p.PredictedDemand
	}
	avg, std, total := demandStats(demands)

	safetyStock := SafetyStock(std, params.LeadTimeDays, params.ServiceLevel)
	reorderPoint := ReorderPoint(avg, params.LeadTimeDays, safetyStock)
	eoq := EconomicOrderQuantity(avg*daysPerYear, params.OrderCost, params.HoldingCostPerUnit)

	metrics := domain.InventoryMetrics{
		AvgDailyDemand:        avg,
		DemandStd:             std,
		TotalForecast:         total,
		SafetyStock:           safetyStock,
		ReorderPoint:          reorderPoint,
		EconomicOrderQuantity: eoq,
		ServiceLevel:          params.ServiceLevel,
		LeadTimeDays:          params.LeadTimeDays,
	}

	if currentInventory != nil {
		if days, ok := DaysOfStock(*currentInventory, avg); ok {
			metrics.DaysOfStock = &days
		}
	}

	return metrics, nil
}
