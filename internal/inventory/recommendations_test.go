package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

func recommend(t *testing.T, points []domain.ForecastPoint, summary domain.ForecastSummary, current *float64) []domain.Recommendation {
	t.Helper()
	m, err := CalculateAllMetrics(points, current, DefaultParams())
	require.NoError(t, err)
	alerts := NewAlertEngine().GenerateAllAlerts(m, summary, current)
	return NewRecommendationEngine().GenerateRecommendations(m, alerts, current)
}

func TestGenerateRecommendations_PlaceOrder(t *testing.T) {
	recs := recommend(t, tenAndTwo(), flatSummary(10), domain.Float64Ptr(40))

	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, domain.PriorityHigh, rec.Priority)
	assert.Equal(t, domain.ActionPlaceOrder, rec.Action)
	require.NotNil(t, rec.SuggestedQuantity)
	// EOQ (~427) dominates rop - current + ss (~47)
	assert.InDelta(t, 427.2, *rec.SuggestedQuantity, 0.01)
	assert.Equal(t, "Place order for 427 units immediately", rec.Message)
	assert.Equal(t, "Current inventory (40) is at or below reorder point (79)", rec.Details)
}

func TestGenerateRecommendations_PlaceOrderGapExceedsEOQ(t *testing.T) {
	current := domain.Float64Ptr(0)
	params := DefaultParams()
	params.HoldingCostPerUnit = 0
	m, err := CalculateAllMetrics(tenAndTwo(), current, params)
	require.NoError(t, err)

	recs := NewRecommendationEngine().GenerateRecommendations(m, nil, current)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].SuggestedQuantity)
	assert.InDelta(t, domain.Round2(m.ReorderPoint+m.SafetyStock), *recs[0].SuggestedQuantity, 1e-9)
}

func TestGenerateRecommendations_Monitor(t *testing.T) {
	// reorder point ~78.73, monitor band up to ~94.48
	recs := recommend(t, tenAndTwo(), flatSummary(10), domain.Float64Ptr(90))

	require.Len(t, recs, 1)
	assert.Equal(t, domain.PriorityMedium, recs[0].Priority)
	assert.Equal(t, domain.ActionMonitor, recs[0].Action)
	assert.Equal(t, "Reorder when inventory reaches 79 units", recs[0].Details)
	assert.Nil(t, recs[0].SuggestedQuantity)
}

func TestGenerateRecommendations_OverstockAfterOK(t *testing.T) {
	recs := recommend(t, makePoints(5, 5, 5, 5, 5, 5, 5), flatSummary(5), domain.Float64Ptr(500))

	require.Len(t, recs, 2)
	assert.Equal(t, domain.ActionOK, recs[0].Action)
	assert.Equal(t, domain.PriorityLow, recs[0].Priority)
	assert.Equal(t, "Current stock will last approximately 100 days", recs[0].Details)

	assert.Equal(t, domain.ActionReduceStock, recs[1].Action)
	assert.Equal(t, domain.PriorityMedium, recs[1].Priority)
	assert.Equal(t, "Excess inventory: 100 days of stock (threshold: 90 days)", recs[1].Details)
}

func TestGenerateRecommendations_NoInventory(t *testing.T) {
	recs := recommend(t, tenAndTwo(), domain.ForecastSummary{HistoricalMean: 4, ForecastMean: 10}, nil)

	require.Len(t, recs, 2)
	assert.Equal(t, domain.PriorityInfo, recs[0].Priority)
	assert.Equal(t, domain.ActionSetReorderPoint, recs[0].Action)
	assert.Equal(t, "Set reorder point to 79 units", recs[0].Message)
	assert.Equal(t, "Maintain safety stock of 9 units", recs[0].Details)

	assert.Equal(t, domain.ActionIncreaseStock, recs[1].Action)
	assert.Equal(t, domain.PriorityHigh, recs[1].Priority)
}

func TestGenerateRecommendations_StockoutAddsNothingExtra(t *testing.T) {
	alerts := []domain.Alert{{Kind: domain.AlertStockoutRisk, Urgency: domain.UrgencyHigh, Message: "x"}}
	m := referenceMetrics(t, domain.Float64Ptr(40))

	recs := NewRecommendationEngine().GenerateRecommendations(m, alerts, domain.Float64Ptr(40))
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ActionPlaceOrder, recs[0].Action)
}

func TestGenerateRecommendations_NeverEmpty(t *testing.T) {
	engine := NewRecommendationEngine()
	for _, current := range []*float64{nil, domain.Float64Ptr(0), domain.Float64Ptr(85), domain.Float64Ptr(1e6)} {
		for _, points := range [][]domain.ForecastPoint{tenAndTwo(), makePoints(0, 0), makePoints(3)} {
			m, err := CalculateAllMetrics(points, current, DefaultParams())
			require.NoError(t, err)
			assert.NotEmpty(t, engine.GenerateRecommendations(m, nil, current))
		}
	}
}

func TestGenerateRecommendations_ZeroDemandHealthyStock(t *testing.T) {
	recs := recommend(t, makePoints(0, 0, 0), flatSummary(0), domain.Float64Ptr(10))

	require.Len(t, recs, 1)
	assert.Equal(t, domain.ActionOK, recs[0].Action)
	assert.NotContains(t, recs[0].Details, "approximately")
}
