package inventory

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

func makePoints(values ...float64) []domain.ForecastPoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.ForecastPoint, len(values))
	for i, v := range values {
		points[i] = domain.ForecastPoint{
			Date:            start.AddDate(0, 0, i),
			PredictedDemand: v,
			LowerBound:      math.Max(0, v-1),
			UpperBound:      v + 1,
			ConfidenceLevel: 0.95,
		}
	}
	return points
}

// alternating 8/12 gives mean 10 and population std 2
func tenAndTwo() []domain.ForecastPoint {
	values := make([]float64, 28)
	for i := range values {
		if i%2 == 0 {
			values[i] = 8
		} else {
			values[i] = 12
		}
	}
	return makePoints(values...)
}

func TestCalculateAllMetrics_Reference(t *testing.T) {
	m, err := CalculateAllMetrics(tenAndTwo(), nil, DefaultParams())
	require.NoError(t, err)

	assert.InDelta(t, 10, m.AvgDailyDemand, 1e-9)
	assert.InDelta(t, 2, m.DemandStd, 1e-9)
	assert.InDelta(t, 280, m.TotalForecast, 1e-9)
	assert.InDelta(t, 1.65*2*math.Sqrt(7), m.SafetyStock, 1e-9)
	assert.InDelta(t, 8.73, domain.Round2(m.SafetyStock), 1e-9)
	assert.InDelta(t, 78.73, domain.Round2(m.ReorderPoint), 1e-9)
	assert.InDelta(t, math.Sqrt(2*3650*50/2.0), m.EconomicOrderQuantity, 1e-9)
	assert.Nil(t, m.DaysOfStock)
	assert.Equal(t, 0.95, m.ServiceLevel)
	assert.Equal(t, 7.0, m.LeadTimeDays)
}

func TestCalculateAllMetrics_ReorderPointIdentity(t *testing.T) {
	series := [][]float64{
		{1, 2, 3, 4, 5},
		{100, 0, 50, 25},
		{7.5},
		{0.1, 0.2, 0.3, 9.9},
	}
	for _, lead := range []float64{1, 3.5, 7, 30} {
		for _, values := range series {
			params := DefaultParams()
			params.LeadTimeDays = lead
			m, err := CalculateAllMetrics(makePoints(values...), nil, params)
			require.NoError(t, err)
			assert.InDelta(t, m.AvgDailyDemand*lead+m.SafetyStock, m.ReorderPoint, 1e-9)
		}
	}
}

func TestSafetyStock_Monotonic(t *testing.T) {
	prev := -1.0
	for std := 0.0; std <= 10; std += 0.5 {
		ss := SafetyStock(std, 7, 0.95)
		assert.GreaterOrEqual(t, ss, prev)
		prev = ss
	}

	prev = -1.0
	for lead := 1.0; lead <= 60; lead++ {
		ss := SafetyStock(2, lead, 0.99)
		assert.GreaterOrEqual(t, ss, prev)
		prev = ss
	}
}

func TestZScore_FallsBackForUnknownLevels(t *testing.T) {
	assert.Equal(t, 1.28, ZScore(0.90))
	assert.Equal(t, 1.65, ZScore(0.95))
	assert.Equal(t, 2.33, ZScore(0.99))
	assert.Equal(t, 1.65, ZScore(0.80))
	assert.Equal(t, 1.65, ZScore(0.975))
}

func TestEconomicOrderQuantity_NonPositiveHoldingCost(t *testing.T) {
	for _, h := range []float64{0, -1, -100} {
		for _, annual := range []float64{1, 365, 100000} {
			assert.Zero(t, EconomicOrderQuantity(annual, 50, h))
		}
	}

	params := DefaultParams()
	params.HoldingCostPerUnit = 0
	m, err := CalculateAllMetrics(tenAndTwo(), nil, params)
	require.NoError(t, err)
	assert.Zero(t, m.EconomicOrderQuantity)
}

func TestCalculateAllMetrics_DaysOfStock(t *testing.T) {
	m, err := CalculateAllMetrics(makePoints(5, 5, 5, 5), domain.Float64Ptr(500), DefaultParams())
	require.NoError(t, err)
	require.NotNil(t, m.DaysOfStock)
	assert.InDelta(t, 100, *m.DaysOfStock, 1e-9)

	for _, current := range []float64{0, 1, 1000} {
		m, err := CalculateAllMetrics(makePoints(0, 0, 0), domain.Float64Ptr(current), DefaultParams())
		require.NoError(t, err)
		assert.Nil(t, m.DaysOfStock)
	}
}

func TestCalculateAllMetrics_Errors(t *testing.T) {
	_, err := CalculateAllMetrics(nil, nil, DefaultParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
	assert.Contains(t, err.Error(), "insufficient forecast data")

	params := DefaultParams()
	params.LeadTimeDays = 0
	_, err = CalculateAllMetrics(tenAndTwo(), nil, params)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	params = DefaultParams()
	params.ServiceLevel = -0.5
	_, err = CalculateAllMetrics(tenAndTwo(), nil, params)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	params = DefaultParams()
	params.OrderCost = -1
	_, err = CalculateAllMetrics(tenAndTwo(), nil, params)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = CalculateAllMetrics(tenAndTwo(), domain.Float64Ptr(-3), DefaultParams())
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestCalculateAllMetrics_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *Params)
		current  *float64
		wantKind error
	}{
		{"infinite lead time", func(p *Params) { p.LeadTimeDays = math.Inf(1) }, nil, domain.ErrInvalidParameter},
		{"nan lead time", func(p *Params) { p.LeadTimeDays = math.NaN() }, nil, domain.ErrInvalidParameter},
		{"infinite service level", func(p *Params) { p.ServiceLevel = math.Inf(1) }, nil, domain.ErrConfiguration},
		{"infinite order cost", func(p *Params) { p.OrderCost = math.Inf(1) }, nil, domain.ErrInvalidParameter},
		{"infinite holding cost", func(p *Params) { p.HoldingCostPerUnit = math.Inf(1) }, nil, domain.ErrInvalidParameter},
		{"nan holding cost", func(p *Params) { p.HoldingCostPerUnit = math.NaN() }, nil, domain.ErrInvalidParameter},
		{"infinite stock", func(p *Params) {}, domain.Float64Ptr(math.Inf(1)), domain.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			tt.mutate(&params)
			_, err := CalculateAllMetrics(tenAndTwo(), tt.current, params)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
		})
	}
}

func TestInventoryMetrics_Rounded(t *testing.T) {
	m, err := CalculateAllMetrics(tenAndTwo(), domain.Float64Ptr(33), DefaultParams())
	require.NoError(t, err)

	r := m.Rounded()
	assert.Equal(t, 8.73, r.SafetyStock)
	assert.Equal(t, 78.73, r.ReorderPoint)
	require.NotNil(t, r.DaysOfStock)
	assert.Equal(t, 3.3, *r.DaysOfStock)
	// receiver unchanged
	assert.InDelta(t, 1.65*2*math.Sqrt(7), m.SafetyStock, 1e-9)
}
