package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

func referenceMetrics(t *testing.T, current *float64) domain.InventoryMetrics {
	t.Helper()
	m, err := CalculateAllMetrics(tenAndTwo(), current, DefaultParams())
	require.NoError(t, err)
	return m
}

func flatSummary(mean float64) domain.ForecastSummary {
	return domain.ForecastSummary{HistoricalMean: mean, ForecastMean: mean, ConfidenceLevel: 0.95}
}

func TestGenerateAllAlerts_StockoutUrgency(t *testing.T) {
	engine := NewAlertEngine()

	tests := []struct {
		name    string
		current float64
		want    domain.Urgency
	}{
		{name: "above half of reorder point", current: 40, want: domain.UrgencyHigh},
		{name: "below half of reorder point", current: 30, want: domain.UrgencyCritical},
		{name: "empty shelf", current: 0, want: domain.UrgencyCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := domain.Float64Ptr(tt.current)
			alerts := engine.GenerateAllAlerts(referenceMetrics(t, current), flatSummary(10), current)
			require.Len(t, alerts, 1)
			assert.Equal(t, domain.AlertStockoutRisk, alerts[0].Kind)
			assert.Equal(t, tt.want, alerts[0].Urgency)
		})
	}
}

func TestGenerateAllAlerts_StockoutMessage(t *testing.T) {
	current := domain.Float64Ptr(40)
	alerts := NewAlertEngine().GenerateAllAlerts(referenceMetrics(t, current), flatSummary(10), current)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Inventory (40 units) is below reorder point (79 units)", alerts[0].Message)
}

func TestGenerateAllAlerts_NoStockoutAboveReorderPoint(t *testing.T) {
	current := domain.Float64Ptr(80)
	alerts := NewAlertEngine().GenerateAllAlerts(referenceMetrics(t, current), flatSummary(10), current)
	assert.Empty(t, alerts)
}

func TestGenerateAllAlerts_Surge(t *testing.T) {
	engine := NewAlertEngine()
	m := referenceMetrics(t, nil)

	alerts := engine.GenerateAllAlerts(m, domain.ForecastSummary{HistoricalMean: 100, ForecastMean: 250}, nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertDemandSurge, alerts[0].Kind)
	assert.Equal(t, domain.UrgencyHigh, alerts[0].Urgency)
	assert.Equal(t, "Forecasted demand (250) is 2.5x higher than historical average", alerts[0].Message)

	alerts = engine.GenerateAllAlerts(m, domain.ForecastSummary{HistoricalMean: 100, ForecastMean: 150}, nil)
	assert.Empty(t, alerts)

	alerts = engine.GenerateAllAlerts(m, domain.ForecastSummary{HistoricalMean: 100, ForecastMean: 200}, nil)
	assert.Empty(t, alerts)
}

func TestGenerateAllAlerts_SurgeZeroHistoricalMean(t *testing.T) {
	alerts := NewAlertEngine().GenerateAllAlerts(referenceMetrics(t, nil), domain.ForecastSummary{HistoricalMean: 0, ForecastMean: 50}, nil)
	assert.Empty(t, alerts)
}

func TestGenerateAllAlerts_Overstock(t *testing.T) {
	current := domain.Float64Ptr(500)
	m, err := CalculateAllMetrics(makePoints(5, 5, 5, 5, 5, 5, 5), current, DefaultParams())
	require.NoError(t, err)

	alerts := NewAlertEngine().GenerateAllAlerts(m, flatSummary(5), current)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertOverstock, alerts[0].Kind)
	assert.Equal(t, domain.UrgencyMedium, alerts[0].Urgency)
	assert.Equal(t, "Excess inventory: 100 days of stock (threshold: 90 days)", alerts[0].Message)
}

func TestGenerateAllAlerts_OverstockSkippedForZeroDemand(t *testing.T) {
	current := domain.Float64Ptr(500)
	m, err := CalculateAllMetrics(makePoints(0, 0, 0), current, DefaultParams())
	require.NoError(t, err)

	alerts := NewAlertEngine().GenerateAllAlerts(m, flatSummary(0), current)
	assert.Empty(t, alerts)
}

func TestGenerateAllAlerts_OrderAndStability(t *testing.T) {
	engine := NewAlertEngine()
	current := domain.Float64Ptr(30)
	m := referenceMetrics(t, current)
	summary := domain.ForecastSummary{HistoricalMean: 4, ForecastMean: 10}

	first := engine.GenerateAllAlerts(m, summary, current)
	second := engine.GenerateAllAlerts(m, summary, current)

	require.Len(t, first, 2)
	assert.Equal(t, domain.AlertStockoutRisk, first[0].Kind)
	assert.Equal(t, domain.AlertDemandSurge, first[1].Kind)
	assert.Equal(t, first, second)
}
