package chart

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

func fixtures() ([]domain.ForecastPoint, []domain.SalesObservation) {
	start := time.Date(2016, 4, 1, 0, 0, 0, 0, time.UTC)
	history := []domain.SalesObservation{
		{Date: start, Sales: 3},
		{Date: start.AddDate(0, 0, 1), Sales: 5},
	}
	points := []domain.ForecastPoint{
		{Date: start.AddDate(0, 0, 2), PredictedDemand: 4, LowerBound: 2, UpperBound: 6},
		{Date: start.AddDate(0, 0, 3), PredictedDemand: 4.5, LowerBound: 2.5, UpperBound: 6.5},
		{Date: start.AddDate(0, 0, 4), PredictedDemand: 5, LowerBound: 3, UpperBound: 7},
	}
	return points, history
}

func TestForecastChart_WithHistory(t *testing.T) {
	points, history := fixtures()
	c := ForecastChart(points, history)

	assert.Equal(t, "line", c.Type)
	assert.Equal(t, []string{"2016-04-01", "2016-04-02", "2016-04-03", "2016-04-04", "2016-04-05"}, c.Labels)
	require.Len(t, c.Datasets, 4)

	hist := c.Datasets[0]
	assert.Equal(t, "Historical Sales", hist.Label)
	require.Len(t, hist.Data, 5)
	assert.Equal(t, 5.0, *hist.Data[1])
	assert.Nil(t, hist.Data[2])

	pred := c.Datasets[1]
	assert.Equal(t, "Predicted Demand", pred.Label)
	require.Len(t, pred.Data, 5)
	assert.Nil(t, pred.Data[0])
	assert.Nil(t, pred.Data[1])
	assert.Equal(t, 4.0, *pred.Data[2])

	assert.Equal(t, "Upper Bound (95% CI)", c.Datasets[3].Label)
	assert.Equal(t, "-1", c.Datasets[3].Fill)
	assert.Equal(t, 7.0, *c.Datasets[3].Data[4])
}

func TestForecastChart_WithoutHistory(t *testing.T) {
	points, _ := fixtures()
	c := ForecastChart(points, nil)

	assert.Len(t, c.Labels, 3)
	require.Len(t, c.Datasets, 3)
	assert.Equal(t, "Predicted Demand", c.Datasets[0].Label)
	assert.Len(t, c.Datasets[0].Data, 3)
	assert.NotNil(t, c.Datasets[0].Data[0])
}

func TestForecastChart_PaddingSerializesAsNull(t *testing.T) {
	points, history := fixtures()
	raw, err := json.Marshal(ForecastChart(points, history))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[3,5,null,null,null]`)
	assert.Contains(t, string(raw), `"data":[null,null,4,4.5,5]`)
}

func TestMetricsAndComparisonCharts(t *testing.T) {
	m := MetricsChart(domain.InventoryMetrics{AvgDailyDemand: 10, SafetyStock: 8.7309, ReorderPoint: 78.7309, EconomicOrderQuantity: 427.2002})
	assert.Equal(t, "bar", m.Type)
	assert.Equal(t, []string{"Avg Daily Demand", "Safety Stock", "Reorder Point", "EOQ"}, m.Labels)
	assert.Equal(t, 8.73, *m.Datasets[0].Data[1])
	assert.Equal(t, 427.2, *m.Datasets[0].Data[3])

	c := ComparisonChart(100.004, 250.456)
	assert.Equal(t, []string{"Historical Average", "Forecasted Average"}, c.Labels)
	assert.Equal(t, 100.0, *c.Datasets[0].Data[0])
	assert.Equal(t, 250.46, *c.Datasets[0].Data[1])
}

func TestForResult(t *testing.T) {
	points, history := fixtures()
	res := pipeline.Result{
		Success:        true,
		Forecast:       points,
		HistoricalData: history,
		Metrics:        &domain.InventoryMetrics{ReorderPoint: 30},
		Summary:        &domain.ForecastSummary{HistoricalMean: 4, ForecastMean: 4.5},
	}
	set := ForResult(res)
	assert.Len(t, set.Forecast.Datasets, 4)
	assert.Equal(t, 30.0, *set.Metrics.Datasets[0].Data[2])
	assert.Equal(t, 4.5, *set.Comparison.Datasets[0].Data[1])
}
