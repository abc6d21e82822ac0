// Package chart builds Chart.js-compatible series from pipeline results.
package chart

import (
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

const dateLayout = "2006-01-02"

// Chart is a Chart.js configuration without options.
type Chart struct {
	Type     string    `json:"type"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset values are pointers so padding serializes as null.
type Dataset struct {
	Label           string      `json:"label"`
	Data            []*float64  `json:"data"`
	BorderColor     interface{} `json:"borderColor"`
	BackgroundColor interface{} `json:"backgroundColor"`
	BorderWidth     int         `json:"borderWidth"`
	BorderDash      []int       `json:"borderDash,omitempty"`
	Fill            interface{} `json:"fill,omitempty"`
	PointRadius     *int        `json:"pointRadius,omitempty"`
}

// Set is the chart bundle returned with a forecast.
type Set struct {
	Forecast   Chart `json:"forecast_chart"`
	Metrics    Chart `json:"metrics_chart"`
	Comparison Chart `json:"comparison_chart"`
}

// ForResult builds all charts for a successful run.
func ForResult(res pipeline.Result) Set {
	set := Set{Forecast: ForecastChart(res.Forecast, res.HistoricalData)}
	if res.Metrics != nil {
		set.Metrics = MetricsChart(*res.Metrics)
	}
	if res.Summary != nil {
		set.Comparison = ComparisonChart(res.Summary.HistoricalMean, res.Summary.ForecastMean)
	}
	return set
}

// ForecastChart lays historical sales and the forecast on one date axis.
// Each series is padded with nulls where it has no data.
func ForecastChart(points []domain.ForecastPoint, history []domain.SalesObservation) Chart {
	labels := make([]string, 0, len(history)+len(points))
	for _, h := range history {
		labels = append(labels, h.Date.Format(dateLayout))
	}
	for _, p := range points {
		labels = append(labels, p.Date.Format(dateLayout))
	}

	c := Chart{Type: "line", Labels: labels}

	if len(history) > 0 {
		sales := make([]*float64, 0, len(labels))
		for _, h := range history {
			sales = append(sales, value(h.Sales))
		}
		sales = append(sales, make([]*float64, len(points))...)

		c.Datasets = append(c.Datasets, Dataset{
			Label:           "Historical Sales",
			Data:            sales,
			BorderColor:     "rgb(54, 162, 235)",
			BackgroundColor: "rgba(54, 162, 235, 0.1)",
			BorderWidth:     2,
			Fill:            false,
			PointRadius:     radius(2),
		})
	}

	offset := len(history)
	series := func(pick func(domain.ForecastPoint) float64) []*float64 {
		out := make([]*float64, offset, offset+len(points))
		for _, p := range points {
			out = append(out, value(pick(p)))
		}
		return out
	}

	c.Datasets = append(c.Datasets,
		Dataset{
			Label:           "Predicted Demand",
			Data:            series(func(p domain.ForecastPoint) float64 { return p.PredictedDemand }),
			BorderColor:     "rgb(75, 192, 192)",
			BackgroundColor: "rgba(75, 192, 192, 0.2)",
			BorderWidth:     3,
			Fill:            false,
			PointRadius:     radius(3),
		},
		Dataset{
			Label:           "Lower Bound (95% CI)",
			Data:            series(func(p domain.ForecastPoint) float64 { return p.LowerBound }),
			BorderColor:     "rgba(75, 192, 192, 0.4)",
			BackgroundColor: "rgba(75, 192, 192, 0.05)",
			BorderWidth:     1,
			BorderDash:      []int{5, 5},
			Fill:            false,
			PointRadius:     radius(0),
		},
		Dataset{
			Label:           "Upper Bound (95% CI)",
			Data:            series(func(p domain.ForecastPoint) float64 { return p.UpperBound }),
			BorderColor:     "rgba(75, 192, 192, 0.4)",
			BackgroundColor: "rgba(75, 192, 192, 0.1)",
			BorderWidth:     1,
			BorderDash:      []int{5, 5},
			Fill:            "-1",
			PointRadius:     radius(0),
		},
	)

	return c
}

// MetricsChart is a bar chart of the main inventory quantities.
func MetricsChart(m domain.InventoryMetrics) Chart {
	return Chart{
		Type:   "bar",
		Labels: []string{"Avg Daily Demand", "Safety Stock", "Reorder Point", "EOQ"},
		Datasets: []Dataset{{
			Label: "Inventory Metrics (Units)",
			Data: []*float64{
				value(domain.Round2(m.AvgDailyDemand)),
				value(domain.Round2(m.SafetyStock)),
				value(domain.Round2(m.ReorderPoint)),
				value(domain.Round2(m.EconomicOrderQuantity)),
			},
			BackgroundColor: []string{
				"rgba(54, 162, 235, 0.7)",
				"rgba(255, 206, 86, 0.7)",
				"rgba(75, 192, 192, 0.7)",
				"rgba(153, 102, 255, 0.7)",
			},
			BorderColor: []string{
				"rgb(54, 162, 235)",
				"rgb(255, 206, 86)",
				"rgb(75, 192, 192)",
				"rgb(153, 102, 255)",
			},
			BorderWidth: 2,
		}},
	}
}

// ComparisonChart contrasts historical and forecast average daily demand.
func ComparisonChart(historicalMean, forecastMean float64) Chart {
	return Chart{
		Type:   "bar",
		Labels: []string{"Historical Average", "Forecasted Average"},
		Datasets: []Dataset{{
			Label: "Average Daily Demand",
			Data: []*float64{
				value(domain.Round2(historicalMean)),
				value(domain.Round2(forecastMean)),
			},
			BackgroundColor: []string{"rgba(54, 162, 235, 0.7)", "rgba(75, 192, 192, 0.7)"},
			BorderColor:     []string{"rgb(54, 162, 235)", "rgb(75, 192, 192)"},
			BorderWidth:     2,
		}},
	}
}

func value(v float64) *float64 {
	return &v
}

func radius(r int) *int {
	return &r
}
