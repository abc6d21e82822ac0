package forecast

import "github.com/andresuchdata/demandcast/backend-go/internal/domain"

// Summarize compares the history with the forecast. The historical spread is
// the sample standard deviation.
func Summarize(history []domain.SalesObservation, points []domain.ForecastPoint) domain.ForecastSummary {
	predicted := make([]float64, len(points))
	for i, p := range points {
		predicted[i] = p.PredictedDemand
	}
	values := salesValues(history)

	return domain.ForecastSummary{
		HistoricalMean:  mean(values),
		HistoricalStd:   sampleStd(values),
		ForecastMean:    mean(predicted),
		ForecastTotal:   sumOf(predicted),
		ConfidenceLevel: DefaultConfidence,
	}
}
