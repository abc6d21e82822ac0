package forecast

import (
	"math"
	"time"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

const (
	ModelWeekdayTrend  = "weekday_trend"
	ModelMovingAverage = "moving_average"
	ModelHolt          = "holt"

	// DefaultConfidence is the interval coverage every built-in model reports.
	DefaultConfidence = 0.95

	intervalZ     = 1.96
	defaultWindow = 28
	defaultAlpha  = 0.3
	defaultBeta   = 0.1
)

var errNotFitted = domain.NewError(domain.KindModelFailure, "model must be fitted before prediction")

func requireHistory(history []domain.SalesObservation) error {
	if len(history) == 0 {
		return domain.NewError(domain.KindInsufficientData, "cannot fit a forecast model on an empty history")
	}
	return nil
}

// point builds a forecast point with non-negative values and bounds.
func point(date time.Time, yhat, halfWidth float64) domain.ForecastPoint {
	return domain.ForecastPoint{
		Date:            date,
		PredictedDemand: math.Max(0, yhat),
		LowerBound:      math.Max(0, yhat-halfWidth),
		UpperBound:      math.Max(0, yhat+halfWidth),
		ConfidenceLevel: DefaultConfidence,
	}
}

// WeekdayTrend fits a linear trend on the series and scales it by a
// multiplicative day-of-week factor.
type WeekdayTrend struct {
	intercept float64
	slope     float64
	factors   [7]float64
	residStd  float64
	n         int
	lastDate  time.Time
	fitted    bool
}

func NewWeekdayTrend() *WeekdayTrend {
	return &WeekdayTrend{}
}

func (m *WeekdayTrend) Name() string { return ModelWeekdayTrend }

func (m *WeekdayTrend) Fit(history []domain.SalesObservation) error {
	if err := requireHistory(history); err != nil {
		return err
	}

	values := salesValues(history)
	overall := mean(values)

	var sums, counts [7]float64
	for _, obs := range history {
		wd := obs.Date.Weekday()
		sums[wd] += obs.Sales
		counts[wd]++
	}
	for wd := range m.factors {
		m.factors[wd] = 1
		if counts[wd] > 0 && overall > 0 {
			m.factors[wd] = (sums[wd] / counts[wd]) / overall
		}
	}

	deseasonalized := make([]float64, len(values))
	for i, obs := range history {
		f := m.factors[obs.Date.Weekday()]
		if f > 0 {
			deseasonalized[i] = obs.Sales / f
		}
	}
	m.intercept, m.slope = linearFit(deseasonalized)

	residuals := make([]float64, len(values))
	for i, obs := range history {
		residuals[i] = obs.Sales - m.fittedAt(i, obs.Date.Weekday())
	}
	m.residStd = populationStd(residuals)

	m.n = len(history)
	m.lastDate = history[len(history)-1].Date
	m.fitted = true
	return nil
}

func (m *WeekdayTrend) fittedAt(i int, wd time.Weekday) float64 {
	return (m.intercept + m.slope*float64(i)) * m.factors[wd]
}

func (m *WeekdayTrend) Predict(horizon int) ([]domain.ForecastPoint, error) {
	if !m.fitted {
		return nil, errNotFitted
	}
	points := make([]domain.ForecastPoint, horizon)
	for h := 1; h <= horizon; h++ {
		date := m.lastDate.AddDate(0, 0, h)
		yhat := m.fittedAt(m.n-1+h, date.Weekday())
		points[h-1] = point(date, yhat, intervalZ*m.residStd)
	}
	return points, nil
}

// MovingAverage predicts the trailing window mean for every future day.
type MovingAverage struct {
	window   int
	level    float64
	std      float64
	lastDate time.Time
	fitted   bool
}

func NewMovingAverage(window int) *MovingAverage {
	if window <= 0 {
		window = defaultWindow
	}
	return &MovingAverage{window: window}
}

func (m *MovingAverage) Name() string { return ModelMovingAverage }

func (m *MovingAverage) Fit(history []domain.SalesObservation) error {
	if err := requireHistory(history); err != nil {
		return err
	}
	values := salesValues(history)
	if len(values) > m.window {
		values = values[len(values)-m.window:]
	}
	m.level = mean(values)
	m.std = populationStd(values)
	m.lastDate = history[len(history)-1].Date
	m.fitted = true
	return nil
}

func (m *MovingAverage) Predict(horizon int) ([]domain.ForecastPoint, error) {
	if !m.fitted {
		return nil, errNotFitted
	}
	points := make([]domain.ForecastPoint, horizon)
	for h := 1; h <= horizon; h++ {
		points[h-1] = point(m.lastDate.AddDate(0, 0, h), m.level, intervalZ*m.std)
	}
	return points, nil
}

// Holt is double exponential smoothing (level + trend). The interval widens
// with the square root of the step.
type Holt struct {
	alpha    float64
	beta     float64
	level    float64
	trend    float64
	errStd   float64
	lastDate time.Time
	fitted   bool
}

func NewHolt(alpha, beta float64) *Holt {
	return &Holt{alpha: alpha, beta: beta}
}

func (m *Holt) Name() string { return ModelHolt }

func (m *Holt) Fit(history []domain.SalesObservation) error {
	if err := requireHistory(history); err != nil {
		return err
	}
	if m.alpha <= 0 || m.alpha > 1 || m.beta < 0 || m.beta > 1 {
		return domain.NewError(domain.KindConfiguration,
			"holt smoothing factors must be in (0,1] (alpha=%v, beta=%v)", m.alpha, m.beta)
	}

	values := salesValues(history)
	m.level = values[0]
	m.trend = 0
	if len(values) > 1 {
		m.trend = values[1] - values[0]
	}

	errs := make([]float64, 0, len(values))
	for _, y := range values[1:] {
		forecast := m.level + m.trend
		errs = append(errs, y-forecast)

		prevLevel := m.level
		m.level = m.alpha*y + (1-m.alpha)*(m.level+m.trend)
		m.trend = m.beta*(m.level-prevLevel) + (1-m.beta)*m.trend
	}
	m.errStd = populationStd(errs)
	m.lastDate = history[len(history)-1].Date
	m.fitted = true
	return nil
}

func (m *Holt) Predict(horizon int) ([]domain.ForecastPoint, error) {
	if !m.fitted {
		return nil, errNotFitted
	}
	points := make([]domain.ForecastPoint, horizon)
	for h := 1; h <= horizon; h++ {
		yhat := m.level + float64(h)*m.trend
		points[h-1] = point(m.lastDate.AddDate(0, 0, h), yhat, intervalZ*m.errStd*math.Sqrt(float64(h)))
	}
	return points, nil
}
