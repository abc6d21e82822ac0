package forecast

import (
	"math"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

// Accuracy holds forecast error measures. MAPE is a percentage computed
// against actual+1 so zero-sales days do not divide by zero.
type Accuracy struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
}

// Evaluate compares aligned actual and predicted values.
func Evaluate(actual, predicted []float64) (Accuracy, error) {
	if len(actual) == 0 {
		return Accuracy{}, domain.NewError(domain.KindInvalidParameter, "no values to evaluate")
	}
	if len(actual) != len(predicted) {
		return Accuracy{}, domain.NewError(domain.KindInvalidParameter,
			"actual and predicted lengths differ (%d vs %d)", len(actual), len(predicted))
	}

	var absSum, sqSum, pctSum float64
	for i := range actual {
		diff := actual[i] - predicted[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
		pctSum += math.Abs(diff / (actual[i] + 1))
	}
	n := float64(len(actual))

	return Accuracy{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
		MAPE: pctSum / n * 100,
	}, nil
}

// BacktestResult is the outcome of a holdout evaluation.
type BacktestResult struct {
	Model    string                 `json:"model"`
	Train    int                    `json:"train_days"`
	Holdout  int                    `json:"holdout_days"`
	Accuracy Accuracy               `json:"accuracy"`
	Points   []domain.ForecastPoint `json:"forecast"`
}

// Backtest fits model on all but the last holdout observations and scores the
// prediction against them.
func Backtest(model Model, history []domain.SalesObservation, holdout, minTrain int) (BacktestResult, error) {
	if holdout <= 0 {
		return BacktestResult{}, domain.NewError(domain.KindInvalidParameter,
			"holdout must be greater than 0 days (got %d)", holdout)
	}
	train := len(history) - holdout
	if train < minTrain || train <= 0 {
		return BacktestResult{}, domain.NewError(domain.KindInsufficientData,
			"insufficient data for backtesting (need %d training days plus %d holdout days, have %d)",
			minTrain, holdout, len(history))
	}

	points, err := fitAndPredict(model, history[:train], holdout)
	if err != nil {
		return BacktestResult{}, err
	}

	predicted := make([]float64, len(points))
	for i, p := range points {
		predicted[i] = p.PredictedDemand
	}
	acc, err := Evaluate(salesValues(history[train:]), predicted)
	if err != nil {
		return BacktestResult{}, err
	}

	return BacktestResult{
		Model:    model.Name(),
		Train:    train,
		Holdout:  holdout,
		Accuracy: acc,
		Points:   points,
	}, nil
}
