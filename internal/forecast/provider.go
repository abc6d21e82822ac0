package forecast

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

// Model is a fittable forecasting model. Implementations are not safe for
// concurrent use; build one per run through a Registry.
type Model interface {
	Name() string
	Fit(history []domain.SalesObservation) error
	Predict(horizon int) ([]domain.ForecastPoint, error)
}

// Factory builds a fresh, unfitted model.
type Factory func() Model

// Registry maps model names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry holding the built-in models.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(ModelWeekdayTrend, func() Model { return NewWeekdayTrend() })
	r.Register(ModelMovingAverage, func() Model { return NewMovingAverage(defaultWindow) })
	r.Register(ModelHolt, func() Model { return NewHolt(defaultAlpha, defaultBeta) })
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[normalizeName(name)] = f
}

// New builds the named model or fails with an unsupported-model error.
func (r *Registry) New(name string) (Model, error) {
	f, ok := r.factories[normalizeName(name)]
	if !ok {
		return nil, domain.NewError(domain.KindUnsupportedModel,
			"model %q is not supported (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return f(), nil
}

// Names lists registered model names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Provider fits a model on a history and predicts the next horizon days.
type Provider interface {
	ModelName() string
	FitAndPredict(ctx context.Context, history []domain.SalesObservation, horizon int) ([]domain.ForecastPoint, domain.ForecastSummary, error)
}

// ModelProvider is the registry-backed Provider.
type ModelProvider struct {
	registry  *Registry
	modelName string
}

// NewModelProvider validates the model name up front so configuration mistakes
// surface at startup.
func NewModelProvider(registry *Registry, modelName string) (*ModelProvider, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	if _, err := registry.New(modelName); err != nil {
		return nil, err
	}
	return &ModelProvider{registry: registry, modelName: normalizeName(modelName)}, nil
}

func (p *ModelProvider) ModelName() string {
	return p.modelName
}

func (p *ModelProvider) FitAndPredict(ctx context.Context, history []domain.SalesObservation, horizon int) ([]domain.ForecastPoint, domain.ForecastSummary, error) {
	if horizon <= 0 {
		return nil, domain.ForecastSummary{}, domain.NewError(domain.KindInvalidParameter,
			"forecast horizon must be greater than 0 days (got %d)", horizon)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.ForecastSummary{}, err
	}

	model, err := p.registry.New(p.modelName)
	if err != nil {
		return nil, domain.ForecastSummary{}, err
	}

	points, err := fitAndPredict(model, history, horizon)
	if err != nil {
		log.Warn().Err(err).Str("model", model.Name()).Int("history", len(history)).Msg("forecast model failed")
		return nil, domain.ForecastSummary{}, err
	}

	return points, Summarize(history, points), nil
}

// fitAndPredict runs the model and converts panics and plain errors into
// model failures. Typed errors from the model keep their kind.
func fitAndPredict(model Model, history []domain.SalesObservation, horizon int) (points []domain.ForecastPoint, err error) {
	defer func() {
		if r := recover(); r != nil {
			points = nil
			err = domain.NewError(domain.KindModelFailure, "forecast model %s failed: %v", model.Name(), r)
		}
	}()

	if err := model.Fit(history); err != nil {
		return nil, asModelFailure(model, "fit", err)
	}
	points, err = model.Predict(horizon)
	if err != nil {
		return nil, asModelFailure(model, "predict", err)
	}
	if len(points) != horizon {
		return nil, domain.NewError(domain.KindModelFailure,
			"forecast model %s returned %d points for a %d day horizon", model.Name(), len(points), horizon)
	}
	return points, nil
}

func asModelFailure(model Model, stage string, err error) error {
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	return domain.WrapError(domain.KindModelFailure, err, "forecast model %s failed to %s", model.Name(), stage)
}

// String is used in log lines and CLI output.
func (p *ModelProvider) String() string {
	return fmt.Sprintf("forecast.ModelProvider(%s)", p.modelName)
}
