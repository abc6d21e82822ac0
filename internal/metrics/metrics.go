package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

const (
	namespace         = "demandcast"
	pipelineSubsystem = "pipeline"
	cacheSubsystem    = "cache"
)

var (
	pipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: pipelineSubsystem,
			Name:      "runs_total",
			Help:      "Forecast pipeline runs by outcome and error kind",
		},
		[]string{"outcome", "error_kind"},
	)

	pipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: pipelineSubsystem,
			Name:      "duration_seconds",
			Help:      "Wall time of a single forecast pipeline run",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"outcome"},
	)

	alertsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: pipelineSubsystem,
			Name:      "alerts_total",
			Help:      "Inventory alerts raised by kind and urgency",
		},
		[]string{"kind", "urgency"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: cacheSubsystem,
			Name:      "lookups_total",
			Help:      "Forecast cache lookups by result",
		},
		[]string{"result"},
	)

	narrativeSource = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narratives_total",
			Help:      "Narrative summaries by producing branch",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(pipelineRuns)
	prometheus.MustRegister(pipelineDuration)
	prometheus.MustRegister(alertsRaised)
	prometheus.MustRegister(cacheLookups)
	prometheus.MustRegister(narrativeSource)
}

// Recorder is a pipeline.Observer backed by the package collectors.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (Recorder) ObserveRun(res pipeline.Result) {
	outcome := "success"
	kind := ""
	if !res.Success {
		outcome = "failure"
		kind = string(res.ErrorKind)
	}

	pipelineRuns.WithLabelValues(outcome, kind).Inc()
	pipelineDuration.WithLabelValues(outcome).Observe(res.Duration.Seconds())

	for _, a := range res.Alerts {
		alertsRaised.WithLabelValues(string(a.Kind), string(a.Urgency)).Inc()
	}
}

// CacheLookup counts a hit or a miss.
func CacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// NarrativeProduced counts the branch that produced a summary.
func NarrativeProduced(source string) {
	narrativeSource.WithLabelValues(source).Inc()
}

var _ pipeline.Observer = Recorder{}
