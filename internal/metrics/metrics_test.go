package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

func TestRecorder_ObserveRun(t *testing.T) {
	success := testutil.ToFloat64(pipelineRuns.WithLabelValues("success", ""))
	insufficient := testutil.ToFloat64(pipelineRuns.WithLabelValues("failure", string(domain.KindInsufficientData)))
	critical := testutil.ToFloat64(alertsRaised.WithLabelValues(string(domain.AlertStockoutRisk), string(domain.UrgencyCritical)))

	r := NewRecorder()
	r.ObserveRun(pipeline.Result{
		Success:  true,
		Duration: 20 * time.Millisecond,
		Alerts: []domain.Alert{
			{Kind: domain.AlertStockoutRisk, Urgency: domain.UrgencyCritical},
		},
	})
	r.ObserveRun(pipeline.Result{Success: false, ErrorKind: domain.KindInsufficientData})

	assert.Equal(t, success+1, testutil.ToFloat64(pipelineRuns.WithLabelValues("success", "")))
	assert.Equal(t, insufficient+1, testutil.ToFloat64(pipelineRuns.WithLabelValues("failure", string(domain.KindInsufficientData))))
	assert.Equal(t, critical+1, testutil.ToFloat64(alertsRaised.WithLabelValues(string(domain.AlertStockoutRisk), string(domain.UrgencyCritical))))
}

func TestCacheLookupAndNarrative(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues("miss"))
	templates := testutil.ToFloat64(narrativeSource.WithLabelValues("template"))

	CacheLookup(true)
	CacheLookup(false)
	CacheLookup(false)
	NarrativeProduced("template")

	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, templates+1, testutil.ToFloat64(narrativeSource.WithLabelValues("template")))
}
