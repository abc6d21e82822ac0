package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

// Source records which branch produced a summary.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceTemplate Source = "template"
)

const topRecommendations = 3

// Summary is the narrative for a run. FallbackReason is set when the
// generator was configured but the template had to be used.
type Summary struct {
	Text           string `json:"text"`
	Source         Source `json:"source"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// Summarizer writes narratives with an optional generator and a template
// fallback.
type Summarizer struct {
	gen Generator
}

// NewSummarizer accepts a nil generator, in which case only the template is used.
func NewSummarizer(gen Generator) *Summarizer {
	return &Summarizer{gen: gen}
}

// Summarize narrates a successful run.
func (s *Summarizer) Summarize(ctx context.Context, res pipeline.Result) (Summary, error) {
	if !res.Success || res.Metrics == nil {
		return Summary{}, domain.NewError(domain.KindInvalidParameter, "cannot summarize a failed forecast run")
	}

	if s.gen == nil {
		return Summary{Text: TemplateSummary(res), Source: SourceTemplate}, nil
	}

	text, err := s.gen.Generate(ctx, systemPrompt, BuildPrompt(res))
	if err == nil && strings.TrimSpace(text) != "" {
		return Summary{Text: strings.TrimSpace(text), Source: SourceLLM}, nil
	}

	reason := "empty response"
	if err != nil {
		reason = err.Error()
	}
	log.Warn().Str("run_id", res.RunID).Str("reason", reason).Msg("narrative generator failed, using template")

	return Summary{Text: TemplateSummary(res), Source: SourceTemplate, FallbackReason: reason}, nil
}

// TemplateSummary renders the deterministic narrative.
func TemplateSummary(res pipeline.Result) string {
	m := res.Metrics
	var b strings.Builder

	fmt.Fprintf(&b, "Forecast Summary for %s at %s\n\n", res.ItemID, res.StoreID)
	fmt.Fprintf(&b, "Expected to sell approximately %.0f units per day over the next %d days, totaling %.0f units.\n\n",
		m.AvgDailyDemand, res.Horizon, m.TotalForecast)

	b.WriteString("Key Recommendations:")
	recs := res.Recommendations
	if len(recs) > topRecommendations {
		recs = recs[:topRecommendations]
	}
	for _, rec := range recs {
		fmt.Fprintf(&b, "\n- %s", rec.Message)
	}

	fmt.Fprintf(&b, "\n\nReorder when inventory reaches %.0f units to maintain optimal stock levels.", m.ReorderPoint)
	return b.String()
}
