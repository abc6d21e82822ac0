package narrative

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

const systemPrompt = "You are an inventory management assistant. Write clear, concise summaries for business users."

// BuildPrompt renders the user prompt for a successful run.
func BuildPrompt(res pipeline.Result) string {
	m := res.Metrics
	var b strings.Builder

	fmt.Fprintf(&b, "Create a clear, concise summary for a business user.\n\n")
	fmt.Fprintf(&b, "Item: %s\nStore: %s\n\n", res.ItemID, res.StoreID)

	b.WriteString("FORECAST DATA:\n")
	fmt.Fprintf(&b, "- Forecast Horizon: %d days\n", res.Horizon)
	fmt.Fprintf(&b, "- Average Daily Demand: %.1f units\n", m.AvgDailyDemand)
	fmt.Fprintf(&b, "- Total Forecasted Demand: %.1f units\n", m.TotalForecast)
	if res.Summary != nil {
		fmt.Fprintf(&b, "- Historical Average: %.1f units/day\n", res.Summary.HistoricalMean)
	}

	b.WriteString("\nINVENTORY METRICS:\n")
	fmt.Fprintf(&b, "- Reorder Point: %.0f units\n", m.ReorderPoint)
	fmt.Fprintf(&b, "- Safety Stock: %.0f units\n", m.SafetyStock)
	fmt.Fprintf(&b, "- Economic Order Quantity: %.0f units\n", m.EconomicOrderQuantity)
	fmt.Fprintf(&b, "- Service Level: %.0f%%\n", m.ServiceLevel*100)

	b.WriteString("\nALERTS:\n")
	b.WriteString(formatAlerts(res.Alerts))

	b.WriteString("\n\nRECOMMENDATIONS:\n")
	b.WriteString(formatRecommendations(res.Recommendations))

	b.WriteString(`

Instructions:
1. Start with a brief overview of the forecast
2. Explain what the numbers mean in simple business terms
3. Highlight any important alerts or concerns
4. End with clear action items
5. Keep it under 200 words

Summary:`)

	return b.String()
}

func formatAlerts(alerts []domain.Alert) string {
	if len(alerts) == 0 {
		return "No alerts"
	}
	lines := make([]string, len(alerts))
	for i, a := range alerts {
		lines[i] = fmt.Sprintf("- [%s] %s", a.Urgency, a.Message)
	}
	return strings.Join(lines, "\n")
}

func formatRecommendations(recs []domain.Recommendation) string {
	if len(recs) == 0 {
		return "No specific recommendations"
	}
	lines := make([]string, len(recs))
	for i, r := range recs {
		lines[i] = fmt.Sprintf("- [%s] %s", r.Priority, r.Message)
	}
	return strings.Join(lines, "\n")
}
