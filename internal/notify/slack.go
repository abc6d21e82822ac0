// Package notify posts inventory alerts to chat channels.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

// maxItems caps the sections of one message; Slack rejects more than 50 blocks.
const maxItems = 20

// Notifier delivers the alerts of a batch run.
type Notifier interface {
	NotifyBatch(ctx context.Context, batch pipeline.BatchResult) error
}

type postFunc func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// SlackNotifier posts alerts at or above a minimum urgency to an incoming webhook.
type SlackNotifier struct {
	webhookURL string
	minUrgency domain.Urgency
	post       postFunc
}

// NewSlackNotifier returns nil when no webhook is configured.
func NewSlackNotifier(cfg config.NotifyConfig) (*SlackNotifier, error) {
	if strings.TrimSpace(cfg.SlackWebhookURL) == "" {
		return nil, nil
	}
	threshold := domain.UrgencyHigh
	if cfg.MinUrgency != "" {
		u, ok := domain.ParseUrgency(cfg.MinUrgency)
		if !ok {
			return nil, domain.NewError(domain.KindConfiguration, "unknown notify urgency %q", cfg.MinUrgency)
		}
		threshold = u
	}
	return &SlackNotifier{
		webhookURL: cfg.SlackWebhookURL,
		minUrgency: threshold,
		post:       slack.PostWebhookContext,
	}, nil
}

// NotifyBatch posts one message for the batch, or nothing when no alert qualifies.
func (n *SlackNotifier) NotifyBatch(ctx context.Context, batch pipeline.BatchResult) error {
	msg, count := BuildMessage(batch, n.minUrgency)
	if msg == nil {
		log.Debug().Str("min_urgency", string(n.minUrgency)).Msg("no alerts to notify")
		return nil
	}
	if err := n.post(ctx, n.webhookURL, msg); err != nil {
		return fmt.Errorf("slack webhook failed: %w", err)
	}
	log.Info().Int("alerts", count).Msg("posted inventory alerts to slack")
	return nil
}

// BuildMessage groups qualifying alerts per item/store. It returns nil when
// nothing reaches threshold.
func BuildMessage(batch pipeline.BatchResult, threshold domain.Urgency) (*slack.WebhookMessage, int) {
	var sections []slack.Block
	count, items := 0, 0

	for _, res := range batch.Results {
		if !res.Success {
			continue
		}
		var lines []string
		for _, a := range res.Alerts {
			if !a.Urgency.AtLeast(threshold) {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s *%s* %s", urgencyEmoji(a.Urgency), a.Kind, a.Message))
			count++
		}
		if len(lines) == 0 {
			continue
		}
		items++
		if items > maxItems {
			continue
		}
		if len(res.Recommendations) > 0 {
			lines = append(lines, "> "+res.Recommendations[0].Message)
		}
		text := fmt.Sprintf("*%s @ %s*\n%s", res.ItemID, res.StoreID, strings.Join(lines, "\n"))
		sections = append(sections, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil))
	}

	if count == 0 {
		return nil, 0
	}

	summary := fmt.Sprintf("%d inventory alert(s) across %d item(s); %d of %d forecasts succeeded",
		count, items, batch.Successful, batch.Total)
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "Inventory alerts", false, false)),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, summary, false, false)),
	}
	blocks = append(blocks, sections...)
	if items > maxItems {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("_%d more item(s) not shown_", items-maxItems), false, false)))
	}

	return &slack.WebhookMessage{
		Text:   summary,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}, count
}

func urgencyEmoji(u domain.Urgency) string {
	switch u {
	case domain.UrgencyCritical:
		return ":rotating_light:"
	case domain.UrgencyHigh:
		return ":warning:"
	default:
		return ":information_source:"
	}
}
