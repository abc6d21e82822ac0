package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
)

func alertBatch() pipeline.BatchResult {
	return pipeline.BatchResult{
		Total:      3,
		Successful: 2,
		Failed:     1,
		Results: []pipeline.Result{
			{
				Success: true, ItemID: "A", StoreID: "S1",
				Alerts: []domain.Alert{
					{Kind: domain.AlertStockoutRisk, Urgency: domain.UrgencyCritical, Message: "Inventory (2 units) is below reorder point (70 units)"},
					{Kind: domain.AlertDemandSurge, Urgency: domain.UrgencyMedium, Message: "surge"},
				},
				Recommendations: []domain.Recommendation{{Action: domain.ActionPlaceOrder, Message: "Place order for 427 units immediately"}},
			},
			{
				Success: true, ItemID: "B", StoreID: "S1",
				Alerts: []domain.Alert{{Kind: domain.AlertOverstock, Urgency: domain.UrgencyMedium, Message: "overstock"}},
			},
			{ItemID: "C", StoreID: "S1", Error: "not found"},
		},
	}
}

func TestBuildMessage_FiltersByUrgency(t *testing.T) {
	msg, count := BuildMessage(alertBatch(), domain.UrgencyHigh)
	require.NotNil(t, msg)
	assert.Equal(t, 1, count)
	assert.Contains(t, msg.Text, "1 inventory alert(s) across 1 item(s)")
	// header, context, one section
	require.Len(t, msg.Blocks.BlockSet, 3)

	section, ok := msg.Blocks.BlockSet[2].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, section.Text.Text, "A @ S1")
	assert.Contains(t, section.Text.Text, "STOCKOUT_RISK")
	assert.Contains(t, section.Text.Text, "Place order for 427 units immediately")
	assert.NotContains(t, section.Text.Text, "surge")

	msg, count = BuildMessage(alertBatch(), domain.UrgencyMedium)
	require.NotNil(t, msg)
	assert.Equal(t, 3, count)
	assert.Len(t, msg.Blocks.BlockSet, 4)
}

func TestBuildMessage_NothingToSend(t *testing.T) {
	batch := alertBatch()
	batch.Results = batch.Results[1:]
	msg, count := BuildMessage(batch, domain.UrgencyHigh)
	assert.Nil(t, msg)
	assert.Zero(t, count)
}

func TestNewSlackNotifier(t *testing.T) {
	n, err := NewSlackNotifier(config.NotifyConfig{})
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = NewSlackNotifier(config.NotifyConfig{SlackWebhookURL: "https://hooks.slack.test/x", MinUrgency: "urgent"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	n, err = NewSlackNotifier(config.NotifyConfig{SlackWebhookURL: "https://hooks.slack.test/x", MinUrgency: "critical"})
	require.NoError(t, err)
	assert.Equal(t, domain.UrgencyCritical, n.minUrgency)
}

func TestSlackNotifier_NotifyBatch(t *testing.T) {
	var posted []*slack.WebhookMessage
	n := &SlackNotifier{
		webhookURL: "https://hooks.slack.test/x",
		minUrgency: domain.UrgencyHigh,
		post: func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
			posted = append(posted, msg)
			return nil
		},
	}
	require.NoError(t, n.NotifyBatch(context.Background(), alertBatch()))
	assert.Len(t, posted, 1)

	n.post = func(context.Context, string, *slack.WebhookMessage) error { return errors.New("410 gone") }
	err := n.NotifyBatch(context.Background(), alertBatch())
	assert.ErrorContains(t, err, "410 gone")
}
