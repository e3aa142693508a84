// Package slack announces newly published alerts to Slack via incoming
// webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/stormwatch/internal/alert"
)

const (
	maxRecordsPerMessage = 20
	httpTimeout          = 10 * time.Second
)

// Notifier posts published-alert announcements to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a Slack notifier. If webhookURL is empty, NotifyPublished is a
// no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// NotifyPublished posts one message covering every record that entered the
// published workflow. If no webhook URL is configured, it returns nil
// immediately.
func (n *Notifier) NotifyPublished(ctx context.Context, records []*alert.Record) error {
	if n.webhookURL == "" || len(records) == 0 {
		return nil
	}

	msg := buildMessage(records)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info(ctx, "published alerts announced", "records", len(records))
	return nil
}

func buildMessage(records []*alert.Record) map[string]any {
	blocks := []map[string]any{
		headerBlock(records),
		{"type": "divider"},
	}

	shown := records
	if len(shown) > maxRecordsPerMessage {
		shown = shown[:maxRecordsPerMessage]
	}
	for _, r := range shown {
		blocks = append(blocks, recordBlock(r))
	}
	if len(records) > maxRecordsPerMessage {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("_…and %d more._", len(records)-maxRecordsPerMessage),
			},
		})
	}

	blocks = append(blocks, map[string]any{"type": "divider"}, contextBlock(records))

	return map[string]any{"blocks": blocks}
}

func headerBlock(records []*alert.Record) map[string]any {
	noun := "alert"
	if len(records) > 1 {
		noun = "alerts"
	}
	text := fmt.Sprintf("%s %d weather %s published", worstEmoji(records), len(records), noun)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func recordBlock(r *alert.Record) map[string]any {
	loc := r.Country
	if r.Region != "" {
		loc = r.Region + ", " + r.Country
	}
	text := fmt.Sprintf("%s *%s* — %s\nSeverity *%s* • Certainty *%d* • Trend %s",
		severityEmoji(r.Severity), strings.ToUpper(string(r.Type)), loc,
		r.Severity, r.Certainty, r.Trend)
	if r.Description != "" {
		text += "\n" + r.Description
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": text,
		},
	}
}

func contextBlock(records []*alert.Record) map[string]any {
	runID := ""
	if len(records) > 0 {
		runID = records[0].LastRunID
	}

	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("stormwatch • run %s • %s", runID,
					time.Now().UTC().Format("2006-01-02 15:04 UTC")),
			},
		},
	}
}

func severityEmoji(s alert.Severity) string {
	switch s {
	case alert.SeverityExtreme:
		return "\U0001f7e3" // purple circle
	case alert.SeverityHigh:
		return "\U0001f534" // red circle
	case alert.SeverityMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

// worstEmoji picks the header emoji from the most severe record in the batch.
func worstEmoji(records []*alert.Record) string {
	rank := map[alert.Severity]int{
		alert.SeverityLow:     0,
		alert.SeverityMedium:  1,
		alert.SeverityHigh:    2,
		alert.SeverityExtreme: 3,
	}
	worst := alert.SeverityLow
	for _, r := range records {
		if rank[r.Severity] > rank[worst] {
			worst = r.Severity
		}
	}
	return severityEmoji(worst)
}
