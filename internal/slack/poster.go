package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/vantage/internal/model"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostTrainingReport posts a training summary and returns the message ts.
func (p *Poster) PostTrainingReport(ctx context.Context, rep *model.Report, bundlePath string) (string, error) {
	text := formatTrainingMessage(rep, bundlePath)

	footer := ":white_check_mark: every target met the accuracy threshold"
	if len(rep.Flagged) > 0 {
		footer = fmt.Sprintf(":warning: %d target(s) below %.2f", len(rep.Flagged), rep.MinAccuracy)
	}

	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": footer,
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	p.logger.Info("posted training report to slack", "ts", ts, "version", rep.Version)
	return ts, nil
}

// PostThread posts a threaded reply to a message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	_, err := p.post(ctx, map[string]any{
		"channel":   p.channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

// PostClassReports replies in the report's thread with per-class precision
// and recall for each flagged target, or every target when none is flagged.
func (p *Poster) PostClassReports(ctx context.Context, threadTS string, rep *model.Report) error {
	text := formatClassReports(rep)
	if text == "" {
		return nil
	}
	return p.PostThread(ctx, threadTS, text)
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatTrainingMessage(rep *model.Report, bundlePath string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Model trained:* `%s`\n", rep.Version)
	fmt.Fprintf(&sb, "*Bundle:* %s\n", bundlePath)
	fmt.Fprintf(&sb, "*Rows:* %d (%d train / %d test)\n\n", rep.Rows, rep.TrainRows, rep.TestRows)

	sb.WriteString("*Held-out accuracy*\n")
	for _, t := range rep.Targets {
		marker := ""
		if t.Flagged {
			marker = " :warning:"
		}
		fmt.Fprintf(&sb, "• %s: %.3f (cv %.3f ± %.3f)%s\n", t.Target, t.TestAccuracy, t.CVMean, t.CVStd, marker)
	}
	fmt.Fprintf(&sb, "\nMean %.3f, min %.3f, max %.3f\n", rep.Summary.Mean, rep.Summary.Min, rep.Summary.Max)

	if len(rep.Flagged) > 0 {
		fmt.Fprintf(&sb, "*Below %.2f:* %s\n", rep.MinAccuracy, strings.Join(rep.Flagged, ", "))
	}
	if len(rep.Importances) > 0 {
		top := rep.Importances
		if len(top) > 3 {
			top = top[:3]
		}
		names := make([]string, len(top))
		for i, fi := range top {
			names[i] = fmt.Sprintf("%s (%.2f)", fi.Feature, fi.Importance)
		}
		fmt.Fprintf(&sb, "*Top features:* %s\n", strings.Join(names, ", "))
	}

	return sb.String()
}

func formatClassReports(rep *model.Report) string {
	flagged := len(rep.Flagged) > 0
	var sb strings.Builder
	for _, t := range rep.Targets {
		if (flagged && !t.Flagged) || len(t.Classes) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "*%s* (%s)\n```\n", t.Target, t.Kind)
		fmt.Fprintf(&sb, "%-12s %9s %6s %6s %7s\n", "class", "precision", "recall", "f1", "support")
		for _, c := range t.Classes {
			fmt.Fprintf(&sb, "%-12s %9.2f %6.2f %6.2f %7d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
		}
		sb.WriteString("```\n")
	}
	return sb.String()
}
