// Package notify delivers run completion notifications.
//
// Delivery is best-effort: a notification failure is logged and never
// affects the run outcome.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autodoc/internal/config"
	"github.com/fyrsmithlabs/autodoc/internal/logging"
	"github.com/fyrsmithlabs/autodoc/internal/pipeline"
)

const defaultTimeout = 15 * time.Second

// Mailer posts a JSON summary of a finished run to a webhook endpoint
// (a SendGrid-compatible mail relay in the original deployment).
type Mailer struct {
	cfg    config.NotifyConfig
	client *http.Client
	log    *logging.Logger
}

// NewMailer creates a Mailer. The returned Mailer implements
// pipeline.Notifier.
func NewMailer(cfg config.NotifyConfig, log *logging.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		client: &http.Client{Timeout: defaultTimeout},
		log:    log.Named("notify"),
	}
}

// payload is the wire format of a completion notification.
type payload struct {
	RunID     string    `json:"run_id"`
	Repo      string    `json:"repo"`
	Status    string    `json:"status"`
	BuildPath string    `json:"build_path,omitempty"`
	Elapsed   string    `json:"elapsed"`
	Errors    []string  `json:"errors,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

// Notify implements pipeline.Notifier. Failures are logged, never returned.
func (m *Mailer) Notify(ctx context.Context, summary pipeline.Summary) {
	if !m.cfg.Enabled {
		return
	}

	p := payload{
		RunID:     summary.RunID,
		Repo:      summary.RepoURL,
		Status:    string(summary.Status),
		BuildPath: summary.BuildPath,
		Elapsed:   summary.Elapsed.Round(time.Millisecond).String(),
		From:      m.cfg.From,
		To:        m.cfg.To,
		SentAt:    time.Now().UTC(),
	}
	for _, stageErr := range summary.Errors {
		p.Errors = append(p.Errors, stageErr.Error())
	}

	body, err := json.Marshal(p)
	if err != nil {
		m.log.Error(ctx, "failed to encode notification", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		m.log.Error(ctx, "failed to build notification request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if m.cfg.APIKey.IsSet() {
		req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey.Value())
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.log.Warn(ctx, "notification delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		m.log.Warn(ctx, "notification rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", m.cfg.Endpoint),
		)
		return
	}

	m.log.Info(ctx, "notification delivered",
		zap.String("run_id", summary.RunID),
		zap.String("status", fmt.Sprint(summary.Status)),
	)
}
