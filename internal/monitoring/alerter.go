package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mnp-lab/mnp-cli/internal/config"
	"github.com/mnp-lab/mnp-cli/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertSafeWindowNear AlertType = "safe_window_near"
	AlertPendingBacklog AlertType = "pending_backlog"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a Snapshot against configured thresholds and sends
// alerts via webhook when they are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	// Lines about to clear their retention window: the operator should
	// prepare the next move before the safe day arrives.
	if len(snap.NearSafeLines) > 0 {
		details := make(map[string]any, len(snap.NearSafeLines))
		for _, lr := range snap.NearSafeLines {
			details[lr.Line.ID] = fmt.Sprintf("%s %s: %d days remaining",
				lr.Line.Carrier, lr.Line.PhoneNumber, lr.Risk.DaysRemaining)
		}
		alerts = append(alerts, Alert{
			Type:     AlertSafeWindowNear,
			Severity: "info",
			Message: fmt.Sprintf("%d line(s) reach safe status within %d days",
				len(snap.NearSafeLines), a.cfg.WarningWindowDays),
			Details:   details,
			Timestamp: now,
		})
	}

	// Review backlog: stale proposals mean the stored plan data is
	// drifting from what the sources report.
	if a.cfg.PendingBacklogThreshold > 0 && snap.PendingProposals >= a.cfg.PendingBacklogThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertPendingBacklog,
			Severity: "high",
			Message: fmt.Sprintf("%d revision proposal(s) awaiting review (oldest %s)",
				snap.PendingProposals, snap.OldestPendingAge.Round(time.Hour)),
			Details: map[string]any{
				"pending":            snap.PendingProposals,
				"threshold":          a.cfg.PendingBacklogThreshold,
				"oldest_pending_age": snap.OldestPendingAge.String(),
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts posts alerts to the configured webhook and returns the
// number delivered. Delivery is retried; a webhook that still fails is
// logged and skipped rather than failing the check pass.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" {
		if len(alerts) > 0 {
			zap.L().Warn("monitoring: webhook url not set, dropping alerts",
				zap.Int("count", len(alerts)))
		}
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		err := resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
			return a.post(ctx, alert)
		})
		if err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	return sent
}

func (a *Alerter) post(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "monitoring: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: post webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return eris.Errorf("monitoring: webhook returned %d", resp.StatusCode)
	}
	return nil
}
