package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/diceduel/internal/dependencies/clock"
)

// Alert describes a failure an operator should look at
type Alert struct {
	Time      time.Time `json:"time"`
	RequestID string    `json:"request_id,omitempty"`
	Method    string    `json:"method,omitempty"`
	Path      string    `json:"path,omitempty"`
	Status    int       `json:"status,omitempty"`
	Message   string    `json:"message"`
}

// Notifier forwards alerts to the operator channel
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the structured log
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, alert Alert) error {
	n.logger.ErrorContext(ctx, "admin alert",
		slog.String("request_id", alert.RequestID),
		slog.String("method", alert.Method),
		slog.String("path", alert.Path),
		slog.Int("status", alert.Status),
		slog.String("message", alert.Message),
	)
	return nil
}

// WebhookNotifier posts alerts as JSON to an operator webhook
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier
func NewWebhookNotifier(url string, httpClient *http.Client) *WebhookNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &WebhookNotifier{url: url, httpClient: httpClient}
}

func (n *WebhookNotifier) Notify(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// Dispatcher stamps alerts and fans them out to every notifier. Delivery
// failures are logged, never returned to the request that raised the alert.
type Dispatcher struct {
	notifiers []Notifier
	clock     clock.Clock
	logger    *slog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(clock clock.Clock, logger *slog.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		clock:     clock,
		logger:    logger,
	}
}

// Alert delivers an alert to all notifiers
func (d *Dispatcher) Alert(ctx context.Context, alert Alert) {
	if alert.Time.IsZero() {
		alert.Time = d.clock.Now()
	}
	// Delivery must outlive a cancelled request
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		d.logger.Warn("failed to deliver admin alert", slog.String("error", err.Error()))
	}
}
