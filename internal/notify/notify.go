// Package notify publishes compile-run events to NATS JetStream so other
// systems (CI dashboards, chat bots) can react to builds without polling the
// history database.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/litbuilder/internal/config"
	"git.home.luguber.info/inful/litbuilder/internal/logfields"
	"git.home.luguber.info/inful/litbuilder/internal/retry"
)

const publishTimeout = 5 * time.Second

// RunEvent is the JSON payload published after each compile run.
type RunEvent struct {
	RunID       string    `json:"run_id"`
	Document    string    `json:"document"`
	Output      string    `json:"output,omitempty"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Commit      string    `json:"commit,omitempty"`
	BrokenLinks int       `json:"broken_links,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Notifier publishes run events.
type Notifier interface {
	PublishRun(event *RunEvent) error
	Close() error
}

// NopNotifier drops all events (default when notifications are disabled).
type NopNotifier struct{}

func (NopNotifier) PublishRun(*RunEvent) error { return nil }
func (NopNotifier) Close() error               { return nil }

// FromConfig returns the configured Notifier: a NATS publisher when enabled,
// otherwise the nop implementation.
func FromConfig(cfg *config.NotifyConfig) (Notifier, error) {
	if cfg == nil || !cfg.Enabled {
		return NopNotifier{}, nil
	}
	return NewNATSNotifier(cfg)
}

// NATSNotifier publishes run events to a JetStream subject. Publish failures
// are retried per the configured backoff policy before giving up.
type NATSNotifier struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	policy  retry.Policy
}

// NewNATSNotifier connects to NATS and prepares the JetStream publisher.
func NewNATSNotifier(cfg *config.NotifyConfig) (*NATSNotifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notify config is required")
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("notifications are disabled")
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	slog.Info("NATS notifier initialized",
		logfields.URL(cfg.URL),
		logfields.Subject(cfg.Subject))

	return &NATSNotifier{
		conn:    conn,
		js:      js,
		subject: cfg.Subject,
		policy:  retry.NewPolicy(retry.BackoffMode(cfg.RetryBackoff), 0, 0, cfg.Retries),
	}, nil
}

// PublishRun publishes one run event, retrying transient failures per the
// backoff policy.
func (n *NATSNotifier) PublishRun(event *RunEvent) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := n.policy.Delay(attempt)
			slog.Warn("Retrying run event publish",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("run_id", event.RunID))
			time.Sleep(delay)
		}
		if lastErr = n.publish(data); lastErr == nil {
			slog.Debug("Published run event",
				slog.String("run_id", event.RunID),
				slog.String("document", event.Document),
				slog.String("status", event.Status))
			return nil
		}
	}
	return fmt.Errorf("failed to publish event: %w", lastErr)
}

func (n *NATSNotifier) publish(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_, err := n.js.Publish(ctx, n.subject, data)
	return err
}

// Close closes the NATS connection.
func (n *NATSNotifier) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
