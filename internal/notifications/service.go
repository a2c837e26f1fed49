package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"liner/internal/config"
	"liner/internal/ledger"
)

const userAgent = "Liner/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyRunStarted(ctx context.Context, count int, dryRun bool) error
	NotifyRunCompleted(ctx context.Context, stats ledger.Stats, duration time.Duration) error
	NotifyQuarantine(ctx context.Context, artist, reason string) error
	NotifyRecovered(ctx context.Context, artist string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
		events:   cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	events   config.Notifications
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, count int, dryRun bool) error {
	if !n.events.RunLifecycle {
		return nil
	}
	message := fmt.Sprintf("Started enhancement run over %d cards", count)
	if dryRun {
		message += " (dry run)"
	}
	data := payload{
		title:   "Liner - Run Started",
		message: message,
		tags:    []string{"liner", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, stats ledger.Stats, duration time.Duration) error {
	if !n.events.RunLifecycle {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title string
	var message string
	if stats.Failed == 0 {
		title = "Liner - Run Complete"
		message = fmt.Sprintf("Processed %d cards in %s: %d enhanced, %d recovered, %d quarantined",
			stats.Processed, duration, stats.Enhanced, stats.Recovered, stats.Quarantined)
	} else {
		title = "Liner - Run Complete (with errors)"
		message = fmt.Sprintf("Processed %d cards in %s: %d enhanced, %d recovered, %d quarantined, %d failed",
			stats.Processed, duration, stats.Enhanced, stats.Recovered, stats.Quarantined, stats.Failed)
	}
	if stats.ConnectionsFound > 0 {
		message = fmt.Sprintf("%s\nConnections mapped: %d", message, stats.ConnectionsFound)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"liner", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQuarantine(ctx context.Context, artist, reason string) error {
	if !n.events.Quarantine {
		return nil
	}
	artist = strings.TrimSpace(artist)
	reason = strings.TrimSpace(reason)
	message := fmt.Sprintf("Quarantined: %s", artist)
	if reason != "" {
		message = fmt.Sprintf("%s\nReason: %s", message, reason)
	}
	data := payload{
		title:    "Liner - Card Quarantined",
		message:  message,
		tags:     []string{"liner", "quarantine", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRecovered(ctx context.Context, artist string) error {
	if !n.events.Quarantine {
		return nil
	}
	data := payload{
		title:   "Liner - Card Recovered",
		message: fmt.Sprintf("Rebuilt biography for: %s", strings.TrimSpace(artist)),
		tags:    []string{"liner", "recovery", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.events.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Liner - Error",
		message:  builder.String(),
		tags:     []string{"liner", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Liner - Test",
		message:  "Notification system test",
		tags:     []string{"liner", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, int, bool) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, ledger.Stats, time.Duration) error {
	return nil
}
func (noopService) NotifyQuarantine(context.Context, string, string) error { return nil }
func (noopService) NotifyRecovered(context.Context, string) error          { return nil }
func (noopService) NotifyError(context.Context, error, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
