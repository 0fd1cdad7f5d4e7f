package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mixdown/internal/config"
)

const userAgent = "Mixdown-Go/0.1.0"

// Service is the notification surface exposed to the merge pipeline.
type Service interface {
	NotifyMergeCompleted(ctx context.Context, title, artifactURL string) error
	NotifyMergeFailed(ctx context.Context, title string, err error) error
	TestNotification(ctx context.Context) error
	Enabled() bool
}

// NewService builds a notification service backed by ntfy when configured.
// Without an ntfy topic a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		notifyMerges: cfg.Merges,
		notifyErrors: cfg.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	notifyMerges bool
	notifyErrors bool
}

func (n *ntfyService) NotifyMergeCompleted(ctx context.Context, title, artifactURL string) error {
	if !n.notifyMerges {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Merge complete: %s", title)
	if artifactURL = strings.TrimSpace(artifactURL); artifactURL != "" {
		message = fmt.Sprintf("%s\nURL: %s", message, artifactURL)
	}
	return n.send(ctx, payload{
		title:   "Mixdown - Merge Complete",
		message: message,
		tags:    []string{"mixdown", "merge", "completed"},
	})
}

func (n *ntfyService) NotifyMergeFailed(ctx context.Context, title string, err error) error {
	if !n.notifyErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Merge failed")
	if title = strings.TrimSpace(title); title != "" {
		builder.WriteString(": ")
		builder.WriteString(title)
	}
	builder.WriteString("\n")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown error")
	}
	return n.send(ctx, payload{
		title:    "Mixdown - Merge Failed",
		message:  builder.String(),
		tags:     []string{"mixdown", "merge", "error"},
		priority: "high",
	})
}

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Mixdown - Test",
		message:  "Notification system test",
		tags:     []string{"mixdown", "test"},
		priority: "low",
	})
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

func (noopService) NotifyMergeCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyMergeFailed(context.Context, string, error) error     { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
func (noopService) Enabled() bool                                              { return false }
