package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"mixdown/internal/config"
	"mixdown/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured = append(captured, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyMergeCompleted(context.Background(), "Example", "/audio/example.wav"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestMergeCompletedNotification(t *testing.T) {
	server, captured := newCaptureServer(t)

	cfg := config.Default()
	cfg.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyMergeCompleted(context.Background(), "Morning Mix", "/audio/morning-mix.wav"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(*captured) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*captured))
	}
	got := (*captured)[0]
	if got.title != "Mixdown - Merge Complete" {
		t.Fatalf("unexpected title %q", got.title)
	}
	if got.tags != "mixdown,merge,completed" {
		t.Fatalf("unexpected tags %q", got.tags)
	}
	if got.body != "Merge complete: Morning Mix\nURL: /audio/morning-mix.wav" {
		t.Fatalf("unexpected body %q", got.body)
	}
}

func TestMergeFailedNotificationCarriesError(t *testing.T) {
	server, captured := newCaptureServer(t)

	cfg := config.Default()
	cfg.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyMergeFailed(context.Background(), "Morning Mix", errors.New("normalization failed")); err != nil {
		t.Fatalf("notify: %v", err)
	}
	got := (*captured)[0]
	if got.title != "Mixdown - Merge Failed" || got.priority != "high" {
		t.Fatalf("unexpected headers: %+v", got)
	}
	if got.body != "Merge failed: Morning Mix\nnormalization failed" {
		t.Fatalf("unexpected body %q", got.body)
	}
}

func TestDisabledMergeNotificationsAreSkipped(t *testing.T) {
	server, captured := newCaptureServer(t)

	cfg := config.Default()
	cfg.NtfyTopic = server.URL
	cfg.Merges = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyMergeCompleted(context.Background(), "Mix", ""); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(*captured) != 0 {
		t.Fatalf("disabled notifications should not send, got %d requests", len(*captured))
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}
