package services_test

import (
	"errors"
	"strings"
	"testing"

	"mixdown/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "normalizing", "transcode", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"normalizing", "transcode", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "publishing", "upload", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker for nil marker, got %v", err)
	}
}

func TestIsClientError(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "resolving", "decode", "invalid", nil)
	if !services.IsClientError(validationErr) {
		t.Fatalf("expected validation error to classify as client error: %v", validationErr)
	}
	toolErr := services.Wrap(services.ErrExternalTool, "concatenating", "join", "exit 1", nil)
	if services.IsClientError(toolErr) {
		t.Fatalf("expected tool error to classify as server error: %v", toolErr)
	}
}
