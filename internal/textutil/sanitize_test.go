package textutil_test

import (
	"strings"
	"testing"

	"mixdown/internal/textutil"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Morning Meditation", "morning-meditation"},
		{"  Hello,  World!  ", "hello-world"},
		{"already-a-slug", "already-a-slug"},
		{"???", ""},
		{"", ""},
		{"Track #3 (final mix)", "track-3-final-mix"},
	}
	for _, tc := range cases {
		if got := textutil.Slug(tc.in); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugTruncatesTo50(t *testing.T) {
	long := strings.Repeat("abcde ", 20)
	got := textutil.Slug(long)
	if len(got) > 50 {
		t.Fatalf("expected slug capped at 50 characters, got %d: %q", len(got), got)
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("expected no trailing hyphen after truncation, got %q", got)
	}
}

func TestTitleLabel(t *testing.T) {
	if got := textutil.TitleLabel("morning-meditation"); got != "Morning Meditation" {
		t.Fatalf("TitleLabel = %q", got)
	}
	if got := textutil.TitleLabel(""); got != "" {
		t.Fatalf("expected empty label for empty slug, got %q", got)
	}
}
