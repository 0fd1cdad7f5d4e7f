package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newStubDaemon(t *testing.T, routes map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, ok := routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "no route " + key})
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected output: %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Fatal("sample config missing paths section")
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
}

func TestCatalogListRendersTable(t *testing.T) {
	url := "/audio/mix.wav"
	server := newStubDaemon(t, map[string]any{
		"GET /api/catalog": []map[string]any{
			{"id": "abc", "name": "Mix", "url": url, "config_url": nil, "volume": 1.0, "size": 2048, "date": "2026-08-27T00:00:00Z"},
		},
	})

	out, err := runCommand(t, "catalog", "list", "--server", server.URL)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	for _, want := range []string{"abc", "Mix", url, "2.0 KiB"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJobsCommandJSONOutput(t *testing.T) {
	server := newStubDaemon(t, map[string]any{
		"GET /api/jobs": []map[string]any{
			{"id": 1, "title": "Mix", "inputCount": 2, "status": "completed"},
		},
	})

	out, err := runCommand(t, "jobs", "--json", "--server", server.URL)
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	var rows []jobRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, out)
	}
	if len(rows) != 1 || rows[0].Status != "completed" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestStatusCommandRendersTools(t *testing.T) {
	server := newStubDaemon(t, map[string]any{
		"GET /api/status": map[string]any{
			"jobs": map[string]int{"total": 3, "completed": 2, "failed": 1},
			"tools": []map[string]any{
				{"name": "FFmpeg", "available": true, "path": "ffmpeg", "required": true},
			},
		},
	})

	out, err := runCommand(t, "status", "--server", server.URL)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"FFmpeg", "ffmpeg", "yes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTestNotifyCommandPrintsOutcome(t *testing.T) {
	server := newStubDaemon(t, map[string]any{
		"POST /api/test-notify": map[string]any{"sent": true},
	})

	out, err := runCommand(t, "test-notify", "--server", server.URL)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "Test notification sent") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestMergeCommandSubmitsSources(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/merge" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"uploadedAudioUrl": "/audio/mix.wav",
			"mergedAudioUrl":   "/audio/mix.wav",
			"audioId":          "11111111-2222-3333-4444-555555555555",
		})
	}))
	t.Cleanup(server.Close)

	source := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(source, []byte("RIFFxxxxWAVEdata"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	out, err := runCommand(t, "merge", source, "--title", "Mix", "--server", server.URL)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !strings.Contains(out, "/audio/mix.wav") {
		t.Fatalf("output missing artifact url:\n%s", out)
	}

	urls, _ := received["audioUrls"].([]any)
	if len(urls) != 1 {
		t.Fatalf("expected 1 audio url, got %+v", received)
	}
	if entry, _ := urls[0].(string); !strings.HasPrefix(entry, "data:audio/wav;base64,") {
		t.Fatalf("local file should be embedded as data uri, got %q", urls[0])
	}
}
