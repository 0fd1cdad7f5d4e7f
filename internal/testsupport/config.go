package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"mixdown/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.StagingDir = filepath.Join(base, "staging")
	cfgVal.StorageDir = filepath.Join(base, "storage")
	cfgVal.LogDir = filepath.Join(base, "logs")
	cfgVal.APIBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPublicBaseURL sets the public base URL on the test config.
func WithPublicBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.PublicBaseURL = url
	}
}

// WithAPIToken sets the API bearer token on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.APIToken = token
	}
}

// WithNtfyTopic points notifications at the given endpoint, usually an
// httptest capture server.
func WithNtfyTopic(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.NtfyTopic = endpoint
	}
}

// ffmpegStub mimics an encoder invocation: it writes canned bytes to the
// final positional argument, which is the output path in every invocation
// the pipeline makes.
const ffmpegStub = `#!/bin/sh
for last; do :; done
printf 'stub-pcm-data-stub-pcm-data-stub-pcm-data-stub' > "$last"
exit 0
`

// ffprobeStub emits an empty probe result.
const ffprobeStub = `#!/bin/sh
printf '{"streams":[],"format":{}}'
exit 0
`

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		scripts := make(map[string]string, len(names))
		for _, name := range names {
			script := ffmpegStub
			if name == "ffprobe" {
				script = ffprobeStub
			}
			scripts[name] = script
		}
		b.installStubs(scripts)
	}
}

// WithProbedDuration stubs ffmpeg and an ffprobe that reports the given
// duration for every probed file, so duration diagnostics can be exercised.
func WithProbedDuration(seconds float64) ConfigOption {
	return func(b *configBuilder) {
		probe := fmt.Sprintf("#!/bin/sh\nprintf '{\"streams\":[],\"format\":{\"duration\":\"%f\"}}'\nexit 0\n", seconds)
		b.installStubs(map[string]string{
			"ffmpeg":  ffmpegStub,
			"ffprobe": probe,
		})
	}
}

func (b *configBuilder) installStubs(scripts map[string]string) {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	for name, script := range scripts {
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub %s: %v", name, err)
		}
	}

	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		b.t.Fatalf("set PATH: %v", err)
	}
	b.t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.StagingDir)
}
