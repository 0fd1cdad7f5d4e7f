package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	StorageDir string `toml:"storage_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Storage contains configuration for the artifact storage backend.
type Storage struct {
	// PublicBaseURL is the origin clients use to reach stored artifacts.
	// Absolute catalog URLs carrying this prefix are normalized to relative
	// form before persistence.
	PublicBaseURL string `toml:"public_base_url"`
	// CatalogDocument is the name of the shared catalog document under the
	// configs category.
	CatalogDocument string `toml:"catalog_document"`
}

// Tools contains the external transcoding tool binaries.
type Tools struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Merge contains merge pipeline tuning.
type Merge struct {
	// FetchTimeoutSeconds bounds each remote reference download.
	FetchTimeoutSeconds int `toml:"fetch_timeout"`
	// StagingMaxAgeHours is the age past which abandoned staging
	// namespaces are swept.
	StagingMaxAgeHours int `toml:"staging_max_age_hours"`
	// SweepIntervalMinutes is how often the daemon sweeps stale staging.
	SweepIntervalMinutes int `toml:"sweep_interval"`
}

// Sync contains catalog persistence verification tuning.
type Sync struct {
	VerifyAttempts  int   `toml:"verify_attempts"`
	VerifyBackoffMS []int `toml:"verify_backoff_ms"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Merges         bool   `toml:"merges"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	LogFormat string `toml:"format"`
	LogLevel  string `toml:"level"`
}

// Config encapsulates all configuration values for mixdown.
//
// Configuration sections by subsystem:
//   - Paths: directories, API bind address and token
//   - Storage: artifact storage backend and catalog document
//   - Tools: external transcoding binaries
//   - Merge: pipeline timeouts and staging sweep tuning
//   - Sync: catalog write verification retry schedule
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         `toml:"paths"`
	Storage       `toml:"storage"`
	Tools         `toml:"tools"`
	Merge         `toml:"merge"`
	Sync          `toml:"sync"`
	Notifications `toml:"notifications"`
	Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mixdown/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mixdown.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.StagingDir, c.StorageDir, c.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FetchTimeout returns the bounded timeout applied to remote reference fetches.
func (c *Config) FetchTimeout() time.Duration {
	if c.FetchTimeoutSeconds <= 0 {
		return time.Duration(defaultFetchTimeoutSeconds) * time.Second
	}
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// StagingMaxAge returns the age past which abandoned staging namespaces are swept.
func (c *Config) StagingMaxAge() time.Duration {
	hours := c.StagingMaxAgeHours
	if hours <= 0 {
		hours = defaultStagingMaxAgeHours
	}
	return time.Duration(hours) * time.Hour
}

// SweepInterval returns how often the daemon sweeps stale staging namespaces.
func (c *Config) SweepInterval() time.Duration {
	minutes := c.SweepIntervalMinutes
	if minutes <= 0 {
		minutes = defaultSweepIntervalMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// VerifyBackoff returns the catalog verification backoff schedule.
func (c *Config) VerifyBackoff() []time.Duration {
	if len(c.VerifyBackoffMS) == 0 {
		return defaultVerifyBackoff()
	}
	schedule := make([]time.Duration, 0, len(c.VerifyBackoffMS))
	for _, ms := range c.VerifyBackoffMS {
		if ms <= 0 {
			continue
		}
		schedule = append(schedule, time.Duration(ms)*time.Millisecond)
	}
	if len(schedule) == 0 {
		return defaultVerifyBackoff()
	}
	return schedule
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
