package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.StorageDir) == "" {
		return errors.New("paths.storage_dir must be set")
	}
	if c.StagingDir == c.StorageDir {
		return errors.New("paths.staging_dir and paths.storage_dir must differ")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.PublicBaseURL != "" {
		parsed, err := url.Parse(c.PublicBaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("storage.public_base_url must be an absolute URL, got %q", c.PublicBaseURL)
		}
	}
	if strings.ContainsAny(c.CatalogDocument, "/\\") {
		return fmt.Errorf("storage.catalog_document must be a bare document name, got %q", c.CatalogDocument)
	}
	return nil
}

func (c *Config) validateMerge() error {
	if c.FetchTimeoutSeconds < 0 {
		return errors.New("merge.fetch_timeout must not be negative")
	}
	if c.StagingMaxAgeHours < 0 {
		return errors.New("merge.staging_max_age_hours must not be negative")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.VerifyAttempts < 1 {
		return errors.New("sync.verify_attempts must be at least 1")
	}
	for _, ms := range c.VerifyBackoffMS {
		if ms < 0 {
			return errors.New("sync.verify_backoff_ms entries must not be negative")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	return nil
}
