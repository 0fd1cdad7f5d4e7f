package config

import "time"

const (
	defaultStagingDir           = "~/.local/share/mixdown/staging"
	defaultStorageDir           = "~/.local/share/mixdown/storage"
	defaultLogDir               = "~/.local/share/mixdown/logs"
	defaultAPIBind              = "127.0.0.1:7519"
	defaultCatalogDocument      = "audio-list.json"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultFetchTimeoutSeconds  = 10
	defaultStagingMaxAgeHours   = 24
	defaultSweepIntervalMinutes = 60
	defaultVerifyAttempts       = 3
	defaultNotifyTimeout        = 10
)

func defaultVerifyBackoff() []time.Duration {
	return []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, time.Second}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			StorageDir: defaultStorageDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Storage: Storage{
			CatalogDocument: defaultCatalogDocument,
		},
		Tools: Tools{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Merge: Merge{
			FetchTimeoutSeconds:  defaultFetchTimeoutSeconds,
			StagingMaxAgeHours:   defaultStagingMaxAgeHours,
			SweepIntervalMinutes: defaultSweepIntervalMinutes,
		},
		Sync: Sync{
			VerifyAttempts:  defaultVerifyAttempts,
			VerifyBackoffMS: []int{200, 500, 1000},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Merges:         true,
			Errors:         true,
		},
		Logging: Logging{
			LogFormat: defaultLogFormat,
			LogLevel:  defaultLogLevel,
		},
	}
}
