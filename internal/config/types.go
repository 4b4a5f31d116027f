package config

// Config is the daemon configuration, loaded from a JSON or YAML file.
// Unknown keys are rejected so typos are caught at reload time.
type Config struct {
	Logging     LoggingConfig     `json:"logging"`
	Storage     StorageConfig     `json:"storage"`
	Scheduler   SchedulerConfig   `json:"scheduler"`
	Credentials CredentialsConfig `json:"credentials"`
	Platforms   PlatformsConfig   `json:"platforms"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig selects the post store backend.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./posts.json" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// SchedulerConfig controls the poll loop.
//
// All durations are Go duration strings (e.g. "30s", "1m").
type SchedulerConfig struct {
	Enabled    bool   `json:"enabled"`
	Interval   string `json:"interval,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

// CredentialsConfig points the env credentials provider at its sources.
type CredentialsConfig struct {
	// EnvFile is an optional dotenv file read on every resolve.
	EnvFile string `json:"env_file,omitempty"`
	// EnvPrefix defaults to CROSSPOSTER.
	EnvPrefix string `json:"env_prefix,omitempty"`
}

// PlatformsConfig toggles the dispatchers that ship in-process.
// Platforms without a built-in dispatcher are registered by embedding
// applications.
type PlatformsConfig struct {
	Telegram PlatformToggle `json:"telegram"`
}

type PlatformToggle struct {
	Enabled bool `json:"enabled"`
}
