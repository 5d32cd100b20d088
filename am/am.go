// Package am owns configuration for cadence: the engine's own settings
// (loaded through viper from TOML files and CADENCE_* environment variables)
// and the host-side user settings that survive between runs.
package am

// Config represents the core cadence configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Document DocumentConfig `mapstructure:"document"`
	Gate     GateConfig     `mapstructure:"gate"`
	Input    InputConfig    `mapstructure:"input"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig configures the SQLite run-history database
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`    // history database path (default: cadence.db)
	Enabled bool   `mapstructure:"enabled"` // record sequence runs (default: true)
}

// DocumentConfig configures the sequence document source
type DocumentConfig struct {
	Path  string `mapstructure:"path"`  // sequence document path or URL
	Watch bool   `mapstructure:"watch"` // reload the document on change (default: false)
}

// GateConfig configures focus-window gating
type GateConfig struct {
	Enabled              bool     `mapstructure:"enabled"`                // false = gate always reports active
	Titles               []string `mapstructure:"titles"`                 // case-insensitive substring matches against the focused window title
	CheckIntervalSeconds float64  `mapstructure:"check_interval_seconds"` // poll interval while unfocused (default: 1.0)
	Process              string   `mapstructure:"process"`                // fallback process-presence gate when X11 is unavailable
}

// InputConfig configures the input event driver
type InputConfig struct {
	Driver             string  `mapstructure:"driver"`                // "robotgo" emits real events, "dryrun" only records them
	MaxEventsPerSecond float64 `mapstructure:"max_events_per_second"` // 0 = uncapped
	Seed               int64   `mapstructure:"seed"`                  // jitter RNG seed, 0 = time-seeded
}

// ServerConfig configures the cadence control server
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig configures log output
type LogConfig struct {
	JSON bool `mapstructure:"json"` // structured JSON instead of console output
}

// Server port constants
const (
	DefaultServerPort = 8484 // above the privileged range, easy to remember
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
