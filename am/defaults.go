package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "cadence.db")
	v.SetDefault("database.enabled", true)

	// Document defaults
	v.SetDefault("document.path", "")
	v.SetDefault("document.watch", false)

	// Gate defaults
	v.SetDefault("gate.enabled", false)                    // focus gating off until titles are configured
	v.SetDefault("gate.titles", []string{"World of Warcraft"})
	v.SetDefault("gate.check_interval_seconds", 1.0)       // poll cadence while unfocused
	v.SetDefault("gate.process", "")

	// Input defaults
	v.SetDefault("input.driver", "robotgo")
	v.SetDefault("input.max_events_per_second", 0.0) // uncapped
	v.SetDefault("input.seed", 0)                    // time-seeded jitter

	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"http://127.0.0.1",
	})

	// Log defaults
	v.SetDefault("log.json", false)
}
