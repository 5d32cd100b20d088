package am

import "github.com/teranos/cadence/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: negative or zero is invalid (omit for default)
	if c.Server.Port <= 0 {
		return errors.Newf("server.port must be positive, got %d", c.Server.Port)
	}

	// Gate check interval: must stay pollable
	if c.Gate.CheckIntervalSeconds <= 0 {
		return errors.Newf("gate.check_interval_seconds must be > 0, got %g", c.Gate.CheckIntervalSeconds)
	}
	if c.Gate.Enabled && len(c.Gate.Titles) == 0 {
		return errors.New("gate.titles cannot be empty when gate.enabled is true")
	}

	// Input driver: only the two known drivers
	switch c.Input.Driver {
	case "robotgo", "dryrun":
	default:
		return errors.Newf("input.driver must be \"robotgo\" or \"dryrun\", got %q", c.Input.Driver)
	}

	// Input rate cap: 0 = uncapped, negative = invalid
	if c.Input.MaxEventsPerSecond < 0 {
		return errors.Newf("input.max_events_per_second must be >= 0, got %g", c.Input.MaxEventsPerSecond)
	}

	return nil
}
