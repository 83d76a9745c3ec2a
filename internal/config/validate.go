package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rileyhilliard/dockstat/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but dockstat only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest dockstat release.")
	}

	if err := validateServer(cfg.Server); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'server' section in your .dockstat.yaml.")
	}

	if err := validateStats(cfg.Stats); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'stats' section in your .dockstat.yaml.")
	}

	if err := validatePulse(cfg.Pulse); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'pulse' section in your .dockstat.yaml.")
	}

	switch cfg.Output.Color {
	case "auto", "always", "never":
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("output.color must be auto, always, or never (got '%s')", cfg.Output.Color),
			"Check the 'output' section in your .dockstat.yaml.")
	}

	return nil
}

func validateServer(s ServerConfig) error {
	if s.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server.url '%s' must be an http(s) URL like http://localhost:5001", s.URL)
	}
	return requirePositive("server.request_timeout", s.RequestTimeout)
}

func validateStats(s StatsConfig) error {
	if err := requirePositive("stats.tick", s.Tick); err != nil {
		return err
	}
	if err := requirePositive("stats.countdown_window", s.CountdownWindow); err != nil {
		return err
	}
	if s.CountdownWindow < s.Tick {
		return fmt.Errorf("stats.countdown_window (%s) is shorter than stats.tick (%s)", s.CountdownWindow, s.Tick)
	}
	if err := requirePositive("stats.poll_interval", s.PollInterval); err != nil {
		return err
	}
	if s.PollAttempts < 1 {
		return fmt.Errorf("stats.poll_attempts must be at least 1 (got %d)", s.PollAttempts)
	}
	return nil
}

func validatePulse(p PulseConfig) error {
	if err := requirePositive("pulse.interval", p.Interval); err != nil {
		return err
	}
	if err := requirePositive("pulse.request_timeout", p.RequestTimeout); err != nil {
		return err
	}
	if err := requirePositive("pulse.restart_delay", p.RestartDelay); err != nil {
		return err
	}
	if p.RestartThreshold < 1 {
		return fmt.Errorf("pulse.restart_threshold must be at least 1 (got %d)", p.RestartThreshold)
	}
	if p.FallbackLimit < 0 || p.FallbackLimit > p.RestartThreshold {
		return fmt.Errorf("pulse.fallback_limit must be between 0 and restart_threshold (%d), got %d", p.RestartThreshold, p.FallbackLimit)
	}
	return nil
}

func requirePositive(name string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive (got %s)", name, d)
	}
	return nil
}
