package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// DefaultServerURL is where a locally run stats server listens.
const DefaultServerURL = "http://localhost:5001"

// Config represents the complete .dockstat.yaml configuration file.
type Config struct {
	Version int          `yaml:"version" mapstructure:"version"`
	Server  ServerConfig `yaml:"server" mapstructure:"server"`
	Stats   StatsConfig  `yaml:"stats" mapstructure:"stats"`
	Pulse   PulseConfig  `yaml:"pulse" mapstructure:"pulse"`
	Output  OutputConfig `yaml:"output" mapstructure:"output"`
}

// ServerConfig points at the stats backend.
type ServerConfig struct {
	// URL is the base URL of the stats API, e.g. http://localhost:5001.
	URL string `yaml:"url" mapstructure:"url"`

	// Token is sent as a bearer token when set.
	Token string `yaml:"token" mapstructure:"token"`

	// RequestTimeout bounds snapshot and refresh requests.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

// StatsConfig controls the container snapshot engine.
type StatsConfig struct {
	// Tick is how often countdowns are recomputed.
	Tick time.Duration `yaml:"tick" mapstructure:"tick"`

	// CountdownWindow is how long a container's stats are considered fresh.
	CountdownWindow time.Duration `yaml:"countdown_window" mapstructure:"countdown_window"`

	// PollInterval is the delay between polls after a refresh is triggered.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// PollAttempts bounds the polls made for one refresh.
	PollAttempts int `yaml:"poll_attempts" mapstructure:"poll_attempts"`
}

// PulseConfig controls the system metrics poller.
type PulseConfig struct {
	Interval       time.Duration `yaml:"interval" mapstructure:"interval"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`

	// FallbackLimit is how many consecutive failures still show the cached metric.
	FallbackLimit int `yaml:"fallback_limit" mapstructure:"fallback_limit"`

	// RestartThreshold is the consecutive failure count that restarts the poller.
	RestartThreshold int `yaml:"restart_threshold" mapstructure:"restart_threshold"`

	RestartDelay time.Duration `yaml:"restart_delay" mapstructure:"restart_delay"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Server: ServerConfig{
			URL:            DefaultServerURL,
			RequestTimeout: 30 * time.Second,
		},
		Stats: StatsConfig{
			Tick:            time.Second,
			CountdownWindow: 5 * time.Minute,
			PollInterval:    2 * time.Second,
			PollAttempts:    60,
		},
		Pulse: PulseConfig{
			Interval:         5 * time.Second,
			RequestTimeout:   10 * time.Second,
			FallbackLimit:    5,
			RestartThreshold: 10,
			RestartDelay:     5 * time.Second,
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}
