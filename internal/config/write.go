package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileHeader is prepended to generated config files.
const fileHeader = `# dockstat configuration
# Run 'dockstat watch' to open the live dashboard.
# Any key can be overridden with an environment variable, e.g. DOCKSTAT_SERVER_URL.

`

// fileLayout mirrors Config with durations as strings so the written YAML
// reads "5m" instead of nanosecond integers.
type fileLayout struct {
	Version int `yaml:"version"`
	Server  struct {
		URL            string `yaml:"url"`
		Token          string `yaml:"token,omitempty"`
		RequestTimeout string `yaml:"request_timeout"`
	} `yaml:"server"`
	Stats struct {
		Tick            string `yaml:"tick"`
		CountdownWindow string `yaml:"countdown_window"`
		PollInterval    string `yaml:"poll_interval"`
		PollAttempts    int    `yaml:"poll_attempts"`
	} `yaml:"stats"`
	Pulse struct {
		Interval         string `yaml:"interval"`
		RequestTimeout   string `yaml:"request_timeout"`
		FallbackLimit    int    `yaml:"fallback_limit"`
		RestartThreshold int    `yaml:"restart_threshold"`
		RestartDelay     string `yaml:"restart_delay"`
	} `yaml:"pulse"`
	Output struct {
		Color string `yaml:"color"`
	} `yaml:"output"`
}

// Marshal renders cfg as YAML with the standard header.
func Marshal(cfg *Config) ([]byte, error) {
	var f fileLayout
	f.Version = cfg.Version
	f.Server.URL = cfg.Server.URL
	f.Server.Token = cfg.Server.Token
	f.Server.RequestTimeout = formatDuration(cfg.Server.RequestTimeout)
	f.Stats.Tick = formatDuration(cfg.Stats.Tick)
	f.Stats.CountdownWindow = formatDuration(cfg.Stats.CountdownWindow)
	f.Stats.PollInterval = formatDuration(cfg.Stats.PollInterval)
	f.Stats.PollAttempts = cfg.Stats.PollAttempts
	f.Pulse.Interval = formatDuration(cfg.Pulse.Interval)
	f.Pulse.RequestTimeout = formatDuration(cfg.Pulse.RequestTimeout)
	f.Pulse.FallbackLimit = cfg.Pulse.FallbackLimit
	f.Pulse.RestartThreshold = cfg.Pulse.RestartThreshold
	f.Pulse.RestartDelay = formatDuration(cfg.Pulse.RestartDelay)
	f.Output.Color = cfg.Output.Color

	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return append([]byte(fileHeader), data...), nil
}

// Write saves cfg to path.
func Write(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// formatDuration drops the trailing zero units time.Duration.String adds ("5m0s" -> "5m").
func formatDuration(d time.Duration) string {
	s := d.String()
	for _, suffix := range []string{"m0s", "h0m"} {
		if len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix {
			s = s[:len(s)-len(suffix)+1]
		}
	}
	return s
}
