package cli

import (
	"github.com/rileyhilliard/dockstat/internal/api"
	"github.com/rileyhilliard/dockstat/internal/config"
	"github.com/rileyhilliard/dockstat/internal/logger"
	"github.com/rileyhilliard/dockstat/internal/stats"
)

// statsConfig maps the config file's timing sections onto the engine.
func statsConfig(cfg *config.Config) stats.Config {
	return stats.Config{
		Tick:            cfg.Stats.Tick,
		CountdownWindow: cfg.Stats.CountdownWindow,
		PollInterval:    cfg.Stats.PollInterval,
		PollAttempts:    cfg.Stats.PollAttempts,
		Pulse: stats.PulseOptions{
			Interval:         cfg.Pulse.Interval,
			RequestTimeout:   cfg.Pulse.RequestTimeout,
			FallbackLimit:    cfg.Pulse.FallbackLimit,
			RestartThreshold: cfg.Pulse.RestartThreshold,
			RestartDelay:     cfg.Pulse.RestartDelay,
		},
	}
}

// newClient builds the stats server client described by cfg.
func newClient(cfg *config.Config) *api.Client {
	return api.New(api.Config{
		BaseURL: cfg.Server.URL,
		Token:   cfg.Server.Token,
		Timeout: cfg.Server.RequestTimeout,
		Logger:  logger.NewEnvLogger("[api]"),
	})
}
