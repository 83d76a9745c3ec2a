package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/dockstat/internal/config"
	"github.com/rileyhilliard/dockstat/internal/errors"
)

func TestParseDurationFlag(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"millis", "500ms", 500 * time.Millisecond, false},
		{"garbage", "soon", 0, true},
		{"zero", "0s", 0, true},
		{"negative", "-5s", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDurationFlag("window", tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				assert.Contains(t, err.Error(), "--window")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatsConfig_MapsEverySetting(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Stats.Tick = 2 * time.Second
	cfg.Stats.CountdownWindow = 3 * time.Minute
	cfg.Stats.PollInterval = 4 * time.Second
	cfg.Stats.PollAttempts = 7
	cfg.Pulse.Interval = 6 * time.Second
	cfg.Pulse.RequestTimeout = 9 * time.Second
	cfg.Pulse.FallbackLimit = 3
	cfg.Pulse.RestartThreshold = 8
	cfg.Pulse.RestartDelay = 11 * time.Second

	sc := statsConfig(cfg)
	assert.Equal(t, 2*time.Second, sc.Tick)
	assert.Equal(t, 3*time.Minute, sc.CountdownWindow)
	assert.Equal(t, 4*time.Second, sc.PollInterval)
	assert.Equal(t, 7, sc.PollAttempts)
	assert.Equal(t, 6*time.Second, sc.Pulse.Interval)
	assert.Equal(t, 9*time.Second, sc.Pulse.RequestTimeout)
	assert.Equal(t, 3, sc.Pulse.FallbackLimit)
	assert.Equal(t, 8, sc.Pulse.RestartThreshold)
	assert.Equal(t, 11*time.Second, sc.Pulse.RestartDelay)
}

func TestNewClient_UsesServerURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.URL = "http://nas.local:5001"
	assert.Equal(t, "http://nas.local:5001", newClient(cfg).BaseURL())
}
