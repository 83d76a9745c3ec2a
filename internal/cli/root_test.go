package cli

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/dockstat/internal/config"
	"github.com/rileyhilliard/dockstat/internal/errors"
)

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unknown command", stderrors.New(`unknown command "wacth" for "dockstat"`), true},
		{"unknown flag", stderrors.New(`unknown flag: --foo`), true},
		{"unknown shorthand", stderrors.New(`unknown shorthand flag: 'x' in -x`), true},
		{"other error", stderrors.New("connection failed"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnknownCommandError(tt.err))
		})
	}
}

func TestExtractUnknownCommand(t *testing.T) {
	assert.Equal(t, "wacth", extractUnknownCommand(stderrors.New(`unknown command "wacth" for "dockstat"`)))
	assert.Equal(t, "", extractUnknownCommand(stderrors.New("unknown flag: --foo")))
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"watch", "snapshot", "system", "refresh", "init", "doctor", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestApplyOverrides(t *testing.T) {
	t.Run("unset flags leave config alone", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Server.URL = "http://from-file:5001"
		applyOverrides(cfg, viper.New())
		assert.Equal(t, "http://from-file:5001", cfg.Server.URL)
		assert.Empty(t, cfg.Server.Token)
	})

	t.Run("set flags win", func(t *testing.T) {
		v := viper.New()
		v.Set("server.url", "  http://nas.local:5001/ ")
		v.Set("server.token", "secret")

		cfg := config.DefaultConfig()
		applyOverrides(cfg, v)
		assert.Equal(t, "http://nas.local:5001", cfg.Server.URL)
		assert.Equal(t, "secret", cfg.Server.Token)
	})
}

func TestHandleError_Human(t *testing.T) {
	withMachineMode(t, false)

	var stdout, stderr bytes.Buffer
	code := handleError(&stdout, &stderr, errors.New(errors.ErrNetwork, "Can't reach http://x", "Is the server running?"))
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Can't reach http://x")
	assert.Contains(t, stderr.String(), "Is the server running?")
}

func TestHandleError_UnknownCommandSuggests(t *testing.T) {
	withMachineMode(t, false)

	var stdout, stderr bytes.Buffer
	code := handleError(&stdout, &stderr, stderrors.New(`unknown command "wach" for "dockstat"`))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Did you mean: watch?")
	assert.Contains(t, stderr.String(), "dockstat --help")
}

func TestHandleError_MachineMode(t *testing.T) {
	withMachineMode(t, true)

	var stdout, stderr bytes.Buffer
	code := handleError(&stdout, &stderr, errors.New(errors.ErrServer, "Stats server error", ""))
	assert.Equal(t, 1, code)
	assert.Empty(t, stderr.String())

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "SERVER", env.Error.Code)
}
