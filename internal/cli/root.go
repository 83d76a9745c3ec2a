package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rileyhilliard/dockstat/internal/config"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

var (
	cfgFile string

	// settings holds values bound from persistent flags. Only flags the user
	// actually passed count as set.
	settings = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "dockstat",
	Short: "Live container stats from a dockstat server",
	Long: `dockstat shows container CPU, memory, and I/O statistics collected by a
stats server, keeps them fresh, and lets you trigger a re-measure on demand.

Run 'dockstat init' to point it at your server, then 'dockstat watch'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.ConfigureColors(ui.ColorModeAuto, noColor())
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .dockstat.yaml, then ~/.config/dockstat/config.yaml)")
	pf.String("server", "", "stats server URL (overrides server.url)")
	pf.String("token", "", "bearer token for the stats server (overrides server.token)")
	pf.BoolVar(&machineMode, "json", false, "machine-readable JSON output")
	pf.Bool("no-color", false, "disable colored output")

	_ = settings.BindPFlag("server.url", pf.Lookup("server"))
	_ = settings.BindPFlag("server.token", pf.Lookup("token"))
	_ = settings.BindPFlag("output.no_color", pf.Lookup("no-color"))
}

// noColor reports whether colors are off for this invocation.
func noColor() bool {
	return machineMode || settings.GetBool("output.no_color")
}

// loadConfig finds and loads config, applies flag overrides, and validates
// the result. Returns the path the config came from, or "" for defaults.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, "", err
	}
	applyOverrides(cfg, settings)

	if err := config.Validate(cfg); err != nil {
		return nil, path, err
	}
	ui.ConfigureColors(cfg.Output.Color, noColor())
	return cfg, path, nil
}

// applyOverrides copies flag values the user set onto cfg.
func applyOverrides(cfg *config.Config, v *viper.Viper) {
	if v.IsSet("server.url") {
		cfg.Server.URL = strings.TrimRight(strings.TrimSpace(v.GetString("server.url")), "/")
	}
	if v.IsSet("server.token") {
		cfg.Server.Token = v.GetString("server.token")
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(handleError(os.Stdout, os.Stderr, err))
	}
}

// handleError reports err and returns the exit code.
func handleError(stdout, stderr io.Writer, err error) int {
	if machineMode {
		_ = WriteJSONFromError(stdout, err)
		return 1
	}

	if isUnknownCommandError(err) {
		fmt.Fprintln(stderr, ui.ErrorStyle().Render(ui.SymbolFail)+" "+err.Error())
		if name := extractUnknownCommand(err); name != "" {
			if suggestions := rootCmd.SuggestionsFor(name); len(suggestions) > 0 {
				fmt.Fprintf(stderr, "\n  Did you mean: %s?\n", strings.Join(suggestions, ", "))
			}
		}
		fmt.Fprintln(stderr, "\n  Run 'dockstat --help' for usage.")
		return 1
	}

	fmt.Fprintln(stderr, err.Error())
	return 1
}

func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

var unknownCommandRe = regexp.MustCompile(`unknown command "([^"]+)"`)

func extractUnknownCommand(err error) string {
	m := unknownCommandRe.FindStringSubmatch(err.Error())
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
