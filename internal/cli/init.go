package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/dockstat/internal/config"
	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Server         string // Pre-specified server URL
	Token          string // Pre-specified bearer token
	Color          string // Color mode, defaults to auto
	Overwrite      bool   // Overwrite existing config without asking
	Global         bool   // Write ~/.config/dockstat/config.yaml instead of ./.dockstat.yaml
	NonInteractive bool   // Skip prompts
}

var (
	initForce          bool
	initGlobal         bool
	initNonInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a dockstat config file",
	Long: `Create .dockstat.yaml in the current directory (or the global config with
--global), prompting for the stats server address.

Examples:
  dockstat init
  dockstat init --server http://nas.local:5001 --non-interactive
  dockstat init --global`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(os.Stdout, InitOptions{
			Server:         settings.GetString("server.url"),
			Token:          settings.GetString("server.token"),
			Overwrite:      initForce,
			Global:         initGlobal,
			NonInteractive: initNonInteractive || machineMode,
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write the global config instead of ./"+config.ConfigFileName)
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "don't prompt; requires --server")
}

// initTarget returns the path init writes to.
func initTarget(global bool) (string, error) {
	if !global {
		return filepath.Join(".", config.ConfigFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Can't find your home directory",
			"Set $HOME or create the config without --global.")
	}
	return filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile), nil
}

// validateServerURL is shared by the prompt and the non-interactive path.
func validateServerURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("server URL is required")
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("use a full URL like http://localhost:5001")
	}
	return nil
}

// Init writes a new config file.
func Init(w io.Writer, opts InitOptions) error {
	path, err := initTarget(opts.Global)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("'%s' already exists. Overwrite?", path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	server, token, color := opts.Server, opts.Token, opts.Color
	if color == "" {
		color = ui.ColorModeAuto
	}

	if opts.NonInteractive {
		if err := validateServerURL(server); err != nil {
			return errors.New(errors.ErrConfig,
				"A valid --server is required in non-interactive mode ("+err.Error()+")",
				"Pass --server http://host:port or run interactively")
		}
	} else {
		if server == "" {
			server = config.DefaultServerURL
		}
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Stats server URL").
					Description("Where the dockstat server is listening").
					Placeholder(config.DefaultServerURL).
					Value(&server).
					Validate(validateServerURL),
				huh.NewInput().
					Title("Bearer token (optional)").
					Description("Leave empty if the server doesn't require auth").
					EchoMode(huh.EchoModePassword).
					Value(&token),
			),
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Color output").
					Options(
						huh.NewOption("Auto (when stdout is a terminal)", ui.ColorModeAuto),
						huh.NewOption("Always", ui.ColorModeAlways),
						huh.NewOption("Never", ui.ColorModeNever),
					).
					Value(&color),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Check terminal compatibility or use --non-interactive")
		}
	}

	cfg := config.DefaultConfig()
	cfg.Server.URL = strings.TrimRight(strings.TrimSpace(server), "/")
	cfg.Server.Token = token
	cfg.Output.Color = color
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Can't create "+dir,
				"Check directory permissions")
		}
	}
	if err := config.Write(path, cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", path),
			"Check directory permissions")
	}

	if machineMode {
		return WriteJSONSuccess(w, map[string]string{"path": path, "server": cfg.Server.URL})
	}
	ui.PrintSuccess(w, "Created "+path)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  dockstat snapshot  - Check the server answers")
	fmt.Fprintln(w, "  dockstat watch     - Open the live dashboard")
	return nil
}
