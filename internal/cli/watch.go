package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/dockstat/internal/api"
	"github.com/rileyhilliard/dockstat/internal/config"
	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/logger"
	"github.com/rileyhilliard/dockstat/internal/monitor"
	"github.com/rileyhilliard/dockstat/internal/sched"
	"github.com/rileyhilliard/dockstat/internal/stats"
)

var (
	watchNoPulse    bool
	watchWindowFlag string
	watchPlain      bool
)

// stopTimeout bounds how long shutdown waits for the engine to tear down.
const stopTimeout = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live container stats dashboard",
	Long: `Show container stats from the server and keep them current.

Each container counts down to its next scheduled re-measure; when one is due
the cached snapshot is re-fetched. Press r to ask the server to re-measure
everything now, R to reload the cache, and q to quit.

When stdout is not a terminal (or with --plain / --json) dockstat prints one
line per change instead of drawing the dashboard.

Examples:
  dockstat watch
  dockstat watch --server http://nas.local:5001
  dockstat watch --window 2m --no-pulse
  dockstat watch --plain | tee stats.log`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchNoPulse, "no-pulse", false, "don't poll host metrics")
	watchCmd.Flags().StringVar(&watchWindowFlag, "window", "", "countdown window per container, e.g. 5m (overrides stats.countdown_window)")
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "print one line per change instead of the dashboard")
}

func watchCommand(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	window, err := ParseDurationFlag("window", watchWindowFlag)
	if err != nil {
		return err
	}
	if window > 0 {
		cfg.Stats.CountdownWindow = window
	}

	client := newClient(cfg)
	if watchPlain || machineMode || !term.IsTerminal(int(os.Stdout.Fd())) {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchLines(ctx, cfg, client, os.Stdout)
	}
	return watchDashboard(cfg, client)
}

// watchLines drives a LineSurface until ctx is done.
func watchLines(ctx context.Context, cfg *config.Config, source stats.Source, w io.Writer) error {
	loop := sched.NewLoop()
	defer loop.Close()

	surface := monitor.NewLineSurface(w)
	ctrl := stats.NewController(stats.Options{
		Scheduler:    loop,
		Source:       source,
		Surface:      surface,
		Notifier:     surface,
		Config:       statsConfig(cfg),
		DisablePulse: watchNoPulse,
	})

	loop.Start()
	ctrl.Start()
	<-ctx.Done()

	waitStopped(ctrl)
	return nil
}

// watchDashboard runs the Bubble Tea dashboard. Log output would corrupt the
// alt screen, so it goes to DOCKSTAT_DEBUG_LOG when set and is dropped otherwise.
func watchDashboard(cfg *config.Config, client *api.Client) error {
	var logSink io.Writer = io.Discard
	if path := os.Getenv("DOCKSTAT_DEBUG_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Can't open debug log "+path,
				"Check DOCKSTAT_DEBUG_LOG points somewhere writable.")
		}
		defer f.Close()
		logSink = f
	}
	restore := logger.RedirectTo(logSink)
	defer restore()

	loop := sched.NewLoop()
	defer loop.Close()

	bridge := monitor.NewBridge()
	ctrl := stats.NewController(stats.Options{
		Scheduler:    loop,
		Source:       client,
		Surface:      bridge,
		Notifier:     bridge,
		Config:       statsConfig(cfg),
		DisablePulse: watchNoPulse,
	})

	model := monitor.NewModel(monitor.Options{
		Controller: ctrl,
		Server:     client.BaseURL(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	bridge.Attach(p)

	loop.Start()
	_, err := p.Run()

	waitStopped(ctrl)
	return err
}

// waitStopped stops ctrl and waits for its teardown, up to stopTimeout.
func waitStopped(ctrl *stats.Controller) {
	select {
	case <-ctrl.Stop():
	case <-time.After(stopTimeout):
	}
}
