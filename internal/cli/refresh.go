package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/dockstat/internal/config"
	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/sched"
	"github.com/rileyhilliard/dockstat/internal/stats"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

var refreshAttempts int

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask the server to re-measure and wait for the result",
	Long: `Trigger a server-side re-measure of every container, then poll the cached
snapshot until a newer one shows up.

Exits non-zero if the server errors or no new snapshot appears within the
poll budget (stats.poll_attempts x stats.poll_interval).

Examples:
  dockstat refresh
  dockstat refresh --attempts 10
  dockstat refresh --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if refreshAttempts > 0 {
			cfg.Stats.PollAttempts = refreshAttempts
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runRefresh(ctx, cfg, newClient(cfg), os.Stdout, os.Stderr)
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().IntVar(&refreshAttempts, "attempts", 0, "maximum polls before giving up (overrides stats.poll_attempts)")
}

// RefreshOutput is the data payload of 'dockstat refresh --json'.
type RefreshOutput struct {
	Result     string `json:"result"`
	Attempts   int    `json:"attempts"`
	Containers int    `json:"containers"`
}

func runRefresh(ctx context.Context, cfg *config.Config, source stats.Source, stdout, stderr io.Writer) error {
	loop := sched.NewLoop()
	defer loop.Close()

	ctrl := stats.NewController(stats.Options{
		Scheduler:    loop,
		Source:       source,
		Surface:      stats.NopSurface{},
		Config:       statsConfig(cfg),
		DisablePulse: true,
	})
	loop.Start()
	defer waitStopped(ctrl)

	var spin *ui.Spinner
	if !machineMode {
		spin = ui.NewSpinner(stderr, "Refreshing container stats")
		spin.Start()
	}

	ch, err := ctrl.Refresh()
	if err != nil {
		if spin != nil {
			spin.Fail("")
		}
		return err
	}

	var outcome stats.RefreshOutcome
	select {
	case outcome = <-ch:
	case <-ctx.Done():
		if spin != nil {
			spin.Fail("interrupted")
		}
		return errors.WrapWithCode(ctx.Err(), errors.ErrCancelled,
			"Refresh interrupted",
			"The server may still finish re-measuring; run 'dockstat snapshot' to check.")
	}

	count := entityCount(loop, ctrl)
	if outcome.Result != stats.RefreshSuccess {
		if spin != nil {
			spin.Fail(outcome.Result.String())
		}
		if outcome.Err != nil {
			return outcome.Err
		}
		return errors.New(errors.ErrRefresh, "Refresh "+outcome.Result.String(), "")
	}

	if machineMode {
		return WriteJSONSuccess(stdout, RefreshOutput{
			Result:     outcome.Result.String(),
			Attempts:   outcome.Attempts,
			Containers: count,
		})
	}
	spin.Success(fmt.Sprintf("%s containers after %d polls", ui.FormatCount(count), outcome.Attempts))
	return nil
}

// entityCount reads the number of tracked containers on the loop.
func entityCount(loop *sched.Loop, ctrl *stats.Controller) int {
	done := make(chan int, 1)
	loop.Post(func() { done <- ctrl.State().Entities.Len() })
	select {
	case n := <-done:
		return n
	case <-time.After(stopTimeout):
		return 0
	}
}
