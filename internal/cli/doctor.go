package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/dockstat/internal/api"
	"github.com/rileyhilliard/dockstat/internal/config"
	"github.com/rileyhilliard/dockstat/internal/doctor"
	"github.com/rileyhilliard/dockstat/internal/stats"
	"github.com/rileyhilliard/dockstat/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config and server issues",
	Long: `Run diagnostic checks to identify common issues.

Checks:
  - Config file location and validity
  - Stats server reachability, auth, and snapshot age
  - Host metrics endpoint

Examples:
  dockstat doctor
  dockstat doctor --server http://nas.local:5001
  dockstat doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		checks := doctor.NewConfigChecks(cfgFile)
		if cfg, err := serverCheckConfig(); err == nil {
			checks = append(checks, doctor.NewServerChecks(cfg.Server.URL, newClient(cfg), cfg.Stats.CountdownWindow)...)
		}
		return runDoctor(ctx, checks, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// serverCheckConfig returns the effective config when it is usable. Config
// problems are reported by the CONFIG checks, so the error is not shown.
func serverCheckConfig() (*config.Config, error) {
	cfg, _, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, settings)
	return cfg, config.Validate(cfg)
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

// doctorCategories is the display order.
var doctorCategories = []string{"CONFIG", "SERVER"}

// runDoctor runs config checks in order and the rest in parallel.
func runDoctor(ctx context.Context, checks []doctor.Check, w io.Writer) error {
	var local, remote []doctor.Check
	for _, c := range checks {
		if c.Category() == "CONFIG" {
			local = append(local, c)
		} else {
			remote = append(remote, c)
		}
	}
	ordered := append(local, remote...)
	results := append(doctor.RunAll(ctx, local), doctor.RunAllParallel(ctx, remote)...)

	if machineMode {
		return WriteJSONSuccess(w, doctorOutput(ordered, results))
	}
	renderDoctorText(w, ordered, results)
	return nil
}

func doctorOutput(checks []doctor.Check, results []doctor.CheckResult) DoctorOutput {
	grouped := make(map[string][]doctor.CheckResult)
	var order []string
	for i, check := range checks {
		cat := check.Category()
		if _, ok := grouped[cat]; !ok {
			order = append(order, cat)
		}
		grouped[cat] = append(grouped[cat], results[i])
	}

	out := DoctorOutput{Categories: make([]CategoryOutput, 0, len(order))}
	for _, cat := range order {
		out.Categories = append(out.Categories, CategoryOutput{Name: cat, Results: grouped[cat]})
	}
	counts := doctor.CountByStatus(results)
	out.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		AllClear: !doctor.HasIssues(results),
	}
	return out
}

func renderDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) {
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("dockstat Diagnostic Report"))
	fmt.Fprintln(w)

	grouped := make(map[string][]int)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], i)
	}

	for _, category := range doctorCategories {
		indices := grouped[category]
		if len(indices) == 0 {
			continue
		}
		fmt.Fprintln(w, headerStyle.Render(category))
		for _, idx := range indices {
			renderCheckResult(w, results[idx])
		}
		fmt.Fprintln(w)
	}
	if len(grouped["SERVER"]) == 0 {
		fmt.Fprintln(w, ui.MutedStyle().Render("Server checks skipped until the config is valid."))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintln(w)

	if !doctor.HasIssues(results) {
		ui.PrintSuccess(w, doctor.Summary(results))
	} else {
		ui.PrintError(w, doctor.Summary(results))
	}
	fmt.Fprintln(w)
}

// renderCheckResult renders a single check result.
func renderCheckResult(w io.Writer, result doctor.CheckResult) {
	var symbol string
	var style lipgloss.Style

	switch result.Status {
	case doctor.StatusPass:
		symbol, style = ui.SymbolSuccess, ui.SuccessStyle()
	case doctor.StatusWarn:
		symbol, style = ui.SymbolWarning, ui.WarningStyle()
	default:
		symbol, style = ui.SymbolFail, ui.ErrorStyle()
	}

	fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), result.Message)

	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(w, "    %s\n", ui.MutedStyle().Render(line))
		}
	}
}

var _ stats.Source = (*api.Client)(nil)
