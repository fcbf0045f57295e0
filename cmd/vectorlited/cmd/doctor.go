package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vectorlite/vectorlite/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
		offline    bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system requirements and diagnose issues",
		Long: `Run system diagnostics before serving the database.

Checks:
  - Disk space (100MB minimum)
  - Memory availability (1GB minimum)
  - Write permissions on the data directory
  - File descriptor limits (1024 minimum)
  - Embedder reachability (Ollama HTTP API)

Embedder checks are non-critical warnings: if Ollama is unreachable,
vectorlited still serves, and callers can supply embeddings computed
with the static embedder instead.`,
		Example: `  # Run diagnostics
  vectorlited doctor

  # Verbose output with details
  vectorlited doctor --verbose

  # JSON output for scripting
  vectorlited doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, verbose, jsonOutput, offline)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the Ollama reachability check")

	return cmd
}

func runDoctor(cmd *cobra.Command, verbose, jsonOutput, offline bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	checker := preflight.New(
		preflight.WithOffline(offline),
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)

	results := checker.RunAll(ctx, cfg.DataDir)

	if jsonOutput {
		return outputDoctorJSON(cmd, checker, results)
	}

	checker.PrintResults(results)

	if checker.HasCriticalFailures(results) {
		return &doctorError{message: "system check failed"}
	}

	return nil
}

// doctorError reports a failed diagnostic run.
type doctorError struct {
	message string
}

func (e *doctorError) Error() string {
	return e.message
}

// doctorJSONOutput is the structure for JSON output.
type doctorJSONOutput struct {
	Status   string                `json:"status"`
	Checks   []doctorJSONCheckItem `json:"checks"`
	Warnings []string              `json:"warnings,omitempty"`
	Errors   []string              `json:"errors,omitempty"`
}

// doctorJSONCheckItem is a single check result for JSON output.
type doctorJSONCheckItem struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Required bool   `json:"required"`
	Details  string `json:"details,omitempty"`
}

func outputDoctorJSON(cmd *cobra.Command, checker *preflight.Checker, results []preflight.CheckResult) error {
	output := doctorJSONOutput{
		Status: checker.SummaryStatus(results),
		Checks: make([]doctorJSONCheckItem, len(results)),
	}

	for i, r := range results {
		output.Checks[i] = doctorJSONCheckItem{
			Name:     r.Name,
			Status:   doctorStatusString(r.Status),
			Message:  r.Message,
			Required: r.Required,
			Details:  r.Details,
		}

		if r.IsCritical() {
			output.Errors = append(output.Errors, r.Name+": "+r.Message)
		} else if r.Status == preflight.StatusWarn {
			output.Warnings = append(output.Warnings, r.Name+": "+r.Message)
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func doctorStatusString(s preflight.CheckStatus) string {
	switch s {
	case preflight.StatusPass:
		return "pass"
	case preflight.StatusWarn:
		return "warn"
	case preflight.StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}
