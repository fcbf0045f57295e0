// Package cmd provides the CLI commands for vectorlited.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vectorlite/vectorlite/internal/config"
	"github.com/vectorlite/vectorlite/internal/logging"
	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/profiling"
	"github.com/vectorlite/vectorlite/internal/store"
	"github.com/vectorlite/vectorlite/internal/vstore"
	"github.com/vectorlite/vectorlite/pkg/version"
)

// Profiling flags, mirroring the teacher's performance-optimization flags.
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
)

// Debug logging flag.
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the vectorlited CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vectorlited",
		Short: "Embeddable in-memory vector database with an HTTP shell",
		Long: `vectorlited stores libraries of documents and chunks, builds one of
three interchangeable indexes per library (linear, kd-tree, LSH), and
serves metadata-filtered k-NN search over HTTP.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("vectorlited version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.vectorlite/logs/")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newLibraryCmd())
	cmd.AddCommand(newSnapshotCmd())
	cmd.AddCommand(newBrowseCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts CPU/trace profiling and debug logging if flags are set.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error

	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	}

	if profileCPU != "" {
		cpuCleanup, err = profiler.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
	}

	if profileTrace != "" {
		traceCleanup, err = profiler.StartTrace(profileTrace)
		if err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
			}
			return fmt.Errorf("failed to start trace: %w", err)
		}
	}

	return nil
}

// stopProfilingAndLogging stops profiling and logging, writing the memory profile if requested.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}

	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}

	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}

	if loggingCleanup != nil {
		slog.Info("debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig loads the working-directory configuration in order of
// increasing precedence (defaults, user config, .vectorlite.yaml, env
// overrides), validating the result.
func loadConfig() (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openVectorDB constructs a VectorDB from a loaded Config, translating its
// string-typed metric/algorithm fields into the typed values vstore.Options
// expects.
func openVectorDB(cfg *config.Config) (*vstore.VectorDB, error) {
	opts := vstore.Options{
		DataDir:       cfg.DataDir,
		DefaultMetric: metric.Kind(cfg.DefaultMetric),
		DefaultIndex:  store.Algorithm(cfg.DefaultIndex),
		LSHNumPlanes:  cfg.LSHNumPlanes,
		LSHNumTables:  cfg.LSHNumTables,
		LSHSeed:       cfg.LSHSeed,
	}
	return vstore.Open(opts)
}
