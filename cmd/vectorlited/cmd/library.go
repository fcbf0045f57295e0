package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vectorlite/vectorlite/internal/embed"
	"github.com/vectorlite/vectorlite/internal/lifecycle"
	"github.com/vectorlite/vectorlite/internal/metric"
	"github.com/vectorlite/vectorlite/internal/store"
	"github.com/vectorlite/vectorlite/internal/ui"
)

func newLibraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect libraries in the vector database",
	}

	cmd.AddCommand(newLibraryLsCmd())
	cmd.AddCommand(newLibraryStatusCmd())
	cmd.AddCommand(newLibraryBuildCmd())
	return cmd
}

func newLibraryLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List libraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openVectorDB(cfg)
			if err != nil {
				return fmt.Errorf("failed to open vector database: %w", err)
			}
			defer db.Close()

			libraries := db.ListLibraries()
			if len(libraries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No libraries.")
				return nil
			}

			for _, lib := range libraries {
				cfg, built := db.IndexStatus(lib.ID)
				status := "no index"
				if built {
					status = fmt.Sprintf("%s/%s", cfg.Algorithm, cfg.Metric)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", lib.ID, lib.Name, status)
			}
			return nil
		},
	}
}

func newLibraryStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <library-id>",
		Short: "Show a library's index and embedder health",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openVectorDB(cfg)
			if err != nil {
				return fmt.Errorf("failed to open vector database: %w", err)
			}
			defer db.Close()

			lib, err := db.GetLibrary(args[0])
			if err != nil {
				return err
			}

			chunks, err := db.ListChunks(lib.ID)
			if err != nil {
				return err
			}

			info := ui.StatusInfo{
				LibraryName:    lib.Name,
				TotalChunks:    len(chunks),
				EmbedderType:   string(embed.ProviderOllama),
				EmbedderStatus: "offline",
			}

			if idxCfg, built := db.IndexStatus(lib.ID); built {
				info.LastIndexed = idxCfg.BuiltAt
				info.IndexAlgorithm = string(idxCfg.Algorithm)
				info.IndexMetric = idxCfg.Metric
			}

			if envProvider := os.Getenv("VECTORLITE_EMBEDDER"); envProvider != "" {
				info.EmbedderType = string(embed.ParseProvider(envProvider))
			}
			if info.EmbedderType == string(embed.ProviderOllama) {
				if running, _ := lifecycle.NewOllamaManager().IsRunning(); running {
					info.EmbedderStatus = "ready"
				}
			} else {
				info.EmbedderStatus = "ready"
			}

			if snapshotDir := filepath.Join(cfg.DataDir, "snapshots"); snapshotDir != "" {
				info.IndexSize = dirSize(snapshotDir)
				info.TotalSize = info.IndexSize
			}

			renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor())
			if jsonOutput {
				return renderer.RenderJSON(info)
			}
			return renderer.Render(info)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newLibraryBuildCmd() *cobra.Command {
	var (
		algorithm string
		metricStr string
		plain     bool
	)

	cmd := &cobra.Command{
		Use:   "build <library-id>",
		Short: "Build the search index for a library",
		Long: `build reads every chunk in a library and builds the index
structure used by search: linear, kdtree, or lsh, scored with the
cosine, euclidean, or dot metric.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := openVectorDB(cfg)
			if err != nil {
				return fmt.Errorf("failed to open vector database: %w", err)
			}
			defer db.Close()

			lib, err := db.GetLibrary(args[0])
			if err != nil {
				return err
			}

			renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
				ui.WithForcePlain(plain),
				ui.WithNoColor(ui.DetectNoColor()),
				ui.WithProjectDir(lib.Name),
			))
			if err := renderer.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start progress renderer: %w", err)
			}
			defer renderer.Stop()

			start := time.Now()

			renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageLoading, Message: "reading chunks"})
			loadStart := time.Now()
			chunks, err := db.ListChunks(lib.ID)
			if err != nil {
				renderer.AddError(ui.ErrorEvent{Ref: lib.ID, Err: err})
				return err
			}
			loadElapsed := time.Since(loadStart)

			renderer.UpdateProgress(ui.ProgressEvent{
				Stage:   ui.StageBuilding,
				Current: 0,
				Total:   len(chunks),
				Message: fmt.Sprintf("building %s index over %d chunks", algorithm, len(chunks)),
			})
			buildStart := time.Now()
			idxCfg, err := db.BuildIndex(lib.ID, store.Algorithm(algorithm), metric.Kind(metricStr))
			if err != nil {
				renderer.AddError(ui.ErrorEvent{Ref: lib.ID, Err: err})
				return fmt.Errorf("failed to build index: %w", err)
			}
			buildElapsed := time.Since(buildStart)

			renderer.UpdateProgress(ui.ProgressEvent{
				Stage:   ui.StageComplete,
				Current: len(chunks),
				Total:   len(chunks),
				Message: fmt.Sprintf("%s/%s index ready", idxCfg.Algorithm, idxCfg.Metric),
			})

			renderer.Complete(ui.CompletionStats{
				Chunks:   len(chunks),
				Duration: time.Since(start),
				Stages: ui.StageTimings{
					Load:     loadElapsed,
					Building: buildElapsed,
				},
			})

			return nil
		},
	}

	cmd.Flags().StringVar(&algorithm, "algorithm", string(store.AlgorithmLinear), "Index algorithm: linear, kdtree, or lsh")
	cmd.Flags().StringVar(&metricStr, "metric", string(metric.Cosine), "Distance metric: cosine, euclidean, or dot")
	cmd.Flags().BoolVar(&plain, "plain", false, "Force plain text progress output instead of the TUI")
	return cmd
}

// dirSize sums the size of regular files directly under dir, returning 0
// if dir cannot be read.
func dirSize(dir string) int64 {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, err := entry.Info(); err == nil {
			total += info.Size()
		}
	}
	return total
}
