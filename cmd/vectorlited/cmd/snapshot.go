package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Create and restore database snapshots",
	}

	cmd.AddCommand(newSnapshotCreateCmd())
	cmd.AddCommand(newSnapshotRestoreCmd())
	return cmd
}

func newSnapshotCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a snapshot of the entire database",
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

			info, err := db.CreateSnapshot(args[0])
			if err != nil {
				return fmt.Errorf("failed to create snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created snapshot %q at %s\n", info.Name, info.Path)
			return nil
		},
	}
}

func newSnapshotRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>",
		Short: "Restore the database from a named snapshot",
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

			infos, err := db.ListSnapshots()
			if err != nil {
				return fmt.Errorf("failed to list snapshots: %w", err)
			}

			var path string
			for _, info := range infos {
				if info.Name == args[0] {
					path = info.Path
					break
				}
			}
			if path == "" {
				return fmt.Errorf("no snapshot named %q", args[0])
			}

			if err := db.RestoreSnapshot(path); err != nil {
				return fmt.Errorf("failed to restore snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot %q\n", args[0])
			return nil
		},
	}
}
