package mealplan

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chasemp/mealplanner/internal/app"
	"github.com/chasemp/mealplanner/internal/service"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot and restore the meal plan database",
	Long: "Snapshots are plain copies of the sqlite file with a .sha256 sidecar. " +
		"They live in backups/ next to the database unless --dir is given.",
}

var (
	snapshotPath  string
	snapshotDir   string
	snapshotJSON  bool
	snapshotForce bool
	snapshotKeep  int
)

// snapshotLocation resolves the database path and the directory its
// snapshots are kept in.
func snapshotLocation() (string, string, error) {
	db, err := resolveDBPath()
	if err != nil {
		return "", "", err
	}
	if snapshotDir != "" {
		return db, snapshotDir, nil
	}
	return db, app.BackupDir(db), nil
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot recipes, plans and pantry into a checksummed file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, dir, err := snapshotLocation()
		if err != nil {
			return err
		}
		target := snapshotPath
		if target == "" {
			target = filepath.Join(dir, service.BackupFileName(time.Now()))
		}
		info, err := service.CreateBackup(db, target)
		if err != nil {
			return err
		}
		logger.Info("snapshot written", zap.String("path", info.Path), zap.Int64("bytes", info.SizeBytes))
		if snapshotJSON {
			return printJSON(cmd, info)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Snapshot: %s (%d bytes)\n", info.Path, info.SizeBytes)
		fmt.Fprintf(out, "Checksum: %s\n", info.Checksum)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dir, err := snapshotLocation()
		if err != nil {
			return err
		}
		snapshots, err := service.ListBackups(dir)
		if err != nil {
			return err
		}
		if snapshotJSON {
			return printJSON(cmd, snapshots)
		}
		if len(snapshots) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No snapshots in %s\n", dir)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "TAKEN\tBYTES\tFILE\tCHECKSUM")
		for _, s := range snapshots {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\t%s\n", s.CreatedAt.Format(time.RFC3339), s.SizeBytes, s.Path, s.Checksum)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <snapshot>",
	Short: "Replace the database with a snapshot after checking its checksum",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := resolveDBPath()
		if err != nil {
			return err
		}
		if err := service.RestoreBackup(args[0], db, snapshotForce); err != nil {
			return err
		}
		logger.Info("snapshot restored", zap.String("from", args[0]), zap.String("db", db))
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %s\n", db, args[0])
		return nil
	},
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Keep only the newest snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dir, err := snapshotLocation()
		if err != nil {
			return err
		}
		removed, err := service.PruneBackups(dir, snapshotKeep)
		for _, p := range removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", p)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d snapshot(s), kept up to %d\n", len(removed), snapshotKeep)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupPruneCmd)

	for _, c := range []*cobra.Command{backupCreateCmd, backupListCmd, backupPruneCmd} {
		c.Flags().StringVar(&snapshotDir, "dir", "", "Snapshot directory (default: backups/ next to the database)")
	}
	for _, c := range []*cobra.Command{backupCreateCmd, backupListCmd} {
		c.Flags().BoolVar(&snapshotJSON, "json", false, "Output as JSON")
	}
	backupCreateCmd.Flags().StringVar(&snapshotPath, "out", "", "Snapshot file path (overrides --dir)")
	backupRestoreCmd.Flags().BoolVar(&snapshotForce, "force", false, "Overwrite the current database")
	backupPruneCmd.Flags().IntVar(&snapshotKeep, "keep", 5, "Number of newest snapshots to keep")
}
