package mealplan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chasemp/mealplanner/internal/app"
	"github.com/chasemp/mealplanner/internal/db"
)

var initWriteConfig bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize local mealplan database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		if err := app.EnsureDBDir(path); err != nil {
			return err
		}

		sqldb, err := db.OpenMigrated(path)
		if err != nil {
			return err
		}
		defer sqldb.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized mealplan database at %s\n", path)

		if initWriteConfig {
			cfgPath := configPath
			if cfgPath == "" {
				if cfgPath, err = app.DefaultConfigPath(); err != nil {
					return err
				}
			}
			if err := cfg.Save(cfgPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote config to %s\n", cfgPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initWriteConfig, "write-config", false, "Also write the effective config file")
}
