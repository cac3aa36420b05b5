package mealplan

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chasemp/mealplanner/internal/service"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Load sample ingredients, recipes and a combo meal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.SeedDemoData(sqldb); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Loaded demo recipes. Try: mealplan plan generate")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
