package mealplan

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chasemp/mealplanner/internal/service"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Meals with missing recipes: %d\n", report.UnresolvedRecipeRefs)
			fmt.Fprintf(out, "Items with missing ingredients: %d\n", report.UnresolvedIngredientRefs)
			fmt.Fprintf(out, "Bad combo components: %d\n", report.BadComboComponents)
			fmt.Fprintf(out, "Orphan pantry rows: %d\n", report.OrphanPantryRows)
			if len(report.EmptyRecipes) > 0 {
				fmt.Fprintf(out, "warning: recipes without items or components: %s\n", strings.Join(report.EmptyRecipes, ", "))
			}
			if len(report.MixedUnitIngredients) > 0 {
				fmt.Fprintf(out, "warning: ingredients used with incompatible units: %s\n", strings.Join(report.MixedUnitIngredients, ", "))
			}
			if doctorFix {
				fmt.Fprintf(out, "Fixed rows: %d\n", report.FixedRows)
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
			}
			if report.Issues() > 0 {
				return fmt.Errorf("doctor found %d integrity issue(s); rerun with --fix", report.Issues())
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Delete rows that reference missing data")
}
