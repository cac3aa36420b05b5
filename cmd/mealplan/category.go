package mealplan

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/service"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"aisle"},
	Short:   "Manage the grocery aisles ingredients are grouped by",
}

var (
	categoryReassign string
	categoryJSON     bool
)

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an aisle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.AddCategory(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added aisle %q\n", args[0])
			return nil
		})
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List aisles with their ingredient counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			categories, err := service.ListCategories(sqldb)
			if err != nil {
				return err
			}
			if categoryJSON {
				return printJSON(cmd, categories)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "NAME\tINGREDIENTS\tBUILTIN")
			for _, c := range categories {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%t\n", c.Name, c.Ingredients, c.IsDefault)
			}
			return nil
		})
	},
}

var categoryShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "List the ingredients shelved in an aisle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			ingredients, err := service.CategoryIngredients(sqldb, args[0])
			if err != nil {
				return err
			}
			if categoryJSON {
				return printJSON(cmd, ingredients)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tINGREDIENT\tUNIT")
			for _, ing := range ingredients {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", ing.ID, ing.Name, ing.DefaultUnit)
			}
			return nil
		})
	},
}

var categoryRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename an aisle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.RenameCategory(sqldb, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed aisle %q to %q\n", args[0], args[1])
			return nil
		})
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an aisle, moving its ingredients with --reassign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteCategory(sqldb, args[0], categoryReassign); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted aisle %q\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(categoryCmd)
	categoryCmd.AddCommand(categoryAddCmd, categoryListCmd, categoryShowCmd, categoryRenameCmd, categoryDeleteCmd)
	categoryListCmd.Flags().BoolVar(&categoryJSON, "json", false, "Output as JSON")
	categoryShowCmd.Flags().BoolVar(&categoryJSON, "json", false, "Output as JSON")
	categoryDeleteCmd.Flags().StringVar(&categoryReassign, "reassign", "", "Aisle to move its ingredients into (e.g. "+model.OtherCategory+")")
}
