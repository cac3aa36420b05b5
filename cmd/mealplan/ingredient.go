package mealplan

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chasemp/mealplanner/internal/service"
)

var ingredientCmd = &cobra.Command{
	Use:   "ingredient",
	Short: "Manage ingredients",
}

var (
	ingredientCategory string
	ingredientUnit     string
	ingredientRename   string
	ingredientJSON     bool
)

var ingredientAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create an ingredient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.IngredientInput{Name: args[0], Category: ingredientCategory, DefaultUnit: ingredientUnit}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.CreateIngredient(sqldb, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created ingredient %d\n", id)
			return nil
		})
	},
}

var ingredientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingredients",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListIngredients(sqldb)
			if err != nil {
				return err
			}
			if ingredientJSON {
				return printJSON(cmd, items)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tCATEGORY\tUNIT")
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", it.ID, it.Name, it.Category, it.DefaultUnit)
			}
			return nil
		})
	},
}

var ingredientUpdateCmd = &cobra.Command{
	Use:   "update <id|name>",
	Short: "Update an ingredient; omitted flags keep their value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.IngredientInput{Name: ingredientRename, Category: ingredientCategory, DefaultUnit: ingredientUnit}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.UpdateIngredient(sqldb, args[0], in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated ingredient %q\n", args[0])
			return nil
		})
	},
}

var ingredientDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>",
	Short: "Delete an ingredient not used by recipes or the pantry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteIngredient(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted ingredient %q\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(ingredientCmd)
	ingredientCmd.AddCommand(ingredientAddCmd, ingredientListCmd, ingredientUpdateCmd, ingredientDeleteCmd)

	for _, c := range []*cobra.Command{ingredientAddCmd, ingredientUpdateCmd} {
		c.Flags().StringVar(&ingredientCategory, "category", "", "Category name (default: other)")
		c.Flags().StringVar(&ingredientUnit, "unit", "", "Default unit, e.g. g, cup, each")
	}
	ingredientUpdateCmd.Flags().StringVar(&ingredientRename, "name", "", "New name")
	ingredientListCmd.Flags().BoolVar(&ingredientJSON, "json", false, "Output as JSON")
}
