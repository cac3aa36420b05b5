package mealplan

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/service"
)

var recipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Manage recipes and combo meals",
}

var (
	recipeTitle    string
	recipeServings int
	recipeNotes    string
	recipeCombo    bool
	recipeJSON     bool
)

var recipeAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.RecipeInput{
			Title:    args[0],
			Servings: recipeServings,
			Notes:    recipeNotes,
			Combo:    recipeCombo,
		}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.CreateRecipe(sqldb, in)
			if err != nil {
				return err
			}
			kind := "recipe"
			if recipeCombo {
				kind = "combo"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %d\n", kind, id)
			return nil
		})
	},
}

var recipeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			recipes, err := service.ListRecipes(sqldb)
			if err != nil {
				return err
			}
			if recipeJSON {
				return printJSON(cmd, recipes)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tTITLE\tSERVINGS\tCOMBO")
			for _, r := range recipes {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\t%t\n", r.ID, r.Title, r.Servings, r.IsCombo)
			}
			return nil
		})
	},
}

var recipeShowCmd = &cobra.Command{
	Use:   "show <id|title>",
	Short: "Show recipe details with items or components",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			loaded, err := service.LoadRecipesByIdentifiers(sqldb, []string{args[0]})
			if err != nil {
				return err
			}
			r := loaded[0]
			if recipeJSON {
				return printJSON(cmd, r)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %d\nTitle: %s\nServings: %d\nCombo: %t\nNotes: %s\n", r.ID, r.Title, r.Servings, r.IsCombo, r.Notes)
			if r.IsCombo {
				titles, err := recipeTitles(sqldb)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "Components:")
				for _, c := range r.Components {
					fmt.Fprintf(out, "  %s x%s\n", titles[c.RecipeID], service.FormatQuantity(c.Multiplier))
				}
				return nil
			}
			lookup, err := service.IngredientLookup(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Items:")
			for _, it := range r.Items {
				name := fmt.Sprintf("ingredient %d", it.IngredientID)
				if ing, ok := lookup[it.IngredientID]; ok {
					name = ing.Name
				}
				fmt.Fprintf(out, "  %d\t%s\t%s %s\n", it.ID, name, service.FormatQuantity(it.Quantity), it.Unit)
			}
			return nil
		})
	},
}

var recipeUpdateCmd = &cobra.Command{
	Use:   "update <id|title>",
	Short: "Update a recipe; omitted flags keep their value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			current, err := service.ResolveRecipe(sqldb, args[0])
			if err != nil {
				return err
			}
			in := service.RecipeInput{Title: recipeTitle, Servings: recipeServings, Notes: current.Notes}
			if cmd.Flags().Changed("notes") {
				in.Notes = recipeNotes
			}
			if err := service.UpdateRecipe(sqldb, args[0], in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated recipe %q\n", args[0])
			return nil
		})
	},
}

var recipeDeleteCmd = &cobra.Command{
	Use:   "delete <id|title>",
	Short: "Delete a recipe that is not scheduled or part of a combo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteRecipe(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted recipe %q\n", args[0])
			return nil
		})
	},
}

var recipeItemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage recipe ingredient lines",
}

var (
	itemQuantity float64
	itemUnit     string
)

var recipeItemAddCmd = &cobra.Command{
	Use:   "add <recipe> <ingredient>",
	Short: "Add an ingredient line to a recipe",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.RecipeItemInput{Ingredient: args[1], Quantity: itemQuantity, Unit: itemUnit}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.AddRecipeItem(sqldb, args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added item %d to %q\n", id, args[0])
			return nil
		})
	},
}

var recipeItemListCmd = &cobra.Command{
	Use:   "list <recipe>",
	Short: "List a recipe's ingredient lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListRecipeItems(sqldb, args[0])
			if err != nil {
				return err
			}
			lookup, err := service.IngredientLookup(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tINGREDIENT\tQTY\tUNIT")
			for _, it := range items {
				name := ""
				if ing, ok := lookup[it.IngredientID]; ok {
					name = ing.Name
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", it.ID, name, service.FormatQuantity(it.Quantity), it.Unit)
			}
			return nil
		})
	},
}

var recipeItemUpdateCmd = &cobra.Command{
	Use:   "update <item-id>",
	Short: "Change an ingredient line's quantity or unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("item id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.UpdateRecipeItem(sqldb, id, itemQuantity, itemUnit); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated item %d\n", id)
			return nil
		})
	},
}

var recipeItemDeleteCmd = &cobra.Command{
	Use:   "delete <item-id>",
	Short: "Remove an ingredient line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("item id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteRecipeItem(sqldb, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted item %d\n", id)
			return nil
		})
	},
}

var recipeComboCmd = &cobra.Command{
	Use:   "combo",
	Short: "Manage combo meal components",
}

var comboMultiplier float64

var recipeComboAddCmd = &cobra.Command{
	Use:   "add <combo> <recipe>",
	Short: "Add a component recipe to a combo",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if _, err := service.AddComboComponent(sqldb, args[0], args[1], comboMultiplier); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q to combo %q\n", args[1], args[0])
			return nil
		})
	},
}

var recipeComboRemoveCmd = &cobra.Command{
	Use:   "remove <combo> <recipe>",
	Short: "Remove a component recipe from a combo",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteComboComponent(sqldb, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %q from combo %q\n", args[1], args[0])
			return nil
		})
	},
}

func recipeTitles(sqldb *sql.DB) (map[int64]string, error) {
	recipes, err := service.ListRecipes(sqldb)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(recipes))
	for _, r := range recipes {
		out[r.ID] = r.Title
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(recipeCmd)
	recipeCmd.AddCommand(recipeAddCmd, recipeListCmd, recipeShowCmd, recipeUpdateCmd, recipeDeleteCmd, recipeItemCmd, recipeComboCmd)
	recipeItemCmd.AddCommand(recipeItemAddCmd, recipeItemListCmd, recipeItemUpdateCmd, recipeItemDeleteCmd)
	recipeComboCmd.AddCommand(recipeComboAddCmd, recipeComboRemoveCmd)

	recipeAddCmd.Flags().IntVar(&recipeServings, "servings", model.DefaultServings, "Servings the recipe yields")
	recipeAddCmd.Flags().StringVar(&recipeNotes, "notes", "", "Recipe notes")
	recipeAddCmd.Flags().BoolVar(&recipeCombo, "combo", false, "Create a combo meal made of other recipes")
	recipeUpdateCmd.Flags().StringVar(&recipeTitle, "title", "", "New title")
	recipeUpdateCmd.Flags().IntVar(&recipeServings, "servings", 0, "Servings the recipe yields")
	recipeUpdateCmd.Flags().StringVar(&recipeNotes, "notes", "", "Recipe notes")
	recipeListCmd.Flags().BoolVar(&recipeJSON, "json", false, "Output as JSON")
	recipeShowCmd.Flags().BoolVar(&recipeJSON, "json", false, "Output as JSON")

	for _, c := range []*cobra.Command{recipeItemAddCmd, recipeItemUpdateCmd} {
		c.Flags().Float64Var(&itemQuantity, "qty", 0, "Quantity")
		c.Flags().StringVar(&itemUnit, "unit", "", "Unit (default: ingredient default unit)")
	}
	_ = recipeItemAddCmd.MarkFlagRequired("qty")
	_ = recipeItemUpdateCmd.MarkFlagRequired("qty")
	recipeComboAddCmd.Flags().Float64Var(&comboMultiplier, "multiplier", 1, "How many batches of the component the combo uses")
}
