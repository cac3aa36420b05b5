package mealplan

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chasemp/mealplanner/internal/service"
)

var groceryCmd = &cobra.Command{
	Use:   "grocery",
	Short: "Build grocery lists from scheduled meals",
}

var (
	groceryFrom   string
	groceryTo     string
	groceryWeek   string
	groceryScale  bool
	groceryJSON   bool
	groceryFormat string
	groceryOut    string
)

func buildGroceryList(sqldb *sql.DB) (service.GroceryList, error) {
	from, to, err := resolveDateRange(groceryWeek, groceryFrom, groceryTo)
	if err != nil {
		return service.GroceryList{}, err
	}
	return service.BuildGroceryList(sqldb, service.GroceryListInput{From: from, To: to, ScaleServings: groceryScale})
}

var groceryListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show what to buy, grouped by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			list, err := buildGroceryList(sqldb)
			if err != nil {
				return err
			}
			if groceryJSON {
				return printJSON(cmd, list.Groups())
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Meals: %d\n", list.Meals)
			if len(list.Items) == 0 {
				fmt.Fprintln(out, "Nothing to buy.")
				return nil
			}
			for _, g := range list.Groups() {
				fmt.Fprintf(out, "\n%s\n", strings.ToUpper(g.Category))
				for _, it := range g.Items {
					fmt.Fprintf(out, "  %s\t%s %s", it.Name, service.FormatQuantity(it.AdjustedQuantity), it.Unit)
					if it.PantryQuantity > 0 {
						fmt.Fprintf(out, "\t(need %s, have %s)", service.FormatQuantity(it.QuantityNeeded), service.FormatQuantity(it.PantryQuantity))
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		})
	},
}

var groceryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the grocery list as a markdown checklist or YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			list, err := buildGroceryList(sqldb)
			if err != nil {
				return err
			}
			if strings.TrimSpace(groceryOut) == "" {
				return service.ExportGroceryList(cmd.OutOrStdout(), list, groceryFormat)
			}
			f, err := os.Create(groceryOut)
			if err != nil {
				return fmt.Errorf("create grocery export: %w", err)
			}
			if err := service.ExportGroceryList(f, list, groceryFormat); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close grocery export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported grocery list to %s\n", groceryOut)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(groceryCmd)
	groceryCmd.AddCommand(groceryListCmd, groceryExportCmd)

	for _, c := range []*cobra.Command{groceryListCmd, groceryExportCmd} {
		c.Flags().StringVar(&groceryFrom, "from", "", "Start date YYYY-MM-DD")
		c.Flags().StringVar(&groceryTo, "to", "", "End date YYYY-MM-DD")
		c.Flags().StringVar(&groceryWeek, "week", "", "ISO week in format YYYY-Www")
		c.Flags().BoolVar(&groceryScale, "scale-servings", false, "Scale quantities by scheduled servings / recipe servings")
	}
	groceryListCmd.Flags().BoolVar(&groceryJSON, "json", false, "Output as JSON")
	groceryExportCmd.Flags().StringVar(&groceryFormat, "format", service.ExportMarkdown, "Export format: markdown or yaml")
	groceryExportCmd.Flags().StringVar(&groceryOut, "out", "", "Output file path (default: stdout)")
}
