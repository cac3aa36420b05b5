package mealplan

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chasemp/mealplanner/internal/service"
)

var pantryCmd = &cobra.Command{
	Use:   "pantry",
	Short: "Track ingredients on hand",
}

var (
	pantryUnit  string
	pantryDelta float64
	pantryJSON  bool

	scanPackages   float64
	scanIngredient string
	scanCategory   string
	scanProviders  []string
	scanRefresh    bool
)

var pantrySetCmd = &cobra.Command{
	Use:   "set <ingredient> <quantity>",
	Short: "Set the on-hand quantity of an ingredient",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := parseQuantityArg(args[1])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.SetPantryItem(sqldb, args[0], qty, pantryUnit); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pantry %s: %s\n", args[0], service.FormatQuantity(qty))
			return nil
		})
	},
}

var pantryAdjustCmd = &cobra.Command{
	Use:   "adjust <ingredient> --by <delta>",
	Short: "Add to or subtract from pantry stock (never below zero)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			qty, err := service.AdjustPantryItem(sqldb, args[0], pantryDelta)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pantry %s: %s\n", args[0], service.FormatQuantity(qty))
			return nil
		})
	},
}

var pantryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pantry stock",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			rows, err := service.ListPantry(sqldb)
			if err != nil {
				return err
			}
			if pantryJSON {
				return printJSON(cmd, rows)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "INGREDIENT\tCATEGORY\tQTY\tUNIT")
			for _, r := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", r.Name, r.Category, service.FormatQuantity(r.Quantity), r.Unit)
			}
			return nil
		})
	},
}

var pantryRemoveCmd = &cobra.Command{
	Use:   "remove <ingredient>",
	Short: "Remove an ingredient from the pantry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.RemovePantryItem(sqldb, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %q from pantry\n", args[0])
			return nil
		})
	},
}

var pantryScanCmd = &cobra.Command{
	Use:   "scan <barcode>",
	Short: "Look a product up by barcode and add it to the pantry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := barcodeOptions()
		if err != nil {
			return err
		}
		in := service.PantryScanInput{
			Barcode:    args[0],
			Packages:   scanPackages,
			Ingredient: scanIngredient,
			Category:   scanCategory,
		}
		return withDB(func(sqldb *sql.DB) error {
			res, err := service.AddPantryFromBarcode(cmd.Context(), sqldb, in, opts)
			if err != nil {
				return err
			}
			if pantryJSON {
				return printJSON(cmd, res)
			}
			source := "live"
			if res.Product.FromCache {
				source = "cache"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Provider: %s (%s)\n", res.Product.Provider, source)
			fmt.Fprintf(out, "Product: %s\n", res.Product.Name)
			if res.Product.Brand != "" {
				fmt.Fprintf(out, "Brand: %s\n", res.Product.Brand)
			}
			if res.Created {
				fmt.Fprintf(out, "Created ingredient %q in %s\n", res.Ingredient.Name, res.Ingredient.Category)
			}
			fmt.Fprintf(out, "Pantry %s: %s %s\n", res.Ingredient.Name, service.FormatQuantity(res.Quantity), res.Ingredient.DefaultUnit)
			return nil
		})
	},
}

// barcodeOptions merges config file settings with scan flags.
func barcodeOptions() (service.BarcodeOptions, error) {
	opts := service.BarcodeOptions{
		Providers:        cfg.Barcode.Providers,
		OpenFoodFactsURL: cfg.Barcode.OpenFoodFactsURL,
		UPCItemDBURL:     cfg.Barcode.UPCItemDBURL,
		UPCItemDBKey:     cfg.Barcode.UPCItemDBKey,
		Refresh:          scanRefresh,
		Logger:           logger,
	}
	if len(scanProviders) > 0 {
		opts.Providers = scanProviders
	}
	if raw := strings.TrimSpace(cfg.Barcode.Timeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid barcode.timeout %q: %w", raw, err)
		}
		opts.Timeout = d
	}
	return opts, nil
}

func parseQuantityArg(value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", value)
	}
	return v, nil
}

func init() {
	rootCmd.AddCommand(pantryCmd)
	pantryCmd.AddCommand(pantrySetCmd, pantryAdjustCmd, pantryListCmd, pantryRemoveCmd, pantryScanCmd)

	pantrySetCmd.Flags().StringVar(&pantryUnit, "unit", "", "Unit (default: ingredient default unit)")
	pantryAdjustCmd.Flags().Float64Var(&pantryDelta, "by", 0, "Amount to add; negative to use up stock")
	_ = pantryAdjustCmd.MarkFlagRequired("by")
	pantryListCmd.Flags().BoolVar(&pantryJSON, "json", false, "Output as JSON")
	pantryScanCmd.Flags().BoolVar(&pantryJSON, "json", false, "Output as JSON")
	pantryScanCmd.Flags().Float64Var(&scanPackages, "packages", 1, "Number of packages scanned")
	pantryScanCmd.Flags().StringVar(&scanIngredient, "ingredient", "", "Ingredient to stock (default: product name)")
	pantryScanCmd.Flags().StringVar(&scanCategory, "category", "", "Category for a newly created ingredient")
	pantryScanCmd.Flags().StringSliceVar(&scanProviders, "provider", nil, "Lookup providers in order: openfoodfacts, upcitemdb")
	pantryScanCmd.Flags().BoolVar(&scanRefresh, "refresh", false, "Skip cached lookups")
}
