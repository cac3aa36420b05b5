package mealplan

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/service"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate and manage scheduled meals",
}

var (
	planRecipes      []string
	planStart        string
	planWeeks        int
	planMealsPerWeek int
	planSpacing      int
	planMealType     string
	planJSON         bool

	planDate        string
	planAddMealType string
	planServings    int
	planNote        string

	planFrom  string
	planTo    string
	planWeek  string
	planBatch string
)

func configPlannerSettings() service.PlannerSettings {
	return service.PlannerSettings{
		Weeks:        cfg.Planner.Weeks,
		MealsPerWeek: cfg.Planner.MealsPerWeek,
		SpacingDays:  cfg.Planner.SpacingDays,
		MealType:     model.MealType(strings.ToLower(strings.TrimSpace(cfg.Planner.MealType))),
	}
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Schedule recipes in rotation over the coming weeks",
	Long: "Walks the calendar from --start one day at a time, placing recipes in the given order " +
		"(or id order) while honoring the weekly quota and the minimum spacing between meals.",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseDateOrToday(planStart)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			settings, err := service.PlannerDefaults(sqldb, configPlannerSettings())
			if err != nil {
				return err
			}
			in := service.GeneratePlanInput{
				Recipes:      planRecipes,
				StartDate:    start,
				Weeks:        settings.Weeks,
				MealsPerWeek: settings.MealsPerWeek,
				SpacingDays:  settings.SpacingDays,
				MealType:     settings.MealType,
				Logger:       logger,
			}
			flags := cmd.Flags()
			if flags.Changed("weeks") {
				in.Weeks = planWeeks
			}
			if flags.Changed("meals-per-week") {
				in.MealsPerWeek = planMealsPerWeek
			}
			if flags.Changed("spacing") {
				in.SpacingDays = planSpacing
			}
			if flags.Changed("meal-type") {
				mt, err := model.ParseMealType(planMealType)
				if err != nil {
					return err
				}
				in.MealType = mt
			}

			res, err := service.GeneratePlan(sqldb, in)
			if err != nil {
				return err
			}
			if planJSON {
				return printJSON(cmd, res)
			}
			titles, err := recipeTitles(sqldb)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scheduled %d meal(s) in batch %s\n", len(res.Meals), res.Batch)
			if want := in.Weeks * in.MealsPerWeek; len(res.Meals) < want {
				fmt.Fprintf(out, "Note: only %d of %d requested meals fit the spacing rules\n", len(res.Meals), want)
			}
			fmt.Fprintln(out, "ID\tDATE\tTYPE\tRECIPE\tSERVINGS")
			for _, m := range res.Meals {
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%d\n", m.ID, m.Date, m.MealType, titles[m.RecipeID], m.Servings)
			}
			return nil
		})
	},
}

var planAddCmd = &cobra.Command{
	Use:   "add <recipe>",
	Short: "Schedule a single meal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDateOrToday(planDate)
		if err != nil {
			return err
		}
		mt, err := model.ParseMealType(planAddMealType)
		if err != nil {
			return err
		}
		in := service.ScheduleMealInput{
			Recipe:   args[0],
			Date:     date.Format(model.DateLayout),
			MealType: mt,
			Servings: planServings,
			Note:     planNote,
		}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.ScheduleMeal(sqldb, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled meal %d on %s\n", id, in.Date)
			return nil
		})
	},
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled meals",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := resolveDateRange(planWeek, planFrom, planTo)
		if err != nil {
			return err
		}
		filter := service.MealFilter{From: from, To: to, Batch: planBatch}
		if cmd.Flags().Changed("meal-type") {
			if filter.MealType, err = model.ParseMealType(planMealType); err != nil {
				return err
			}
		}
		return withDB(func(sqldb *sql.DB) error {
			meals, err := service.ListScheduledMeals(sqldb, filter)
			if err != nil {
				return err
			}
			if planJSON {
				return printJSON(cmd, meals)
			}
			titles, err := recipeTitles(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tDATE\tTYPE\tRECIPE\tSERVINGS\tNOTE")
			for _, m := range meals {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%d\t%s\n", m.ID, m.Date, m.MealType, titles[m.RecipeID], m.Servings, m.Note)
			}
			return nil
		})
	},
}

var planMoveCmd = &cobra.Command{
	Use:   "move <meal-id>",
	Short: "Move a scheduled meal to another date or meal type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("meal id", args[0])
		if err != nil {
			return err
		}
		if strings.TrimSpace(planDate) == "" {
			return fmt.Errorf("--date is required")
		}
		var mt model.MealType
		if cmd.Flags().Changed("meal-type") {
			if mt, err = model.ParseMealType(planMealType); err != nil {
				return err
			}
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.MoveScheduledMeal(sqldb, id, planDate, mt); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved meal %d to %s\n", id, planDate)
			return nil
		})
	},
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete <meal-id>",
	Short: "Delete a scheduled meal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("meal id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteScheduledMeal(sqldb, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted meal %d\n", id)
			return nil
		})
	},
}

var planBatchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List generated plan batches, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			batches, err := service.ListPlanBatches(sqldb)
			if err != nil {
				return err
			}
			if planJSON {
				return printJSON(cmd, batches)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "BATCH\tMEALS\tFROM\tTO")
			for _, b := range batches {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\t%s\n", b.Batch, b.Meals, b.From, b.To)
			}
			return nil
		})
	},
}

var planUndoCmd = &cobra.Command{
	Use:   "undo [batch]",
	Short: "Delete every meal of a generated batch (default: the latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			batch := ""
			if len(args) == 1 {
				batch = args[0]
			} else {
				latest, err := service.LatestPlanBatch(sqldb)
				if err != nil {
					return err
				}
				batch = latest
			}
			n, err := service.DeletePlanBatch(sqldb, batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d meal(s) from batch %s\n", n, batch)
			return nil
		})
	},
}

var planSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count scheduled meals per recipe and ISO week",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := resolveDateRange(planWeek, planFrom, planTo)
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.PlanSummary(sqldb, from, to)
			if err != nil {
				return err
			}
			if planJSON {
				return printJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total meals: %d\n", report.Total)
			fmt.Fprintln(out, "RECIPE\tCOUNT")
			for _, r := range report.ByRecipe {
				fmt.Fprintf(out, "%s\t%d\n", r.Title, r.Count)
			}
			fmt.Fprintln(out, "WEEK\tCOUNT")
			for _, w := range report.ByWeek {
				fmt.Fprintf(out, "%s\t%d\n", w.Week, w.Count)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planGenerateCmd, planAddCmd, planListCmd, planMoveCmd, planDeleteCmd, planBatchesCmd, planUndoCmd, planSummaryCmd)

	g := planGenerateCmd.Flags()
	g.StringSliceVar(&planRecipes, "recipes", nil, "Recipe ids or titles in rotation order (default: all, by id)")
	g.StringVar(&planStart, "start", "", "First day of the plan YYYY-MM-DD (default: today)")
	g.IntVar(&planWeeks, "weeks", 0, "Number of weeks to plan")
	g.IntVar(&planMealsPerWeek, "meals-per-week", 0, "Meals to place per week (1-7)")
	g.IntVar(&planSpacing, "spacing", 0, "Minimum days between meals")
	g.StringVar(&planMealType, "meal-type", "", "breakfast|lunch|dinner|snack")

	planAddCmd.Flags().StringVar(&planDate, "date", "", "Date YYYY-MM-DD (default: today)")
	planAddCmd.Flags().StringVar(&planAddMealType, "meal-type", string(model.MealTypeDinner), "breakfast|lunch|dinner|snack")
	planAddCmd.Flags().IntVar(&planServings, "servings", 0, "Servings (default: recipe servings)")
	planAddCmd.Flags().StringVar(&planNote, "note", "", "Free-form note")

	planMoveCmd.Flags().StringVar(&planDate, "date", "", "New date YYYY-MM-DD")
	planMoveCmd.Flags().StringVar(&planMealType, "meal-type", "", "New meal type (default: unchanged)")

	for _, c := range []*cobra.Command{planListCmd, planSummaryCmd} {
		c.Flags().StringVar(&planFrom, "from", "", "Start date YYYY-MM-DD")
		c.Flags().StringVar(&planTo, "to", "", "End date YYYY-MM-DD")
		c.Flags().StringVar(&planWeek, "week", "", "ISO week in format YYYY-Www")
	}
	planListCmd.Flags().StringVar(&planMealType, "meal-type", "", "Only this meal type")
	planListCmd.Flags().StringVar(&planBatch, "batch", "", "Only meals from this generated batch")

	for _, c := range []*cobra.Command{planGenerateCmd, planListCmd, planBatchesCmd, planSummaryCmd} {
		c.Flags().BoolVar(&planJSON, "json", false, "Output as JSON")
	}
}
