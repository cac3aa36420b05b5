// Package planner builds ordered meal rotations over a span of weeks.
//
// The scheduler walks the calendar one day at a time and places recipes in
// round-robin order, honoring a weekly quota and a minimum number of days
// between two placements of the same recipe. It never reorders recipes and
// never backtracks: a recipe that is not yet allowed blocks the day and is
// retried on the next eligible day.
package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chasemp/mealplanner/internal/model"
)

const (
	daysPerWeek = 7
	// MaxWeeks caps a single plan at ten years.
	MaxWeeks = 520
)

var (
	ErrEmptyRecipeSet      = errors.New("recipe set is empty")
	ErrInvalidWeeks        = errors.New("weeks must be between 1 and 520")
	ErrInvalidMealsPerWeek = errors.New("meals per week must be between 1 and 7")
	ErrInvalidSpacing      = errors.New("meal spacing days must be >= 0")
	ErrInvalidMealType     = errors.New("invalid meal type")
)

// Params describes one scheduling run. StartDate is day 0 of the plan; only
// its calendar date is used.
type Params struct {
	StartDate    time.Time
	Weeks        int
	MealsPerWeek int
	SpacingDays  int
	MealType     model.MealType
}

func (p Params) Validate() error {
	if p.Weeks <= 0 || p.Weeks > MaxWeeks {
		return ErrInvalidWeeks
	}
	if p.MealsPerWeek <= 0 || p.MealsPerWeek > daysPerWeek {
		return ErrInvalidMealsPerWeek
	}
	if p.SpacingDays < 0 {
		return ErrInvalidSpacing
	}
	if !p.MealType.Valid() {
		return fmt.Errorf("%w %q", ErrInvalidMealType, p.MealType)
	}
	return nil
}

// GenerateOrderedMealPlan is the positional form of Generate.
func GenerateOrderedMealPlan(recipes []model.Recipe, startDate time.Time, weeks, mealsPerWeek, mealSpacingDays int, mealType model.MealType) ([]model.ScheduledMeal, error) {
	return Generate(recipes, Params{
		StartDate:    startDate,
		Weeks:        weeks,
		MealsPerWeek: mealsPerWeek,
		SpacingDays:  mealSpacingDays,
		MealType:     mealType,
	})
}

// Generate returns the scheduled meals for recipes in rotation order. The
// returned records carry no ID; callers that persist them assign one.
func Generate(recipes []model.Recipe, p Params) ([]model.ScheduledMeal, error) {
	if len(recipes) == 0 {
		return nil, ErrEmptyRecipeSet
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	start := dateOnly(p.StartDate)
	totalDays := p.Weeks * daysPerWeek
	target := p.Weeks * p.MealsPerWeek

	perWeek := make([]int, p.Weeks)
	lastDayInWeek := make([]int, p.Weeks)
	lastPlaced := make(map[int64]int, len(recipes))

	out := make([]model.ScheduledMeal, 0, target)
	recipeIndex := 0

	for day := 0; day < totalDays && len(out) < target; day++ {
		week := day / daysPerWeek
		if perWeek[week] >= p.MealsPerWeek {
			continue
		}
		if perWeek[week] > 0 && day-lastDayInWeek[week] < p.SpacingDays {
			continue
		}

		recipe := recipes[recipeIndex%len(recipes)]
		if last, ok := lastPlaced[recipe.ID]; ok && day-last < p.SpacingDays {
			continue
		}

		out = append(out, model.ScheduledMeal{
			RecipeID: recipe.ID,
			MealType: p.MealType,
			Date:     start.AddDate(0, 0, day).Format(model.DateLayout),
			Servings: servingsFor(recipe),
			Note:     recipe.Title,
		})
		perWeek[week]++
		lastDayInWeek[week] = day
		lastPlaced[recipe.ID] = day
		recipeIndex++
	}
	return out, nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return t, nil
}

func servingsFor(r model.Recipe) int {
	if r.Servings > 0 {
		return r.Servings
	}
	return model.DefaultServings
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
