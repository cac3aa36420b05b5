package planner_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/planner"
)

var sunday = time.Date(2025, time.September, 21, 0, 0, 0, 0, time.UTC)

func recipes(ids ...int64) []model.Recipe {
	out := make([]model.Recipe, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Recipe{ID: id, Title: "Recipe", Servings: 2})
	}
	return out
}

func dates(meals []model.ScheduledMeal) []string {
	out := make([]string, 0, len(meals))
	for _, m := range meals {
		out = append(out, m.Date)
	}
	return out
}

func recipeIDs(meals []model.ScheduledMeal) []int64 {
	out := make([]int64, 0, len(meals))
	for _, m := range meals {
		out = append(out, m.RecipeID)
	}
	return out
}

func TestSingleRecipeRespectsSpacing(t *testing.T) {
	t.Parallel()
	meals, err := planner.GenerateOrderedMealPlan(recipes(1), sunday, 1, 2, 2, model.MealTypeDinner)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-09-21", "2025-09-23"}, dates(meals))
}

func TestRoundRobinOrderPreserved(t *testing.T) {
	t.Parallel()
	meals, err := planner.GenerateOrderedMealPlan(recipes(1, 2, 3), sunday, 1, 3, 1, model.MealTypeDinner)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, recipeIDs(meals))
	assert.Equal(t, []string{"2025-09-21", "2025-09-22", "2025-09-23"}, dates(meals))
}

func TestWeeklyQuotaRespected(t *testing.T) {
	t.Parallel()
	meals, err := planner.GenerateOrderedMealPlan(recipes(1, 2), sunday, 1, 1, 1, model.MealTypeDinner)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "2025-09-21", meals[0].Date)
	assert.Equal(t, int64(1), meals[0].RecipeID)
}

func TestMultiWeekDistribution(t *testing.T) {
	t.Parallel()
	meals, err := planner.GenerateOrderedMealPlan(recipes(1, 2), sunday, 2, 2, 2, model.MealTypeDinner)
	require.NoError(t, err)
	require.Len(t, meals, 4)

	perWeek := map[int]int{}
	for _, m := range meals {
		d, err := planner.ParseDate(m.Date)
		require.NoError(t, err)
		perWeek[int(d.Sub(sunday).Hours()/24)/7]++
	}
	assert.Equal(t, map[int]int{0: 2, 1: 2}, perWeek)
}

func TestHighSpacingDegradesGracefully(t *testing.T) {
	t.Parallel()
	meals, err := planner.GenerateOrderedMealPlan(recipes(1), sunday, 1, 2, 5, model.MealTypeDinner)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-09-21", "2025-09-26"}, dates(meals))
}

func TestSpacingLargerThanWeekUnderfills(t *testing.T) {
	t.Parallel()
	meals, err := planner.GenerateOrderedMealPlan(recipes(1), sunday, 2, 3, 10, model.MealTypeLunch)
	require.NoError(t, err)
	// Day 0 in week 0, then the recipe is blocked until day 10 in week 1.
	assert.Equal(t, []string{"2025-09-21", "2025-10-01"}, dates(meals))
}

func TestRotationContinuesAcrossWeeks(t *testing.T) {
	t.Parallel()
	meals, err := planner.GenerateOrderedMealPlan(recipes(1, 2, 3), sunday, 2, 2, 3, model.MealTypeDinner)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 1}, recipeIDs(meals))
	assert.Equal(t, []string{"2025-09-21", "2025-09-24", "2025-09-28", "2025-10-01"}, dates(meals))
}

func TestWeekBoundaryWaitsForRecipeSpacing(t *testing.T) {
	t.Parallel()
	// Day 7 opens week 1 but the recipe was placed on day 4, so day 7 is
	// skipped and the recipe lands on day 8.
	meals, err := planner.GenerateOrderedMealPlan(recipes(1), sunday, 2, 2, 4, model.MealTypeDinner)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-09-21", "2025-09-25", "2025-09-29", "2025-10-03"}, dates(meals))
}

func TestRecordFields(t *testing.T) {
	t.Parallel()
	in := []model.Recipe{
		{ID: 7, Title: "Tacos", Servings: 6},
		{ID: 8, Title: "Soup"},
	}
	meals, err := planner.GenerateOrderedMealPlan(in, sunday, 1, 2, 1, model.MealTypeLunch)
	require.NoError(t, err)
	want := []model.ScheduledMeal{
		{RecipeID: 7, MealType: model.MealTypeLunch, Date: "2025-09-21", Servings: 6, Note: "Tacos"},
		{RecipeID: 8, MealType: model.MealTypeLunch, Date: "2025-09-22", Servings: model.DefaultServings, Note: "Soup"},
	}
	if diff := cmp.Diff(want, meals); diff != "" {
		t.Fatalf("unexpected meals (-want +got):\n%s", diff)
	}
}

func TestDeterministic(t *testing.T) {
	t.Parallel()
	a, err := planner.GenerateOrderedMealPlan(recipes(4, 5, 6), sunday, 4, 3, 2, model.MealTypeDinner)
	require.NoError(t, err)
	b, err := planner.GenerateOrderedMealPlan(recipes(4, 5, 6), sunday, 4, 3, 2, model.MealTypeDinner)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a, b))
}

func TestStartDateTimeOfDayIgnored(t *testing.T) {
	t.Parallel()
	late := time.Date(2025, time.September, 21, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	meals, err := planner.GenerateOrderedMealPlan(recipes(1), late, 1, 1, 0, model.MealTypeDinner)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-09-21"}, dates(meals))
}

func TestInvalidParameters(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		recipes []model.Recipe
		params  planner.Params
		want    error
	}{
		{"empty recipes", nil, planner.Params{StartDate: sunday, Weeks: 1, MealsPerWeek: 1, MealType: model.MealTypeDinner}, planner.ErrEmptyRecipeSet},
		{"zero weeks", recipes(1), planner.Params{StartDate: sunday, Weeks: 0, MealsPerWeek: 1, MealType: model.MealTypeDinner}, planner.ErrInvalidWeeks},
		{"too many weeks", recipes(1), planner.Params{StartDate: sunday, Weeks: planner.MaxWeeks + 1, MealsPerWeek: 1, MealType: model.MealTypeDinner}, planner.ErrInvalidWeeks},
		{"huge weeks", recipes(1), planner.Params{StartDate: sunday, Weeks: 1 << 61, MealsPerWeek: 7, MealType: model.MealTypeDinner}, planner.ErrInvalidWeeks},
		{"zero meals", recipes(1), planner.Params{StartDate: sunday, Weeks: 1, MealsPerWeek: 0, MealType: model.MealTypeDinner}, planner.ErrInvalidMealsPerWeek},
		{"eight meals", recipes(1), planner.Params{StartDate: sunday, Weeks: 1, MealsPerWeek: 8, MealType: model.MealTypeDinner}, planner.ErrInvalidMealsPerWeek},
		{"negative spacing", recipes(1), planner.Params{StartDate: sunday, Weeks: 1, MealsPerWeek: 1, SpacingDays: -1, MealType: model.MealTypeDinner}, planner.ErrInvalidSpacing},
		{"bad meal type", recipes(1), planner.Params{StartDate: sunday, Weeks: 1, MealsPerWeek: 1, MealType: "brunch"}, planner.ErrInvalidMealType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meals, err := planner.Generate(tc.recipes, tc.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Nil(t, meals)
		})
	}
}

func TestMaxWeeksIsAccepted(t *testing.T) {
	t.Parallel()
	meals, err := planner.GenerateOrderedMealPlan(recipes(1, 2), sunday, planner.MaxWeeks, 1, 0, model.MealTypeDinner)
	require.NoError(t, err)
	assert.Len(t, meals, planner.MaxWeeks)
}
