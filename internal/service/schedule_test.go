package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/planner"
	"github.com/chasemp/mealplanner/internal/service"
)

var planStart = time.Date(2025, time.September, 21, 0, 0, 0, 0, time.UTC)

func TestScheduleMealListOrdering(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	mustIngredient(t, db, "Eggs", "dairy", "each")
	mustRecipe(t, db, "Omelette", 1, item{"Eggs", 3, ""})
	mustRecipe(t, db, "Egg Salad", 2, item{"Eggs", 4, ""})

	inputs := []service.ScheduleMealInput{
		{Recipe: "Egg Salad", Date: "2025-09-22", MealType: model.MealTypeLunch},
		{Recipe: "Omelette", Date: "2025-09-22", MealType: model.MealTypeBreakfast, Servings: 2, Note: "double"},
		{Recipe: "Omelette", Date: "2025-09-21", MealType: model.MealTypeDinner},
	}
	for _, in := range inputs {
		_, err := service.ScheduleMeal(db, in)
		require.NoError(t, err)
	}

	meals, err := service.ListScheduledMeals(db, service.MealFilter{})
	require.NoError(t, err)
	require.Len(t, meals, 3)
	assert.Equal(t, "2025-09-21", meals[0].Date)
	assert.Equal(t, model.MealTypeBreakfast, meals[1].MealType)
	assert.Equal(t, 2, meals[1].Servings)
	assert.Equal(t, "double", meals[1].Note)
	assert.Equal(t, model.MealTypeLunch, meals[2].MealType)
	assert.Equal(t, 2, meals[2].Servings, "servings default to the recipe's servings")

	only, err := service.ListScheduledMeals(db, service.MealFilter{From: "2025-09-22", To: "2025-09-22", MealType: model.MealTypeLunch})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, meals[2].ID, only[0].ID)

	_, err = service.ScheduleMeal(db, service.ScheduleMealInput{Recipe: "Omelette", Date: "09/22/2025", MealType: model.MealTypeDinner})
	assert.Error(t, err)
	_, err = service.ScheduleMeal(db, service.ScheduleMealInput{Recipe: "Omelette", Date: "2025-09-22", MealType: "brunch"})
	assert.Error(t, err)
	_, err = service.ScheduleMeal(db, service.ScheduleMealInput{Recipe: "Pancakes", Date: "2025-09-22", MealType: model.MealTypeDinner})
	assert.Error(t, err)
}

func TestMoveAndDeleteScheduledMeal(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	mustIngredient(t, db, "Bread", "bakery", "each")
	mustRecipe(t, db, "Toast", 1, item{"Bread", 2, ""})

	id, err := service.ScheduleMeal(db, service.ScheduleMealInput{Recipe: "Toast", Date: "2025-09-21", MealType: model.MealTypeBreakfast})
	require.NoError(t, err)

	require.NoError(t, service.MoveScheduledMeal(db, id, "2025-09-25", ""))
	meals, err := service.ListScheduledMeals(db, service.MealFilter{})
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "2025-09-25", meals[0].Date)
	assert.Equal(t, model.MealTypeBreakfast, meals[0].MealType)

	require.NoError(t, service.MoveScheduledMeal(db, id, "2025-09-26", model.MealTypeSnack))
	meals, err = service.ListScheduledMeals(db, service.MealFilter{})
	require.NoError(t, err)
	assert.Equal(t, model.MealTypeSnack, meals[0].MealType)

	assert.Error(t, service.MoveScheduledMeal(db, id+100, "2025-09-26", ""))
	require.NoError(t, service.DeleteScheduledMeal(db, id))
	assert.Error(t, service.DeleteScheduledMeal(db, id))
}

func TestGeneratePlanStoresBatch(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	mustIngredient(t, db, "Pasta", "grains", "g")
	first := mustRecipe(t, db, "Pasta A", 2, item{"Pasta", 200, ""})
	second := mustRecipe(t, db, "Pasta B", 3, item{"Pasta", 250, ""})

	res, err := service.GeneratePlan(db, service.GeneratePlanInput{
		StartDate:    planStart,
		Weeks:        2,
		MealsPerWeek: 2,
		SpacingDays:  2,
		MealType:     model.MealTypeDinner,
	})
	require.NoError(t, err)
	_, err = uuid.Parse(res.Batch)
	require.NoError(t, err, "batch ids are uuids")
	require.Len(t, res.Meals, 4)

	stored, err := service.ListScheduledMeals(db, service.MealFilter{Batch: res.Batch})
	require.NoError(t, err)
	require.Len(t, stored, 4)
	gotDates := []string{}
	gotRecipes := []int64{}
	for i, m := range stored {
		gotDates = append(gotDates, m.Date)
		gotRecipes = append(gotRecipes, m.RecipeID)
		assert.Equal(t, res.Meals[i].ID, m.ID)
		assert.Equal(t, model.MealTypeDinner, m.MealType)
	}
	assert.Equal(t, []string{"2025-09-21", "2025-09-23", "2025-09-28", "2025-09-30"}, gotDates)
	assert.Equal(t, []int64{first, second, first, second}, gotRecipes)
	assert.Equal(t, 3, stored[1].Servings)

	batches, err := service.ListPlanBatches(db)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, service.PlanBatch{Batch: res.Batch, Meals: 4, From: "2025-09-21", To: "2025-09-30", CreatedAt: batches[0].CreatedAt}, batches[0])

	latest, err := service.LatestPlanBatch(db)
	require.NoError(t, err)
	assert.Equal(t, res.Batch, latest)

	n, err := service.DeletePlanBatch(db, res.Batch)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	_, err = service.DeletePlanBatch(db, res.Batch)
	assert.Error(t, err)
}

func TestGeneratePlanUsesGivenRotationOrder(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	mustIngredient(t, db, "Beans", "pantry", "can")
	a := mustRecipe(t, db, "Chili", 4, item{"Beans", 2, ""})
	b := mustRecipe(t, db, "Burritos", 4, item{"Beans", 1, ""})

	res, err := service.GeneratePlan(db, service.GeneratePlanInput{
		Recipes:      []string{"Burritos", "Chili"},
		StartDate:    planStart,
		Weeks:        1,
		MealsPerWeek: 2,
		SpacingDays:  1,
		MealType:     model.MealTypeLunch,
	})
	require.NoError(t, err)
	require.Len(t, res.Meals, 2)
	assert.Equal(t, b, res.Meals[0].RecipeID)
	assert.Equal(t, a, res.Meals[1].RecipeID)
}

func TestGeneratePlanErrorsLeaveNothingBehind(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	_, err := service.GeneratePlan(db, service.GeneratePlanInput{StartDate: planStart, Weeks: 1, MealsPerWeek: 3, MealType: model.MealTypeDinner})
	require.ErrorIs(t, err, planner.ErrEmptyRecipeSet)

	mustIngredient(t, db, "Tofu", "produce", "each")
	mustRecipe(t, db, "Tofu Bowl", 2, item{"Tofu", 1, ""})
	_, err = service.GeneratePlan(db, service.GeneratePlanInput{StartDate: planStart, Weeks: 0, MealsPerWeek: 3, MealType: model.MealTypeDinner})
	require.ErrorIs(t, err, planner.ErrInvalidWeeks)

	meals, err := service.ListScheduledMeals(db, service.MealFilter{})
	require.NoError(t, err)
	assert.Empty(t, meals)
}

func TestPlanSummaryCounts(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	mustIngredient(t, db, "Oats", "grains", "cup")
	oats := mustRecipe(t, db, "Oatmeal", 1, item{"Oats", 1, ""})
	granola := mustRecipe(t, db, "Granola", 1, item{"Oats", 2, ""})

	for _, m := range []struct {
		recipe string
		date   string
	}{
		{"Oatmeal", "2025-09-21"}, // ISO week 38 (Sunday)
		{"Oatmeal", "2025-09-22"}, // ISO week 39
		{"Granola", "2025-09-23"},
		{"Oatmeal", "2025-10-10"},
	} {
		_, err := service.ScheduleMeal(db, service.ScheduleMealInput{Recipe: m.recipe, Date: m.date, MealType: model.MealTypeBreakfast})
		require.NoError(t, err)
	}

	report, err := service.PlanSummary(db, "2025-09-21", "2025-09-30")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, []service.RecipeCount{
		{RecipeID: oats, Title: "Oatmeal", Count: 2},
		{RecipeID: granola, Title: "Granola", Count: 1},
	}, report.ByRecipe)
	assert.Equal(t, []service.WeekCount{{Week: "2025-W38", Count: 1}, {Week: "2025-W39", Count: 2}}, report.ByWeek)
}
