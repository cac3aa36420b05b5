package grocery_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chasemp/mealplanner/internal/grocery"
	"github.com/chasemp/mealplanner/internal/model"
)

const (
	chickenID int64 = 1
	riceID    int64 = 2
	milkID    int64 = 3
)

var lookup = grocery.IngredientLookup{
	chickenID: {ID: chickenID, Name: "Chicken", Category: "meat", DefaultUnit: "lb"},
	riceID:    {ID: riceID, Name: "Rice", Category: "grains", DefaultUnit: "cup"},
	milkID:    {ID: milkID, Name: "Milk", Category: "", DefaultUnit: "cup"},
}

func chickenRecipe() model.Recipe {
	return model.Recipe{
		ID:       10,
		Title:    "Roast chicken",
		Servings: 1,
		Items:    []model.RecipeItem{{IngredientID: chickenID, Quantity: 1, Unit: "lb"}},
	}
}

func twoChickenMeals() []model.ScheduledMeal {
	return []model.ScheduledMeal{
		{ID: 1, RecipeID: 10, MealType: model.MealTypeDinner, Date: "2025-09-21", Servings: 1},
		{ID: 2, RecipeID: 10, MealType: model.MealTypeDinner, Date: "2025-09-23", Servings: 1},
	}
}

func TestAggregatesAcrossMeals(t *testing.T) {
	t.Parallel()
	items := grocery.GenerateGroceryItems(twoChickenMeals(), []model.Recipe{chickenRecipe()}, nil, lookup)
	require.Len(t, items, 1)
	assert.Equal(t, model.GroceryItem{
		IngredientID:     chickenID,
		Name:             "Chicken",
		QuantityNeeded:   2,
		PantryQuantity:   0,
		AdjustedQuantity: 2,
		Unit:             "lb",
		Category:         "meat",
	}, items[0])
}

func TestPantrySubtraction(t *testing.T) {
	t.Parallel()
	pantry := []model.PantryItem{{IngredientID: chickenID, Quantity: 1, Unit: "lb"}}
	items := grocery.GenerateGroceryItems(twoChickenMeals(), []model.Recipe{chickenRecipe()}, pantry, lookup)
	require.Len(t, items, 1)
	assert.Equal(t, 2.0, items[0].QuantityNeeded)
	assert.Equal(t, 1.0, items[0].PantryQuantity)
	assert.Equal(t, 1.0, items[0].AdjustedQuantity)
}

func TestFullPantryCoverageOmitsItem(t *testing.T) {
	t.Parallel()
	for _, qty := range []float64{2, 5} {
		pantry := []model.PantryItem{{IngredientID: chickenID, Quantity: qty, Unit: "lb"}}
		items := grocery.GenerateGroceryItems(twoChickenMeals(), []model.Recipe{chickenRecipe()}, pantry, lookup)
		assert.Empty(t, items, "pantry quantity %v", qty)
	}
}

func TestDuplicatePantryRowsAreSummed(t *testing.T) {
	t.Parallel()
	pantry := []model.PantryItem{
		{IngredientID: chickenID, Quantity: 0.5, Unit: "lb"},
		{IngredientID: chickenID, Quantity: 0.5, Unit: "kg"},
	}
	items := grocery.GenerateGroceryItems(twoChickenMeals(), []model.Recipe{chickenRecipe()}, pantry, lookup)
	require.Len(t, items, 1)
	assert.Equal(t, 1.0, items[0].PantryQuantity)
	assert.Equal(t, 1.0, items[0].AdjustedQuantity)
}

func TestMissingRecipeIsSkipped(t *testing.T) {
	t.Parallel()
	meals := append(twoChickenMeals(), model.ScheduledMeal{ID: 3, RecipeID: 999, Date: "2025-09-24"})
	items := grocery.GenerateGroceryItems(meals, []model.Recipe{chickenRecipe()}, nil, lookup)
	require.Len(t, items, 1)
	assert.Equal(t, 2.0, items[0].QuantityNeeded)
}

func TestUnitsAreNeverMerged(t *testing.T) {
	t.Parallel()
	recipes := []model.Recipe{
		{ID: 1, Title: "Pilaf", Items: []model.RecipeItem{
			{IngredientID: riceID, Quantity: 1, Unit: "cup"},
			{IngredientID: riceID, Quantity: 200, Unit: "g"},
		}},
	}
	meals := []model.ScheduledMeal{{ID: 1, RecipeID: 1}}
	items := grocery.GenerateGroceryItems(meals, recipes, nil, lookup)
	require.Len(t, items, 2)
	assert.Equal(t, "cup", items[0].Unit)
	assert.Equal(t, "g", items[1].Unit)
}

func TestPantryUnitMismatchIsSubtractedAsIs(t *testing.T) {
	t.Parallel()
	recipes := []model.Recipe{{ID: 1, Title: "Rice", Items: []model.RecipeItem{{IngredientID: riceID, Quantity: 3, Unit: "cup"}}}}
	pantry := []model.PantryItem{{IngredientID: riceID, Quantity: 1, Unit: "kg"}}
	items := grocery.GenerateGroceryItems([]model.ScheduledMeal{{RecipeID: 1}}, recipes, pantry, lookup)
	require.Len(t, items, 1)
	assert.Equal(t, 2.0, items[0].AdjustedQuantity)
	assert.Equal(t, "cup", items[0].Unit)
}

func TestCategoryDefaultsToOther(t *testing.T) {
	t.Parallel()
	recipes := []model.Recipe{{ID: 1, Title: "Mystery", Items: []model.RecipeItem{
		{IngredientID: milkID, Quantity: 1, Unit: "cup"},
		{IngredientID: 77, Quantity: 2, Unit: "each"},
	}}}
	items := grocery.GenerateGroceryItems([]model.ScheduledMeal{{RecipeID: 1}}, recipes, nil, lookup)
	require.Len(t, items, 2)
	assert.Equal(t, "other", items[0].Category)
	assert.Equal(t, "Milk", items[0].Name)
	assert.Equal(t, "other", items[1].Category)
	assert.Equal(t, "ingredient #77", items[1].Name)
}

func TestDecimalAccumulation(t *testing.T) {
	t.Parallel()
	recipes := []model.Recipe{
		{ID: 1, Title: "A", Items: []model.RecipeItem{{IngredientID: milkID, Quantity: 0.1, Unit: "cup"}}},
		{ID: 2, Title: "B", Items: []model.RecipeItem{{IngredientID: milkID, Quantity: 0.2, Unit: "cup"}}},
	}
	items := grocery.GenerateGroceryItems([]model.ScheduledMeal{{RecipeID: 1}, {RecipeID: 2}}, recipes, nil, lookup)
	require.Len(t, items, 1)
	assert.Equal(t, 0.3, items[0].QuantityNeeded)
}

func TestComboExpandsComponents(t *testing.T) {
	t.Parallel()
	recipes := []model.Recipe{
		chickenRecipe(),
		{ID: 20, Title: "Rice", Items: []model.RecipeItem{{IngredientID: riceID, Quantity: 1, Unit: "cup"}}},
		{ID: 30, Title: "Chicken and rice", IsCombo: true, Components: []model.ComboComponent{
			{RecipeID: 10, Multiplier: 2},
			{RecipeID: 20, Multiplier: 1.5},
			{RecipeID: 404, Multiplier: 1},
		}},
		{ID: 40, Title: "Nested", IsCombo: true, Components: []model.ComboComponent{{RecipeID: 30, Multiplier: 1}}},
	}
	meals := []model.ScheduledMeal{{RecipeID: 30}, {RecipeID: 40}}
	items := grocery.GenerateGroceryItems(meals, recipes, nil, lookup)
	require.Len(t, items, 2)
	assert.Equal(t, chickenID, items[0].IngredientID)
	assert.Equal(t, 2.0, items[0].QuantityNeeded)
	assert.Equal(t, riceID, items[1].IngredientID)
	assert.Equal(t, 1.5, items[1].QuantityNeeded)
}

func TestServingScaleOption(t *testing.T) {
	t.Parallel()
	recipe := chickenRecipe()
	recipe.Servings = 4
	meals := []model.ScheduledMeal{{RecipeID: 10, Servings: 2}, {RecipeID: 10, Servings: 8}}

	plain := grocery.GenerateGroceryItems(meals, []model.Recipe{recipe}, nil, lookup)
	require.Len(t, plain, 1)
	assert.Equal(t, 2.0, plain[0].QuantityNeeded)

	scaled := grocery.GenerateGroceryItems(meals, []model.Recipe{recipe}, nil, lookup, grocery.WithServingScale())
	require.Len(t, scaled, 1)
	assert.Equal(t, 2.5, scaled[0].QuantityNeeded)
}

func TestIdempotentAndNonMutating(t *testing.T) {
	t.Parallel()
	meals := twoChickenMeals()
	recipes := []model.Recipe{chickenRecipe()}
	pantry := []model.PantryItem{{IngredientID: chickenID, Quantity: 0.5, Unit: "lb"}}

	mealsBefore := append([]model.ScheduledMeal(nil), meals...)
	pantryBefore := append([]model.PantryItem(nil), pantry...)

	first := grocery.GenerateGroceryItems(meals, recipes, pantry, lookup)
	second := grocery.GenerateGroceryItems(meals, recipes, pantry, lookup)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("results differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, mealsBefore, meals)
	assert.Equal(t, pantryBefore, pantry)
	assert.Equal(t, []model.RecipeItem{{IngredientID: chickenID, Quantity: 1, Unit: "lb"}}, recipes[0].Items)
}

func TestGroupByCategoryPreservesOrder(t *testing.T) {
	t.Parallel()
	items := []model.GroceryItem{
		{IngredientID: 1, Name: "Chicken", Category: "meat"},
		{IngredientID: 2, Name: "Rice", Category: "grains"},
		{IngredientID: 3, Name: "Beef", Category: "meat"},
		{IngredientID: 4, Name: "Salt"},
	}
	groups := grocery.GroupByCategory(items)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"Chicken", "Beef"}, []string{groups["meat"][0].Name, groups["meat"][1].Name})
	assert.Len(t, groups["grains"], 1)
	assert.Len(t, groups["other"], 1)
	assert.Equal(t, []string{"grains", "meat", "other"}, grocery.Categories(groups))
}

func TestNonFiniteQuantitiesAreSkipped(t *testing.T) {
	t.Parallel()
	recipes := []model.Recipe{
		{ID: 10, Title: "Roast chicken", Servings: 1, Items: []model.RecipeItem{
			{IngredientID: chickenID, Quantity: 1, Unit: "lb"},
			{IngredientID: riceID, Quantity: math.NaN(), Unit: "cup"},
		}},
		{ID: 20, Title: "Milk", Items: []model.RecipeItem{{IngredientID: milkID, Quantity: 1, Unit: "cup"}}},
		{ID: 30, Title: "Broken combo", IsCombo: true, Components: []model.ComboComponent{{RecipeID: 20, Multiplier: math.Inf(1)}}},
	}
	meals := []model.ScheduledMeal{{RecipeID: 10}, {RecipeID: 30}}
	pantry := []model.PantryItem{
		{IngredientID: chickenID, Quantity: math.Inf(1), Unit: "lb"},
		{IngredientID: 7, Quantity: math.Inf(-1)},
	}

	var items []model.GroceryItem
	require.NotPanics(t, func() {
		items = grocery.GenerateGroceryItems(meals, recipes, pantry, lookup)
	})
	require.Len(t, items, 1)
	assert.Equal(t, chickenID, items[0].IngredientID)
	assert.Equal(t, 1.0, items[0].AdjustedQuantity)
	assert.Equal(t, 0.0, items[0].PantryQuantity)
}
