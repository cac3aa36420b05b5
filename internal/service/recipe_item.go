package service

import (
	"database/sql"
	"fmt"

	"github.com/chasemp/mealplanner/internal/model"
)

type RecipeItemInput struct {
	Ingredient string
	Quantity   float64
	Unit       string
}

func validateRecipeItemInput(in RecipeItemInput) error {
	if err := validatePositiveFloat("quantity", in.Quantity); err != nil {
		return err
	}
	return nil
}

// AddRecipeItem appends an ingredient line to a regular recipe. An empty unit
// falls back to the ingredient's default unit.
func AddRecipeItem(db *sql.DB, recipeIdentifier string, in RecipeItemInput) (int64, error) {
	return addRecipeItem(db, recipeIdentifier, in)
}

func addRecipeItem(q querier, recipeIdentifier string, in RecipeItemInput) (int64, error) {
	recipe, err := resolveRecipe(q, recipeIdentifier)
	if err != nil {
		return 0, err
	}
	if recipe.IsCombo {
		return 0, fmt.Errorf("recipe %q is a combo; add component recipes instead of items", recipe.Title)
	}
	if err := validateRecipeItemInput(in); err != nil {
		return 0, err
	}
	ing, err := resolveIngredient(q, in.Ingredient)
	if err != nil {
		return 0, err
	}
	unit := NormalizeUnit(in.Unit)
	if unit == "" {
		unit = ing.DefaultUnit
	}
	var position int
	if err := q.QueryRow(`SELECT COALESCE(MAX(position), 0) + 1 FROM recipe_items WHERE recipe_id = ?`, recipe.ID).Scan(&position); err != nil {
		return 0, fmt.Errorf("next item position: %w", err)
	}
	res, err := q.Exec(`
INSERT INTO recipe_items(recipe_id, ingredient_id, position, quantity, unit)
VALUES(?, ?, ?, ?, ?)
`, recipe.ID, ing.ID, position, in.Quantity, unit)
	if err != nil {
		return 0, fmt.Errorf("add recipe item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve recipe item id: %w", err)
	}
	return id, nil
}

func ListRecipeItems(db *sql.DB, recipeIdentifier string) ([]model.RecipeItem, error) {
	recipe, err := ResolveRecipe(db, recipeIdentifier)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(`
SELECT id, ingredient_id, quantity, unit
FROM recipe_items
WHERE recipe_id = ?
ORDER BY position, id
`, recipe.ID)
	if err != nil {
		return nil, fmt.Errorf("list recipe items: %w", err)
	}
	defer rows.Close()
	items := make([]model.RecipeItem, 0)
	for rows.Next() {
		var it model.RecipeItem
		if err := rows.Scan(&it.ID, &it.IngredientID, &it.Quantity, &it.Unit); err != nil {
			return nil, fmt.Errorf("scan recipe item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe items: %w", err)
	}
	return items, nil
}

// UpdateRecipeItem changes quantity and unit of one item. An empty unit
// keeps the current one.
func UpdateRecipeItem(db *sql.DB, itemID int64, quantity float64, unit string) error {
	if itemID <= 0 {
		return fmt.Errorf("item id must be > 0")
	}
	if err := validatePositiveFloat("quantity", quantity); err != nil {
		return err
	}
	res, err := db.Exec(`
UPDATE recipe_items
SET quantity = ?, unit = COALESCE(NULLIF(?, ''), unit), updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, quantity, NormalizeUnit(unit), itemID)
	if err != nil {
		return fmt.Errorf("update recipe item %d: %w", itemID, err)
	}
	return requireAffected(res, fmt.Sprintf("recipe item %d", itemID))
}

func DeleteRecipeItem(db *sql.DB, itemID int64) error {
	if itemID <= 0 {
		return fmt.Errorf("item id must be > 0")
	}
	res, err := db.Exec(`DELETE FROM recipe_items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("delete recipe item %d: %w", itemID, err)
	}
	return requireAffected(res, fmt.Sprintf("recipe item %d", itemID))
}

// AddComboComponent links a regular recipe into a combo. The multiplier
// scales every item of the component when the combo is aggregated.
func AddComboComponent(db *sql.DB, comboIdentifier, recipeIdentifier string, multiplier float64) (int64, error) {
	return addComboComponent(db, comboIdentifier, recipeIdentifier, multiplier)
}

func addComboComponent(q querier, comboIdentifier, recipeIdentifier string, multiplier float64) (int64, error) {
	if multiplier == 0 {
		multiplier = 1
	}
	if err := validatePositiveFloat("multiplier", multiplier); err != nil {
		return 0, err
	}
	combo, err := resolveRecipe(q, comboIdentifier)
	if err != nil {
		return 0, err
	}
	if !combo.IsCombo {
		return 0, fmt.Errorf("recipe %q is not a combo", combo.Title)
	}
	target, err := resolveRecipe(q, recipeIdentifier)
	if err != nil {
		return 0, err
	}
	if target.IsCombo {
		return 0, fmt.Errorf("recipe %q is a combo; combos cannot be nested", target.Title)
	}
	res, err := q.Exec(`
INSERT INTO recipe_components(combo_id, recipe_id, multiplier)
VALUES(?, ?, ?)
`, combo.ID, target.ID, multiplier)
	if err != nil {
		return 0, fmt.Errorf("add combo component: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve combo component id: %w", err)
	}
	return id, nil
}

func DeleteComboComponent(db *sql.DB, comboIdentifier, recipeIdentifier string) error {
	combo, err := ResolveRecipe(db, comboIdentifier)
	if err != nil {
		return err
	}
	target, err := ResolveRecipe(db, recipeIdentifier)
	if err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM recipe_components WHERE combo_id = ? AND recipe_id = ?`, combo.ID, target.ID)
	if err != nil {
		return fmt.Errorf("delete combo component: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("component %q of combo %q", target.Title, combo.Title))
}
