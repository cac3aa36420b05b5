package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/chasemp/mealplanner/internal/grocery"
	"github.com/chasemp/mealplanner/internal/model"
)

type IngredientInput struct {
	Name        string
	Category    string
	DefaultUnit string
}

func validateIngredientInput(in IngredientInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("ingredient name is required")
	}
	if NormalizeUnit(in.DefaultUnit) == "" {
		return fmt.Errorf("default unit is required")
	}
	return nil
}

func CreateIngredient(db *sql.DB, in IngredientInput) (int64, error) {
	return createIngredient(db, in)
}

func createIngredient(q querier, in IngredientInput) (int64, error) {
	if strings.TrimSpace(in.Category) == "" {
		in.Category = model.OtherCategory
	}
	if err := validateIngredientInput(in); err != nil {
		return 0, err
	}
	categoryID, err := categoryIDByName(q, in.Category)
	if err != nil {
		return 0, err
	}
	name := strings.TrimSpace(in.Name)
	res, err := q.Exec(`
INSERT INTO ingredients(name, name_norm, category_id, default_unit)
VALUES(?, ?, ?, ?)
`, name, normalizeName(name), categoryID, NormalizeUnit(in.DefaultUnit))
	if err != nil {
		return 0, fmt.Errorf("create ingredient %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve ingredient id: %w", err)
	}
	return id, nil
}

const ingredientSelect = `
SELECT i.id, i.name, c.name, i.default_unit
FROM ingredients i
JOIN categories c ON c.id = i.category_id
`

func ListIngredients(db *sql.DB) ([]model.Ingredient, error) {
	rows, err := db.Query(ingredientSelect + `ORDER BY i.name_norm`)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	defer rows.Close()

	items := make([]model.Ingredient, 0)
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Category, &ing.DefaultUnit); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		items = append(items, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingredients: %w", err)
	}
	return items, nil
}

// ResolveIngredient accepts a numeric id or a case-insensitive name.
func ResolveIngredient(db *sql.DB, idOrName string) (*model.Ingredient, error) {
	return resolveIngredient(db, idOrName)
}

func resolveIngredient(q querier, idOrName string) (*model.Ingredient, error) {
	idOrName = strings.TrimSpace(idOrName)
	if idOrName == "" {
		return nil, fmt.Errorf("ingredient identifier is required")
	}
	var row *sql.Row
	if id, err := parseIDLoose(idOrName); err == nil {
		row = q.QueryRow(ingredientSelect+`WHERE i.id = ?`, id)
	} else {
		row = q.QueryRow(ingredientSelect+`WHERE i.name_norm = ?`, normalizeName(idOrName))
	}
	var ing model.Ingredient
	if err := row.Scan(&ing.ID, &ing.Name, &ing.Category, &ing.DefaultUnit); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("ingredient %q not found", idOrName)
		}
		return nil, fmt.Errorf("resolve ingredient %q: %w", idOrName, err)
	}
	return &ing, nil
}

// UpdateIngredient replaces name, category and default unit. Empty fields in
// the input keep their current value.
func UpdateIngredient(db *sql.DB, idOrName string, in IngredientInput) error {
	current, err := ResolveIngredient(db, idOrName)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = current.Name
	}
	if strings.TrimSpace(in.Category) == "" {
		in.Category = current.Category
	}
	if strings.TrimSpace(in.DefaultUnit) == "" {
		in.DefaultUnit = current.DefaultUnit
	}
	if err := validateIngredientInput(in); err != nil {
		return err
	}
	categoryID, err := categoryIDByName(db, in.Category)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(in.Name)
	_, err = db.Exec(`
UPDATE ingredients SET name = ?, name_norm = ?, category_id = ?, default_unit = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, name, normalizeName(name), categoryID, NormalizeUnit(in.DefaultUnit), current.ID)
	if err != nil {
		return fmt.Errorf("update ingredient %q: %w", idOrName, err)
	}
	return nil
}

func DeleteIngredient(db *sql.DB, idOrName string) error {
	ing, err := ResolveIngredient(db, idOrName)
	if err != nil {
		return err
	}
	var recipeRefs, pantryRefs int
	if err := db.QueryRow(`SELECT COUNT(1) FROM recipe_items WHERE ingredient_id = ?`, ing.ID).Scan(&recipeRefs); err != nil {
		return fmt.Errorf("count recipe references: %w", err)
	}
	if err := db.QueryRow(`SELECT COUNT(1) FROM pantry_items WHERE ingredient_id = ?`, ing.ID).Scan(&pantryRefs); err != nil {
		return fmt.Errorf("count pantry references: %w", err)
	}
	if recipeRefs > 0 || pantryRefs > 0 {
		return fmt.Errorf("ingredient %q is used by %d recipe items and %d pantry rows", ing.Name, recipeRefs, pantryRefs)
	}
	if _, err := db.Exec(`DELETE FROM ingredients WHERE id = ?`, ing.ID); err != nil {
		return fmt.Errorf("delete ingredient %q: %w", idOrName, err)
	}
	return nil
}

// IngredientLookup returns every ingredient keyed by id, the shape the
// grocery aggregator reads names and categories from.
func IngredientLookup(db *sql.DB) (grocery.IngredientLookup, error) {
	items, err := ListIngredients(db)
	if err != nil {
		return nil, err
	}
	lookup := make(grocery.IngredientLookup, len(items))
	for _, ing := range items {
		lookup[ing.ID] = ing
	}
	return lookup, nil
}
