package service

import (
	"database/sql"
	"fmt"

	"github.com/chasemp/mealplanner/internal/model"
)

// PantryRow is a pantry item joined with its ingredient for display.
type PantryRow struct {
	model.PantryItem
	Name     string `json:"name"`
	Category string `json:"category"`
}

// SetPantryItem records the on-hand quantity of an ingredient, replacing any
// previous value. An empty unit falls back to the ingredient's default unit.
func SetPantryItem(db *sql.DB, ingredient string, quantity float64, unit string) error {
	return setPantryItem(db, ingredient, quantity, unit)
}

func setPantryItem(q querier, ingredient string, quantity float64, unit string) error {
	if err := validateNonNegativeFloat("quantity", quantity); err != nil {
		return err
	}
	ing, err := resolveIngredient(q, ingredient)
	if err != nil {
		return err
	}
	u := NormalizeUnit(unit)
	if u == "" {
		u = ing.DefaultUnit
	}
	if _, err := q.Exec(`
INSERT INTO pantry_items(ingredient_id, quantity, unit) VALUES(?, ?, ?)
ON CONFLICT(ingredient_id) DO UPDATE SET quantity = excluded.quantity, unit = excluded.unit, updated_at = CURRENT_TIMESTAMP
`, ing.ID, quantity, u); err != nil {
		return fmt.Errorf("set pantry item %q: %w", ing.Name, err)
	}
	return nil
}

// AdjustPantryItem adds delta to the stored quantity, clamping at zero, and
// returns the new quantity. A missing row is created from zero. The update is
// a single statement so concurrent adjustments never lose each other.
func AdjustPantryItem(db *sql.DB, ingredient string, delta float64) (float64, error) {
	if err := validateFiniteFloat("delta", delta); err != nil {
		return 0, err
	}
	ing, err := ResolveIngredient(db, ingredient)
	if err != nil {
		return 0, err
	}
	var next float64
	if err := db.QueryRow(`
INSERT INTO pantry_items(ingredient_id, quantity, unit) VALUES(?, MAX(0, ?), ?)
ON CONFLICT(ingredient_id) DO UPDATE SET
  quantity = MAX(0, pantry_items.quantity + ?),
  updated_at = CURRENT_TIMESTAMP
RETURNING quantity
`, ing.ID, delta, ing.DefaultUnit, delta).Scan(&next); err != nil {
		return 0, fmt.Errorf("adjust pantry item %q: %w", ing.Name, err)
	}
	return next, nil
}

func ListPantry(db *sql.DB) ([]PantryRow, error) {
	rows, err := db.Query(`
SELECT p.ingredient_id, p.quantity, p.unit, p.updated_at, i.name, c.name
FROM pantry_items p
JOIN ingredients i ON i.id = p.ingredient_id
JOIN categories c ON c.id = i.category_id
ORDER BY c.name, i.name_norm
`)
	if err != nil {
		return nil, fmt.Errorf("list pantry: %w", err)
	}
	defer rows.Close()
	out := make([]PantryRow, 0)
	for rows.Next() {
		var r PantryRow
		if err := rows.Scan(&r.IngredientID, &r.Quantity, &r.Unit, &r.UpdatedAt, &r.Name, &r.Category); err != nil {
			return nil, fmt.Errorf("scan pantry row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pantry: %w", err)
	}
	return out, nil
}

func RemovePantryItem(db *sql.DB, ingredient string) error {
	ing, err := ResolveIngredient(db, ingredient)
	if err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM pantry_items WHERE ingredient_id = ?`, ing.ID)
	if err != nil {
		return fmt.Errorf("remove pantry item %q: %w", ing.Name, err)
	}
	return requireAffected(res, fmt.Sprintf("pantry item %q", ing.Name))
}

// PantrySnapshot returns raw pantry rows for grocery aggregation.
func PantrySnapshot(db *sql.DB) ([]model.PantryItem, error) {
	rows, err := db.Query(`SELECT ingredient_id, quantity, unit, updated_at FROM pantry_items ORDER BY ingredient_id`)
	if err != nil {
		return nil, fmt.Errorf("load pantry snapshot: %w", err)
	}
	defer rows.Close()
	out := make([]model.PantryItem, 0)
	for rows.Next() {
		var p model.PantryItem
		if err := rows.Scan(&p.IngredientID, &p.Quantity, &p.Unit, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pantry item: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pantry snapshot: %w", err)
	}
	return out, nil
}
