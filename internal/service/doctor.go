package service

import (
	"database/sql"
	"fmt"
	"sort"
)

// DoctorReport lists integrity problems. Orphan counts are fixable with
// RunDoctor(db, true); empty recipes and mixed units are warnings.
type DoctorReport struct {
	UnresolvedRecipeRefs     int      `json:"unresolved_recipe_refs"`
	UnresolvedIngredientRefs int      `json:"unresolved_ingredient_refs"`
	BadComboComponents       int      `json:"bad_combo_components"`
	OrphanPantryRows         int      `json:"orphan_pantry_rows"`
	EmptyRecipes             []string `json:"empty_recipes,omitempty"`
	MixedUnitIngredients     []string `json:"mixed_unit_ingredients,omitempty"`
	FixedRows                int      `json:"fixed_rows,omitempty"`
}

// Issues counts the problems still present after any fix.
func (r DoctorReport) Issues() int {
	return r.UnresolvedRecipeRefs + r.UnresolvedIngredientRefs + r.BadComboComponents + r.OrphanPantryRows
}

func (r DoctorReport) Warnings() int {
	return len(r.EmptyRecipes) + len(r.MixedUnitIngredients)
}

type doctorCheck struct {
	name   string
	count  string
	fix    string
	target *int
}

func RunDoctor(db *sql.DB, fix bool) (DoctorReport, error) {
	report := DoctorReport{}
	checks := []doctorCheck{
		{
			name:   "scheduled meals with missing recipe",
			count:  `SELECT COUNT(1) FROM scheduled_meals m LEFT JOIN recipes r ON r.id = m.recipe_id WHERE r.id IS NULL`,
			fix:    `DELETE FROM scheduled_meals WHERE recipe_id NOT IN (SELECT id FROM recipes)`,
			target: &report.UnresolvedRecipeRefs,
		},
		{
			name:   "recipe items with missing ingredient",
			count:  `SELECT COUNT(1) FROM recipe_items it LEFT JOIN ingredients i ON i.id = it.ingredient_id WHERE i.id IS NULL`,
			fix:    `DELETE FROM recipe_items WHERE ingredient_id NOT IN (SELECT id FROM ingredients)`,
			target: &report.UnresolvedIngredientRefs,
		},
		{
			name: "combo components with missing or combo recipe",
			count: `
SELECT COUNT(1) FROM recipe_components c
LEFT JOIN recipes r ON r.id = c.recipe_id
LEFT JOIN recipes combo ON combo.id = c.combo_id
WHERE r.id IS NULL OR r.is_combo = 1 OR combo.id IS NULL OR combo.is_combo = 0`,
			fix: `
DELETE FROM recipe_components WHERE id IN (
  SELECT c.id FROM recipe_components c
  LEFT JOIN recipes r ON r.id = c.recipe_id
  LEFT JOIN recipes combo ON combo.id = c.combo_id
  WHERE r.id IS NULL OR r.is_combo = 1 OR combo.id IS NULL OR combo.is_combo = 0
)`,
			target: &report.BadComboComponents,
		},
		{
			name:   "pantry rows with missing ingredient",
			count:  `SELECT COUNT(1) FROM pantry_items p LEFT JOIN ingredients i ON i.id = p.ingredient_id WHERE i.id IS NULL`,
			fix:    `DELETE FROM pantry_items WHERE ingredient_id NOT IN (SELECT id FROM ingredients)`,
			target: &report.OrphanPantryRows,
		},
	}

	for _, c := range checks {
		if err := db.QueryRow(c.count).Scan(c.target); err != nil {
			return report, fmt.Errorf("doctor %s: %w", c.name, err)
		}
	}

	if fix && report.Issues() > 0 {
		tx, err := db.Begin()
		if err != nil {
			return report, fmt.Errorf("doctor fix begin tx: %w", err)
		}
		for _, c := range checks {
			if *c.target == 0 {
				continue
			}
			res, err := tx.Exec(c.fix)
			if err != nil {
				_ = tx.Rollback()
				return report, fmt.Errorf("doctor fix %s: %w", c.name, err)
			}
			n, _ := res.RowsAffected()
			report.FixedRows += int(n)
			*c.target = 0
		}
		if err := tx.Commit(); err != nil {
			return report, fmt.Errorf("doctor fix commit: %w", err)
		}
	}

	empty, err := emptyRecipes(db)
	if err != nil {
		return report, err
	}
	report.EmptyRecipes = empty

	mixed, err := mixedUnitIngredients(db)
	if err != nil {
		return report, err
	}
	report.MixedUnitIngredients = mixed
	return report, nil
}

func emptyRecipes(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
SELECT r.title FROM recipes r
WHERE r.is_combo = 0 AND NOT EXISTS (SELECT 1 FROM recipe_items it WHERE it.recipe_id = r.id)
UNION ALL
SELECT r.title FROM recipes r
WHERE r.is_combo = 1 AND NOT EXISTS (SELECT 1 FROM recipe_components c WHERE c.combo_id = r.id)
ORDER BY 1
`)
	if err != nil {
		return nil, fmt.Errorf("doctor empty recipes: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("doctor empty recipes scan: %w", err)
		}
		out = append(out, title)
	}
	return out, rows.Err()
}

// mixedUnitIngredients finds ingredients measured in both mass and volume
// across recipes. The grocery list keeps such lines apart.
func mixedUnitIngredients(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
SELECT DISTINCT i.name, it.unit
FROM recipe_items it JOIN ingredients i ON i.id = it.ingredient_id
`)
	if err != nil {
		return nil, fmt.Errorf("doctor unit query: %w", err)
	}
	defer rows.Close()
	kinds := make(map[string]map[UnitKind]bool)
	for rows.Next() {
		var name, unit string
		if err := rows.Scan(&name, &unit); err != nil {
			return nil, fmt.Errorf("doctor unit scan: %w", err)
		}
		if kinds[name] == nil {
			kinds[name] = make(map[UnitKind]bool)
		}
		kinds[name][KindOfUnit(unit)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctor unit iterate: %w", err)
	}
	var out []string
	for name, k := range kinds {
		if k[UnitKindMass] && k[UnitKindVolume] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}
