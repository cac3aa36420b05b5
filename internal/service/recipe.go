package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/chasemp/mealplanner/internal/model"
)

type RecipeInput struct {
	Title    string
	Servings int
	Notes    string
	Combo    bool
}

func validateRecipeInput(in RecipeInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("recipe title is required")
	}
	if in.Servings < 0 {
		return fmt.Errorf("servings must be > 0")
	}
	return nil
}

func CreateRecipe(db *sql.DB, in RecipeInput) (int64, error) {
	return createRecipe(db, in)
}

func createRecipe(q querier, in RecipeInput) (int64, error) {
	if err := validateRecipeInput(in); err != nil {
		return 0, err
	}
	if in.Servings == 0 {
		in.Servings = model.DefaultServings
	}
	title := strings.TrimSpace(in.Title)
	res, err := q.Exec(`
INSERT INTO recipes(title, title_norm, servings, is_combo, notes)
VALUES(?, ?, ?, ?, ?)
`, title, normalizeName(title), in.Servings, boolToInt(in.Combo), strings.TrimSpace(in.Notes))
	if err != nil {
		return 0, fmt.Errorf("create recipe %q: %w", title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve recipe id: %w", err)
	}
	return id, nil
}

const recipeSelect = `
SELECT id, title, servings, is_combo, IFNULL(notes,''), created_at, updated_at
FROM recipes
`

func scanRecipe(scan func(dest ...any) error) (model.Recipe, error) {
	var r model.Recipe
	var combo int
	if err := scan(&r.ID, &r.Title, &r.Servings, &combo, &r.Notes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return model.Recipe{}, err
	}
	r.IsCombo = combo == 1
	return r, nil
}

// ListRecipes returns recipe headers ordered by title. Use LoadRecipes for
// the full snapshot with items and components.
func ListRecipes(db *sql.DB) ([]model.Recipe, error) {
	rows, err := db.Query(recipeSelect + `ORDER BY title_norm`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	items := make([]model.Recipe, 0)
	for rows.Next() {
		r, err := scanRecipe(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	return items, nil
}

func ResolveRecipe(db *sql.DB, idOrTitle string) (*model.Recipe, error) {
	return resolveRecipe(db, idOrTitle)
}

func resolveRecipe(q querier, idOrTitle string) (*model.Recipe, error) {
	idOrTitle = strings.TrimSpace(idOrTitle)
	if idOrTitle == "" {
		return nil, fmt.Errorf("recipe identifier is required")
	}
	var row *sql.Row
	if id, err := parseIDLoose(idOrTitle); err == nil {
		row = q.QueryRow(recipeSelect+`WHERE id = ?`, id)
	} else {
		row = q.QueryRow(recipeSelect+`WHERE title_norm = ?`, normalizeName(idOrTitle))
	}
	r, err := scanRecipe(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("recipe %q not found", idOrTitle)
		}
		return nil, fmt.Errorf("resolve recipe %q: %w", idOrTitle, err)
	}
	return &r, nil
}

// UpdateRecipe changes title, servings and notes. A recipe cannot switch
// between regular and combo once created.
func UpdateRecipe(db *sql.DB, idOrTitle string, in RecipeInput) error {
	current, err := ResolveRecipe(db, idOrTitle)
	if err != nil {
		return err
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = current.Title
	}
	if in.Servings == 0 {
		in.Servings = current.Servings
	}
	if err := validateRecipeInput(in); err != nil {
		return err
	}
	title := strings.TrimSpace(in.Title)
	_, err = db.Exec(`
UPDATE recipes SET title = ?, title_norm = ?, servings = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, title, normalizeName(title), in.Servings, strings.TrimSpace(in.Notes), current.ID)
	if err != nil {
		return fmt.Errorf("update recipe %q: %w", idOrTitle, err)
	}
	return nil
}

func DeleteRecipe(db *sql.DB, idOrTitle string) error {
	recipe, err := ResolveRecipe(db, idOrTitle)
	if err != nil {
		return err
	}
	var scheduled, combos int
	if err := db.QueryRow(`SELECT COUNT(1) FROM scheduled_meals WHERE recipe_id = ?`, recipe.ID).Scan(&scheduled); err != nil {
		return fmt.Errorf("count scheduled meals: %w", err)
	}
	if err := db.QueryRow(`SELECT COUNT(1) FROM recipe_components WHERE recipe_id = ?`, recipe.ID).Scan(&combos); err != nil {
		return fmt.Errorf("count combo references: %w", err)
	}
	if scheduled > 0 || combos > 0 {
		return fmt.Errorf("recipe %q is scheduled %d times and used by %d combos", recipe.Title, scheduled, combos)
	}
	if _, err := db.Exec(`DELETE FROM recipes WHERE id = ?`, recipe.ID); err != nil {
		return fmt.Errorf("delete recipe %q: %w", idOrTitle, err)
	}
	return nil
}

// LoadRecipes returns every recipe with its items and combo components,
// ordered by id.
func LoadRecipes(db *sql.DB) ([]model.Recipe, error) {
	rows, err := db.Query(recipeSelect + `ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	recipes := make([]model.Recipe, 0)
	index := make(map[int64]int)
	for rows.Next() {
		r, err := scanRecipe(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		index[r.ID] = len(recipes)
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	rows.Close()

	itemRows, err := db.Query(`
SELECT id, recipe_id, ingredient_id, quantity, unit
FROM recipe_items
ORDER BY recipe_id, position, id
`)
	if err != nil {
		return nil, fmt.Errorf("load recipe items: %w", err)
	}
	for itemRows.Next() {
		var it model.RecipeItem
		var recipeID int64
		if err := itemRows.Scan(&it.ID, &recipeID, &it.IngredientID, &it.Quantity, &it.Unit); err != nil {
			itemRows.Close()
			return nil, fmt.Errorf("scan recipe item: %w", err)
		}
		if i, ok := index[recipeID]; ok {
			recipes[i].Items = append(recipes[i].Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		itemRows.Close()
		return nil, fmt.Errorf("iterate recipe items: %w", err)
	}
	itemRows.Close()

	compRows, err := db.Query(`
SELECT id, combo_id, recipe_id, multiplier
FROM recipe_components
ORDER BY combo_id, id
`)
	if err != nil {
		return nil, fmt.Errorf("load combo components: %w", err)
	}
	defer compRows.Close()
	for compRows.Next() {
		var c model.ComboComponent
		var comboID int64
		if err := compRows.Scan(&c.ID, &comboID, &c.RecipeID, &c.Multiplier); err != nil {
			return nil, fmt.Errorf("scan combo component: %w", err)
		}
		if i, ok := index[comboID]; ok {
			recipes[i].Components = append(recipes[i].Components, c)
		}
	}
	if err := compRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate combo components: %w", err)
	}
	return recipes, nil
}

// LoadRecipesByIdentifiers resolves ids or titles and returns the full
// recipes in the order given. The order is the rotation order used by plan
// generation.
func LoadRecipesByIdentifiers(db *sql.DB, identifiers []string) ([]model.Recipe, error) {
	all, err := LoadRecipes(db)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Recipe, len(all))
	for _, r := range all {
		byID[r.ID] = r
	}
	out := make([]model.Recipe, 0, len(identifiers))
	for _, ident := range identifiers {
		head, err := ResolveRecipe(db, ident)
		if err != nil {
			return nil, err
		}
		out = append(out, byID[head.ID])
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
