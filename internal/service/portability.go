package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/chasemp/mealplanner/internal/model"
)

const exportFormatVersion = 1

type ExportIngredient struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	DefaultUnit string `json:"default_unit"`
}

type ExportRecipeItem struct {
	Ingredient string  `json:"ingredient"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
}

type ExportComponent struct {
	Recipe     string  `json:"recipe"`
	Multiplier float64 `json:"multiplier"`
}

type ExportRecipe struct {
	Title      string             `json:"title"`
	Servings   int                `json:"servings"`
	Combo      bool               `json:"combo,omitempty"`
	Notes      string             `json:"notes,omitempty"`
	Items      []ExportRecipeItem `json:"items,omitempty"`
	Components []ExportComponent  `json:"components,omitempty"`
}

type ExportMeal struct {
	Recipe   string         `json:"recipe"`
	Date     string         `json:"date"`
	MealType model.MealType `json:"meal_type"`
	Servings int            `json:"servings"`
	Note     string         `json:"note,omitempty"`
	Batch    string         `json:"batch,omitempty"`
}

type ExportPantryItem struct {
	Ingredient string  `json:"ingredient"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
}

// ExportData references rows by name or title so a snapshot can be loaded
// into a database with different ids.
type ExportData struct {
	Version     int                `json:"version"`
	ExportedAt  time.Time          `json:"exported_at"`
	Categories  []string           `json:"categories"`
	Ingredients []ExportIngredient `json:"ingredients"`
	Recipes     []ExportRecipe     `json:"recipes"`
	Meals       []ExportMeal       `json:"meals"`
	Pantry      []ExportPantryItem `json:"pantry"`
	Config      map[string]string  `json:"config,omitempty"`
}

type ImportMode string

const (
	ImportModeFail    ImportMode = "fail"
	ImportModeSkip    ImportMode = "skip"
	ImportModeMerge   ImportMode = "merge"
	ImportModeReplace ImportMode = "replace"
)

func ParseImportMode(value string) (ImportMode, error) {
	switch mode := ImportMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return ImportModeMerge, nil
	case ImportModeFail, ImportModeSkip, ImportModeMerge, ImportModeReplace:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid import mode %q (expected fail, skip, merge or replace)", value)
	}
}

type ImportOptions struct {
	Mode   ImportMode
	DryRun bool
}

type ImportReport struct {
	Inserted  int      `json:"inserted"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Conflicts int      `json:"conflicts"`
	Warnings  []string `json:"warnings,omitempty"`
	DryRun    bool     `json:"dry_run,omitempty"`
}

func (r *ImportReport) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func ExportDataSnapshot(db *sql.DB) (*ExportData, error) {
	out := &ExportData{Version: exportFormatVersion, ExportedAt: time.Now().UTC()}

	categories, err := ListCategories(db)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		out.Categories = append(out.Categories, c.Name)
	}

	ingredients, err := ListIngredients(db)
	if err != nil {
		return nil, err
	}
	ingredientNames := make(map[int64]string, len(ingredients))
	for _, ing := range ingredients {
		ingredientNames[ing.ID] = ing.Name
		out.Ingredients = append(out.Ingredients, ExportIngredient{Name: ing.Name, Category: ing.Category, DefaultUnit: ing.DefaultUnit})
	}

	recipes, err := LoadRecipes(db)
	if err != nil {
		return nil, err
	}
	titles := make(map[int64]string, len(recipes))
	for _, r := range recipes {
		titles[r.ID] = r.Title
	}
	for _, r := range recipes {
		er := ExportRecipe{Title: r.Title, Servings: r.Servings, Combo: r.IsCombo, Notes: r.Notes}
		for _, it := range r.Items {
			er.Items = append(er.Items, ExportRecipeItem{Ingredient: ingredientNames[it.IngredientID], Quantity: it.Quantity, Unit: it.Unit})
		}
		for _, c := range r.Components {
			er.Components = append(er.Components, ExportComponent{Recipe: titles[c.RecipeID], Multiplier: c.Multiplier})
		}
		out.Recipes = append(out.Recipes, er)
	}

	meals, err := ListScheduledMeals(db, MealFilter{})
	if err != nil {
		return nil, err
	}
	for _, m := range meals {
		title, ok := titles[m.RecipeID]
		if !ok {
			continue
		}
		out.Meals = append(out.Meals, ExportMeal{Recipe: title, Date: m.Date, MealType: m.MealType, Servings: m.Servings, Note: m.Note, Batch: m.Batch})
	}

	pantry, err := ListPantry(db)
	if err != nil {
		return nil, err
	}
	for _, p := range pantry {
		out.Pantry = append(out.Pantry, ExportPantryItem{Ingredient: p.Name, Quantity: p.Quantity, Unit: p.Unit})
	}

	cfg, err := ListConfig(db)
	if err != nil {
		return nil, err
	}
	if len(cfg) > 0 {
		out.Config = cfg
	}
	return out, nil
}

func ImportDataSnapshot(db *sql.DB, data *ExportData) (ImportReport, error) {
	return ImportDataSnapshotWithOptions(db, data, ImportOptions{Mode: ImportModeMerge})
}

// ImportDataSnapshotWithOptions loads a snapshot in one transaction. Dry runs
// perform every write and roll back so the report matches a real import.
func ImportDataSnapshotWithOptions(db *sql.DB, data *ExportData, opts ImportOptions) (ImportReport, error) {
	report := ImportReport{DryRun: opts.DryRun}
	if data == nil {
		return report, fmt.Errorf("import data is required")
	}
	mode, err := ParseImportMode(string(opts.Mode))
	if err != nil {
		return report, err
	}

	tx, err := db.Begin()
	if err != nil {
		return report, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if mode == ImportModeReplace {
		if err := clearUserData(tx); err != nil {
			return report, err
		}
	}

	imp := importer{tx: tx, mode: mode, report: &report}
	steps := []func(*ExportData) error{
		imp.categories,
		imp.ingredients,
		imp.recipes,
		imp.meals,
		imp.pantry,
		imp.config,
	}
	for _, step := range steps {
		if err := step(data); err != nil {
			return report, err
		}
	}

	if opts.DryRun {
		return report, nil
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("commit import tx: %w", err)
	}
	return report, nil
}

type importer struct {
	tx     *sql.Tx
	mode   ImportMode
	report *ImportReport
}

// conflict applies the import mode to an existing row. It returns true when
// the caller should overwrite the row.
func (im importer) conflict(kind, name string) (bool, error) {
	im.report.Conflicts++
	switch im.mode {
	case ImportModeFail:
		return false, fmt.Errorf("import conflict: %s %q already exists", kind, name)
	case ImportModeSkip:
		im.report.Skipped++
		return false, nil
	default:
		return true, nil
	}
}

func (im importer) categories(data *ExportData) error {
	for _, c := range data.Categories {
		name := normalizeName(c)
		if name == "" {
			continue
		}
		res, err := im.tx.Exec(`INSERT OR IGNORE INTO categories(name, is_default) VALUES(?, 0)`, name)
		if err != nil {
			return fmt.Errorf("import category %q: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			im.report.Inserted++
		}
	}
	return nil
}

func (im importer) ensureCategory(name string) (string, error) {
	name = normalizeName(name)
	if name == "" {
		return model.OtherCategory, nil
	}
	if _, err := im.tx.Exec(`INSERT OR IGNORE INTO categories(name, is_default) VALUES(?, 0)`, name); err != nil {
		return "", fmt.Errorf("ensure category %q: %w", name, err)
	}
	return name, nil
}

func (im importer) ingredients(data *ExportData) error {
	for _, ing := range data.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			im.report.warnf("skipped ingredient without a name")
			continue
		}
		category, err := im.ensureCategory(ing.Category)
		if err != nil {
			return err
		}
		in := IngredientInput{Name: ing.Name, Category: category, DefaultUnit: ing.DefaultUnit}
		existing, err := resolveIngredientByName(im.tx, ing.Name)
		if err != nil {
			return err
		}
		if existing == 0 {
			if _, err := createIngredient(im.tx, in); err != nil {
				return fmt.Errorf("import ingredient %q: %w", ing.Name, err)
			}
			im.report.Inserted++
			continue
		}
		overwrite, err := im.conflict("ingredient", ing.Name)
		if err != nil {
			return err
		}
		if !overwrite {
			continue
		}
		if err := validateIngredientInput(in); err != nil {
			return fmt.Errorf("import ingredient %q: %w", ing.Name, err)
		}
		categoryID, err := categoryIDByName(im.tx, category)
		if err != nil {
			return err
		}
		if _, err := im.tx.Exec(`UPDATE ingredients SET category_id = ?, default_unit = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			categoryID, NormalizeUnit(ing.DefaultUnit), existing); err != nil {
			return fmt.Errorf("update ingredient %q: %w", ing.Name, err)
		}
		im.report.Updated++
	}
	return nil
}

// recipes imports regular recipes before combos so components can resolve.
func (im importer) recipes(data *ExportData) error {
	for _, combos := range []bool{false, true} {
		for _, r := range data.Recipes {
			if r.Combo != combos {
				continue
			}
			if err := im.recipe(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (im importer) recipe(r ExportRecipe) error {
	if strings.TrimSpace(r.Title) == "" {
		im.report.warnf("skipped recipe without a title")
		return nil
	}
	existing, err := findRecipeByTitle(im.tx, r.Title)
	if err != nil {
		return err
	}
	if existing != nil {
		overwrite, err := im.conflict("recipe", r.Title)
		if err != nil || !overwrite {
			return err
		}
		if existing.IsCombo != r.Combo {
			im.report.warnf("recipe %q kept its type; combo flag differs in import", r.Title)
		}
		servings := r.Servings
		if servings <= 0 {
			servings = existing.Servings
		}
		if _, err := im.tx.Exec(`UPDATE recipes SET servings = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, servings, strings.TrimSpace(r.Notes), existing.ID); err != nil {
			return fmt.Errorf("update recipe %q: %w", r.Title, err)
		}
		if _, err := im.tx.Exec(`DELETE FROM recipe_items WHERE recipe_id = ?`, existing.ID); err != nil {
			return fmt.Errorf("clear recipe items %q: %w", r.Title, err)
		}
		if _, err := im.tx.Exec(`DELETE FROM recipe_components WHERE combo_id = ?`, existing.ID); err != nil {
			return fmt.Errorf("clear combo components %q: %w", r.Title, err)
		}
		im.report.Updated++
	} else {
		if _, err := createRecipe(im.tx, RecipeInput{Title: r.Title, Servings: r.Servings, Notes: r.Notes, Combo: r.Combo}); err != nil {
			return fmt.Errorf("import recipe %q: %w", r.Title, err)
		}
		im.report.Inserted++
	}

	for _, it := range r.Items {
		if _, err := addRecipeItem(im.tx, r.Title, RecipeItemInput{Ingredient: it.Ingredient, Quantity: it.Quantity, Unit: it.Unit}); err != nil {
			im.report.warnf("recipe %q: skipped item %q: %v", r.Title, it.Ingredient, err)
		}
	}
	for _, c := range r.Components {
		if _, err := addComboComponent(im.tx, r.Title, c.Recipe, c.Multiplier); err != nil {
			im.report.warnf("combo %q: skipped component %q: %v", r.Title, c.Recipe, err)
		}
	}
	return nil
}

func (im importer) meals(data *ExportData) error {
	for _, m := range data.Meals {
		recipe, err := findRecipeByTitle(im.tx, m.Recipe)
		if err != nil {
			return err
		}
		if recipe == nil {
			im.report.warnf("skipped meal on %s: recipe %q not found", m.Date, m.Recipe)
			continue
		}
		if !m.MealType.Valid() {
			im.report.warnf("skipped meal on %s: invalid meal type %q", m.Date, m.MealType)
			continue
		}
		servings := m.Servings
		if servings <= 0 {
			servings = recipe.Servings
		}
		var existing int64
		err = im.tx.QueryRow(`SELECT id FROM scheduled_meals WHERE recipe_id = ? AND meal_date = ? AND meal_type = ?`,
			recipe.ID, m.Date, string(m.MealType)).Scan(&existing)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("find scheduled meal: %w", err)
		}
		if err == nil {
			overwrite, err := im.conflict("meal", m.Date+" "+recipe.Title)
			if err != nil {
				return err
			}
			if !overwrite {
				continue
			}
			if _, err := im.tx.Exec(`UPDATE scheduled_meals SET servings = ?, note = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, servings, m.Note, existing); err != nil {
				return fmt.Errorf("update scheduled meal %d: %w", existing, err)
			}
			im.report.Updated++
			continue
		}
		if _, err := im.tx.Exec(`
INSERT INTO scheduled_meals(recipe_id, meal_type, meal_date, servings, note, batch)
VALUES(?, ?, ?, ?, ?, ?)
`, recipe.ID, string(m.MealType), m.Date, servings, m.Note, m.Batch); err != nil {
			return fmt.Errorf("import meal on %s: %w", m.Date, err)
		}
		im.report.Inserted++
	}
	return nil
}

func (im importer) pantry(data *ExportData) error {
	for _, p := range data.Pantry {
		ing, err := resolveIngredient(im.tx, p.Ingredient)
		if err != nil {
			im.report.warnf("skipped pantry item: %v", err)
			continue
		}
		var exists int
		err = im.tx.QueryRow(`SELECT 1 FROM pantry_items WHERE ingredient_id = ?`, ing.ID).Scan(&exists)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("find pantry item: %w", err)
		}
		if err == nil {
			overwrite, err := im.conflict("pantry item", ing.Name)
			if err != nil {
				return err
			}
			if !overwrite {
				continue
			}
			im.report.Updated++
		} else {
			im.report.Inserted++
		}
		if err := setPantryItem(im.tx, ing.Name, p.Quantity, p.Unit); err != nil {
			return fmt.Errorf("import pantry item %q: %w", ing.Name, err)
		}
	}
	return nil
}

func (im importer) config(data *ExportData) error {
	for key, value := range data.Config {
		key = strings.ToLower(strings.TrimSpace(key))
		if err := validateConfigValue(key, value); err != nil {
			im.report.warnf("skipped config %s: %v", key, err)
			continue
		}
		if _, err := im.tx.Exec(`
INSERT INTO app_config(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("import config %s: %w", key, err)
		}
	}
	return nil
}

func resolveIngredientByName(q querier, name string) (int64, error) {
	var id int64
	err := q.QueryRow(`SELECT id FROM ingredients WHERE name_norm = ?`, normalizeName(name)).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find ingredient %q: %w", name, err)
	}
	return id, nil
}

func findRecipeByTitle(q querier, title string) (*model.Recipe, error) {
	r, err := scanRecipe(q.QueryRow(recipeSelect+`WHERE title_norm = ?`, normalizeName(title)).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find recipe %q: %w", title, err)
	}
	return &r, nil
}

func clearUserData(tx *sql.Tx) error {
	stmts := []string{
		`DELETE FROM scheduled_meals`,
		`DELETE FROM pantry_items`,
		`DELETE FROM recipe_components`,
		`DELETE FROM recipe_items`,
		`DELETE FROM recipes`,
		`DELETE FROM ingredients`,
		`DELETE FROM categories WHERE is_default = 0`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("clear user data: %w", err)
		}
	}
	return nil
}
