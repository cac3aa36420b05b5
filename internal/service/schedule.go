package service

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chasemp/mealplanner/internal/logging"
	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/planner"
)

type ScheduleMealInput struct {
	Recipe   string
	Date     string
	MealType model.MealType
	Servings int
	Note     string
}

type MealFilter struct {
	From     string
	To       string
	MealType model.MealType
	Batch    string
}

type GeneratePlanInput struct {
	// Recipes lists ids or titles in rotation order. Empty means every
	// recipe ordered by id.
	Recipes      []string
	StartDate    time.Time
	Weeks        int
	MealsPerWeek int
	SpacingDays  int
	MealType     model.MealType
	Logger       *zap.Logger
}

type GeneratePlanResult struct {
	Batch string                `json:"batch"`
	Meals []model.ScheduledMeal `json:"meals"`
}

type PlanBatch struct {
	Batch     string    `json:"batch"`
	Meals     int       `json:"meals"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	CreatedAt time.Time `json:"created_at"`
}

type RecipeCount struct {
	RecipeID int64  `json:"recipe_id"`
	Title    string `json:"title"`
	Count    int    `json:"count"`
}

type WeekCount struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

type PlanSummaryReport struct {
	From     string        `json:"from"`
	To       string        `json:"to"`
	Total    int           `json:"total"`
	ByRecipe []RecipeCount `json:"by_recipe"`
	ByWeek   []WeekCount   `json:"by_week"`
}

const mealOrder = `
ORDER BY meal_date,
  CASE meal_type WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 WHEN 'dinner' THEN 2 ELSE 3 END,
  id
`

func ScheduleMeal(db *sql.DB, in ScheduleMealInput) (int64, error) {
	date, err := planner.ParseDate(in.Date)
	if err != nil {
		return 0, err
	}
	if !in.MealType.Valid() {
		return 0, fmt.Errorf("invalid meal type %q", in.MealType)
	}
	if in.Servings < 0 {
		return 0, fmt.Errorf("servings must be > 0")
	}
	recipe, err := ResolveRecipe(db, in.Recipe)
	if err != nil {
		return 0, err
	}
	servings := in.Servings
	if servings == 0 {
		servings = recipe.Servings
	}
	res, err := db.Exec(`
INSERT INTO scheduled_meals(recipe_id, meal_type, meal_date, servings, note)
VALUES(?, ?, ?, ?, ?)
`, recipe.ID, string(in.MealType), date.Format(model.DateLayout), servings, strings.TrimSpace(in.Note))
	if err != nil {
		return 0, fmt.Errorf("schedule meal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve scheduled meal id: %w", err)
	}
	return id, nil
}

// ListScheduledMeals returns meals ordered by date, then breakfast through
// snack, then id. From and To are inclusive YYYY-MM-DD bounds.
func ListScheduledMeals(db *sql.DB, filter MealFilter) ([]model.ScheduledMeal, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)
	if filter.From != "" {
		from, err := planner.ParseDate(filter.From)
		if err != nil {
			return nil, err
		}
		where = append(where, "meal_date >= ?")
		args = append(args, from.Format(model.DateLayout))
	}
	if filter.To != "" {
		to, err := planner.ParseDate(filter.To)
		if err != nil {
			return nil, err
		}
		where = append(where, "meal_date <= ?")
		args = append(args, to.Format(model.DateLayout))
	}
	if filter.MealType != "" {
		if !filter.MealType.Valid() {
			return nil, fmt.Errorf("invalid meal type %q", filter.MealType)
		}
		where = append(where, "meal_type = ?")
		args = append(args, string(filter.MealType))
	}
	if filter.Batch != "" {
		where = append(where, "batch = ?")
		args = append(args, filter.Batch)
	}

	query := `SELECT id, recipe_id, meal_type, meal_date, servings, note, batch FROM scheduled_meals`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := db.Query(query+mealOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("list scheduled meals: %w", err)
	}
	defer rows.Close()

	meals := make([]model.ScheduledMeal, 0)
	for rows.Next() {
		var m model.ScheduledMeal
		var mealType string
		if err := rows.Scan(&m.ID, &m.RecipeID, &mealType, &m.Date, &m.Servings, &m.Note, &m.Batch); err != nil {
			return nil, fmt.Errorf("scan scheduled meal: %w", err)
		}
		m.MealType = model.MealType(mealType)
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled meals: %w", err)
	}
	return meals, nil
}

func DeleteScheduledMeal(db *sql.DB, id int64) error {
	if id <= 0 {
		return fmt.Errorf("meal id must be > 0")
	}
	res, err := db.Exec(`DELETE FROM scheduled_meals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scheduled meal %d: %w", id, err)
	}
	return requireAffected(res, fmt.Sprintf("scheduled meal %d", id))
}

// MoveScheduledMeal reschedules a meal. An empty meal type keeps the current
// one.
func MoveScheduledMeal(db *sql.DB, id int64, date string, mealType model.MealType) error {
	if id <= 0 {
		return fmt.Errorf("meal id must be > 0")
	}
	d, err := planner.ParseDate(date)
	if err != nil {
		return err
	}
	if mealType != "" && !mealType.Valid() {
		return fmt.Errorf("invalid meal type %q", mealType)
	}
	res, err := db.Exec(`
UPDATE scheduled_meals
SET meal_date = ?, meal_type = COALESCE(NULLIF(?, ''), meal_type), updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, d.Format(model.DateLayout), string(mealType), id)
	if err != nil {
		return fmt.Errorf("move scheduled meal %d: %w", id, err)
	}
	return requireAffected(res, fmt.Sprintf("scheduled meal %d", id))
}

// GeneratePlan runs the rotation scheduler over the chosen recipes and stores
// the result as one batch. Either every meal is stored or none is.
func GeneratePlan(db *sql.DB, in GeneratePlanInput) (GeneratePlanResult, error) {
	log := logging.OrNop(in.Logger)

	var recipes []model.Recipe
	var err error
	if len(in.Recipes) == 0 {
		recipes, err = LoadRecipes(db)
	} else {
		recipes, err = LoadRecipesByIdentifiers(db, in.Recipes)
	}
	if err != nil {
		return GeneratePlanResult{}, err
	}

	meals, err := planner.Generate(recipes, planner.Params{
		StartDate:    in.StartDate,
		Weeks:        in.Weeks,
		MealsPerWeek: in.MealsPerWeek,
		SpacingDays:  in.SpacingDays,
		MealType:     in.MealType,
	})
	if err != nil {
		return GeneratePlanResult{}, fmt.Errorf("generate plan: %w", err)
	}

	batch := uuid.NewString()
	tx, err := db.Begin()
	if err != nil {
		return GeneratePlanResult{}, fmt.Errorf("begin plan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range meals {
		meals[i].Batch = batch
		res, err := tx.Exec(`
INSERT INTO scheduled_meals(recipe_id, meal_type, meal_date, servings, note, batch)
VALUES(?, ?, ?, ?, ?, ?)
`, meals[i].RecipeID, string(meals[i].MealType), meals[i].Date, meals[i].Servings, meals[i].Note, batch)
		if err != nil {
			return GeneratePlanResult{}, fmt.Errorf("insert planned meal %s: %w", meals[i].Date, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return GeneratePlanResult{}, fmt.Errorf("resolve planned meal id: %w", err)
		}
		meals[i].ID = id
	}
	if err := tx.Commit(); err != nil {
		return GeneratePlanResult{}, fmt.Errorf("commit plan tx: %w", err)
	}

	requested := in.Weeks * in.MealsPerWeek
	log.Info("plan generated",
		zap.String("batch", batch),
		zap.Int("recipes", len(recipes)),
		zap.Int("meals", len(meals)),
		zap.Int("requested", requested),
	)
	if len(meals) < requested {
		log.Warn("plan underfilled; spacing left some slots empty",
			zap.Int("missing", requested-len(meals)),
			zap.Int("spacing_days", in.SpacingDays),
		)
	}
	return GeneratePlanResult{Batch: batch, Meals: meals}, nil
}

// DeletePlanBatch removes every meal of a generated batch and returns how
// many were deleted.
func DeletePlanBatch(db *sql.DB, batch string) (int64, error) {
	batch = strings.TrimSpace(batch)
	if batch == "" {
		return 0, fmt.Errorf("batch id is required")
	}
	res, err := db.Exec(`DELETE FROM scheduled_meals WHERE batch = ?`, batch)
	if err != nil {
		return 0, fmt.Errorf("delete plan batch %s: %w", batch, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("plan batch %s not found", batch)
	}
	return n, nil
}

// ListPlanBatches returns generated batches, newest first.
func ListPlanBatches(db *sql.DB) ([]PlanBatch, error) {
	rows, err := db.Query(`
SELECT batch, COUNT(1), MIN(meal_date), MAX(meal_date), MIN(created_at)
FROM scheduled_meals
WHERE batch != ''
GROUP BY batch
ORDER BY MIN(created_at) DESC, MIN(id) DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list plan batches: %w", err)
	}
	defer rows.Close()
	out := make([]PlanBatch, 0)
	for rows.Next() {
		var b PlanBatch
		var created string
		if err := rows.Scan(&b.Batch, &b.Meals, &b.From, &b.To, &created); err != nil {
			return nil, fmt.Errorf("scan plan batch: %w", err)
		}
		b.CreatedAt = parseSQLiteTime(created)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan batches: %w", err)
	}
	return out, nil
}

// LatestPlanBatch returns the most recently generated batch id, or "" when
// none exists.
func LatestPlanBatch(db *sql.DB) (string, error) {
	batches, err := ListPlanBatches(db)
	if err != nil {
		return "", err
	}
	if len(batches) == 0 {
		return "", nil
	}
	return batches[0].Batch, nil
}

// PlanSummary counts scheduled meals per recipe and per ISO week within the
// inclusive range.
func PlanSummary(db *sql.DB, from, to string) (PlanSummaryReport, error) {
	meals, err := ListScheduledMeals(db, MealFilter{From: from, To: to})
	if err != nil {
		return PlanSummaryReport{}, err
	}
	titles := make(map[int64]string)
	recipes, err := ListRecipes(db)
	if err != nil {
		return PlanSummaryReport{}, err
	}
	for _, r := range recipes {
		titles[r.ID] = r.Title
	}

	report := PlanSummaryReport{From: from, To: to, Total: len(meals)}
	perRecipe := make(map[int64]int)
	perWeek := make(map[string]int)
	for _, m := range meals {
		perRecipe[m.RecipeID]++
		d, err := time.Parse(model.DateLayout, m.Date)
		if err != nil {
			continue
		}
		y, w := d.ISOWeek()
		perWeek[fmt.Sprintf("%04d-W%02d", y, w)]++
	}
	for id, n := range perRecipe {
		title := titles[id]
		if title == "" {
			title = fmt.Sprintf("recipe #%d", id)
		}
		report.ByRecipe = append(report.ByRecipe, RecipeCount{RecipeID: id, Title: title, Count: n})
	}
	sort.Slice(report.ByRecipe, func(i, j int) bool {
		if report.ByRecipe[i].Count != report.ByRecipe[j].Count {
			return report.ByRecipe[i].Count > report.ByRecipe[j].Count
		}
		return report.ByRecipe[i].RecipeID < report.ByRecipe[j].RecipeID
	})
	for week, n := range perWeek {
		report.ByWeek = append(report.ByWeek, WeekCount{Week: week, Count: n})
	}
	sort.Slice(report.ByWeek, func(i, j int) bool { return report.ByWeek[i].Week < report.ByWeek[j].Week })
	return report, nil
}

func parseSQLiteTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
