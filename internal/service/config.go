package service

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/planner"
)

const (
	ConfigPlanWeeks        = "plan.weeks"
	ConfigPlanMealsPerWeek = "plan.meals_per_week"
	ConfigPlanSpacingDays  = "plan.spacing_days"
	ConfigPlanMealType     = "plan.meal_type"
)

// PlannerSettings are the scheduler knobs that can be stored per database.
type PlannerSettings struct {
	Weeks        int            `json:"weeks"`
	MealsPerWeek int            `json:"meals_per_week"`
	SpacingDays  int            `json:"spacing_days"`
	MealType     model.MealType `json:"meal_type"`
}

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	value = strings.TrimSpace(value)
	if err := validateConfigValue(key, value); err != nil {
		return err
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value)
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}

// PlannerDefaults overlays stored plan.* keys on fallback.
func PlannerDefaults(db *sql.DB, fallback PlannerSettings) (PlannerSettings, error) {
	stored, err := ListConfig(db)
	if err != nil {
		return fallback, err
	}
	out := fallback
	ints := map[string]*int{
		ConfigPlanWeeks:        &out.Weeks,
		ConfigPlanMealsPerWeek: &out.MealsPerWeek,
		ConfigPlanSpacingDays:  &out.SpacingDays,
	}
	for key, dst := range ints {
		raw, ok := stored[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fallback, fmt.Errorf("stored %s=%q is not an integer", key, raw)
		}
		*dst = n
	}
	if raw, ok := stored[ConfigPlanMealType]; ok {
		mt, err := model.ParseMealType(raw)
		if err != nil {
			return fallback, fmt.Errorf("stored %s: %w", ConfigPlanMealType, err)
		}
		out.MealType = mt
	}
	return out, nil
}

func validateConfigValue(key, value string) error {
	switch key {
	case ConfigPlanWeeks:
		return validateIntSetting(key, value, 1, planner.MaxWeeks)
	case ConfigPlanMealsPerWeek:
		return validateIntSetting(key, value, 1, 7)
	case ConfigPlanSpacingDays:
		return validateIntSetting(key, value, 0, 365)
	case ConfigPlanMealType:
		_, err := model.ParseMealType(value)
		return err
	}
	return nil
}

func validateIntSetting(key, value string, min, max int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer", key)
	}
	if n < min || n > max {
		return fmt.Errorf("%s must be between %d and %d", key, min, max)
	}
	return nil
}
