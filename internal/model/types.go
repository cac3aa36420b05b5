package model

import (
	"fmt"
	"strings"
	"time"
)

type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

var mealTypeOrder = map[MealType]int{
	MealTypeBreakfast: 0,
	MealTypeLunch:     1,
	MealTypeDinner:    2,
	MealTypeSnack:     3,
}

func ParseMealType(value string) (MealType, error) {
	mt := MealType(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := mealTypeOrder[mt]; !ok {
		return "", fmt.Errorf("invalid meal type %q (expected breakfast, lunch, dinner or snack)", value)
	}
	return mt, nil
}

func (m MealType) Valid() bool {
	_, ok := mealTypeOrder[m]
	return ok
}

// Rank orders meal types within a day.
func (m MealType) Rank() int {
	if r, ok := mealTypeOrder[m]; ok {
		return r
	}
	return len(mealTypeOrder)
}

const (
	DefaultServings = 4
	OtherCategory   = "other"
	DateLayout      = "2006-01-02"
)

// Category is a grocery aisle. Ingredients counts the ingredients filed
// under it.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	IsDefault   bool      `json:"is_default"`
	Ingredients int       `json:"ingredients"`
	CreatedAt   time.Time `json:"created_at"`
}

type Ingredient struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	DefaultUnit string `json:"default_unit"`
}

type RecipeItem struct {
	ID           int64   `json:"id,omitempty"`
	IngredientID int64   `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

type ComboComponent struct {
	ID         int64   `json:"id,omitempty"`
	RecipeID   int64   `json:"recipe_id"`
	Multiplier float64 `json:"multiplier"`
}

type Recipe struct {
	ID         int64            `json:"id"`
	Title      string           `json:"title"`
	Servings   int              `json:"servings"`
	IsCombo    bool             `json:"is_combo"`
	Notes      string           `json:"notes,omitempty"`
	Items      []RecipeItem     `json:"items,omitempty"`
	Components []ComboComponent `json:"components,omitempty"`
	CreatedAt  time.Time        `json:"-"`
	UpdatedAt  time.Time        `json:"-"`
}

type ScheduledMeal struct {
	ID       int64    `json:"id"`
	RecipeID int64    `json:"recipe_id"`
	MealType MealType `json:"meal_type"`
	Date     string   `json:"date"`
	Servings int      `json:"servings"`
	Note     string   `json:"note,omitempty"`
	Batch    string   `json:"batch,omitempty"`
}

type PantryItem struct {
	IngredientID int64     `json:"ingredient_id"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
	UpdatedAt    time.Time `json:"-"`
}

type GroceryItem struct {
	IngredientID     int64   `json:"ingredient_id" yaml:"ingredient_id"`
	Name             string  `json:"name" yaml:"name"`
	QuantityNeeded   float64 `json:"quantity_needed" yaml:"quantity_needed"`
	PantryQuantity   float64 `json:"pantry_quantity" yaml:"pantry_quantity"`
	AdjustedQuantity float64 `json:"adjusted_quantity" yaml:"adjusted_quantity"`
	Unit             string  `json:"unit" yaml:"unit"`
	Category         string  `json:"category" yaml:"category"`
}
