package service

import (
	"database/sql"
	"fmt"
)

type demoIngredient struct {
	name     string
	category string
	unit     string
}

type demoItem struct {
	ingredient string
	quantity   float64
	unit       string
}

type demoRecipe struct {
	title    string
	servings int
	items    []demoItem
}

var demoIngredients = []demoIngredient{
	{"Spaghetti", "grains", "g"},
	{"Ground beef", "meat", "lb"},
	{"Tomato sauce", "pantry", "cup"},
	{"Onion", "produce", "each"},
	{"Garlic", "produce", "clove"},
	{"Chicken breast", "meat", "lb"},
	{"Rice", "grains", "cup"},
	{"Broccoli", "produce", "cup"},
	{"Soy sauce", "pantry", "tbsp"},
	{"Tortillas", "bakery", "each"},
	{"Black beans", "pantry", "can"},
	{"Cheddar", "dairy", "cup"},
	{"Salmon fillet", "meat", "lb"},
	{"Potatoes", "produce", "lb"},
	{"Butter", "dairy", "tbsp"},
	{"Green salad mix", "produce", "cup"},
}

var demoRecipes = []demoRecipe{
	{"Spaghetti Bolognese", 4, []demoItem{
		{"Spaghetti", 400, "g"},
		{"Ground beef", 1, "lb"},
		{"Tomato sauce", 2, "cup"},
		{"Onion", 1, "each"},
		{"Garlic", 3, "clove"},
	}},
	{"Chicken Stir Fry", 4, []demoItem{
		{"Chicken breast", 1.5, "lb"},
		{"Rice", 2, "cup"},
		{"Broccoli", 3, "cup"},
		{"Soy sauce", 3, "tbsp"},
		{"Garlic", 2, "clove"},
	}},
	{"Bean Tacos", 4, []demoItem{
		{"Tortillas", 8, "each"},
		{"Black beans", 2, "can"},
		{"Cheddar", 1, "cup"},
		{"Onion", 0.5, "each"},
	}},
	{"Roast Salmon", 2, []demoItem{
		{"Salmon fillet", 1, "lb"},
		{"Potatoes", 1.5, "lb"},
		{"Butter", 2, "tbsp"},
	}},
	{"Side Salad", 2, []demoItem{
		{"Green salad mix", 4, "cup"},
	}},
}

var demoPantry = []demoItem{
	{"Rice", 1, "cup"},
	{"Garlic", 4, "clove"},
	{"Soy sauce", 10, "tbsp"},
}

const demoComboTitle = "Salmon Dinner"

// SeedDemoData loads a small ingredient, recipe and pantry set into an empty
// database. It refuses to run when recipes already exist.
func SeedDemoData(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(1) FROM recipes`).Scan(&count); err != nil {
		return fmt.Errorf("count recipes: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("database already has %d recipes; demo data needs an empty store", count)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin demo tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, ing := range demoIngredients {
		if _, err := createIngredient(tx, IngredientInput{Name: ing.name, Category: ing.category, DefaultUnit: ing.unit}); err != nil {
			return fmt.Errorf("seed ingredient: %w", err)
		}
	}
	for _, r := range demoRecipes {
		if _, err := createRecipe(tx, RecipeInput{Title: r.title, Servings: r.servings}); err != nil {
			return fmt.Errorf("seed recipe: %w", err)
		}
		for _, it := range r.items {
			if _, err := addRecipeItem(tx, r.title, RecipeItemInput{Ingredient: it.ingredient, Quantity: it.quantity, Unit: it.unit}); err != nil {
				return fmt.Errorf("seed recipe %q: %w", r.title, err)
			}
		}
	}
	if _, err := createRecipe(tx, RecipeInput{Title: demoComboTitle, Servings: 2, Combo: true}); err != nil {
		return fmt.Errorf("seed combo: %w", err)
	}
	for _, part := range []string{"Roast Salmon", "Side Salad"} {
		if _, err := addComboComponent(tx, demoComboTitle, part, 1); err != nil {
			return fmt.Errorf("seed combo: %w", err)
		}
	}
	for _, p := range demoPantry {
		if err := setPantryItem(tx, p.ingredient, p.quantity, p.unit); err != nil {
			return fmt.Errorf("seed pantry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit demo tx: %w", err)
	}
	return nil
}
