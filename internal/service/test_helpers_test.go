package service_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chasemp/mealplanner/internal/db"
	"github.com/chasemp/mealplanner/internal/service"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mealplan.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	return sqldb
}

func mustIngredient(t *testing.T, sqldb *sql.DB, name, category, unit string) int64 {
	t.Helper()
	id, err := service.CreateIngredient(sqldb, service.IngredientInput{Name: name, Category: category, DefaultUnit: unit})
	require.NoError(t, err)
	return id
}

type item struct {
	ingredient string
	quantity   float64
	unit       string
}

func mustRecipe(t *testing.T, sqldb *sql.DB, title string, servings int, items ...item) int64 {
	t.Helper()
	id, err := service.CreateRecipe(sqldb, service.RecipeInput{Title: title, Servings: servings})
	require.NoError(t, err)
	for _, it := range items {
		_, err := service.AddRecipeItem(sqldb, title, service.RecipeItemInput{Ingredient: it.ingredient, Quantity: it.quantity, Unit: it.unit})
		require.NoError(t, err)
	}
	return id
}
