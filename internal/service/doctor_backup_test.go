package service_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chasemp/mealplanner/internal/db"
	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/service"
)

func TestDoctorCleanDatabase(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	mustIngredient(t, sqldb, "Rice", "grains", "cup")
	mustRecipe(t, sqldb, "Rice Bowl", 2, item{"Rice", 1, "cup"})

	report, err := service.RunDoctor(sqldb, false)
	require.NoError(t, err)
	assert.Zero(t, report.Issues())
	assert.Zero(t, report.Warnings())
}

func TestDoctorReportsAndFixesOrphans(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	mustIngredient(t, sqldb, "Milk", "dairy", "cup")
	mustIngredient(t, sqldb, "Cheese", "dairy", "oz")
	mustRecipe(t, sqldb, "Mac", 4, item{"Milk", 1, "cup"}, item{"Milk", 200, "g"}, item{"Cheese", 8, "oz"})
	mustRecipe(t, sqldb, "Empty", 1)
	_, err := service.ScheduleMeal(sqldb, service.ScheduleMealInput{Recipe: "Mac", Date: "2025-09-21", MealType: model.MealTypeDinner})
	require.NoError(t, err)
	require.NoError(t, service.SetPantryItem(sqldb, "Cheese", 4, ""))

	// Simulate rows written without foreign key enforcement.
	_, err = sqldb.Exec(`PRAGMA foreign_keys = OFF`)
	require.NoError(t, err)
	_, err = sqldb.Exec(`INSERT INTO scheduled_meals(recipe_id, meal_type, meal_date, servings) VALUES(999, 'dinner', '2025-09-22', 2)`)
	require.NoError(t, err)
	_, err = sqldb.Exec(`DELETE FROM ingredients WHERE name = 'Cheese'`)
	require.NoError(t, err)
	_, err = sqldb.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	report, err := service.RunDoctor(sqldb, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.UnresolvedRecipeRefs)
	assert.Equal(t, 1, report.UnresolvedIngredientRefs)
	assert.Equal(t, 1, report.OrphanPantryRows)
	assert.Equal(t, 0, report.BadComboComponents)
	assert.Equal(t, []string{"Empty"}, report.EmptyRecipes)
	assert.Equal(t, []string{"Milk"}, report.MixedUnitIngredients)
	assert.Equal(t, 3, report.Issues())

	fixed, err := service.RunDoctor(sqldb, true)
	require.NoError(t, err)
	assert.Equal(t, 3, fixed.FixedRows)
	assert.Zero(t, fixed.Issues())

	again, err := service.RunDoctor(sqldb, false)
	require.NoError(t, err)
	assert.Zero(t, again.Issues())
	assert.Equal(t, 2, again.Warnings())
}

func TestBackupCreateListRestore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mealplan.db")
	sqldb, err := db.OpenMigrated(dbPath)
	require.NoError(t, err)
	mustIngredient(t, sqldb, "Beans", "pantry", "can")
	require.NoError(t, sqldb.Close())

	backupDir := filepath.Join(dir, "backups")
	name := service.BackupFileName(time.Date(2025, 9, 21, 8, 30, 0, 0, time.UTC))
	assert.Equal(t, "mealplan-20250921-083000.db", name)

	info, err := service.CreateBackup(dbPath, filepath.Join(backupDir, name))
	require.NoError(t, err)
	assert.Len(t, info.Checksum, 64)
	assert.Positive(t, info.SizeBytes)

	_, err = service.CreateBackup(dbPath, dbPath)
	assert.Error(t, err)

	list, err := service.ListBackups(backupDir)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, info.Checksum, list[0].Checksum)

	none, err := service.ListBackups(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, none)

	restored := filepath.Join(dir, "restored.db")
	require.NoError(t, service.RestoreBackup(info.Path, restored, false))
	assert.Error(t, service.RestoreBackup(info.Path, restored, false), "existing target needs force")
	require.NoError(t, service.RestoreBackup(info.Path, restored, true))

	rdb, err := db.Open(restored)
	require.NoError(t, err)
	defer rdb.Close()
	ing, err := service.ResolveIngredient(rdb, "beans")
	require.NoError(t, err)
	assert.Equal(t, "can", ing.DefaultUnit)

	require.NoError(t, os.WriteFile(info.Path+".sha256", []byte("deadbeef\n"), 0o644))
	assert.ErrorContains(t, service.RestoreBackup(info.Path, filepath.Join(dir, "other.db"), false), "checksum mismatch")
}

func TestPruneBackupsKeepsNewest(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "mealplan.db")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	backupDir := filepath.Join(dir, "backups")
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	paths := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		stamp := base.AddDate(0, 0, i)
		info, err := service.CreateBackup(src, filepath.Join(backupDir, service.BackupFileName(stamp)))
		require.NoError(t, err)
		require.NoError(t, os.Chtimes(info.Path, stamp, stamp))
		paths = append(paths, info.Path)
	}

	_, err := service.PruneBackups(backupDir, 0)
	require.Error(t, err)

	removed, err := service.PruneBackups(backupDir, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{paths[0]}, removed)
	_, err = os.Stat(paths[0] + ".sha256")
	assert.True(t, os.IsNotExist(err))

	left, err := service.ListBackups(backupDir)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, paths[2], left[0].Path)
}
