package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"MEALPLAN_DB", "MEALPLAN_LOG_LEVEL", "MEALPLAN_ADDR", "OPENFOODFACTS_URL", "UPCITEMDB_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
planner:
  meals_per_week: 3
  meal_type: lunch
logging:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Planner.MealsPerWeek)
	assert.Equal(t, "lunch", cfg.Planner.MealType)
	assert.Equal(t, 2, cfg.Planner.SpacingDays)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"openfoodfacts", "upcitemdb"}, cfg.Barcode.Providers)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"meals":     "planner:\n  meals_per_week: 9\n",
		"weeks":     "planner:\n  weeks: 521\n",
		"spacing":   "planner:\n  spacing_days: -1\n",
		"meal type": "planner:\n  meal_type: brunch\n",
		"level":     "logging:\n  level: loud\n",
		"yaml":      "planner: [",
	}
	clearEnv(t)
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Run("MEALPLAN_DB sets database path", func(t *testing.T) {
		t.Setenv("MEALPLAN_DB", "/tmp/x.db")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	})

	t.Run("UPCITEMDB_API_KEY sets key", func(t *testing.T) {
		t.Setenv("UPCITEMDB_API_KEY", "k")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "k", cfg.Barcode.UPCItemDBKey)
	})

	t.Run("empty variables leave config alone", func(t *testing.T) {
		t.Setenv("MEALPLAN_ADDR", "")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "127.0.0.1:8089", cfg.Server.Addr)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Planner.SpacingDays = 4
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Planner.SpacingDays)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("MEALPLAN_TEST_DOTENV=from-file\n"), 0o644))
	t.Setenv("MEALPLAN_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("MEALPLAN_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envPath))
	assert.Equal(t, "from-file", os.Getenv("MEALPLAN_TEST_DOTENV"))
}
