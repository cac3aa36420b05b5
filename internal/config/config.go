package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/planner"
)

// Config holds file-level settings for the mealplan CLI and server.
type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Scheduler defaults; app_config rows and flags take precedence.
	Planner PlannerConfig `yaml:"planner"`

	// Barcode product lookup
	Barcode BarcodeConfig `yaml:"barcode"`

	// Local HTTP API
	Server ServerConfig `yaml:"server"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

type PlannerConfig struct {
	Weeks        int    `yaml:"weeks"`
	MealsPerWeek int    `yaml:"meals_per_week"`
	SpacingDays  int    `yaml:"spacing_days"`
	MealType     string `yaml:"meal_type"`
}

type BarcodeConfig struct {
	Providers        []string `yaml:"providers"`
	OpenFoodFactsURL string   `yaml:"openfoodfacts_url"`
	UPCItemDBURL     string   `yaml:"upcitemdb_url"`
	UPCItemDBKey     string   `yaml:"upcitemdb_key"`
	Timeout          string   `yaml:"timeout"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "warn"},
		Planner: PlannerConfig{
			Weeks:        1,
			MealsPerWeek: 5,
			SpacingDays:  2,
			MealType:     string(model.MealTypeDinner),
		},
		Barcode: BarcodeConfig{
			Providers: []string{"openfoodfacts", "upcitemdb"},
			Timeout:   "15s",
		},
		Server: ServerConfig{Addr: "127.0.0.1:8089"},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from files into the process environment
// without overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	if c.Planner.Weeks <= 0 || c.Planner.Weeks > planner.MaxWeeks {
		return fmt.Errorf("planner.weeks must be between 1 and %d", planner.MaxWeeks)
	}
	if c.Planner.MealsPerWeek <= 0 || c.Planner.MealsPerWeek > 7 {
		return fmt.Errorf("planner.meals_per_week must be between 1 and 7")
	}
	if c.Planner.SpacingDays < 0 {
		return fmt.Errorf("planner.spacing_days must be >= 0")
	}
	if _, err := model.ParseMealType(c.Planner.MealType); err != nil {
		return fmt.Errorf("planner.meal_type: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("MEALPLAN_DB"); path != "" {
		c.Database.Path = path
	}
	if level := os.Getenv("MEALPLAN_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("MEALPLAN_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if url := os.Getenv("OPENFOODFACTS_URL"); url != "" {
		c.Barcode.OpenFoodFactsURL = url
	}
	if key := os.Getenv("UPCITEMDB_API_KEY"); key != "" {
		c.Barcode.UPCItemDBKey = key
	}
}
