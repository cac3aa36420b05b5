package mealplan

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chasemp/mealplanner/internal/app"
	"github.com/chasemp/mealplanner/internal/db"
	"github.com/chasemp/mealplanner/internal/model"
	"github.com/chasemp/mealplanner/internal/planner"
)

var isoWeekPattern = regexp.MustCompile(`^\d{4}-W\d{2}$`)

func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if cfg != nil && cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}
	return app.DefaultDBPath()
}

func withDB(run func(*sql.DB) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if err := app.EnsureDBDir(path); err != nil {
		return err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	if err := db.ApplyMigrations(sqldb); err != nil {
		return err
	}
	return run(sqldb)
}

func parseInt64Arg(name, value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

// parseDateOrToday parses YYYY-MM-DD, defaulting to today's date.
func parseDateOrToday(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return planner.ParseDate(value)
}

// resolveDateRange turns --week or --from/--to into inclusive YYYY-MM-DD
// bounds. Empty bounds mean unbounded.
func resolveDateRange(week, from, to string) (string, string, error) {
	week = strings.TrimSpace(week)
	if week != "" {
		if from != "" || to != "" {
			return "", "", fmt.Errorf("use either --week or --from/--to")
		}
		start, end, err := resolveWeekRange(week)
		if err != nil {
			return "", "", err
		}
		return start.Format(model.DateLayout), end.Format(model.DateLayout), nil
	}
	for _, v := range []string{from, to} {
		if v == "" {
			continue
		}
		if _, err := planner.ParseDate(v); err != nil {
			return "", "", err
		}
	}
	if from != "" && to != "" && from > to {
		return "", "", fmt.Errorf("--from %s is after --to %s", from, to)
	}
	return from, to, nil
}

func resolveWeekRange(week string) (time.Time, time.Time, error) {
	if !isoWeekPattern.MatchString(week) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --week value %q (expected YYYY-Www)", week)
	}
	var year, weekNum int
	if _, err := fmt.Sscanf(week, "%4d-W%2d", &year, &weekNum); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --week value %q (expected YYYY-Www)", week)
	}
	maxWeek := weeksInISOYear(year)
	if weekNum < 1 || weekNum > maxWeek {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --week value %q (week must be between 01 and %02d for %d)", week, maxWeek, year)
	}
	start := isoWeekStart(year, weekNum)
	return start, start.AddDate(0, 0, 6), nil
}

func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, -(weekday - 1))
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

func weeksInISOYear(year int) int {
	_, wk := time.Date(year, 12, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return wk
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
