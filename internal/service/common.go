package service

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func validateFiniteFloat(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%s must be a finite number", name)
	}
	return nil
}

func validatePositiveFloat(name string, value float64) error {
	if err := validateFiniteFloat(name, value); err != nil {
		return err
	}
	if value <= 0 {
		return fmt.Errorf("%s must be > 0", name)
	}
	return nil
}

func validateNonNegativeFloat(name string, value float64) error {
	if err := validateFiniteFloat(name, value); err != nil {
		return err
	}
	if value < 0 {
		return fmt.Errorf("%s must be >= 0", name)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func categoryIDByName(q querier, category string) (int64, error) {
	name := normalizeName(category)
	if name == "" {
		return 0, fmt.Errorf("category name is required")
	}
	var id int64
	if err := q.QueryRow(`SELECT id FROM categories WHERE name = ?`, name).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("category %q does not exist", name)
		}
		return 0, fmt.Errorf("lookup category %q: %w", name, err)
	}
	return id, nil
}

func parseIDLoose(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("not numeric")
	}
	return id, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func requireAffected(res sql.Result, what string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s not found", what)
	}
	return nil
}
