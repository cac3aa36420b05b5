package service

import (
	"database/sql"
	"fmt"

	"github.com/chasemp/mealplanner/internal/model"
)

func AddCategory(db *sql.DB, name string) error {
	name = normalizeName(name)
	if name == "" {
		return fmt.Errorf("category name is required")
	}
	if _, err := db.Exec(`INSERT INTO categories(name, is_default) VALUES(?, 0)`, name); err != nil {
		return fmt.Errorf("add category %q: %w", name, err)
	}
	return nil
}

// ListCategories returns every aisle by name with the number of ingredients
// filed under it.
func ListCategories(db *sql.DB) ([]model.Category, error) {
	rows, err := db.Query(`
SELECT c.id, c.name, c.is_default, c.created_at, COUNT(i.id)
FROM categories c
LEFT JOIN ingredients i ON i.category_id = c.id
GROUP BY c.id
ORDER BY c.name
`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		var isDefault int
		if err := rows.Scan(&c.ID, &c.Name, &isDefault, &c.CreatedAt, &c.Ingredients); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.IsDefault = isDefault == 1
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// CategoryIngredients lists the ingredients filed under one aisle.
func CategoryIngredients(db *sql.DB, name string) ([]model.Ingredient, error) {
	name = normalizeName(name)
	if _, err := categoryIDByName(db, name); err != nil {
		return nil, err
	}
	all, err := ListIngredients(db)
	if err != nil {
		return nil, err
	}
	out := make([]model.Ingredient, 0)
	for _, ing := range all {
		if ing.Category == name {
			out = append(out, ing)
		}
	}
	return out, nil
}

func RenameCategory(db *sql.DB, oldName, newName string) error {
	oldName = normalizeName(oldName)
	newName = normalizeName(newName)
	if oldName == "" || newName == "" {
		return fmt.Errorf("old and new category names are required")
	}
	if oldName == model.OtherCategory {
		return fmt.Errorf("category %q is the grocery fallback and cannot be renamed", oldName)
	}
	res, err := db.Exec(`UPDATE categories SET name = ? WHERE name = ?`, newName, oldName)
	if err != nil {
		return fmt.Errorf("rename category %q to %q: %w", oldName, newName, err)
	}
	return requireAffected(res, fmt.Sprintf("category %q", oldName))
}

// DeleteCategory removes a category. Ingredients filed under it must be
// moved with reassign, otherwise the delete is refused.
func DeleteCategory(db *sql.DB, name, reassign string) error {
	name = normalizeName(name)
	reassign = normalizeName(reassign)
	if name == "" {
		return fmt.Errorf("category name is required")
	}
	if name == model.OtherCategory {
		return fmt.Errorf("category %q is the grocery fallback and cannot be deleted", name)
	}
	if name == reassign {
		return fmt.Errorf("reassign category must be different from deleted category")
	}

	id, err := categoryIDByName(db, name)
	if err != nil {
		return err
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(1) FROM ingredients WHERE category_id = ?`, id).Scan(&count); err != nil {
		return fmt.Errorf("count ingredients for category %q: %w", name, err)
	}
	if count > 0 && reassign == "" {
		return fmt.Errorf("category %q has %d ingredients; use --reassign to move them", name, count)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete category tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if count > 0 {
		targetID, err := categoryIDByName(tx, reassign)
		if err != nil {
			return fmt.Errorf("reassign target: %w", err)
		}
		if _, err := tx.Exec(`UPDATE ingredients SET category_id = ?, updated_at = CURRENT_TIMESTAMP WHERE category_id = ?`, targetID, id); err != nil {
			return fmt.Errorf("reassign ingredients: %w", err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category %q: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category tx: %w", err)
	}
	return nil
}
