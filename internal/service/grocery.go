package service

import (
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chasemp/mealplanner/internal/grocery"
	"github.com/chasemp/mealplanner/internal/model"
)

type GroceryListInput struct {
	From          string
	To            string
	ScaleServings bool
}

type GroceryList struct {
	From  string              `json:"from" yaml:"from"`
	To    string              `json:"to" yaml:"to"`
	Meals int                 `json:"meals" yaml:"meals"`
	Items []model.GroceryItem `json:"items" yaml:"items"`
}

// GroceryGroup is one category section of a grouped list.
type GroceryGroup struct {
	Category string              `json:"category" yaml:"category"`
	Items    []model.GroceryItem `json:"items" yaml:"items"`
}

// Groups returns the list split by category, categories sorted by name with
// "other" last.
func (l GroceryList) Groups() []GroceryGroup {
	byCategory := grocery.GroupByCategory(l.Items)
	out := make([]GroceryGroup, 0, len(byCategory))
	for _, name := range grocery.Categories(byCategory) {
		out = append(out, GroceryGroup{Category: name, Items: byCategory[name]})
	}
	return out
}

// BuildGroceryList loads the meals in range together with the recipe,
// pantry and ingredient snapshot and aggregates them.
func BuildGroceryList(db *sql.DB, in GroceryListInput) (GroceryList, error) {
	meals, err := ListScheduledMeals(db, MealFilter{From: in.From, To: in.To})
	if err != nil {
		return GroceryList{}, err
	}
	recipes, err := LoadRecipes(db)
	if err != nil {
		return GroceryList{}, err
	}
	pantry, err := PantrySnapshot(db)
	if err != nil {
		return GroceryList{}, err
	}
	lookup, err := IngredientLookup(db)
	if err != nil {
		return GroceryList{}, err
	}
	var opts []grocery.Option
	if in.ScaleServings {
		opts = append(opts, grocery.WithServingScale())
	}
	return GroceryList{
		From:  in.From,
		To:    in.To,
		Meals: len(meals),
		Items: grocery.GenerateGroceryItems(meals, recipes, pantry, lookup, opts...),
	}, nil
}

const (
	ExportMarkdown = "markdown"
	ExportYAML     = "yaml"
)

// ExportGroceryList writes the list grouped by category as a markdown
// checklist or a YAML document.
func ExportGroceryList(w io.Writer, list GroceryList, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", ExportMarkdown, "md":
		return writeGroceryMarkdown(w, list)
	case ExportYAML, "yml":
		doc := struct {
			From   string         `yaml:"from,omitempty"`
			To     string         `yaml:"to,omitempty"`
			Meals  int            `yaml:"meals"`
			Groups []GroceryGroup `yaml:"groups"`
		}{From: list.From, To: list.To, Meals: list.Meals, Groups: list.Groups()}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode grocery yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported grocery export format %q (expected markdown or yaml)", format)
	}
}

func writeGroceryMarkdown(w io.Writer, list GroceryList) error {
	var b strings.Builder
	b.WriteString("# Grocery list")
	if list.From != "" || list.To != "" {
		fmt.Fprintf(&b, " (%s to %s)", orDash(list.From), orDash(list.To))
	}
	b.WriteString("\n")
	if len(list.Items) == 0 {
		b.WriteString("\nNothing to buy.\n")
	}
	for _, g := range list.Groups() {
		fmt.Fprintf(&b, "\n## %s\n\n", g.Category)
		for _, it := range g.Items {
			fmt.Fprintf(&b, "- [ ] %s: %s %s\n", it.Name, FormatQuantity(it.AdjustedQuantity), it.Unit)
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write grocery markdown: %w", err)
	}
	return nil
}

// FormatQuantity prints a quantity without trailing zeros.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
