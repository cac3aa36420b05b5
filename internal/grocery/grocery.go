// Package grocery turns scheduled meals into a pantry-adjusted shopping list.
//
// Aggregation reads a fully materialized snapshot and never mutates it.
// Unresolved references degrade gracefully: meals whose recipe is missing
// contribute nothing and ingredients without a lookup record are filed under
// the "other" category.
package grocery

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/chasemp/mealplanner/internal/model"
)

// IngredientLookup resolves ingredient display data by id.
type IngredientLookup map[int64]model.Ingredient

type options struct {
	scaleServings bool
}

type Option func(*options)

// WithServingScale scales each meal's contribution by the meal's servings
// over the recipe's servings. Meals or recipes without a positive serving
// count contribute unscaled.
func WithServingScale() Option {
	return func(o *options) { o.scaleServings = true }
}

type totalKey struct {
	ingredientID int64
	unit         string
}

// GenerateGroceryItems totals every ingredient line of every scheduled meal,
// keyed by ingredient and unit, subtracts pantry stock and returns the items
// that still need to be bought, in first-seen order.
func GenerateGroceryItems(meals []model.ScheduledMeal, recipes []model.Recipe, pantry []model.PantryItem, lookup IngredientLookup, opts ...Option) []model.GroceryItem {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	byID := make(map[int64]*model.Recipe, len(recipes))
	for i := range recipes {
		if _, dup := byID[recipes[i].ID]; !dup {
			byID[recipes[i].ID] = &recipes[i]
		}
	}

	totals := make(map[totalKey]decimal.Decimal)
	order := make([]totalKey, 0)
	add := func(item model.RecipeItem, factor decimal.Decimal) {
		if !finite(item.Quantity) {
			return
		}
		k := totalKey{ingredientID: item.IngredientID, unit: item.Unit}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		totals[k] = totals[k].Add(decimal.NewFromFloat(item.Quantity).Mul(factor))
	}

	for _, meal := range meals {
		recipe, ok := byID[meal.RecipeID]
		if !ok {
			continue
		}
		factor := decimal.NewFromInt(1)
		if o.scaleServings && meal.Servings > 0 && recipe.Servings > 0 {
			factor = decimal.NewFromInt(int64(meal.Servings)).Div(decimal.NewFromInt(int64(recipe.Servings)))
		}
		if !recipe.IsCombo {
			for _, item := range recipe.Items {
				add(item, factor)
			}
			continue
		}
		for _, c := range recipe.Components {
			part, ok := byID[c.RecipeID]
			if !ok || part.IsCombo || !finite(c.Multiplier) {
				continue
			}
			partFactor := factor.Mul(decimal.NewFromFloat(c.Multiplier))
			for _, item := range part.Items {
				add(item, partFactor)
			}
		}
	}

	stock := make(map[int64]decimal.Decimal, len(pantry))
	for _, p := range pantry {
		if !finite(p.Quantity) {
			continue
		}
		stock[p.IngredientID] = stock[p.IngredientID].Add(decimal.NewFromFloat(p.Quantity))
	}

	out := make([]model.GroceryItem, 0, len(order))
	for _, k := range order {
		needed := totals[k]
		onHand := stock[k.ingredientID]
		adjusted := needed.Sub(onHand)
		if !adjusted.IsPositive() {
			continue
		}
		name, category := describe(lookup, k.ingredientID)
		out = append(out, model.GroceryItem{
			IngredientID:     k.ingredientID,
			Name:             name,
			QuantityNeeded:   needed.InexactFloat64(),
			PantryQuantity:   onHand.InexactFloat64(),
			AdjustedQuantity: adjusted.InexactFloat64(),
			Unit:             k.unit,
			Category:         category,
		})
	}
	return out
}

// GroupByCategory partitions items by category, keeping their relative order.
func GroupByCategory(items []model.GroceryItem) map[string][]model.GroceryItem {
	groups := make(map[string][]model.GroceryItem)
	for _, it := range items {
		cat := it.Category
		if strings.TrimSpace(cat) == "" {
			cat = model.OtherCategory
		}
		groups[cat] = append(groups[cat], it)
	}
	return groups
}

// Categories returns the group names sorted, with "other" last.
func Categories(groups map[string][]model.GroceryItem) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if (names[i] == model.OtherCategory) != (names[j] == model.OtherCategory) {
			return names[j] == model.OtherCategory
		}
		return names[i] < names[j]
	})
	return names
}

func describe(lookup IngredientLookup, id int64) (string, string) {
	ing, ok := lookup[id]
	if !ok {
		return fmt.Sprintf("ingredient #%d", id), model.OtherCategory
	}
	name := strings.TrimSpace(ing.Name)
	if name == "" {
		name = fmt.Sprintf("ingredient #%d", id)
	}
	category := strings.TrimSpace(ing.Category)
	if category == "" {
		category = model.OtherCategory
	}
	return name, category
}

// finite reports whether v can be represented as a decimal.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
