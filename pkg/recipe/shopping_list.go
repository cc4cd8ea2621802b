package recipe

import (
	"fmt"
	"strings"

	"foodgram-backend/entities"
)

// BuildShoppingList flattens the ingredient lines of every recipe in a
// shopping cart into one deduplicated list. Lines are grouped by
// (ingredient name, measurement unit) so that same-named ingredients
// measured in different units stay on separate lines, amounts are summed
// per group, and groups keep the order of their first occurrence.
func BuildShoppingList(items []*entities.RecipeIngredient) string {
	type groupKey struct {
		name string
		unit string
	}

	totals := make(map[groupKey]int)
	order := make([]groupKey, 0, len(items))

	for _, item := range items {
		if item.Ingredient == nil {
			continue
		}
		key := groupKey{
			name: item.Ingredient.Name,
			unit: item.Ingredient.MeasurementUnit,
		}
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] += item.Amount
	}

	var b strings.Builder
	for _, key := range order {
		fmt.Fprintf(&b, "%s - %d %s.\n", key.name, totals[key], key.unit)
	}
	return b.String()
}
