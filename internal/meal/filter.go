package meal

import (
	"strings"
)

// FilterRecipesByIngredient returns the recipes whose ingredient list contains
// a case-insensitive substring match for name. When nothing matches, the full
// candidate set is returned instead of an empty list.
func FilterRecipesByIngredient(recipes []Recipe, name string) []Recipe {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return recipes
	}

	var matched []Recipe
	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			if strings.Contains(strings.ToLower(ing.Name), needle) {
				matched = append(matched, r)
				break
			}
		}
	}

	if len(matched) == 0 {
		return recipes
	}
	return matched
}
