package telegram

import (
	"fmt"
	"strings"
	"time"

	"pantry-planner/internal/meal"
)

func formatRecipesMarkdown(recipes []meal.Recipe) string {
	if len(recipes) == 0 {
		return "🤷 No recipes came back. Try adding more ingredients to your pantry."
	}

	var sb strings.Builder
	sb.WriteString("🍳 *Recipe Ideas*\n\n")
	for _, r := range recipes {
		sb.WriteString(fmt.Sprintf("*%s* (%d min, serves %d)\n", r.Name, r.PrepTime+r.CookTime, r.Servings))
		if r.Description != "" {
			sb.WriteString(fmt.Sprintf("_%s_\n", r.Description))
		}
		sb.WriteString(fmt.Sprintf("🔥 %.0f kcal\n\n", r.Nutrition.Calories))
	}
	return sb.String()
}

func formatPlanMarkdownParts(plan *meal.WeeklyMealPlan) (string, string) {
	var pb strings.Builder
	pb.WriteString("📅 *Weekly Meal Plan*\n\n")

	for _, day := range plan.Days {
		pb.WriteString(fmt.Sprintf("*%s*\n", dayLabel(day.Date)))
		for _, mt := range meal.MealTypes() {
			for _, r := range day.Meals[mt] {
				pb.WriteString(fmt.Sprintf("• %s: %s\n", mt, r.Name))
			}
		}
		pb.WriteString(fmt.Sprintf("_%.0f kcal_\n\n", day.TotalNutrition.Calories))
	}

	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	for _, item := range plan.ShoppingList {
		sb.WriteString(fmt.Sprintf("• %s - %g %s\n", item.Name, item.Quantity, item.Unit))
	}

	return pb.String(), sb.String()
}

// dayLabel renders "Monday 2025-04-07"; an unparsable date is shown as-is.
func dayLabel(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Weekday().String() + " " + date
}
