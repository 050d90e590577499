package meal

// Add returns the element-wise sum of two nutrition breakdowns.
func (n NutritionInfo) Add(other NutritionInfo) NutritionInfo {
	return NutritionInfo{
		Calories: n.Calories + other.Calories,
		Protein:  n.Protein + other.Protein,
		Carbs:    n.Carbs + other.Carbs,
		Fat:      n.Fat + other.Fat,
		Fiber:    n.Fiber + other.Fiber,
		Sugar:    n.Sugar + other.Sugar,
	}
}

// DailyTotal derives the day's nutrition from its recipes. The stored
// TotalNutrition field is never consulted, so the total cannot drift from the
// meal list.
func DailyTotal(day DailyMealPlan) NutritionInfo {
	var total NutritionInfo
	for _, t := range MealTypes() {
		for _, r := range day.Meals[t] {
			total = total.Add(r.Nutrition)
		}
	}
	return total
}
