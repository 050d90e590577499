package meal

import (
	"github.com/google/uuid"
)

// NutritionInfo holds macros in grams and total calories.
type NutritionInfo struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber,omitempty"`
	Sugar    float64 `json:"sugar,omitempty"`
}

// Ingredient is a named quantity of food, either a pantry entry or part of a recipe.
type Ingredient struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Quantity  float64        `json:"quantity"`
	Unit      string         `json:"unit"`
	Category  string         `json:"category"`
	Nutrition *NutritionInfo `json:"nutrition,omitempty"`
}

// Recipe is a dish with ordered ingredients and instructions.
// Nutrition is the total for the whole recipe, not per serving.
type Recipe struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Ingredients  []Ingredient  `json:"ingredients"`
	Instructions []string      `json:"instructions"`
	PrepTime     int           `json:"prepTime"`
	CookTime     int           `json:"cookTime"`
	Servings     int           `json:"servings"`
	Nutrition    NutritionInfo `json:"nutrition"`
	Tags         []string      `json:"tags"`
	Image        string        `json:"image,omitempty"`
	Rating       int           `json:"rating,omitempty"`
	Feedback     string        `json:"feedback,omitempty"`
}

// MacroTargets are daily gram targets for each macro.
type MacroTargets struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// UserPreferences holds dietary profile settings. The label slices behave as
// ordered sets: Toggle keeps them deduplicated.
type UserPreferences struct {
	DietaryRestrictions []string      `json:"dietaryRestrictions"`
	Allergies           []string      `json:"allergies"`
	CuisinePreferences  []string      `json:"cuisinePreferences"`
	CalorieTarget       int           `json:"calorieTarget,omitempty"`
	MacroTargets        *MacroTargets `json:"macroTargets,omitempty"`
}

// MealType is a slot within a day.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypes returns the closed set of meal slots in display order.
func MealTypes() []MealType {
	return []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}
}

// Valid reports whether t is one of the known meal slots.
func (t MealType) Valid() bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// DailyMealPlan maps meal slots to recipes for a single calendar date
// (2006-01-02). TotalNutrition is a snapshot; DailyTotal recomputes it from
// the recipes and is what callers should trust.
type DailyMealPlan struct {
	Date           string                `json:"date"`
	Meals          map[MealType][]Recipe `json:"meals"`
	TotalNutrition NutritionInfo         `json:"totalNutrition"`
}

// WeeklyMealPlan covers the 7 days starting at StartDate, plus a consolidated
// shopping list for the week.
type WeeklyMealPlan struct {
	ID           string             `json:"id"`
	StartDate    string             `json:"startDate"`
	EndDate      string             `json:"endDate"`
	Days         []DailyMealPlan    `json:"days"`
	ShoppingList []ShoppingListItem `json:"shoppingList"`
}

// ShoppingListItem is an ingredient with a checked-off flag.
type ShoppingListItem struct {
	Ingredient
	Checked bool `json:"checked"`
}

// NewID mints an identifier for server-created domain objects.
func NewID() string {
	return uuid.NewString()
}
