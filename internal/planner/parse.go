package planner

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"pantry-planner/internal/meal"
)

// The provider's output is untrusted text. Everything below decodes it into
// tolerant intermediate shapes, checks the contract keys, and only then
// constructs domain objects. Any shape problem surfaces as a GenerationError
// before a single domain object is built.

// flexFloat accepts a JSON number, a numeric string, or a string with a
// leading number ("2 cups"). Providers mix these freely.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(leadingNumber(s))
	return nil
}

// flexInt is flexFloat truncated to an int ("30 mins" parses as 30).
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var ff flexFloat
	if err := ff.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = flexInt(ff)
	return nil
}

func leadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '.' || s[end] == '-' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return n
}

type rawIngredient struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Quantity  flexFloat           `json:"quantity"`
	Unit      string              `json:"unit"`
	Category  string              `json:"category"`
	Nutrition *meal.NutritionInfo `json:"nutrition"`
}

type rawRecipe struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Ingredients  []rawIngredient    `json:"ingredients"`
	Instructions []string           `json:"instructions"`
	PrepTime     flexInt            `json:"prepTime"`
	CookTime     flexInt            `json:"cookTime"`
	Servings     flexInt            `json:"servings"`
	Nutrition    meal.NutritionInfo `json:"nutrition"`
	Tags         []string           `json:"tags"`
	Image        string             `json:"image"`
}

type rawDay struct {
	Date  string                 `json:"date"`
	Meals map[string][]rawRecipe `json:"meals"`
}

// stripFences removes a markdown code fence around the payload. Providers
// wrap JSON in ```json blocks despite instructions not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseRecipes decodes a {"recipes": [...]} payload into domain recipes.
func parseRecipes(content string) ([]meal.Recipe, error) {
	clean := stripFences(content)

	var envelope struct {
		Recipes json.RawMessage `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(clean), &envelope); err != nil {
		return nil, generationErr(KindMalformed, "response is not valid JSON", err)
	}
	if len(envelope.Recipes) == 0 || string(envelope.Recipes) == "null" {
		return nil, generationErr(KindMissingKey, `response is missing the "recipes" key`, nil)
	}

	var raw []rawRecipe
	if err := json.Unmarshal(envelope.Recipes, &raw); err != nil {
		return nil, generationErr(KindMalformed, `"recipes" is not a list of recipe objects`, err)
	}

	recipes := make([]meal.Recipe, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		recipes = append(recipes, toRecipe(r))
	}
	return recipes, nil
}

// ParseRecipe decodes a {"recipes": [...]} payload and returns its first
// recipe. The clipper shares the recipe JSON contract and uses this to get
// one recipe out of an extraction response.
func ParseRecipe(content string) (meal.Recipe, error) {
	recipes, err := parseRecipes(content)
	if err != nil {
		return meal.Recipe{}, err
	}
	if len(recipes) == 0 {
		return meal.Recipe{}, generationErr(KindMalformed, `"recipes" holds no usable recipe`, nil)
	}
	return recipes[0], nil
}

// parseWeeklyPlan decodes a {"mealPlan": {"days": [...], "shoppingList":
// [...]}} payload and normalizes it to exactly 7 days starting at start.
func parseWeeklyPlan(content string, start time.Time) (*meal.WeeklyMealPlan, error) {
	clean := stripFences(content)

	var envelope struct {
		MealPlan json.RawMessage `json:"mealPlan"`
	}
	if err := json.Unmarshal([]byte(clean), &envelope); err != nil {
		return nil, generationErr(KindMalformed, "response is not valid JSON", err)
	}
	if len(envelope.MealPlan) == 0 || string(envelope.MealPlan) == "null" {
		return nil, generationErr(KindMissingKey, `response is missing the "mealPlan" key`, nil)
	}

	var raw struct {
		Days         []rawDay        `json:"days"`
		ShoppingList []rawIngredient `json:"shoppingList"`
	}
	if err := json.Unmarshal(envelope.MealPlan, &raw); err != nil {
		return nil, generationErr(KindMalformed, `"mealPlan" is not a plan object`, err)
	}
	if raw.Days == nil {
		return nil, generationErr(KindMissingKey, `"mealPlan" is missing the "days" key`, nil)
	}

	// Day adherence is best effort: extra days are dropped, missing days are
	// synthesized empty, and every date is rewritten onto the requested week.
	days := make([]meal.DailyMealPlan, 7)
	for i := range days {
		day := meal.DailyMealPlan{
			Date:  start.AddDate(0, 0, i).Format("2006-01-02"),
			Meals: make(map[meal.MealType][]meal.Recipe),
		}
		if i < len(raw.Days) {
			for slot, rawRecipes := range raw.Days[i].Meals {
				mealType := meal.MealType(strings.ToLower(strings.TrimSpace(slot)))
				if !mealType.Valid() {
					continue
				}
				for _, r := range rawRecipes {
					if strings.TrimSpace(r.Name) == "" {
						continue
					}
					day.Meals[mealType] = append(day.Meals[mealType], toRecipe(r))
				}
			}
		}
		day.TotalNutrition = meal.DailyTotal(day)
		days[i] = day
	}

	items := make([]meal.ShoppingListItem, 0, len(raw.ShoppingList))
	for _, ing := range raw.ShoppingList {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		items = append(items, meal.ShoppingListItem{Ingredient: toIngredient(ing)})
	}

	return &meal.WeeklyMealPlan{
		ID:           meal.NewID(),
		StartDate:    start.Format("2006-01-02"),
		EndDate:      start.AddDate(0, 0, 6).Format("2006-01-02"),
		Days:         days,
		ShoppingList: items,
	}, nil
}

func toIngredient(r rawIngredient) meal.Ingredient {
	id := r.ID
	if id == "" {
		id = meal.NewID()
	}
	return meal.Ingredient{
		ID:        id,
		Name:      strings.TrimSpace(r.Name),
		Quantity:  float64(r.Quantity),
		Unit:      strings.TrimSpace(r.Unit),
		Category:  strings.TrimSpace(r.Category),
		Nutrition: r.Nutrition,
	}
}

func toRecipe(r rawRecipe) meal.Recipe {
	id := r.ID
	if id == "" {
		id = meal.NewID()
	}

	ingredients := make([]meal.Ingredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		ingredients = append(ingredients, toIngredient(ing))
	}

	servings := int(r.Servings)
	if servings <= 0 {
		servings = 1
	}
	prepTime := int(r.PrepTime)
	if prepTime < 0 {
		prepTime = 0
	}
	cookTime := int(r.CookTime)
	if cookTime < 0 {
		cookTime = 0
	}

	instructions := r.Instructions
	if instructions == nil {
		instructions = []string{}
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	return meal.Recipe{
		ID:           id,
		Name:         strings.TrimSpace(r.Name),
		Description:  strings.TrimSpace(r.Description),
		Ingredients:  ingredients,
		Instructions: instructions,
		PrepTime:     prepTime,
		CookTime:     cookTime,
		Servings:     servings,
		Nutrition:    r.Nutrition,
		Tags:         tags,
		Image:        strings.TrimSpace(r.Image),
	}
}
