package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"pantry-planner/internal/clipper"
	"pantry-planner/internal/database"
	"pantry-planner/internal/favorites"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/meal"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/pantry"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/profile"
	"pantry-planner/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// hookGenerator lets a test run code in the middle of a provider call, which
// is how supersession windows are opened deterministically.
type hookGenerator struct {
	response string
	hook     func()
	calls    int
}

func (g *hookGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	g.calls++
	if g.hook != nil {
		g.hook()
	}
	return llm.ContentResponse{Content: g.response}, nil
}

const recipesJSON = `{"recipes": [
	{"name": "Omelette", "ingredients": [{"name": "Egg", "quantity": 2, "unit": "piece", "category": "Protein"}],
	 "instructions": ["Cook."], "prepTime": 5, "cookTime": 5, "servings": 1,
	 "nutrition": {"calories": 200, "protein": 14, "carbs": 1, "fat": 15}, "tags": []},
	{"name": "Tomato Soup", "ingredients": [{"name": "Tomato", "quantity": 4, "unit": "piece", "category": "Vegetables"}],
	 "instructions": ["Simmer."], "prepTime": 5, "cookTime": 20, "servings": 2,
	 "nutrition": {"calories": 150, "protein": 4, "carbs": 20, "fat": 5}, "tags": []}
]}`

const planJSON = `{"mealPlan": {
	"days": [{"date": "", "meals": {"dinner": [{"name": "Stir Fry", "ingredients": [{"name": "Rice", "quantity": 1, "unit": "cup", "category": "Grains"}], "instructions": ["Fry."], "nutrition": {"calories": 500, "protein": 20, "carbs": 70, "fat": 12}}]}}],
	"shoppingList": [
		{"name": "Rice", "quantity": 2, "unit": "cup", "category": "Grains"},
		{"name": "Soy sauce", "quantity": 1, "unit": "bottle", "category": "Pantry"}
	]
}}`

type env struct {
	router *gin.Engine
	server *Server
	token  string
}

func newEnv(t *testing.T, gen llm.TextGenerator) *env {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	docs := storage.NewDocumentStore(db.SQL)

	pantryStore, err := pantry.NewStore(ctx, docs)
	if err != nil {
		t.Fatalf("Failed to create pantry store: %v", err)
	}
	favStore, err := favorites.NewStore(ctx, docs)
	if err != nil {
		t.Fatalf("Failed to create favorites store: %v", err)
	}
	profileStore, err := profile.NewStore(ctx, docs)
	if err != nil {
		t.Fatalf("Failed to create profile store: %v", err)
	}

	feedbackRepo := planner.NewFeedbackRepository(db.SQL)
	server := &Server{
		Planner:           planner.NewPlanner(gen, feedbackRepo, 0, 3),
		Pantry:            pantryStore,
		Favorites:         favStore,
		Profile:           profileStore,
		Clipper:           clipper.NewClipper(gen, favStore),
		Plans:             planner.NewPlanRepository(db.SQL),
		Feedback:          feedbackRepo,
		Metrics:           metrics.NewStore(db.SQL),
		Sessions:          NewSessionManager("test-secret", time.Hour),
		GenerationTimeout: 5 * time.Second,
	}
	router := NewRouter(server)

	token, err := server.Sessions.Issue()
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}
	return &env{router: router, server: server, token: token}
}

func (e *env) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t, &hookGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/api/pantry", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/pantry", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with bogus token, got %d", w.Code)
	}
}

func TestPantryEndpoints(t *testing.T) {
	e := newEnv(t, &hookGenerator{})

	w := e.do(t, http.MethodPost, "/api/pantry", meal.Ingredient{Name: "Eggs", Quantity: 12, Unit: "piece"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var added meal.Ingredient
	decode(t, w, &added)

	w = e.do(t, http.MethodPost, "/api/pantry", meal.Ingredient{Name: "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank name, got %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/pantry", nil)
	var listResp struct {
		Items []meal.Ingredient `json:"items"`
	}
	decode(t, w, &listResp)
	if len(listResp.Items) != 1 {
		t.Fatalf("Expected 1 pantry item, got %d", len(listResp.Items))
	}

	w = e.do(t, http.MethodDelete, "/api/pantry/"+added.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
}

func TestReplacePantryEndpoint(t *testing.T) {
	e := newEnv(t, &hookGenerator{})

	w := e.do(t, http.MethodPost, "/api/pantry", meal.Ingredient{Name: "Rice", Quantity: 1, Unit: "kg"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var listResp struct {
		Items []meal.Ingredient `json:"items"`
	}
	w = e.do(t, http.MethodPut, "/api/pantry", map[string]interface{}{
		"items": []meal.Ingredient{
			{Name: "Flour", Quantity: 2, Unit: "kg"},
			{Name: "Yeast", Quantity: 10, Unit: "g"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &listResp)
	if len(listResp.Items) != 2 || listResp.Items[0].Name != "Flour" {
		t.Fatalf("Expected replaced pantry [Flour Yeast], got %v", listResp.Items)
	}

	// One invalid item rejects the whole replacement.
	w = e.do(t, http.MethodPut, "/api/pantry", map[string]interface{}{
		"items": []meal.Ingredient{{Name: "Salt", Quantity: 0}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for zero quantity, got %d", w.Code)
	}

	w = e.do(t, http.MethodPut, "/api/pantry", map[string]interface{}{"items": []meal.Ingredient{}})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &listResp)
	if len(listResp.Items) != 0 {
		t.Errorf("Expected cleared pantry, got %v", listResp.Items)
	}
}

func TestGenerateRecipesFiltersBySpecificIngredient(t *testing.T) {
	e := newEnv(t, &hookGenerator{response: recipesJSON})

	w := e.do(t, http.MethodPost, "/api/recipes/generate", map[string]interface{}{"ingredient": "EGG", "count": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Recipes []meal.Recipe `json:"recipes"`
	}
	decode(t, w, &resp)
	if len(resp.Recipes) != 1 || resp.Recipes[0].Name != "Omelette" {
		t.Errorf("Expected only the egg recipe, got %v", resp.Recipes)
	}

	// No match falls back to the full set.
	w = e.do(t, http.MethodPost, "/api/recipes/generate", map[string]interface{}{"ingredient": "durian"})
	decode(t, w, &resp)
	if len(resp.Recipes) != 2 {
		t.Errorf("Expected fallback to all recipes, got %d", len(resp.Recipes))
	}
}

func TestGenerateRecipesSuperseded(t *testing.T) {
	gen := &hookGenerator{response: recipesJSON}
	e := newEnv(t, gen)

	session, err := e.server.Sessions.Verify(e.token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	// A newer request arrives while the provider call is in flight.
	gen.hook = func() { session.recipeSeq.Add(1) }

	w := e.do(t, http.MethodPost, "/api/recipes/generate", map[string]interface{}{"count": 2})
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for superseded request, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Kind string `json:"kind"`
	}
	decode(t, w, &resp)
	if resp.Kind != "superseded" {
		t.Errorf("Expected kind superseded, got %q", resp.Kind)
	}
}

func TestGenerationFailureSurfacesKind(t *testing.T) {
	e := newEnv(t, &hookGenerator{response: `{"wrong": []}`})

	w := e.do(t, http.MethodPost, "/api/recipes/generate", map[string]interface{}{"count": 2})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Kind string `json:"kind"`
	}
	decode(t, w, &resp)
	if resp.Kind != "missing_key" {
		t.Errorf("Expected kind missing_key, got %q", resp.Kind)
	}
}

func TestPlanAndShoppingFlow(t *testing.T) {
	e := newEnv(t, &hookGenerator{response: planJSON})

	w := e.do(t, http.MethodGet, "/api/plan", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 before generation, got %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/api/plan/generate", map[string]string{"startDate": "2025-04-07"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var plan meal.WeeklyMealPlan
	decode(t, w, &plan)
	if len(plan.Days) != 7 {
		t.Fatalf("Expected 7 days, got %d", len(plan.Days))
	}

	w = e.do(t, http.MethodPost, "/api/plan/generate", map[string]string{"startDate": "bad date"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid start date, got %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/shopping", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var shoppingResp struct {
		Groups []struct {
			Category string                  `json:"category"`
			Items    []meal.ShoppingListItem `json:"items"`
		} `json:"groups"`
		Total   int `json:"total"`
		Percent int `json:"percent"`
	}
	decode(t, w, &shoppingResp)
	if shoppingResp.Total != 2 || shoppingResp.Percent != 0 {
		t.Fatalf("Expected 2 unchecked items, got %+v", shoppingResp)
	}

	itemID := shoppingResp.Groups[0].Items[0].ID
	w = e.do(t, http.MethodPost, fmt.Sprintf("/api/shopping/%s/check", itemID), map[string]bool{"checked": true})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var progress struct {
		Checked int `json:"checked"`
		Percent int `json:"percent"`
	}
	decode(t, w, &progress)
	if progress.Checked != 1 || progress.Percent != 50 {
		t.Errorf("Expected 1/2 checked at 50%%, got %+v", progress)
	}

	w = e.do(t, http.MethodGet, "/api/shopping/export", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Shopping List") {
		t.Errorf("Expected text export, got %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/api/plan/history", nil)
	var history struct {
		Plans []planner.StoredPlan `json:"plans"`
	}
	decode(t, w, &history)
	if len(history.Plans) != 1 {
		t.Errorf("Expected 1 stored plan, got %d", len(history.Plans))
	}
}

func TestProfileEndpoints(t *testing.T) {
	e := newEnv(t, &hookGenerator{})

	w := e.do(t, http.MethodPost, "/api/profile/toggle", map[string]string{"field": "dietaryRestrictions", "item": "Vegan"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Preferences meal.UserPreferences `json:"preferences"`
		Dirty       bool                 `json:"dirty"`
	}
	decode(t, w, &resp)
	if !resp.Dirty || len(resp.Preferences.DietaryRestrictions) != 1 {
		t.Errorf("Expected dirty profile with [Vegan], got %+v", resp)
	}

	w = e.do(t, http.MethodPost, "/api/profile/toggle", map[string]string{"field": "shoeSize", "item": "44"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown field, got %d", w.Code)
	}

	w = e.do(t, http.MethodPut, "/api/profile", resp.Preferences)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &resp)
	if resp.Dirty {
		t.Error("Expected saved profile to be clean")
	}
}

func TestFavoritesEndpoints(t *testing.T) {
	e := newEnv(t, &hookGenerator{})

	recipe := meal.Recipe{ID: "r1", Name: "Dal"}
	w := e.do(t, http.MethodPost, "/api/favorites", recipe)
	var saveResp struct {
		Saved          bool `json:"saved"`
		AlreadyPresent bool `json:"alreadyPresent"`
	}
	decode(t, w, &saveResp)
	if !saveResp.Saved || saveResp.AlreadyPresent {
		t.Errorf("Expected first save to report new, got %+v", saveResp)
	}

	// Saving again must not remove the recipe.
	w = e.do(t, http.MethodPost, "/api/favorites", recipe)
	decode(t, w, &saveResp)
	if !saveResp.AlreadyPresent {
		t.Error("Expected second save to report already present")
	}

	var listResp struct {
		Recipes []meal.Recipe `json:"recipes"`
	}
	w = e.do(t, http.MethodGet, "/api/favorites", nil)
	decode(t, w, &listResp)
	if len(listResp.Recipes) != 1 {
		t.Fatalf("Expected size 1 after saving twice, got %d", len(listResp.Recipes))
	}

	w = e.do(t, http.MethodPost, "/api/recipes/r1/feedback", map[string]interface{}{"rating": 5, "feedback": "great"})
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", w.Code)
	}

	w = e.do(t, http.MethodDelete, "/api/favorites/r1", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/favorites", nil)
	decode(t, w, &listResp)
	if len(listResp.Recipes) != 0 {
		t.Errorf("Expected empty favorites, got %v", listResp.Recipes)
	}
}

func TestFeedbackCountEndpoint(t *testing.T) {
	e := newEnv(t, &hookGenerator{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := e.server.Feedback.Insert(ctx, "r1", 4, "solid"); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	w := e.do(t, http.MethodGet, "/api/recipes/r1/feedback", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		RecipeID string `json:"recipeId"`
		Count    int    `json:"count"`
	}
	decode(t, w, &resp)
	if resp.RecipeID != "r1" || resp.Count != 2 {
		t.Errorf("Expected 2 feedback entries for r1, got %+v", resp)
	}

	w = e.do(t, http.MethodGet, "/api/recipes/unknown/feedback", nil)
	decode(t, w, &resp)
	if resp.Count != 0 {
		t.Errorf("Expected 0 for unrated recipe, got %+v", resp)
	}
}

func TestProfileTargetsAndReset(t *testing.T) {
	e := newEnv(t, &hookGenerator{})

	w := e.do(t, http.MethodPut, "/api/profile/targets", map[string]interface{}{
		"calorieTarget": 2200,
		"macroTargets":  meal.MacroTargets{Protein: 160, Carbs: 220, Fat: 75},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Preferences meal.UserPreferences `json:"preferences"`
		Dirty       bool                 `json:"dirty"`
	}
	decode(t, w, &resp)
	if resp.Preferences.CalorieTarget != 2200 || resp.Dirty {
		t.Errorf("Expected saved 2200 kcal target, got %+v", resp)
	}

	w = e.do(t, http.MethodPut, "/api/profile/targets", map[string]interface{}{"calorieTarget": -1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative target, got %d", w.Code)
	}

	w = e.do(t, http.MethodDelete, "/api/profile", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	w = e.do(t, http.MethodGet, "/api/profile", nil)
	var afterReset struct {
		Preferences meal.UserPreferences `json:"preferences"`
		Dirty       bool                 `json:"dirty"`
	}
	decode(t, w, &afterReset)
	if afterReset.Preferences.CalorieTarget != 0 {
		t.Errorf("Expected wiped profile, got %+v", afterReset.Preferences)
	}
}
