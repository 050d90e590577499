package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pantry-planner/internal/meal"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/shared"
	"pantry-planner/internal/shopping"
)

func (s *Server) createSession(c *gin.Context) {
	token, err := s.Sessions.Issue()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (s *Server) listPantry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.Pantry.List()})
}

func (s *Server) addPantryItem(c *gin.Context) {
	var ing meal.Ingredient
	if err := c.ShouldBindJSON(&ing); err != nil {
		badRequest(c, "body must be an ingredient object")
		return
	}

	added, err := s.Pantry.Add(c.Request.Context(), ing)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

// replacePantry swaps the whole pantry in one call, used after a cook-through
// or a fresh shop. An empty list clears it, which is why the UI confirms first.
func (s *Server) replacePantry(c *gin.Context) {
	var req struct {
		Items []meal.Ingredient `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body must contain an items list")
		return
	}

	if err := s.Pantry.Replace(c.Request.Context(), req.Items); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": s.Pantry.List()})
}

func (s *Server) removePantryItem(c *gin.Context) {
	if err := s.Pantry.Remove(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listFavorites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"recipes": s.Favorites.List()})
}

// saveFavorite is idempotent: saving an already-saved recipe changes nothing
// and reports it, so the UI can offer removal as a confirmed follow-up.
func (s *Server) saveFavorite(c *gin.Context) {
	var recipe meal.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil || recipe.ID == "" {
		badRequest(c, "body must be a recipe object with an id")
		return
	}

	already, err := s.Favorites.Add(c.Request.Context(), recipe)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true, "alreadyPresent": already})
}

func (s *Server) removeFavorite(c *gin.Context) {
	if err := s.Favorites.Remove(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getProfile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"preferences": s.Profile.Get(),
		"dirty":       s.Profile.Dirty(),
	})
}

// putProfile replaces the draft and saves it in one call. This is the only
// way edits reach the document store.
func (s *Server) putProfile(c *gin.Context) {
	var prefs meal.UserPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		badRequest(c, "body must be a preferences object")
		return
	}

	s.Profile.Replace(prefs)
	if err := s.Profile.Save(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": s.Profile.Get(), "dirty": false})
}

// putProfileTargets sets calorie and macro targets and saves right away.
func (s *Server) putProfileTargets(c *gin.Context) {
	var req struct {
		CalorieTarget int                `json:"calorieTarget"`
		MacroTargets  *meal.MacroTargets `json:"macroTargets"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body must be a targets object")
		return
	}

	prefs, err := s.Profile.SetTargets(req.CalorieTarget, req.MacroTargets)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.Profile.Save(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs, "dirty": false})
}

func (s *Server) resetProfile(c *gin.Context) {
	if err := s.Profile.Reset(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleProfileItem(c *gin.Context) {
	var req struct {
		Field string `json:"field"`
		Item  string `json:"item"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Item == "" {
		badRequest(c, "body must name a field and an item")
		return
	}

	var prefs meal.UserPreferences
	switch req.Field {
	case "dietaryRestrictions":
		prefs = s.Profile.ToggleRestriction(req.Item)
	case "allergies":
		prefs = s.Profile.ToggleAllergy(req.Item)
	case "cuisinePreferences":
		prefs = s.Profile.ToggleCuisine(req.Item)
	default:
		badRequest(c, "field must be dietaryRestrictions, allergies or cuisinePreferences")
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs, "dirty": s.Profile.Dirty()})
}

func (s *Server) generateRecipes(c *gin.Context) {
	var req struct {
		Ingredient string `json:"ingredient"`
		Count      int    `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body must be a generation request")
		return
	}

	session := currentSession(c)
	seq := session.recipeSeq.Add(1)

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.GenerationTimeout)
	defer cancel()

	recipes, metas, err := s.Planner.GenerateRecipes(ctx, s.Pantry.List(), s.Profile.Get(), req.Count)
	s.recordMetas(metas)
	if err != nil {
		fail(c, err)
		return
	}
	if session.recipeSeq.Load() != seq {
		failSuperseded(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes": meal.FilterRecipesByIngredient(recipes, req.Ingredient),
	})
}

func (s *Server) clipRecipe(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		badRequest(c, "body must contain a url")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.GenerationTimeout)
	defer cancel()

	recipe, meta, err := s.Clipper.ClipURL(ctx, req.URL)
	s.recordMetas([]shared.AgentMeta{meta})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// recipeFeedback accepts and acknowledges immediately; the write happens in
// the background and is never surfaced to the client.
func (s *Server) recipeFeedback(c *gin.Context) {
	var req struct {
		Rating   int    `json:"rating"`
		Feedback string `json:"feedback"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body must be a feedback object")
		return
	}

	id := c.Param("id")
	s.Planner.ProvideFeedback(id, req.Rating, req.Feedback)
	if err := s.Favorites.Rate(c.Request.Context(), id, req.Rating, req.Feedback); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *Server) feedbackCount(c *gin.Context) {
	id := c.Param("id")
	count, err := s.Feedback.CountForRecipe(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipeId": id, "count": count})
}

func (s *Server) generatePlan(c *gin.Context) {
	var req struct {
		StartDate string `json:"startDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body must be a plan request")
		return
	}

	session := currentSession(c)
	seq := session.planSeq.Add(1)

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.GenerationTimeout)
	defer cancel()

	plan, metas, err := s.Planner.GenerateWeeklyPlan(ctx, s.Profile.Get(), req.StartDate)
	s.recordMetas(metas)
	if err != nil {
		fail(c, err)
		return
	}
	if session.planSeq.Load() != seq {
		failSuperseded(c)
		return
	}

	session.SetPlan(plan)
	if err := s.Plans.Save(c.Request.Context(), webUserID, plan); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) getPlan(c *gin.Context) {
	plan := currentSession(c).Plan()
	if plan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no plan generated yet", "kind": "not_found"})
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) planHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	plans, err := s.Plans.ListRecent(c.Request.Context(), webUserID, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (s *Server) getShopping(c *gin.Context) {
	list := currentSession(c).ShoppingList()
	if list == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no plan generated yet", "kind": "not_found"})
		return
	}

	filter := shopping.Filter(c.DefaultQuery("filter", string(shopping.FilterAll)))
	checked, total, percent := list.Progress()
	c.JSON(http.StatusOK, gin.H{
		"groups":  list.GroupByCategory(filter),
		"checked": checked,
		"total":   total,
		"percent": percent,
	})
}

func (s *Server) checkShoppingItem(c *gin.Context) {
	list := currentSession(c).ShoppingList()
	if list == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no plan generated yet", "kind": "not_found"})
		return
	}

	var req struct {
		Checked bool `json:"checked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body must contain a checked flag")
		return
	}

	if !list.SetChecked(c.Param("id"), req.Checked) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such shopping item", "kind": "not_found"})
		return
	}

	checked, total, percent := list.Progress()
	c.JSON(http.StatusOK, gin.H{"checked": checked, "total": total, "percent": percent})
}

func (s *Server) exportShopping(c *gin.Context) {
	list := currentSession(c).ShoppingList()
	if list == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no plan generated yet", "kind": "not_found"})
		return
	}
	c.String(http.StatusOK, list.ExportText())
}

func (s *Server) usageMetrics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	usage, err := s.Metrics.GetDailyUsage(days)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

func (s *Server) healthMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.GetSysHealth(s.DBPath))
}
