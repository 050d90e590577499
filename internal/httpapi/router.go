// Package httpapi is the JSON surface backing the client views: pantry,
// recipe generation, weekly planning, shopping and profile. All state
// mutations go through the injected stores; handlers own no state beyond
// the per-token Session.
package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pantry-planner/internal/clipper"
	"pantry-planner/internal/favorites"
	"pantry-planner/internal/meal"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/pantry"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/profile"
	"pantry-planner/internal/shared"
)

// Plan history is stored per user; the web surface is single-user.
const webUserID = "local"

const sessionKey = "session"

// Server bundles the dependencies the handlers need.
type Server struct {
	Planner   *planner.Planner
	Pantry    *pantry.Store
	Favorites *favorites.Store
	Profile   *profile.Store
	Clipper   *clipper.Clipper
	Plans     *planner.PlanRepository
	Feedback  *planner.FeedbackRepository
	Metrics   *metrics.Store
	Sessions  *SessionManager

	DBPath            string
	GenerationTimeout time.Duration
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/api/session", s.createSession)

	api := r.Group("/api", s.requireSession)
	{
		api.GET("/pantry", s.listPantry)
		api.POST("/pantry", s.addPantryItem)
		api.PUT("/pantry", s.replacePantry)
		api.DELETE("/pantry/:id", s.removePantryItem)

		api.GET("/favorites", s.listFavorites)
		api.POST("/favorites", s.saveFavorite)
		api.DELETE("/favorites/:id", s.removeFavorite)

		api.GET("/profile", s.getProfile)
		api.PUT("/profile", s.putProfile)
		api.DELETE("/profile", s.resetProfile)
		api.PUT("/profile/targets", s.putProfileTargets)
		api.POST("/profile/toggle", s.toggleProfileItem)

		api.POST("/recipes/generate", s.generateRecipes)
		api.POST("/recipes/clip", s.clipRecipe)
		api.POST("/recipes/:id/feedback", s.recipeFeedback)
		api.GET("/recipes/:id/feedback", s.feedbackCount)

		api.POST("/plan/generate", s.generatePlan)
		api.GET("/plan", s.getPlan)
		api.GET("/plan/history", s.planHistory)

		api.GET("/shopping", s.getShopping)
		api.POST("/shopping/:id/check", s.checkShoppingItem)
		api.GET("/shopping/export", s.exportShopping)

		api.GET("/metrics/usage", s.usageMetrics)
		api.GET("/metrics/health", s.healthMetrics)
	}

	return r
}

// requireSession resolves the Bearer token into a live Session. The token
// itself must never appear in logs or error bodies.
func (s *Server) requireSession(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token", "kind": "auth"})
		return
	}

	session, err := s.Sessions.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session", "kind": "auth"})
		return
	}

	c.Set(sessionKey, session)
	c.Next()
}

func currentSession(c *gin.Context) *Session {
	return c.MustGet(sessionKey).(*Session)
}

// fail maps domain errors onto statuses and the flat {"error", "kind"} body
// the client renders inline.
func fail(c *gin.Context, err error) {
	var valErr *meal.ValidationError
	if errors.As(err, &valErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error(), "kind": "validation"})
		return
	}

	var genErr *planner.GenerationError
	if errors.As(err, &genErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": genErr.Error(), "kind": string(genErr.Kind)})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": "internal"})
}

func failSuperseded(c *gin.Context) {
	c.JSON(http.StatusConflict, gin.H{"error": "request superseded by a newer one", "kind": "superseded"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "kind": "validation"})
}

// recordMetas writes provider call accounting. Metrics failures never fail
// the request.
func (s *Server) recordMetas(metas []shared.AgentMeta) {
	for _, meta := range metas {
		if err := s.Metrics.RecordMeta(meta); err != nil {
			log.Printf("Failed to record metrics for %s: %v", meta.AgentName, err)
		}
	}
}
