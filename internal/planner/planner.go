package planner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"text/template"
	"time"

	_ "embed"

	"pantry-planner/internal/llm"
	"pantry-planner/internal/meal"
	"pantry-planner/internal/shared"
)

//go:embed recipes_prompt.md
var recipesPrompt string

//go:embed mealplan_prompt.md
var mealPlanPrompt string

const (
	defaultRecipeCount = 3
	maxRecipeCount     = 10

	retryBaseDelay = time.Second
)

// Planner turns pantry contents and preferences into recipes and weekly meal
// plans via a text-generation provider.
type Planner struct {
	textGen      llm.TextGenerator
	feedbackRepo *FeedbackRepository
	maxRetries   int
	defaultCount int
}

// NewPlanner creates a new Planner instance. feedbackRepo may be nil, in
// which case feedback is only logged.
func NewPlanner(textGen llm.TextGenerator, feedbackRepo *FeedbackRepository, maxRetries, defaultCount int) *Planner {
	if defaultCount <= 0 {
		defaultCount = defaultRecipeCount
	}
	return &Planner{
		textGen:      textGen,
		feedbackRepo: feedbackRepo,
		maxRetries:   maxRetries,
		defaultCount: defaultCount,
	}
}

type recipesPromptData struct {
	Count               int
	Ingredients         string
	DietaryRestrictions string
	Allergies           string
}

// GenerateRecipes asks the provider for count recipes built from the given
// ingredients. The provider is not bound to return exactly count recipes, so
// callers must tolerate a shorter or longer list. An empty ingredient list
// degrades the prompt but is not an error.
func (p *Planner) GenerateRecipes(
	ctx context.Context,
	ingredients []meal.Ingredient,
	prefs meal.UserPreferences,
	count int,
) ([]meal.Recipe, []shared.AgentMeta, error) {
	if count <= 0 {
		count = p.defaultCount
	}
	if count > maxRecipeCount {
		count = maxRecipeCount
	}

	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		names = append(names, ing.Name)
	}
	ingredientList := strings.Join(names, ", ")
	if ingredientList == "" {
		ingredientList = "some common pantry ingredients"
	}

	prompt, err := buildPrompt("recipes", recipesPrompt, recipesPromptData{
		Count:               count,
		Ingredients:         ingredientList,
		DietaryRestrictions: orNone(prefs.DietaryRestrictions),
		Allergies:           orNone(prefs.Allergies),
	})
	if err != nil {
		return nil, nil, err
	}

	resp, metas, err := p.generate(ctx, "RecipeGenerator", prompt)
	if err != nil {
		return nil, metas, err
	}

	recipes, err := parseRecipes(resp.Content)
	if err != nil {
		return nil, metas, err
	}

	return recipes, metas, nil
}

type mealPlanPromptData struct {
	StartDate           string
	EndDate             string
	DietaryRestrictions string
	Allergies           string
	Cuisines            string
	CalorieTarget       string
	MacroTargets        string
}

// GenerateWeeklyPlan asks the provider for a 7-day plan starting at the given
// ISO date (2006-01-02). The response is normalized before use: exactly 7
// days covering the week, dates rewritten, daily totals recomputed and the
// shopping list reset to unchecked.
func (p *Planner) GenerateWeeklyPlan(
	ctx context.Context,
	prefs meal.UserPreferences,
	startDate string,
) (*meal.WeeklyMealPlan, []shared.AgentMeta, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, nil, &meal.ValidationError{Field: "startDate", Reason: "must be an ISO date (2006-01-02)"}
	}
	end := start.AddDate(0, 0, 6)

	calorieTarget := "Not specified"
	if prefs.CalorieTarget > 0 {
		calorieTarget = strconv.Itoa(prefs.CalorieTarget)
	}
	macroTargets := "Not specified"
	if m := prefs.MacroTargets; m != nil {
		macroTargets = fmt.Sprintf("Protein: %gg, Carbs: %gg, Fat: %gg", m.Protein, m.Carbs, m.Fat)
	}

	prompt, err := buildPrompt("mealplan", mealPlanPrompt, mealPlanPromptData{
		StartDate:           start.Format("2006-01-02"),
		EndDate:             end.Format("2006-01-02"),
		DietaryRestrictions: orNone(prefs.DietaryRestrictions),
		Allergies:           orNone(prefs.Allergies),
		Cuisines:            orAny(prefs.CuisinePreferences),
		CalorieTarget:       calorieTarget,
		MacroTargets:        macroTargets,
	})
	if err != nil {
		return nil, nil, err
	}

	resp, metas, err := p.generate(ctx, "PlanGenerator", prompt)
	if err != nil {
		return nil, metas, err
	}

	plan, err := parseWeeklyPlan(resp.Content, start)
	if err != nil {
		return nil, metas, err
	}

	return plan, metas, nil
}

// ProvideFeedback buffers a rating for a recipe. It never blocks and never
// returns an error: this is a placeholder for a future personalization
// pipeline, so the write happens on a background goroutine and failures are
// only logged.
func (p *Planner) ProvideFeedback(recipeID string, rating int, feedback string) {
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}

	log.Printf("Feedback for recipe %s: %d/5", recipeID, rating)

	if p.feedbackRepo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.feedbackRepo.Insert(ctx, recipeID, rating, feedback); err != nil {
			log.Printf("Warning: failed to buffer feedback for recipe %s: %v", recipeID, err)
		}
	}()
}

// generate performs the provider call with bounded retries for transient
// transport failures. Format problems are never retried. One AgentMeta is
// returned per attempt so token spend is accounted for even on failure.
func (p *Planner) generate(ctx context.Context, agentName, prompt string) (llm.ContentResponse, []shared.AgentMeta, error) {
	var metas []shared.AgentMeta
	var lastErr error

	for attempt := 0; ; attempt++ {
		start := time.Now()
		resp, err := p.textGen.GenerateContent(ctx, prompt)
		metas = append(metas, shared.AgentMeta{
			AgentName: agentName,
			Usage:     resp.Usage,
			Latency:   time.Since(start),
		})

		if err == nil {
			if strings.TrimSpace(resp.Content) == "" {
				return llm.ContentResponse{}, metas, generationErr(KindNoContent, "provider returned no content", nil)
			}
			return resp, metas, nil
		}

		lastErr = err
		if !retryable(err) || attempt >= p.maxRetries {
			break
		}

		delay := retryBaseDelay << attempt
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return llm.ContentResponse{}, metas, generationErr(KindTransport, "provider call aborted", ctx.Err())
		}
	}

	return llm.ContentResponse{}, metas, generationErr(KindTransport, "provider call failed", lastErr)
}

// retryable reports whether the provider error looks transient. Rate limiting
// and 5xx answers are retried; auth and client errors are not. Plain network
// failures have no status to inspect and are treated as transient.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}

func buildPrompt(name, text string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func orNone(set []string) string {
	if len(set) == 0 {
		return "None"
	}
	return strings.Join(set, ", ")
}

func orAny(set []string) string {
	if len(set) == 0 {
		return "Any"
	}
	return strings.Join(set, ", ")
}
