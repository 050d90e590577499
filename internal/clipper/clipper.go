// Package clipper imports recipes from the web. It fetches a page, strips it
// down to readable text and has the model restructure that text into a
// recipe, which lands directly in the user's favorites.
package clipper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pantry-planner/internal/favorites"
	"pantry-planner/internal/llm"
	"pantry-planner/internal/meal"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

// Pages above this cutoff are truncated before prompting.
const maxContentChars = 16000

type Clipper struct {
	httpClient *http.Client
	textGen    llm.TextGenerator
	favorites  *favorites.Store
}

func NewClipper(textGen llm.TextGenerator, favs *favorites.Store) *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		textGen:    textGen,
		favorites:  favs,
	}
}

// ClipURL fetches the URL, extracts the recipe and saves it to favorites.
func (c *Clipper) ClipURL(ctx context.Context, url string) (meal.Recipe, shared.AgentMeta, error) {
	content, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return meal.Recipe{}, shared.AgentMeta{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe from the following
page text. Return the result strictly as a JSON object with this structure:
{
  "recipes": [
    {
      "name": "Recipe Title",
      "description": "One or two sentences",
      "ingredients": [
        {"name": "ingredient", "quantity": 2, "unit": "piece", "category": "Protein"}
      ],
      "instructions": ["Step 1", "Step 2"],
      "prepTime": 10,
      "cookTime": 15,
      "servings": 2,
      "nutrition": {"calories": 350, "protein": 40, "carbs": 2, "fat": 20},
      "tags": ["Imported"]
    }
  ]
}
Use 0 for any numeric value the page does not state. Do not include any
other text or formatting in your response.

Page text:
%s
`, content)

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{
		AgentName: "RecipeClipper",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if err != nil {
		return meal.Recipe{}, meta, fmt.Errorf("extraction failed: %w", err)
	}

	recipe, err := planner.ParseRecipe(resp.Content)
	if err != nil {
		return meal.Recipe{}, meta, err
	}
	if !meal.Contains(recipe.Tags, "Imported") {
		recipe.Tags = append(recipe.Tags, "Imported")
	}

	if _, err := c.favorites.Add(ctx, recipe); err != nil {
		return meal.Recipe{}, meta, fmt.Errorf("failed to save clipped recipe: %w", err)
	}
	return recipe, meta, nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save model tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := strings.TrimSpace(doc.Find("body").Text())
	if len(text) > maxContentChars {
		text = text[:maxContentChars]
	}
	return text, nil
}
