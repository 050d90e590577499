package planner

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FeedbackRepository buffers recipe ratings for a future personalization
// pipeline. Nothing reads these rows yet.
type FeedbackRepository struct {
	db *sql.DB
}

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Insert stores one feedback entry.
func (r *FeedbackRepository) Insert(ctx context.Context, recipeID string, rating int, feedback string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recipe_feedback (recipe_id, rating, feedback, created_at) VALUES (?, ?, ?, ?)`,
		recipeID, rating, feedback, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// CountForRecipe returns how many feedback entries exist for a recipe.
func (r *FeedbackRepository) CountForRecipe(ctx context.Context, recipeID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipe_feedback WHERE recipe_id = ?`, recipeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return n, nil
}
