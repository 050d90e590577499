package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"pantry-planner/internal/meal"
)

// StoredPlan is a meal plan row from the history table.
type StoredPlan struct {
	ID        int64
	UserID    string
	Plan      meal.WeeklyMealPlan
	CreatedAt time.Time
}

// PlanRepository is a database-backed history of generated meal plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Save appends a generated plan to the user's history.
func (r *PlanRepository) Save(ctx context.Context, userID string, plan *meal.WeeklyMealPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (user_id, plan_data, created_at) VALUES (?, ?, ?)`,
		userID, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return nil
}

// ListRecent retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecent(ctx context.Context, userID string, limit int) ([]StoredPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, plan_data, created_at
		 FROM meal_plans WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []StoredPlan
	for rows.Next() {
		var p StoredPlan
		var data []byte
		if err := rows.Scan(&p.ID, &p.UserID, &data, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan row: %w", err)
		}
		if err := json.Unmarshal(data, &p.Plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored meal plan %d: %w", p.ID, err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
