// Package favorites keeps the user's saved recipes, keyed by recipe ID.
// Saving is idempotent: adding a recipe that is already saved changes
// nothing, so a double submission cannot delete it. Removal is a separate
// operation the caller confirmation-gates.
package favorites

import (
	"context"
	"sync"

	"pantry-planner/internal/meal"
	"pantry-planner/internal/storage"
)

type Store struct {
	mu      sync.RWMutex
	docs    *storage.DocumentStore
	recipes []meal.Recipe
}

// NewStore loads saved favorites, if any.
func NewStore(ctx context.Context, docs *storage.DocumentStore) (*Store, error) {
	s := &Store{docs: docs}
	if _, err := docs.Get(ctx, storage.DocFavorites, &s.recipes); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns a copy of the saved recipes in insertion order.
func (s *Store) List() []meal.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]meal.Recipe, len(s.recipes))
	copy(out, s.recipes)
	return out
}

// Get returns the saved recipe with the given ID.
func (s *Store) Get(id string) (meal.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recipes {
		if r.ID == id {
			return r, true
		}
	}
	return meal.Recipe{}, false
}

// Add saves the recipe. Adding an already-saved ID is a no-op, reported so
// the caller can offer removal as a confirmed follow-up instead.
func (s *Store) Add(ctx context.Context, recipe meal.Recipe) (alreadyPresent bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.recipes {
		if r.ID == recipe.ID {
			return true, nil
		}
	}

	next := append(append([]meal.Recipe{}, s.recipes...), recipe)
	if err := s.docs.Put(ctx, storage.DocFavorites, next); err != nil {
		return false, err
	}
	s.recipes = next
	return false, nil
}

// Remove deletes the saved recipe with the given ID. Removing an unknown ID
// is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]meal.Recipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		if r.ID != id {
			next = append(next, r)
		}
	}
	if len(next) == len(s.recipes) {
		return nil
	}
	if err := s.docs.Put(ctx, storage.DocFavorites, next); err != nil {
		return err
	}
	s.recipes = next
	return nil
}

// Rate records a rating and optional comment on a saved recipe. Unknown IDs
// are a no-op so stale clients cannot fail the call.
func (s *Store) Rate(ctx context.Context, id string, rating int, feedback string) error {
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	next := make([]meal.Recipe, len(s.recipes))
	copy(next, s.recipes)
	for i := range next {
		if next[i].ID == id {
			next[i].Rating = rating
			next[i].Feedback = feedback
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if err := s.docs.Put(ctx, storage.DocFavorites, next); err != nil {
		return err
	}
	s.recipes = next
	return nil
}
