// Package pantry manages the user's ingredient inventory. The whole list
// lives in memory and is rewritten to the document store on every mutation,
// so a restart always comes back to the last saved state.
package pantry

import (
	"context"
	"strings"
	"sync"

	"pantry-planner/internal/meal"
	"pantry-planner/internal/storage"
)

type Store struct {
	mu    sync.RWMutex
	docs  *storage.DocumentStore
	items []meal.Ingredient
}

// NewStore loads the saved pantry, if any. A missing document yields an
// empty pantry, not an error.
func NewStore(ctx context.Context, docs *storage.DocumentStore) (*Store, error) {
	s := &Store{docs: docs}
	if _, err := docs.Get(ctx, storage.DocPantry, &s.items); err != nil {
		return nil, err
	}
	return s, nil
}

// List returns a copy of the current pantry contents.
func (s *Store) List() []meal.Ingredient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]meal.Ingredient, len(s.items))
	copy(out, s.items)
	return out
}

// Add validates and appends an ingredient, minting an ID when the caller did
// not supply one, then persists the full list.
func (s *Store) Add(ctx context.Context, ing meal.Ingredient) (meal.Ingredient, error) {
	ing, err := validate(ing)
	if err != nil {
		return meal.Ingredient{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(append([]meal.Ingredient{}, s.items...), ing)
	if err := s.docs.Put(ctx, storage.DocPantry, next); err != nil {
		return meal.Ingredient{}, err
	}
	s.items = next
	return ing, nil
}

// Remove deletes the ingredient with the given ID. Removing an unknown ID is
// a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]meal.Ingredient, 0, len(s.items))
	for _, ing := range s.items {
		if ing.ID != id {
			next = append(next, ing)
		}
	}
	if len(next) == len(s.items) {
		return nil
	}
	if err := s.docs.Put(ctx, storage.DocPantry, next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// Replace swaps the entire pantry for the given list and persists it. An
// empty list clears the pantry. Any invalid item rejects the whole call and
// leaves the current pantry in place.
func (s *Store) Replace(ctx context.Context, items []meal.Ingredient) error {
	next := make([]meal.Ingredient, len(items))
	for i, ing := range items {
		validated, err := validate(ing)
		if err != nil {
			return err
		}
		next[i] = validated
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.docs.Put(ctx, storage.DocPantry, next); err != nil {
		return err
	}
	s.items = next
	return nil
}

// validate normalizes an incoming ingredient and mints an ID if needed.
func validate(ing meal.Ingredient) (meal.Ingredient, error) {
	ing.Name = strings.TrimSpace(ing.Name)
	if ing.Name == "" {
		return meal.Ingredient{}, &meal.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if ing.Quantity <= 0 {
		return meal.Ingredient{}, &meal.ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	if ing.ID == "" {
		ing.ID = meal.NewID()
	}
	return ing, nil
}
