// Package profile holds the user's dietary preferences. Edits accumulate in
// memory and hit the document store only on Save, so a half-finished edit
// never overwrites the stored profile.
package profile

import (
	"context"
	"sync"

	"pantry-planner/internal/meal"
	"pantry-planner/internal/storage"
)

type Store struct {
	mu    sync.RWMutex
	docs  *storage.DocumentStore
	prefs meal.UserPreferences
	dirty bool
}

// NewStore loads the saved profile, if any.
func NewStore(ctx context.Context, docs *storage.DocumentStore) (*Store, error) {
	s := &Store{docs: docs}
	if _, err := docs.Get(ctx, storage.DocProfile, &s.prefs); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the current in-memory preferences.
func (s *Store) Get() meal.UserPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Dirty reports whether there are unsaved edits.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ToggleRestriction flips a dietary restriction on or off.
func (s *Store) ToggleRestriction(item string) meal.UserPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.DietaryRestrictions = meal.Toggle(s.prefs.DietaryRestrictions, item)
	s.dirty = true
	return s.prefs
}

// ToggleAllergy flips an allergy on or off.
func (s *Store) ToggleAllergy(item string) meal.UserPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Allergies = meal.Toggle(s.prefs.Allergies, item)
	s.dirty = true
	return s.prefs
}

// ToggleCuisine flips a cuisine preference on or off.
func (s *Store) ToggleCuisine(item string) meal.UserPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.CuisinePreferences = meal.Toggle(s.prefs.CuisinePreferences, item)
	s.dirty = true
	return s.prefs
}

// SetTargets updates the calorie and macro targets.
func (s *Store) SetTargets(calories int, macros *meal.MacroTargets) (meal.UserPreferences, error) {
	if calories < 0 {
		return meal.UserPreferences{}, &meal.ValidationError{Field: "calorieTarget", Reason: "must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.CalorieTarget = calories
	s.prefs.MacroTargets = macros
	s.dirty = true
	return s.prefs, nil
}

// Replace swaps the entire in-memory preference set. The caller still has
// to Save for the change to stick.
func (s *Store) Replace(prefs meal.UserPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = prefs
	s.dirty = true
}

// Reset wipes the profile, both in memory and in the document store.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.docs.Delete(ctx, storage.DocProfile); err != nil {
		return err
	}
	s.prefs = meal.UserPreferences{}
	s.dirty = false
	return nil
}

// Save writes the in-memory preferences to the document store.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.docs.Put(ctx, storage.DocProfile, s.prefs); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
