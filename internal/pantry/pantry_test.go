package pantry

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"pantry-planner/internal/database"
	"pantry-planner/internal/meal"
	"pantry-planner/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewStore(context.Background(), storage.NewDocumentStore(db.SQL))
	if err != nil {
		t.Fatalf("Failed to create pantry store: %v", err)
	}
	return s
}

func TestPantry(t *testing.T) {
	ctx := context.Background()

	t.Run("AddAndList", func(t *testing.T) {
		s := newTestStore(t)

		added, err := s.Add(ctx, meal.Ingredient{Name: "Eggs", Quantity: 12, Unit: "piece", Category: "Protein"})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if added.ID == "" {
			t.Error("Expected a minted ID")
		}

		items := s.List()
		if len(items) != 1 || items[0].Name != "Eggs" {
			t.Fatalf("Expected [Eggs], got %v", items)
		}
	})

	t.Run("RejectsInvalid", func(t *testing.T) {
		s := newTestStore(t)

		var valErr *meal.ValidationError
		if _, err := s.Add(ctx, meal.Ingredient{Name: "   "}); !errors.As(err, &valErr) {
			t.Errorf("Expected ValidationError for blank name, got %v", err)
		}
		if _, err := s.Add(ctx, meal.Ingredient{Name: "Milk", Quantity: -1}); !errors.As(err, &valErr) {
			t.Errorf("Expected ValidationError for negative quantity, got %v", err)
		}
		if _, err := s.Add(ctx, meal.Ingredient{Name: "Milk", Quantity: 0}); !errors.As(err, &valErr) {
			t.Errorf("Expected ValidationError for zero quantity, got %v", err)
		}
		if len(s.List()) != 0 {
			t.Errorf("Invalid items must not be stored, got %v", s.List())
		}
	})

	t.Run("ReplaceSwapsAndClears", func(t *testing.T) {
		s := newTestStore(t)
		if _, err := s.Add(ctx, meal.Ingredient{Name: "Rice", Quantity: 1, Unit: "kg"}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		if err := s.Replace(ctx, []meal.Ingredient{
			{Name: "Flour", Quantity: 2, Unit: "kg", Category: "Baking"},
			{Name: "Yeast", Quantity: 10, Unit: "g", Category: "Baking"},
		}); err != nil {
			t.Fatalf("Replace failed: %v", err)
		}
		items := s.List()
		if len(items) != 2 || items[0].Name != "Flour" {
			t.Fatalf("Expected replaced list [Flour Yeast], got %v", items)
		}
		if items[0].ID == "" {
			t.Error("Expected replaced items to get minted IDs")
		}

		var valErr *meal.ValidationError
		if err := s.Replace(ctx, []meal.Ingredient{{Name: "Salt", Quantity: 0}}); !errors.As(err, &valErr) {
			t.Errorf("Expected ValidationError for invalid replacement item, got %v", err)
		}
		if len(s.List()) != 2 {
			t.Errorf("Failed replace must leave the pantry untouched, got %v", s.List())
		}

		if err := s.Replace(ctx, nil); err != nil {
			t.Fatalf("Clearing replace failed: %v", err)
		}
		if len(s.List()) != 0 {
			t.Errorf("Expected empty pantry after clearing, got %v", s.List())
		}
	})

	t.Run("RemoveUnknownIsNoop", func(t *testing.T) {
		s := newTestStore(t)
		if _, err := s.Add(ctx, meal.Ingredient{Name: "Rice", Quantity: 1, Unit: "kg"}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		if err := s.Remove(ctx, "no-such-id"); err != nil {
			t.Fatalf("Remove of unknown ID failed: %v", err)
		}
		if len(s.List()) != 1 {
			t.Errorf("Expected 1 item after no-op remove, got %d", len(s.List()))
		}
	})

	t.Run("SurvivesRestart", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.db")

		db, err := database.NewDB(path)
		if err != nil {
			t.Fatalf("Failed to open database: %v", err)
		}
		docs := storage.NewDocumentStore(db.SQL)

		s, err := NewStore(ctx, docs)
		if err != nil {
			t.Fatalf("Failed to create pantry store: %v", err)
		}
		added, err := s.Add(ctx, meal.Ingredient{Name: "Butter", Quantity: 250, Unit: "g", Category: "Dairy"})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		db.Close()

		db2, err := database.NewDB(path)
		if err != nil {
			t.Fatalf("Failed to reopen database: %v", err)
		}
		defer db2.Close()

		s2, err := NewStore(ctx, storage.NewDocumentStore(db2.SQL))
		if err != nil {
			t.Fatalf("Failed to recreate pantry store: %v", err)
		}
		if !reflect.DeepEqual(s2.List(), []meal.Ingredient{added}) {
			t.Errorf("Expected reloaded pantry %v, got %v", []meal.Ingredient{added}, s2.List())
		}
	})
}
