// Package shopping manages the shopping list derived from a weekly meal
// plan. The list is a working copy: checking items off never mutates the
// plan it came from.
package shopping

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"pantry-planner/internal/meal"
)

// Filter selects which items List.Items returns.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// List is a checkable shopping list.
type List struct {
	mu    sync.RWMutex
	items []meal.ShoppingListItem
}

// NewList builds a list from pre-consolidated items.
func NewList(items []meal.ShoppingListItem) *List {
	copied := make([]meal.ShoppingListItem, len(items))
	copy(copied, items)
	return &List{items: copied}
}

// FromPlan consolidates a weekly plan's shopping list. Items with the same
// name and unit are merged, quantities summed. Name and unit matching is
// case-insensitive; the first spelling wins.
func FromPlan(plan *meal.WeeklyMealPlan) *List {
	merged := make([]meal.ShoppingListItem, 0, len(plan.ShoppingList))
	index := make(map[string]int)

	for _, item := range plan.ShoppingList {
		key := strings.ToLower(strings.TrimSpace(item.Name)) + "|" + strings.ToLower(strings.TrimSpace(item.Unit))
		if i, ok := index[key]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		item.Checked = false
		if item.ID == "" {
			item.ID = meal.NewID()
		}
		index[key] = len(merged)
		merged = append(merged, item)
	}

	return &List{items: merged}
}

// Items returns the items matching the filter, in list order.
func (l *List) Items(f Filter) []meal.ShoppingListItem {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]meal.ShoppingListItem, 0, len(l.items))
	for _, item := range l.items {
		switch f {
		case FilterPending:
			if item.Checked {
				continue
			}
		case FilterCompleted:
			if !item.Checked {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// SetChecked marks the item with the given ID. It reports whether the ID was
// found.
func (l *List) SetChecked(id string, checked bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].Checked = checked
			return true
		}
	}
	return false
}

// Progress returns checked and total counts plus the completion percentage,
// rounded to the nearest whole number. An empty list is 0% complete.
func (l *List) Progress() (checked, total, percent int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total = len(l.items)
	for _, item := range l.items {
		if item.Checked {
			checked++
		}
	}
	if total > 0 {
		percent = int(math.Round(float64(checked) / float64(total) * 100))
	}
	return checked, total, percent
}

// GroupByCategory buckets the filtered items by category. Group order is
// alphabetical with the empty category last, renamed "Other".
func (l *List) GroupByCategory(f Filter) []CategoryGroup {
	items := l.Items(f)

	buckets := make(map[string][]meal.ShoppingListItem)
	for _, item := range items {
		category := strings.TrimSpace(item.Category)
		if category == "" {
			category = "Other"
		}
		buckets[category] = append(buckets[category], item)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		if name != "Other" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := buckets["Other"]; ok {
		names = append(names, "Other")
	}

	groups := make([]CategoryGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, CategoryGroup{Category: name, Items: buckets[name]})
	}
	return groups
}

// CategoryGroup is one category's slice of a shopping list.
type CategoryGroup struct {
	Category string                  `json:"category"`
	Items    []meal.ShoppingListItem `json:"items"`
}

// ExportText renders the list as plain text for sharing, grouped by
// category with checked items marked.
func (l *List) ExportText() string {
	var b strings.Builder
	b.WriteString("Shopping List\n")

	for _, group := range l.GroupByCategory(FilterAll) {
		fmt.Fprintf(&b, "\n%s:\n", group.Category)
		for _, item := range group.Items {
			mark := "[ ]"
			if item.Checked {
				mark = "[x]"
			}
			fmt.Fprintf(&b, "%s %s - %g %s\n", mark, item.Name, item.Quantity, item.Unit)
		}
	}
	return b.String()
}
