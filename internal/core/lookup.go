// Package core provides item lookup and search logic shared by the CLI and TUI.
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/azkar/internal/model"
)

// Errors returned by Resolve.
var (
	ErrNotFound  = errors.New("no matching item")
	ErrAmbiguous = errors.New("ambiguous item reference")
)

// LookupByID finds an item by its exact ID.
// Returns nil if not found.
func LookupByID(items []model.ReminderItem, id string) *model.ReminderItem {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

// LookupByIndex finds an item by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func LookupByIndex(items []model.ReminderItem, index int) *model.ReminderItem {
	// Convert to 0-based
	idx := index - 1
	if idx < 0 || idx >= len(items) {
		return nil
	}
	return &items[idx]
}

// LookupByPrefix returns every item whose ID starts with prefix (case-insensitive).
func LookupByPrefix(items []model.ReminderItem, prefix string) []model.ReminderItem {
	if prefix == "" {
		return nil
	}
	prefix = strings.ToUpper(prefix)

	var result []model.ReminderItem
	for _, item := range items {
		if strings.HasPrefix(strings.ToUpper(item.ID), prefix) {
			result = append(result, item)
		}
	}
	return result
}

// Resolve finds the item a user reference points at. The reference is tried
// as an exact ID, then as a 1-based index, then as a unique ID prefix.
func Resolve(items []model.ReminderItem, ref string) (model.ReminderItem, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.ReminderItem{}, fmt.Errorf("%w: empty reference", ErrNotFound)
	}

	if item := LookupByID(items, ref); item != nil {
		return *item, nil
	}

	if index, err := strconv.Atoi(ref); err == nil {
		if item := LookupByIndex(items, index); item != nil {
			return *item, nil
		}
	}

	switch matches := LookupByPrefix(items, ref); len(matches) {
	case 0:
		return model.ReminderItem{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return model.ReminderItem{}, fmt.Errorf("%w: %q matches %d items", ErrAmbiguous, ref, len(matches))
	}
}

// Search finds items whose text contains term.
// Case-insensitive substring match.
func Search(items []model.ReminderItem, term string) []model.ReminderItem {
	if term == "" {
		return items
	}

	term = strings.ToLower(term)
	var result []model.ReminderItem

	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Text), term) {
			result = append(result, item)
		}
	}

	return result
}
