package service

import (
	"context"
	"fmt"
	"strings"

	"sheetstand/internal/storage"
)

// Ordering maintains each setlist's ordered, gapless, duplicate-free
// sequence of sheet references. Every mutation runs as a single store
// transaction, so concurrent calls against the same setlist serialize on
// the store and no caller ever observes duplicate or missing positions.
type Ordering struct {
	store storage.Store
}

// NewOrdering creates the membership ordering engine over the given store.
func NewOrdering(store storage.Store) *Ordering {
	return &Ordering{store: store}
}

// Append adds the sheet at the end of the setlist. Returns ErrConflict if
// the sheet is already a member. The result is the full updated sequence.
func (o *Ordering) Append(ctx context.Context, setlistID, sheetID string) ([]string, error) {
	sheetID = strings.TrimSpace(sheetID)
	if sheetID == "" {
		return nil, &ValidationError{Field: "sheetId", Message: "sheetId is required"}
	}
	seq, err := o.store.UpdateMemberships(ctx, setlistID, func(current []string) ([]string, error) {
		if indexOf(current, sheetID) >= 0 {
			return nil, fmt.Errorf("sheet already in setlist: %w", ErrConflict)
		}
		return append(current, sheetID), nil
	})
	return seq, mapStoreErr("append sheet", err)
}

// Remove drops the sheet from the setlist and renumbers the remaining rows
// to close the gap. Returns ErrNotFound if the membership does not exist.
func (o *Ordering) Remove(ctx context.Context, setlistID, sheetID string) ([]string, error) {
	seq, err := o.store.UpdateMemberships(ctx, setlistID, func(current []string) ([]string, error) {
		i := indexOf(current, sheetID)
		if i < 0 {
			return nil, fmt.Errorf("sheet %s not in setlist: %w", sheetID, ErrNotFound)
		}
		return removeAt(current, i), nil
	})
	return seq, mapStoreErr("remove sheet", err)
}

// Replace atomically swaps the setlist's entire sequence for the supplied
// one, preserving caller order exactly. This is the bulk-edit primitive: a
// reorder, subset and superset all go through here in one transaction.
func (o *Ordering) Replace(ctx context.Context, setlistID string, orderedSheetIDs []string) ([]string, error) {
	if dup := firstDuplicate(orderedSheetIDs); dup != "" {
		return nil, &ValidationError{Field: "sheets", Message: fmt.Sprintf("duplicate sheet id %s", dup)}
	}
	next := make([]string, len(orderedSheetIDs))
	copy(next, orderedSheetIDs)
	seq, err := o.store.UpdateMemberships(ctx, setlistID, func([]string) ([]string, error) {
		return next, nil
	})
	return seq, mapStoreErr("replace sequence", err)
}

// Move takes the sheet at fromIndex and reinserts it at toIndex, shifting
// everything in between, in a single transaction.
func (o *Ordering) Move(ctx context.Context, setlistID string, fromIndex, toIndex int) ([]string, error) {
	seq, err := o.store.UpdateMemberships(ctx, setlistID, func(current []string) ([]string, error) {
		n := len(current)
		if fromIndex < 0 || fromIndex >= n {
			return nil, &ValidationError{Field: "fromIndex", Message: fmt.Sprintf("index %d out of range [0, %d]", fromIndex, n-1)}
		}
		if toIndex < 0 || toIndex >= n {
			return nil, &ValidationError{Field: "toIndex", Message: fmt.Sprintf("index %d out of range [0, %d]", toIndex, n-1)}
		}
		if fromIndex == toIndex {
			return current, nil
		}
		return moveIndex(current, fromIndex, toIndex), nil
	})
	return seq, mapStoreErr("move sheet", err)
}

// RemoveEverywhere drops the sheet from every setlist containing it,
// renumbering each. Used by the sheet deletion cascade.
func (o *Ordering) RemoveEverywhere(ctx context.Context, sheetID string) error {
	return mapStoreErr("remove sheet everywhere", o.store.RemoveSheetEverywhere(ctx, sheetID))
}

// ListOrdered returns the setlist's sheets with their positions, sorted by
// position ascending.
func (o *Ordering) ListOrdered(ctx context.Context, setlistID string) ([]storage.OrderedSheet, error) {
	ordered, err := o.store.ListOrdered(ctx, setlistID)
	if err != nil {
		return nil, mapStoreErr("list ordered", err)
	}
	return ordered, nil
}
