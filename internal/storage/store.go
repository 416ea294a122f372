package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// MutateFunc transforms a setlist's current ordered sheet ids into the
// desired new ordering. It runs inside the store transaction that will
// persist its result; returning an error aborts the transaction unchanged.
type MutateFunc func(current []string) ([]string, error)

// Store is the persistence seam for the catalog, registry and ordering
// engine. One implementation ships (SQLite); the interface is what any
// alternative backend would have to satisfy.
//
// All mutating membership operations are atomic per setlist: the backend
// must apply the full renumbered sequence or nothing, and must serialize
// concurrent mutations of the same setlist through its own transaction
// mechanism.
type Store interface {
	// Sheets.
	InsertSheet(ctx context.Context, sheet *SheetRecord) error
	ListSheets(ctx context.Context) ([]SheetSummary, error)
	GetSheet(ctx context.Context, id string) (*SheetRecord, error)
	// DeleteSheet removes the sheet and every membership row referencing
	// it, renumbering each affected setlist, as one atomic unit.
	DeleteSheet(ctx context.Context, id string) error

	// Setlists.
	InsertSetlist(ctx context.Context, setlist *SetlistRecord) error
	ListSetlists(ctx context.Context) ([]SetlistSummary, error)
	GetSetlist(ctx context.Context, id string) (*SetlistRecord, error)
	UpdateSetlist(ctx context.Context, setlist *SetlistRecord) error
	// DeleteSetlist removes the setlist and all its membership rows as one
	// atomic unit. Referenced sheets are untouched.
	DeleteSetlist(ctx context.Context, id string) error

	// Memberships.
	ListOrdered(ctx context.Context, setlistID string) ([]OrderedSheet, error)
	// UpdateMemberships runs mutate against the setlist's current ordered
	// sheet ids and replaces the stored sequence with the result, assigning
	// positions 0..n-1 in list order. Every id in the result must reference
	// an existing sheet; a missing id fails the whole transaction with an
	// error wrapping ErrNotFound that names the id. Returns the committed
	// sequence.
	UpdateMemberships(ctx context.Context, setlistID string, mutate MutateFunc) ([]string, error)
	// RemoveSheetEverywhere drops the sheet from every setlist containing
	// it, renumbering each, atomically. Used by the sheet deletion cascade.
	RemoveSheetEverywhere(ctx context.Context, sheetID string) error

	Ping(ctx context.Context) error
}
