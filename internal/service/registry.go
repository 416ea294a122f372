package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"sheetstand/internal/storage"
)

// Registry manages the collection of setlists. Membership ordering is owned
// by the Ordering engine; the registry only touches setlist records.
type Registry struct {
	store storage.Store
	now   func() time.Time
}

// NewRegistry creates a setlist registry over the given store.
func NewRegistry(store storage.Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

// CreateSetlist creates an empty setlist with the given name.
func (r *Registry) CreateSetlist(ctx context.Context, name string) (*storage.SetlistRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	setlist := &storage.SetlistRecord{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: r.now().UTC(),
	}
	if err := r.store.InsertSetlist(ctx, setlist); err != nil {
		return nil, mapStoreErr("insert setlist", err)
	}
	return setlist, nil
}

// ListSetlists returns all setlists, most recent first, with member counts.
func (r *Registry) ListSetlists(ctx context.Context) ([]storage.SetlistSummary, error) {
	setlists, err := r.store.ListSetlists(ctx)
	if err != nil {
		return nil, mapStoreErr("list setlists", err)
	}
	return setlists, nil
}

// GetSetlist fetches a single setlist by id.
func (r *Registry) GetSetlist(ctx context.Context, id string) (*storage.SetlistRecord, error) {
	setlist, err := r.store.GetSetlist(ctx, id)
	if err != nil {
		return nil, mapStoreErr("get setlist", err)
	}
	return setlist, nil
}

// UpdateSetlist changes the setlist's name and/or notes. Nil fields are
// left untouched; membership rows are never affected.
func (r *Registry) UpdateSetlist(ctx context.Context, id string, name, notes *string) (*storage.SetlistRecord, error) {
	setlist, err := r.store.GetSetlist(ctx, id)
	if err != nil {
		return nil, mapStoreErr("get setlist", err)
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, &ValidationError{Field: "name", Message: "name is required"}
		}
		setlist.Name = trimmed
	}
	if notes != nil {
		setlist.Notes = *notes
	}
	if err := r.store.UpdateSetlist(ctx, setlist); err != nil {
		return nil, mapStoreErr("update setlist", err)
	}
	return setlist, nil
}

// DeleteSetlist removes the setlist and all its membership rows as one
// atomic unit. Referenced sheets remain in the catalog.
func (r *Registry) DeleteSetlist(ctx context.Context, id string) error {
	if err := r.store.DeleteSetlist(ctx, id); err != nil {
		return mapStoreErr("delete setlist", err)
	}
	return nil
}
