package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sheetstand/internal/content"
	"sheetstand/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	db, err := storage.New(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.Migrate(db))
	return storage.NewSQLiteStore(db)
}

func newTestCatalog(t *testing.T) (*Catalog, *storage.SQLiteStore, *content.Memory) {
	t.Helper()
	store := newTestStore(t)
	contents := content.NewMemory()
	return NewCatalog(store, contents), store, contents
}

// createSheet uploads a small PDF-kind sheet and returns its id.
func createSheet(t *testing.T, c *Catalog, title string) string {
	t.Helper()
	sheet, err := c.CreateSheet(context.Background(), NewSheet{
		Title:       title,
		ContentKind: "pdf",
		SizeBytes:   4,
		Content:     strings.NewReader("%PDF"),
	})
	require.NoError(t, err)
	return sheet.ID
}

func createSetlist(t *testing.T, s *storage.SQLiteStore, id, name string) {
	t.Helper()
	require.NoError(t, s.InsertSetlist(context.Background(), &storage.SetlistRecord{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}))
}
