package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sheetstand/internal/content"
	"sheetstand/internal/content/mocks"
)

func TestCatalog_CreateSheet_Validation(t *testing.T) {
	catalog, _, _ := newTestCatalog(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    NewSheet
		field string
	}{
		{
			name:  "empty title",
			in:    NewSheet{Title: "   ", ContentKind: "pdf", SizeBytes: 4, Content: strings.NewReader("%PDF")},
			field: "title",
		},
		{
			name:  "missing file",
			in:    NewSheet{Title: "Autumn Leaves", ContentKind: "pdf", SizeBytes: 4},
			field: "file",
		},
		{
			name:  "unsupported kind",
			in:    NewSheet{Title: "Autumn Leaves", ContentKind: "gif", SizeBytes: 4, Content: strings.NewReader("GIF8")},
			field: "contentKind",
		},
		{
			name:  "declared size over limit",
			in:    NewSheet{Title: "Autumn Leaves", ContentKind: "pdf", SizeBytes: MaxContentBytes + 1, Content: strings.NewReader("%PDF")},
			field: "file",
		},
		{
			name:  "empty file",
			in:    NewSheet{Title: "Autumn Leaves", ContentKind: "pdf", SizeBytes: 0, Content: strings.NewReader("")},
			field: "file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.CreateSheet(ctx, tt.in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCatalog_CreateSheet_StoresContentAndRecord(t *testing.T) {
	catalog, store, contents := newTestCatalog(t)
	ctx := context.Background()

	sheet, err := catalog.CreateSheet(ctx, NewSheet{
		Title:       "  Autumn Leaves  ",
		ContentKind: "PDF",
		SizeBytes:   4,
		Content:     strings.NewReader("%PDF"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Autumn Leaves", sheet.Title, "title is trimmed")
	assert.Equal(t, "pdf", sheet.ContentKind, "kind is normalized")
	assert.Equal(t, int64(4), sheet.SizeBytes)
	assert.Equal(t, sheet.CreatedAt, sheet.UpdatedAt)

	stored, err := store.GetSheet(ctx, sheet.ID)
	require.NoError(t, err)
	assert.Equal(t, sheet.ContentKey, stored.ContentKey)

	_, rc, err := contents.Open(ctx, sheet.ContentKey)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
}

func TestCatalog_CreateSheet_OversizedStreamDiscarded(t *testing.T) {
	catalog, _, contents := newTestCatalog(t)
	ctx := context.Background()

	// Declared size lies; the actual stream is over the ceiling.
	big := strings.NewReader(strings.Repeat("x", MaxContentBytes+10))
	_, err := catalog.CreateSheet(ctx, NewSheet{
		Title:       "War and Peace, the opera",
		ContentKind: "pdf",
		SizeBytes:   100,
		Content:     big,
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "file", ve.Field)

	// No orphan blob may remain.
	sheets, err := catalog.ListSheets(ctx)
	require.NoError(t, err)
	assert.Empty(t, sheets)
	_ = contents
}

func TestCatalog_DeleteSheet_CascadesMemberships(t *testing.T) {
	catalog, store, contents := newTestCatalog(t)
	ordering := NewOrdering(store)
	ctx := context.Background()

	x := createSheet(t, catalog, "X")
	a := createSheet(t, catalog, "A")
	createSetlist(t, store, "s1", "First")
	createSetlist(t, store, "s2", "Second")
	_, err := ordering.Replace(ctx, "s1", []string{a, x})
	require.NoError(t, err)
	_, err = ordering.Replace(ctx, "s2", []string{x})
	require.NoError(t, err)

	xRecord, err := store.GetSheet(ctx, x)
	require.NoError(t, err)

	require.NoError(t, catalog.DeleteSheet(ctx, x))

	for _, setlistID := range []string{"s1", "s2"} {
		ordered, err := ordering.ListOrdered(ctx, setlistID)
		require.NoError(t, err)
		for i, os := range ordered {
			assert.Equal(t, i, os.Position)
			assert.NotEqual(t, x, os.ID)
		}
	}

	// Content bytes are gone too.
	_, _, err = contents.Open(ctx, xRecord.ContentKey)
	assert.ErrorIs(t, err, content.ErrNotFound)

	assert.ErrorIs(t, catalog.DeleteSheet(ctx, x), ErrNotFound)
}

func TestCatalog_DeleteSheet_ContentFailureIsBestEffort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	mockContents := mocks.NewMockStore(ctrl)
	catalog := NewCatalog(store, mockContents)
	ctx := context.Background()

	mockContents.EXPECT().
		Put(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(content.Info{Key: "sheets/k.pdf", SizeBytes: 4}, nil)
	mockContents.EXPECT().
		Delete(gomock.Any(), gomock.Any()).
		Return(errors.New("bucket on fire"))

	sheet, err := catalog.CreateSheet(ctx, NewSheet{
		Title:       "A",
		ContentKind: "pdf",
		SizeBytes:   4,
		Content:     strings.NewReader("%PDF"),
	})
	require.NoError(t, err)

	// Metadata deletion succeeds even though content deletion failed.
	require.NoError(t, catalog.DeleteSheet(ctx, sheet.ID))
	_, err = catalog.GetSheet(ctx, sheet.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_OpenContent(t *testing.T) {
	catalog, _, _ := newTestCatalog(t)
	ctx := context.Background()

	id := createSheet(t, catalog, "A")
	sheet, rc, err := catalog.OpenContent(ctx, id)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	assert.Equal(t, id, sheet.ID)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	_, _, err = catalog.OpenContent(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKindForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		ok          bool
	}{
		{"application/pdf", "pdf", true},
		{"image/png", "png", true},
		{"image/jpeg", "jpeg", true},
		{"image/jpg", "jpeg", true},
		{"IMAGE/PNG; charset=binary", "png", true},
		{"text/html", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := KindForContentType(tt.contentType)
		if got != tt.want || ok != tt.ok {
			t.Errorf("KindForContentType(%q) = (%q, %v), want (%q, %v)", tt.contentType, got, ok, tt.want, tt.ok)
		}
	}
}
