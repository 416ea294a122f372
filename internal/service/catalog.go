package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sheetstand/internal/content"
	"sheetstand/internal/storage"
)

// MaxContentBytes is the upload size ceiling (10 MiB).
const MaxContentBytes = 10 << 20

// contentKinds maps accepted kinds to their MIME types and file extensions.
var contentKinds = map[string]struct {
	mime string
	ext  string
}{
	"pdf":  {"application/pdf", "pdf"},
	"png":  {"image/png", "png"},
	"jpeg": {"image/jpeg", "jpg"},
}

// ContentTypeFor returns the MIME type for an accepted content kind.
func ContentTypeFor(kind string) (string, bool) {
	k, ok := contentKinds[kind]
	return k.mime, ok
}

// KindForContentType returns the content kind for an accepted MIME type.
func KindForContentType(contentType string) (string, bool) {
	// Strip any media type parameters.
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(strings.ToLower(contentType))
	if contentType == "image/jpg" {
		contentType = "image/jpeg"
	}
	for kind, k := range contentKinds {
		if k.mime == contentType {
			return kind, true
		}
	}
	return "", false
}

// NewSheet is the input to Catalog.CreateSheet.
type NewSheet struct {
	Title       string
	ContentKind string
	SizeBytes   int64
	Content     io.Reader
}

// Catalog manages the library of uploaded sheets. Document bytes go to the
// content store; metadata goes to the record store. Deleting a sheet
// cascades membership removal atomically through the record store, while
// content deletion is best-effort.
type Catalog struct {
	store    storage.Store
	contents content.Store
	logger   *slog.Logger
	now      func() time.Time
}

// NewCatalog creates a sheet catalog over the given stores.
func NewCatalog(store storage.Store, contents content.Store) *Catalog {
	return &Catalog{
		store:    store,
		contents: contents,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// CreateSheet validates and stores a new sheet: bytes first, then the
// metadata record. If the record insert fails the stored bytes are removed
// again so no orphan content is left behind.
func (c *Catalog) CreateSheet(ctx context.Context, in NewSheet) (*storage.SheetRecord, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}
	if in.Content == nil {
		return nil, &ValidationError{Field: "file", Message: "file is required"}
	}
	kind := strings.ToLower(strings.TrimSpace(in.ContentKind))
	meta, ok := contentKinds[kind]
	if !ok {
		return nil, &ValidationError{Field: "contentKind", Message: fmt.Sprintf("unsupported content kind %q", in.ContentKind)}
	}
	if in.SizeBytes > MaxContentBytes {
		return nil, &ValidationError{Field: "file", Message: "file exceeds maximum size of 10 MiB"}
	}

	id := uuid.New().String()
	key := fmt.Sprintf("sheets/%s.%s", id, meta.ext)

	// Cap the read regardless of the declared size so an understated
	// Content-Length cannot smuggle in an oversized document.
	info, err := c.contents.Put(ctx, key, io.LimitReader(in.Content, MaxContentBytes+1))
	if err != nil {
		return nil, &StorageError{Op: "put content", Err: err}
	}
	if info.SizeBytes == 0 {
		c.discardContent(ctx, key)
		return nil, &ValidationError{Field: "file", Message: "file is empty"}
	}
	if info.SizeBytes > MaxContentBytes {
		c.discardContent(ctx, key)
		return nil, &ValidationError{Field: "file", Message: "file exceeds maximum size of 10 MiB"}
	}

	now := c.now().UTC()
	sheet := &storage.SheetRecord{
		ID:          id,
		Title:       title,
		ContentKey:  key,
		SizeBytes:   info.SizeBytes,
		ContentKind: kind,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.store.InsertSheet(ctx, sheet); err != nil {
		c.discardContent(ctx, key)
		return nil, mapStoreErr("insert sheet", err)
	}
	return sheet, nil
}

// ListSheets returns all sheets, most recent first, with membership counts.
func (c *Catalog) ListSheets(ctx context.Context) ([]storage.SheetSummary, error) {
	sheets, err := c.store.ListSheets(ctx)
	if err != nil {
		return nil, mapStoreErr("list sheets", err)
	}
	return sheets, nil
}

// GetSheet fetches a single sheet by id.
func (c *Catalog) GetSheet(ctx context.Context, id string) (*storage.SheetRecord, error) {
	sheet, err := c.store.GetSheet(ctx, id)
	if err != nil {
		return nil, mapStoreErr("get sheet", err)
	}
	return sheet, nil
}

// OpenContent returns the sheet's metadata and a reader over its document
// bytes. The caller closes the reader.
func (c *Catalog) OpenContent(ctx context.Context, id string) (*storage.SheetRecord, io.ReadCloser, error) {
	sheet, err := c.store.GetSheet(ctx, id)
	if err != nil {
		return nil, nil, mapStoreErr("get sheet", err)
	}
	_, rc, err := c.contents.Open(ctx, sheet.ContentKey)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return nil, nil, fmt.Errorf("content for sheet %s: %w", id, ErrNotFound)
		}
		return nil, nil, &StorageError{Op: "open content", Err: err}
	}
	return sheet, rc, nil
}

// DeleteSheet removes the sheet's record along with every membership row
// referencing it, then deletes the document bytes. Content deletion is
// best-effort: a failure is logged but does not undo the metadata delete.
func (c *Catalog) DeleteSheet(ctx context.Context, id string) error {
	sheet, err := c.store.GetSheet(ctx, id)
	if err != nil {
		return mapStoreErr("get sheet", err)
	}
	if err := c.store.DeleteSheet(ctx, id); err != nil {
		return mapStoreErr("delete sheet", err)
	}
	if err := c.contents.Delete(ctx, sheet.ContentKey); err != nil && !errors.Is(err, content.ErrNotFound) {
		c.logger.WarnContext(ctx, "failed to delete sheet content",
			"sheet_id", id, "content_key", sheet.ContentKey, "error", err)
	}
	return nil
}

func (c *Catalog) discardContent(ctx context.Context, key string) {
	if err := c.contents.Delete(ctx, key); err != nil && !errors.Is(err, content.ErrNotFound) {
		c.logger.WarnContext(ctx, "failed to discard content", "content_key", key, "error", err)
	}
}
