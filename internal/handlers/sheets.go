package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sheetstand/internal/contextutil"
	"sheetstand/internal/service"
	"sheetstand/internal/storage"
)

// SheetsHandler serves the sheet catalog endpoints.
type SheetsHandler struct {
	catalog *service.Catalog
}

// NewSheetsHandler creates a handler over the given catalog.
func NewSheetsHandler(catalog *service.Catalog) *SheetsHandler {
	return &SheetsHandler{catalog: catalog}
}

// SheetResponse is the JSON representation of a sheet.
type SheetResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	SizeBytes   int64     `json:"sizeBytes"`
	ContentKind string    `json:"contentKind"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SheetSummaryResponse is a sheet plus the number of setlists it is in.
type SheetSummaryResponse struct {
	SheetResponse
	SetlistCount int `json:"setlistCount"`
}

// SheetListResponse wraps the catalog listing.
type SheetListResponse struct {
	Sheets []SheetSummaryResponse `json:"sheets"`
}

func sheetResponse(s *storage.SheetRecord) SheetResponse {
	return SheetResponse{
		ID:          s.ID,
		Title:       s.Title,
		SizeBytes:   s.SizeBytes,
		ContentKind: s.ContentKind,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// List returns all sheets, most recent first.
func (h *SheetsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sheets, err := h.catalog.ListSheets(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	resp := SheetListResponse{Sheets: make([]SheetSummaryResponse, 0, len(sheets))}
	for _, s := range sheets {
		resp.Sheets = append(resp.Sheets, SheetSummaryResponse{
			SheetResponse: sheetResponse(&s.SheetRecord),
			SetlistCount:  s.SetlistCount,
		})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Create handles a multipart upload with "title" and "file" fields. The
// content kind comes from an explicit "contentKind" field, the file part's
// Content-Type, or the filename extension, in that order.
func (h *SheetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Slack above the content ceiling covers multipart framing and fields.
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxContentBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeError(ctx, w, &service.ValidationError{Field: "body", Message: "invalid or oversized multipart body"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(ctx, w, &service.ValidationError{Field: "file", Message: "file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	kind := strings.TrimSpace(r.FormValue("contentKind"))
	if kind == "" {
		if k, ok := service.KindForContentType(header.Header.Get("Content-Type")); ok {
			kind = k
		} else {
			kind = kindFromFilename(header.Filename)
		}
	}

	sheet, err := h.catalog.CreateSheet(ctx, service.NewSheet{
		Title:       r.FormValue("title"),
		ContentKind: kind,
		SizeBytes:   header.Size,
		Content:     file,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "sheet created",
		"sheet_id", sheet.ID, "title", sheet.Title, "size_bytes", sheet.SizeBytes)
	writeJSON(ctx, w, http.StatusCreated, sheetResponse(sheet))
}

// Get returns a single sheet's metadata.
func (h *SheetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sheet, err := h.catalog.GetSheet(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, sheetResponse(sheet))
}

// Content streams the sheet's document bytes with its stored content type.
func (h *SheetsHandler) Content(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sheet, rc, err := h.catalog.OpenContent(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	defer func() { _ = rc.Close() }()

	if ct, ok := service.ContentTypeFor(sheet.ContentKind); ok {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", sheet.SizeBytes))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to stream sheet content",
			"sheet_id", sheet.ID, "error", err)
	}
}

// Delete removes the sheet and cascades its membership rows.
func (h *SheetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.catalog.DeleteSheet(ctx, id); err != nil {
		writeError(ctx, w, err)
		return
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "sheet deleted", "sheet_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func kindFromFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "pdf"
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	default:
		return ""
	}
}
