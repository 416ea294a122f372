package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sheetstand/internal/contextutil"
	"sheetstand/internal/service"
	"sheetstand/internal/storage"
)

// SetlistsHandler serves the setlist registry and ordering endpoints.
type SetlistsHandler struct {
	registry *service.Registry
	ordering *service.Ordering
}

// NewSetlistsHandler creates a handler over the given registry and
// ordering engine.
func NewSetlistsHandler(registry *service.Registry, ordering *service.Ordering) *SetlistsHandler {
	return &SetlistsHandler{registry: registry, ordering: ordering}
}

// SetlistResponse is the JSON representation of a setlist.
type SetlistResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SetlistSummaryResponse is a setlist plus its member count.
type SetlistSummaryResponse struct {
	SetlistResponse
	SheetCount int `json:"sheetCount"`
}

// SetlistListResponse wraps the registry listing.
type SetlistListResponse struct {
	Setlists []SetlistSummaryResponse `json:"setlists"`
}

// OrderedSheetResponse is a sheet within a setlist at its position.
type OrderedSheetResponse struct {
	SheetResponse
	Position int `json:"position"`
}

// SetlistDetailResponse is a setlist together with its ordered sheets.
type SetlistDetailResponse struct {
	SetlistResponse
	Sheets []OrderedSheetResponse `json:"sheets"`
}

// MembershipResponse reports a setlist's ordered sheet ids after a
// membership mutation.
type MembershipResponse struct {
	SetlistID string   `json:"setlistId"`
	Sheets    []string `json:"sheets"`
}

// CreateSetlistRequest is the payload for creating a setlist.
type CreateSetlistRequest struct {
	Name string `json:"name"`
}

// UpdateSetlistRequest is the payload for the bulk setlist edit: any of a
// rename, a notes update and a full sequence replacement, in one request.
type UpdateSetlistRequest struct {
	Name   *string   `json:"name"`
	Notes  *string   `json:"notes"`
	Sheets *[]string `json:"sheets"`
}

// AppendSheetRequest is the payload for appending a sheet to a setlist.
type AppendSheetRequest struct {
	SheetID string `json:"sheetId"`
}

// MoveSheetRequest is the payload for repositioning a sheet in a setlist.
type MoveSheetRequest struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

func setlistResponse(s *storage.SetlistRecord) SetlistResponse {
	return SetlistResponse{
		ID:        s.ID,
		Name:      s.Name,
		Notes:     s.Notes,
		CreatedAt: s.CreatedAt,
	}
}

// List returns all setlists, most recent first.
func (h *SetlistsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	setlists, err := h.registry.ListSetlists(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	resp := SetlistListResponse{Setlists: make([]SetlistSummaryResponse, 0, len(setlists))}
	for _, s := range setlists {
		resp.Setlists = append(resp.Setlists, SetlistSummaryResponse{
			SetlistResponse: setlistResponse(&s.SetlistRecord),
			SheetCount:      s.SheetCount,
		})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Create makes a new empty setlist.
func (h *SetlistsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateSetlistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	setlist, err := h.registry.CreateSetlist(ctx, req.Name)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "setlist created",
		"setlist_id", setlist.ID, "name", setlist.Name)
	writeJSON(ctx, w, http.StatusCreated, setlistResponse(setlist))
}

// Get returns the setlist together with its sheets in performance order.
func (h *SetlistsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	setlist, err := h.registry.GetSetlist(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	h.writeDetail(w, r, setlist)
}

// Update applies a bulk edit: rename and/or notes change via the registry,
// and a full sequence replacement via the ordering engine. The sequence
// swap is one transaction, so readers never see a half-edited setlist.
func (h *SetlistsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req UpdateSetlistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	setlist, err := h.registry.UpdateSetlist(ctx, id, req.Name, req.Notes)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if req.Sheets != nil {
		if _, err := h.ordering.Replace(ctx, id, *req.Sheets); err != nil {
			writeError(ctx, w, err)
			return
		}
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "setlist updated", "setlist_id", id)
	h.writeDetail(w, r, setlist)
}

// Delete removes the setlist and all its membership rows.
func (h *SetlistsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.registry.DeleteSetlist(ctx, id); err != nil {
		writeError(ctx, w, err)
		return
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "setlist deleted", "setlist_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// AppendSheet adds a sheet at the end of the setlist.
func (h *SetlistsHandler) AppendSheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req AppendSheetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	seq, err := h.ordering.Append(ctx, id, req.SheetID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, MembershipResponse{SetlistID: id, Sheets: seq})
}

// RemoveSheet drops a sheet from the setlist, closing the position gap.
func (h *SetlistsHandler) RemoveSheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	seq, err := h.ordering.Remove(ctx, id, chi.URLParam(r, "sheetId"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, MembershipResponse{SetlistID: id, Sheets: seq})
}

// MoveSheet repositions one sheet within the setlist in a single call.
func (h *SetlistsHandler) MoveSheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req MoveSheetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	seq, err := h.ordering.Move(ctx, id, req.FromIndex, req.ToIndex)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, MembershipResponse{SetlistID: id, Sheets: seq})
}

func (h *SetlistsHandler) writeDetail(w http.ResponseWriter, r *http.Request, setlist *storage.SetlistRecord) {
	ctx := r.Context()
	ordered, err := h.ordering.ListOrdered(ctx, setlist.ID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	resp := SetlistDetailResponse{
		SetlistResponse: setlistResponse(setlist),
		Sheets:          make([]OrderedSheetResponse, 0, len(ordered)),
	}
	for _, os := range ordered {
		resp.Sheets = append(resp.Sheets, OrderedSheetResponse{
			SheetResponse: sheetResponse(&os.SheetRecord),
			Position:      os.Position,
		})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
