package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"sheetstand/internal/content"
	"sheetstand/internal/service"
	"sheetstand/internal/storage"
)

type testEnv struct {
	store    *storage.SQLiteStore
	contents *content.Memory
	catalog  *service.Catalog
	registry *service.Registry
	ordering *service.Ordering
	router   chi.Router
}

// newTestEnv wires real services over a temp SQLite database and an
// in-memory content store, mounted on the same routes the real router uses.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}

	env := &testEnv{
		store:    storage.NewSQLiteStore(db),
		contents: content.NewMemory(),
	}
	env.catalog = service.NewCatalog(env.store, env.contents)
	env.registry = service.NewRegistry(env.store)
	env.ordering = service.NewOrdering(env.store)

	sheets := NewSheetsHandler(env.catalog)
	setlists := NewSetlistsHandler(env.registry, env.ordering)
	notes := NewNotesHandler(env.registry)

	r := chi.NewRouter()
	r.Route("/api/sheets", func(r chi.Router) {
		r.Get("/", sheets.List)
		r.Post("/", sheets.Create)
		r.Get("/{id}", sheets.Get)
		r.Get("/{id}/content", sheets.Content)
		r.Delete("/{id}", sheets.Delete)
	})
	r.Route("/api/setlists", func(r chi.Router) {
		r.Get("/", setlists.List)
		r.Post("/", setlists.Create)
		r.Get("/{id}", setlists.Get)
		r.Put("/{id}", setlists.Update)
		r.Delete("/{id}", setlists.Delete)
		r.Post("/{id}/sheets", setlists.AppendSheet)
		r.Delete("/{id}/sheets/{sheetId}", setlists.RemoveSheet)
		r.Post("/{id}/sheets/move", setlists.MoveSheet)
	})
	r.Get("/setlists/{id}/notes", notes.ServeHTTP)
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}

// uploadSheet posts a multipart upload and returns the created sheet id.
func (e *testEnv) uploadSheet(t *testing.T, title string) string {
	t.Helper()
	w := e.uploadRaw(t, title, "song.pdf", "application/pdf", "%PDF-1.4 fake score")
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", w.Code, w.Body.String())
	}
	return decodeBody[SheetResponse](t, w).ID
}

func (e *testEnv) uploadRaw(t *testing.T, title, filename, contentType, data string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if title != "" {
		if err := mw.WriteField("title", title); err != nil {
			t.Fatalf("write title field: %v", err)
		}
	}
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	if contentType != "" {
		hdr["Content-Type"] = []string{contentType}
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	if _, err := io.Copy(part, strings.NewReader(data)); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sheets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createSetlist(t *testing.T, name string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/setlists", CreateSetlistRequest{Name: name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create setlist status = %d, body %s", w.Code, w.Body.String())
	}
	return decodeBody[SetlistResponse](t, w).ID
}
