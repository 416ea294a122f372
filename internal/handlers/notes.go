package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"sheetstand/internal/contextutil"
	"sheetstand/internal/service"
)

// NotesHandler renders a setlist's performance notes (markdown) as a
// standalone HTML page for use on stage.
type NotesHandler struct {
	registry *service.Registry
	parser   goldmark.Markdown
	template *template.Template
}

type notesPageData struct {
	Name    string
	Content template.HTML
}

// NewNotesHandler creates a handler over the given registry.
func NewNotesHandler(registry *service.Registry) *NotesHandler {
	tmpl := template.Must(template.New("notes").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Name}} notes</title>
  <style>
    :root { color-scheme: dark; }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 720px;
      line-height: 1.7;
      background: #0b0f19;
      color: #e4ecff;
      font-size: 1.15rem;
    }
    h1 { color: #fff; border-bottom: 1px solid rgba(148, 163, 184, 0.25); padding-bottom: 0.75rem; }
    article h2, article h3 { color: #c7d2fe; }
    blockquote {
      border-left: 4px solid rgba(96, 165, 250, 0.6);
      padding-left: 1rem;
      margin-left: 0;
      color: #93c5fd;
    }
    code { background: rgba(99, 102, 241, 0.18); padding: 2px 5px; border-radius: 6px; }
    .empty { color: #94a3b8; font-style: italic; }
  </style>
</head>
<body>
  <h1>{{.Name}}</h1>
  <article>{{if .Content}}{{.Content}}{{else}}<p class="empty">No performance notes.</p>{{end}}</article>
</body>
</html>`))

	return &NotesHandler{
		registry: registry,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Strikethrough,
				extension.Typographer,
			),
			goldmark.WithRendererOptions(
				ghhtml.WithHardWraps(),
			),
		),
		template: tmpl,
	}
}

// ServeHTTP renders the setlist's notes page.
func (h *NotesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	setlist, err := h.registry.GetSetlist(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var content template.HTML
	if setlist.Notes != "" {
		rendered, err := h.renderMarkdown([]byte(setlist.Notes))
		if err != nil {
			logger.ErrorContext(ctx, "failed to render setlist notes", "setlist_id", setlist.ID, "error", err)
			http.Error(w, "failed to render notes", http.StatusInternalServerError)
			return
		}
		content = template.HTML(rendered)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, notesPageData{Name: setlist.Name, Content: content}); err != nil {
		logger.ErrorContext(ctx, "failed to execute notes template", "setlist_id", setlist.ID, "error", err)
	}
}

func (h *NotesHandler) renderMarkdown(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
