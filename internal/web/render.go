package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/highlight"
	"github.com/hpungsan/hilite/internal/ops"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "highlights", "search"
}

// ListPageData is the template data for the highlight list page.
type ListPageData struct {
	PageData
	Items            []ops.ListItem
	Pagination       ops.Pagination
	Stats            highlight.Stats
	APIKeyConfigured bool
	Domain           string
	URL              string
}

// DetailPageData is the template data for the highlight detail page.
type DetailPageData struct {
	PageData
	Highlight        highlight.Highlight
	RenderedSummary  template.HTML
	APIKeyConfigured bool
}

// SearchPageData is the template data for the search page.
type SearchPageData struct {
	PageData
	Query    string
	Items    []ops.SearchItem
	HasQuery bool
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer parses the layout and every page template from templateFS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"formatTime": formatTime,
		"fragment":   fragment,
		"deref":      deref,
	}

	layout := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":   "list.html",
		"detail": "detail.html",
		"search": "search.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layout.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{templates: templates, version: version}
}

func (r *Renderer) page(title, nav string) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav}
}

// renderPage renders a named page template with HTTP 200.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template. HTMX requests get only the
// "content" block.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	block := "layout"
	if isHTMX(req) {
		block = "content"
	}
	r.renderBlock(w, status, name, block, data)
}

// renderBlock renders one named block of a page template.
func (r *Renderer) renderBlock(w http.ResponseWriter, status int, page, block string, data any) {
	t, ok := r.templates[page]
	if !ok {
		log.Printf("[web] template %q not found", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		log.Printf("[web] template %s/%s: %v", page, block, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders err as an HTMX fragment, JSON or a full error page.
// INTERNAL errors never expose their details.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	hErr, ok := errors.As(err)
	if !ok {
		log.Printf("[web] %s %s: %v", req.Method, req.URL.Path, err)
		hErr = errors.NewInternal(err)
	}
	status, message := hErr.Status, hErr.Message
	if hErr.Code == errors.ErrInternal {
		message = "internal error"
	}

	switch {
	case isHTMX(req):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
	case wantsJSON(req):
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(hErr.Code),
				"message": message,
				"status":  status,
			},
		})
	default:
		r.renderPageStatus(w, req, status, "error", ErrorPageData{
			PageData:   r.page(fmt.Sprintf("Error %d", status), ""),
			StatusCode: status,
			Message:    message,
		})
	}
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func isHTMX(r *http.Request) bool {
	return r != nil && r.Header.Get("HX-Request") == "true"
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// renderMarkdown converts a summary to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a stored ISO-8601 timestamp as "2006-01-02 15:04" UTC.
// Unparseable values are shown as stored.
func formatTime(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// fragment re-escapes a search fragment while keeping its <mark> tags, so
// the output is safe whether or not the highlighter escaped the source.
func fragment(s string) template.HTML {
	escaped := template.HTMLEscapeString(html.UnescapeString(s))
	escaped = strings.ReplaceAll(escaped, "&lt;mark&gt;", "<mark>")
	escaped = strings.ReplaceAll(escaped, "&lt;/mark&gt;", "</mark>")
	return template.HTML(escaped)
}

// deref returns *s, or "" for nil.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
