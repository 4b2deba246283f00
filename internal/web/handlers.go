package web

import (
	"encoding/json"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/ops"
)

// maxBodyBytes caps JSON and form request bodies.
const maxBodyBytes = 1 << 20

// maxCaptureBodyBytes leaves room for page HTML carried in a capture request.
const maxCaptureBodyBytes = 10 << 20

// viewCSP confines a materialized third-party page: no scripts, no forms,
// no same-origin access.
const viewCSP = "sandbox; default-src 'none'; img-src * data:; style-src * 'unsafe-inline'; font-src *"

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	env      *ops.Env
	renderer *Renderer
}

// HandleList handles GET /highlights.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := ops.ListInput{
		URL:    q.Get("url"),
		Domain: q.Get("domain"),
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	}

	result, err := ops.List(r.Context(), h.env, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	data := ListPageData{
		PageData:         h.renderer.page("Highlights", "highlights"),
		Items:            result.Items,
		Pagination:       result.Pagination,
		Stats:            result.Stats,
		APIKeyConfigured: result.APIKeyConfigured,
		Domain:           input.Domain,
		URL:              input.URL,
	}
	if r.Header.Get("HX-Target") == "highlights" {
		h.renderer.renderBlock(w, http.StatusOK, "list", "highlight-items", data)
		return
	}
	h.renderer.renderPage(w, r, "list", data)
}

// HandleSearch handles GET /highlights/search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	data := SearchPageData{
		PageData: h.renderer.page("Search", "search"),
		Query:    query,
		HasQuery: query != "",
	}

	if query != "" {
		result, err := ops.Search(r.Context(), h.env, ops.SearchInput{
			Query: query,
			Limit: parseIntParam(r, "limit", ops.DefaultSearchLimit),
		})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		if wantsJSON(r) {
			renderJSON(w, http.StatusOK, result)
			return
		}
		data.Items = result.Items
	}

	if r.Header.Get("HX-Target") == "results" {
		h.renderer.renderBlock(w, http.StatusOK, "search", "search-results", data)
		return
	}
	h.renderer.renderPage(w, r, "search", data)
}

// HandleDetail handles GET /highlights/{id}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Fetch(r.Context(), h.env, ops.FetchInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	h.renderer.renderPage(w, r, "detail", h.detailData(out))
}

func (h *Handlers) detailData(out *ops.FetchOutput) DetailPageData {
	data := DetailPageData{
		PageData:         h.renderer.page(out.Title, "highlights"),
		Highlight:        out.Highlight,
		APIKeyConfigured: h.env.Summarizer != nil && h.env.Summarizer.Configured(),
	}
	if data.Title == "" {
		data.Title = out.Domain
	}
	if out.HasSummary() {
		data.RenderedSummary = renderMarkdown(*out.Summary)
	}
	return data
}

// HandleSave handles POST /highlights from a JSON body or a form.
func (h *Handlers) HandleSave(w http.ResponseWriter, r *http.Request) {
	var input ops.SaveInput
	if isJSONBody(r) {
		if err := decodeJSON(w, r, &input); err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
			return
		}
		input = ops.SaveInput{
			Text:  r.FormValue("text"),
			URL:   r.FormValue("url"),
			Title: r.FormValue("title"),
		}
	}

	out, err := ops.Save(r.Context(), h.env, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	switch {
	case isHTMX(r):
		w.Header().Set("HX-Redirect", "/highlights")
		w.WriteHeader(http.StatusCreated)
	case wantsJSON(r) || isJSONBody(r):
		renderJSON(w, http.StatusCreated, out)
	default:
		http.Redirect(w, r, "/highlights", http.StatusSeeOther)
	}
}

// HandleCapture handles POST /highlights/capture with a JSON body of url,
// selection and optional page html. Without html the page is fetched.
func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	var input ops.CaptureInput
	if err := decodeJSONLimit(w, r, &input, maxCaptureBodyBytes); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	out, err := ops.Capture(r.Context(), h.env, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

// HandleUpdate handles PATCH /highlights/{id} with a JSON body.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var input ops.UpdateInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	input.ID = r.PathValue("id")

	out, err := ops.Update(r.Context(), h.env, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleSummarize handles POST /highlights/{id}/summary.
func (h *Handlers) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	out, err := ops.Summarize(r.Context(), h.env, ops.SummarizeInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	switch {
	case isHTMX(r):
		h.renderer.renderBlock(w, http.StatusOK, "detail", "summary", h.detailData(&ops.FetchOutput{Highlight: out.Highlight}))
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, out)
	default:
		http.Redirect(w, r, "/highlights/"+id, http.StatusSeeOther)
	}
}

// HandleDelete handles DELETE /highlights/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.env, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	switch {
	case isHTMX(r):
		w.Header().Set("HX-Redirect", "/highlights")
		w.WriteHeader(http.StatusOK)
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, result)
	default:
		http.Redirect(w, r, "/highlights", http.StatusSeeOther)
	}
}

// HandleClear handles POST /highlights/clear.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	result, err := ops.Clear(r.Context(), h.env, ops.ClearInput{Confirm: r.FormValue("confirm") == "true"})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="clear-result">` + template.HTMLEscapeString(strconv.Itoa(result.Cleared)+" highlight(s) cleared") + `</div>`))
	case wantsJSON(r):
		renderJSON(w, http.StatusOK, result)
	default:
		http.Redirect(w, r, "/highlights", http.StatusSeeOther)
	}
}

// HandleView handles GET /view?url= and serves the page with its saved
// highlights marked.
func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	out, err := ops.View(r.Context(), h.env, ops.ViewInput{URL: r.URL.Query().Get("url")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	w.Header().Set("Content-Security-Policy", viewCSP)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Hilite-Applied", strconv.Itoa(out.Applied))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out.HTML)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return decodeJSONLimit(w, r, v, maxBodyBytes)
}

func decodeJSONLimit(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

func isJSONBody(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
