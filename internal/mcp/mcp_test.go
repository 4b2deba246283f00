package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/hilite/internal/config"
	"github.com/hpungsan/hilite/internal/db"
	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/ops"
)

type stubSummarizer struct{}

func (stubSummarizer) Configured() bool { return true }

func (stubSummarizer) Generate(context.Context, string, string) (string, error) {
	return "Generated summary.", nil
}

// testSetup creates an environment over a temporary database. Import and
// export may use the temp dir.
func testSetup(t *testing.T) (*ops.Env, string) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{tmpDir}

	env := ops.NewEnv(database, cfg, nil)
	env.Summarizer = stubSummarizer{}
	t.Cleanup(func() { env.Close() })
	return env, tmpDir
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func call(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := fn(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return result
}

func saveOne(t *testing.T, h *Handlers, text, pageURL string) string {
	t.Helper()
	out := parseOutput(t, call(t, h.HandleSave, map[string]any{"text": text, "url": pageURL, "title": "T"}))
	return out["id"].(string)
}

func TestHandleSave(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)

	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{"valid", map[string]any{"text": "hello", "url": "https://a.test/p"}, ""},
		{"missing text", map[string]any{"url": "https://a.test/p"}, "INVALID_REQUEST"},
		{"bad url", map[string]any{"text": "hello", "url": "ftp://a.test"}, "INVALID_REQUEST"},
		{"unknown argument", map[string]any{"text": "hello", "url": "https://a.test/", "tags": []string{"x"}}, "INVALID_REQUEST"},
		{"wrong type", map[string]any{"text": 42, "url": "https://a.test/"}, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, h.HandleSave, tt.args)
			if tt.wantErr != "" {
				if !result.IsError {
					t.Fatal("expected error result")
				}
				assertErrorCode(t, result, tt.wantErr)
				return
			}
			out := parseOutput(t, result)
			if out["domain"] != "a.test" || out["text"] != "hello" {
				t.Errorf("output = %v", out)
			}
		})
	}
}

func TestHandleFetchUpdateDelete(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)
	id := saveOne(t, h, "keep me", "https://a.test/")

	out := parseOutput(t, call(t, h.HandleFetch, map[string]any{"id": id}))
	if out["text"] != "keep me" {
		t.Errorf("fetch = %v", out)
	}

	out = parseOutput(t, call(t, h.HandleUpdate, map[string]any{"id": id, "summary": "  note  "}))
	if out["updated"] != true {
		t.Errorf("update = %v", out)
	}
	hl := out["highlight"].(map[string]any)
	if hl["summary"] != "note" {
		t.Errorf("summary = %v, want trimmed", hl["summary"])
	}

	// Text is not part of the tool schema.
	assertErrorCode(t, call(t, h.HandleUpdate, map[string]any{"id": id, "text": "new"}), "INVALID_REQUEST")

	out = parseOutput(t, call(t, h.HandleDelete, map[string]any{"id": id}))
	if out["deleted"] != true {
		t.Errorf("delete = %v", out)
	}
	assertErrorCode(t, call(t, h.HandleFetch, map[string]any{"id": id}), "NOT_FOUND")
}

func TestHandleCapture(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)

	page := `<html><head><title>Foxes</title></head><body><p>The quick brown fox jumps.</p></body></html>`
	out := parseOutput(t, call(t, h.HandleCapture, map[string]any{
		"url":          "https://a.test/fox",
		"html":         page,
		"selection":    "brown fox",
		"include_html": true,
	}))
	if out["wrapped"] != true {
		t.Errorf("wrapped = %v", out["wrapped"])
	}
	if !strings.Contains(out["html"].(string), "saved-highlight") {
		t.Error("returned html has no marker")
	}
	hl := out["highlight"].(map[string]any)
	if hl["text"] != "brown fox" || hl["title"] != "Foxes" {
		t.Errorf("highlight = %v", hl)
	}

	assertErrorCode(t, call(t, h.HandleCapture, map[string]any{
		"url": "https://a.test/fox", "html": page, "selection": "not on page",
	}), "INVALID_REQUEST")
}

func TestHandleList(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)
	saveOne(t, h, "one", "https://a.test/")
	saveOne(t, h, "two", "https://b.test/")

	out := parseOutput(t, call(t, h.HandleList, map[string]any{"domain": "a.test"}))
	items := out["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	stats := out["stats"].(map[string]any)
	if stats["total"] != float64(2) {
		t.Errorf("stats = %v", stats)
	}
	if out["api_key_configured"] != true {
		t.Error("expected api_key_configured")
	}
}

func TestHandleBulkDeleteAndClear(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)
	saveOne(t, h, "one", "https://a.test/1")
	saveOne(t, h, "two", "https://a.test/2")
	saveOne(t, h, "three", "https://b.test/")

	assertErrorCode(t, call(t, h.HandleBulkDelete, map[string]any{}), "INVALID_REQUEST")

	out := parseOutput(t, call(t, h.HandleBulkDelete, map[string]any{"domain": "a.test"}))
	if out["deleted"] != float64(2) {
		t.Errorf("bulk delete = %v", out)
	}

	assertErrorCode(t, call(t, h.HandleClear, map[string]any{"confirm": false}), "INVALID_REQUEST")
	out = parseOutput(t, call(t, h.HandleClear, map[string]any{"confirm": true}))
	if out["cleared"] != float64(1) {
		t.Errorf("clear = %v", out)
	}
}

func TestHandleSummarizeAndSearch(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)
	id := saveOne(t, h, "Gophers write concurrent programs", "https://go.test/")

	out := parseOutput(t, call(t, h.HandleSummarize, map[string]any{"id": id}))
	if out["summary"] != "Generated summary." {
		t.Errorf("summarize = %v", out)
	}
	assertErrorCode(t, call(t, h.HandleSummarize, map[string]any{"id": "missing"}), "NOT_FOUND")

	out = parseOutput(t, call(t, h.HandleSearch, map[string]any{"query": "summary:generated"}))
	if out["total"] != float64(1) {
		t.Errorf("search = %v", out)
	}
	assertErrorCode(t, call(t, h.HandleSearch, map[string]any{"query": ""}), "INVALID_REQUEST")
}

func TestHandleView(t *testing.T) {
	env, _ := testSetup(t)
	h := NewHandlers(env)
	saveOne(t, h, "brown fox", "https://a.test/fox")

	out := parseOutput(t, call(t, h.HandleView, map[string]any{
		"url":  "https://a.test/fox",
		"html": `<p>The quick brown fox.</p>`,
	}))
	if out["applied"] != float64(1) {
		t.Errorf("applied = %v", out["applied"])
	}
}

func TestHandleExportImport(t *testing.T) {
	env, tmpDir := testSetup(t)
	h := NewHandlers(env)
	saveOne(t, h, "one", "https://a.test/")
	saveOne(t, h, "two", "https://b.test/")

	path := filepath.Join(tmpDir, "out.jsonl")
	out := parseOutput(t, call(t, h.HandleExport, map[string]any{"path": path}))
	if out["count"] != float64(2) {
		t.Fatalf("export = %v", out)
	}

	// Same ids already exist: nothing is imported and the collision is reported.
	out = parseOutput(t, call(t, h.HandleImport, map[string]any{"path": path}))
	if out["imported"] != float64(0) {
		t.Errorf("colliding import = %v", out)
	}
	if errs, _ := out["errors"].([]any); len(errs) != 1 || errs[0].(map[string]any)["code"] != "ID_COLLISION" {
		t.Errorf("errors = %v", out["errors"])
	}

	parseOutput(t, call(t, h.HandleClear, map[string]any{"confirm": true}))
	out = parseOutput(t, call(t, h.HandleImport, map[string]any{"path": path, "mode": "error"}))
	if out["imported"] != float64(2) {
		t.Errorf("import = %v", out)
	}

	out = parseOutput(t, call(t, h.HandleImport, map[string]any{"path": path, "mode": "rename"}))
	if out["imported"] != float64(2) {
		t.Errorf("rename import = %v", out)
	}
	list := parseOutput(t, call(t, h.HandleList, map[string]any{}))
	if n := len(list["items"].([]any)); n != 4 {
		t.Errorf("items after rename import = %d, want 4", n)
	}

	assertErrorCode(t, call(t, h.HandleImport, map[string]any{"path": path, "mode": "merge"}), "INVALID_REQUEST")
	assertErrorCode(t, call(t, h.HandleExport, map[string]any{"path": "/etc/out.jsonl"}), "INVALID_REQUEST")
}

func TestServerRegistration(t *testing.T) {
	env, _ := testSetup(t)

	s := NewServer(env, "test")
	tools := s.ListTools()

	expectedTools := []string{
		"highlight_save",
		"highlight_capture",
		"highlight_list",
		"highlight_fetch",
		"highlight_update",
		"highlight_delete",
		"highlight_bulk_delete",
		"highlight_clear",
		"highlight_summarize",
		"highlight_search",
		"highlight_view",
		"highlight_export",
		"highlight_import",
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	env, _ := testSetup(t)
	env.Config.DisabledTools = []string{"highlight_clear", "highlight_bulk_delete", "highlight_clear"}

	tools := NewServer(env, "test").ListTools()
	if len(tools) != 11 {
		t.Errorf("registered tool count = %d, want 11", len(tools))
	}
	for _, name := range []string{"highlight_clear", "highlight_bulk_delete"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}

	env.Config.DisabledTools = AllToolNames()
	if n := len(NewServer(env, "test").ListTools()); n != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", n)
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"highlight_clear", "highlight_bulk_delete"}, 0},
		{"one unknown", []string{"highlight_clear", "highlight_purge"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 13 {
		t.Errorf("AllToolNames() returned %d names, want 13", len(names))
	}
	if names[0] != "highlight_bulk_delete" {
		t.Errorf("AllToolNames() not sorted: %v", names)
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	errObj := errorObject(t, r)

	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if strings.Contains(errObj["message"].(string), "secret.db") {
		t.Fatal("INTERNAL message leaks the cause")
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrapped := fmt.Errorf("line 3: %w", errors.NewInvalidRequest("bad record"))
	errObj := errorObject(t, errorResult(wrapped))

	if errObj["code"] != string(errors.ErrInvalidRequest) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrInvalidRequest)
	}
	if msg := errObj["message"].(string); msg != "line 3: bad record" {
		t.Errorf("message = %q", msg)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(errors.NewNotFound("abc")))
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != "INTERNAL" || errObj["message"] != "an internal error occurred" {
		t.Errorf("error = %v", errObj)
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func errorObject(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if !result.IsError {
		t.Errorf("expected error %s, got success: %s", expectedCode, extractErrorMessage(result))
		return
	}
	if code, _ := errorObject(t, result)["code"].(string); code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
