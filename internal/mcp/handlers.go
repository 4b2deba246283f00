package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types. Tools whose arguments match an ops input one to one
// decode straight into it.

// UpdateRequest represents the arguments for highlight_update.
type UpdateRequest struct {
	ID      string  `json:"id"`
	Summary *string `json:"summary,omitempty"`
}

// DeleteRequest represents the arguments for highlight_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// ClearRequest represents the arguments for highlight_clear.
type ClearRequest struct {
	Confirm bool `json:"confirm"`
}

// ImportRequest represents the arguments for highlight_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// HandleSave handles the highlight_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.SaveInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.Save(ctx, h.env, input))
}

// HandleCapture handles the highlight_capture tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.CaptureInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.Capture(ctx, h.env, input))
}

// HandleList handles the highlight_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.ListInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.List(ctx, h.env, input))
}

// HandleFetch handles the highlight_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.FetchInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.Fetch(ctx, h.env, input))
}

// HandleUpdate handles the highlight_update tool call. The tool schema has
// no text argument, so text edits are rejected at decode time.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.Update(ctx, h.env, ops.UpdateInput{
		ID:      input.ID,
		Summary: input.Summary,
	}))
}

// HandleDelete handles the highlight_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.Delete(ctx, h.env, ops.DeleteInput{ID: input.ID}))
}

// HandleBulkDelete handles the highlight_bulk_delete tool call.
func (h *Handlers) HandleBulkDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.BulkDeleteInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.BulkDelete(ctx, h.env, input))
}

// HandleClear handles the highlight_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClearRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.Clear(ctx, h.env, ops.ClearInput{Confirm: input.Confirm}))
}

// HandleSummarize handles the highlight_summarize tool call.
func (h *Handlers) HandleSummarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.SummarizeInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.Summarize(ctx, h.env, input))
}

// HandleSearch handles the highlight_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.SearchInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.Search(ctx, h.env, input))
}

// HandleView handles the highlight_view tool call.
func (h *Handlers) HandleView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.ViewInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.View(ctx, h.env, input))
}

// HandleExport handles the highlight_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.ExportInput](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return result(ops.Export(ctx, h.env, input))
}

// HandleImport handles the highlight_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	// Unknown modes are left for ops.Import to reject.
	return result(ops.Import(ctx, h.env, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	}))
}

// Result helpers

// result turns an ops return pair into a tool result.
func result(out any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if hErr, ok := errors.As(err); ok {
		message := hErr.Message
		if err != error(hErr) {
			// Keep the wrapper's context ("items[2]: ...") around the message.
			message = strings.Replace(err.Error(), hErr.Error(), hErr.Message, 1)
		}
		errorObj := map[string]any{
			"code":    hErr.Code,
			"message": message,
			"status":  hErr.Status,
		}
		if hErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if hErr.Details != nil {
			errorObj["details"] = hErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
