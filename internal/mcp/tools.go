package mcp

import "github.com/mark3labs/mcp-go/mcp"

var saveToolDef = mcp.NewTool("highlight_save",
	mcp.WithDescription("Save a text highlight taken from a web page."),
	mcp.WithString("text", mcp.Required(), mcp.Description("The highlighted text")),
	mcp.WithString("url", mcp.Required(), mcp.Description("Absolute http(s) URL of the page")),
	mcp.WithString("title", mcp.Description("Page title")),
)

var captureToolDef = mcp.NewTool("highlight_capture",
	mcp.WithDescription("Select text on a page, wrap it in a highlight marker and save it. Previously saved highlights for the page are re-applied first."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Absolute http(s) URL of the page")),
	mcp.WithString("selection", mcp.Required(), mcp.Description("Text to select on the page")),
	mcp.WithString("html", mcp.Description("Page HTML; fetched from url when omitted")),
	mcp.WithBoolean("include_html", mcp.Description("Return the marked-up page HTML")),
)

var listToolDef = mcp.NewTool("highlight_list",
	mcp.WithDescription("List saved highlights, newest first, with collection stats."),
	mcp.WithString("url", mcp.Description("Only highlights saved on this exact URL")),
	mcp.WithString("domain", mcp.Description("Only highlights from this domain")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 100, max 1000)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var fetchToolDef = mcp.NewTool("highlight_fetch",
	mcp.WithDescription("Fetch one highlight by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Highlight id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var updateToolDef = mcp.NewTool("highlight_update",
	mcp.WithDescription("Set the summary of a highlight. Highlight text cannot be changed."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Highlight id")),
	mcp.WithString("summary", mcp.Required(), mcp.Description("New summary")),
	mcp.WithIdempotentHintAnnotation(true),
)

var deleteToolDef = mcp.NewTool("highlight_delete",
	mcp.WithDescription("Delete a highlight by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Highlight id")),
	mcp.WithDestructiveHintAnnotation(true),
)

var bulkDeleteToolDef = mcp.NewTool("highlight_bulk_delete",
	mcp.WithDescription("Delete every highlight matching all given filters. At least one filter is required."),
	mcp.WithString("domain", mcp.Description("Delete highlights from this domain")),
	mcp.WithString("url", mcp.Description("Delete highlights saved on this exact URL")),
	mcp.WithDestructiveHintAnnotation(true),
)

var clearToolDef = mcp.NewTool("highlight_clear",
	mcp.WithDescription("Delete all highlights."),
	mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
	mcp.WithDestructiveHintAnnotation(true),
)

var summarizeToolDef = mcp.NewTool("highlight_summarize",
	mcp.WithDescription("Generate and store a short summary for a highlight using the configured completion endpoint."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Highlight id")),
	mcp.WithOpenWorldHintAnnotation(true),
)

var searchToolDef = mcp.NewTool("highlight_search",
	mcp.WithDescription("Full-text search over highlight text, titles and summaries. Supports \"phrases\", +required, -excluded, field:term (text, title, summary, domain, url) and fuzzy~."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Query string")),
	mcp.WithNumber("limit", mcp.Description("Max hits (default 20, max 100)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var viewToolDef = mcp.NewTool("highlight_view",
	mcp.WithDescription("Return a page's HTML with its saved highlights marked."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Absolute http(s) URL of the page")),
	mcp.WithString("html", mcp.Description("Page HTML; fetched from url when omitted")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("highlight_export",
	mcp.WithDescription("Export highlights to a JSONL file."),
	mcp.WithString("path", mcp.Description("Output .jsonl path (default ~/.hilite/exports/)")),
	mcp.WithString("domain", mcp.Description("Only export this domain")),
)

var importToolDef = mcp.NewTool("highlight_import",
	mcp.WithDescription("Import highlights from a JSONL export."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Input .jsonl path")),
	mcp.WithString("mode", mcp.Enum("error", "replace", "rename"), mcp.Description("Id collision handling (default error)")),
)
