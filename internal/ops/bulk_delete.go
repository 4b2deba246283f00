package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/highlight"
	"github.com/hpungsan/hilite/internal/notify"
)

// BulkDeleteInput contains parameters for the BulkDelete operation.
type BulkDeleteInput struct {
	Domain string `json:"domain,omitempty"`
	URL    string `json:"url,omitempty"`
}

// BulkDeleteOutput contains the result of the BulkDelete operation.
type BulkDeleteOutput struct {
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// BulkDelete removes every highlight matching the filters.
// At least one filter must be provided.
func BulkDelete(ctx context.Context, env *Env, input BulkDeleteInput) (*BulkDeleteOutput, error) {
	domain := strings.TrimSpace(input.Domain)
	pageURL := strings.TrimSpace(input.URL)
	if domain == "" && pageURL == "" {
		return nil, errors.NewInvalidRequest("at least one filter is required")
	}

	removed, ok := env.Store.DeleteWhere(ctx, func(h highlight.Highlight) bool {
		return matchesFilter(h, pageURL, domain)
	})
	if !ok {
		return nil, errors.NewInternal(nil)
	}
	if removed > 0 {
		env.publish(notify.Message{Type: notify.HighlightDeleted})
	}

	return &BulkDeleteOutput{
		Deleted: removed,
		Message: fmt.Sprintf("Deleted %d highlight(s) matching %s", removed, describeFilters(pageURL, domain)),
	}, nil
}

func describeFilters(pageURL, domain string) string {
	var parts []string
	if domain != "" {
		parts = append(parts, fmt.Sprintf("domain=%q", domain))
	}
	if pageURL != "" {
		parts = append(parts, fmt.Sprintf("url=%q", pageURL))
	}
	return strings.Join(parts, ", ")
}
