package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/hilite/internal/highlight"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	URL    string `json:"url,omitempty"`    // optional, exact match
	Domain string `json:"domain,omitempty"` // optional, exact match
	Limit  int    `json:"limit,omitempty"`  // default: 100, max: 1000
	Offset int    `json:"offset,omitempty"` // default: 0
}

// ListItem is a highlight with its listing preview.
type ListItem struct {
	highlight.Highlight
	Preview string `json:"preview"`
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items            []ListItem      `json:"items"`
	Pagination       Pagination      `json:"pagination"`
	Stats            highlight.Stats `json:"stats"`
	APIKeyConfigured bool            `json:"api_key_configured"`
	Sort             string          `json:"sort"`
}

// List returns highlights most-recent-first. Stats always cover the whole
// collection; Pagination.Total counts the filtered set.
func List(ctx context.Context, env *Env, input ListInput) (*ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	all := env.Store.List(ctx)
	filtered := filterHighlights(all, strings.TrimSpace(input.URL), strings.TrimSpace(input.Domain))

	items := []ListItem{}
	if offset < len(filtered) {
		end := min(offset+limit, len(filtered))
		for _, h := range filtered[offset:end] {
			items = append(items, ListItem{
				Highlight: h,
				Preview:   highlight.Preview(h.Text, highlight.DefaultPreviewChars),
			})
		}
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < len(filtered),
			Total:   len(filtered),
		},
		Stats:            highlight.Count(all),
		APIKeyConfigured: env.Summarizer != nil && env.Summarizer.Configured(),
		Sort:             "timestamp_desc",
	}, nil
}

// filterHighlights keeps records matching pageURL and domain exactly.
// Empty filters match everything.
func filterHighlights(hs []highlight.Highlight, pageURL, domain string) []highlight.Highlight {
	if pageURL == "" && domain == "" {
		return hs
	}
	out := make([]highlight.Highlight, 0, len(hs))
	for _, h := range hs {
		if matchesFilter(h, pageURL, domain) {
			out = append(out, h)
		}
	}
	return out
}

func matchesFilter(h highlight.Highlight, pageURL, domain string) bool {
	if pageURL != "" && h.URL != pageURL {
		return false
	}
	if domain != "" && !strings.EqualFold(h.Domain, domain) {
		return false
	}
	return true
}
