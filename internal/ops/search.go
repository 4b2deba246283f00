package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/highlight"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query string `json:"query"`           // required, query-string syntax
	Limit int    `json:"limit,omitempty"` // default: 20, max: 100
}

// SearchItem is one ranked hit.
type SearchItem struct {
	highlight.Highlight
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Query string       `json:"query"`
	Items []SearchItem `json:"items"`
	Total int          `json:"total"`
}

// Search brings the index in line with the stored collection and queries it.
func Search(ctx context.Context, env *Env, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	idx, err := env.searchIndex()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	all := env.Store.List(ctx)
	if err := idx.Sync(all); err != nil {
		return nil, errors.NewInternal(err)
	}

	select {
	case <-ctx.Done():
		return nil, errors.NewCancelled("search")
	default:
	}

	hits, err := idx.Search(query, limit)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	byID := make(map[string]highlight.Highlight, len(all))
	for _, h := range all {
		byID[h.ID] = h
	}

	items := make([]SearchItem, 0, len(hits))
	for _, hit := range hits {
		h, ok := byID[hit.ID]
		if !ok {
			continue
		}
		items = append(items, SearchItem{Highlight: h, Score: hit.Score, Fragments: hit.Fragments})
	}

	return &SearchOutput{Query: query, Items: items, Total: len(items)}, nil
}
