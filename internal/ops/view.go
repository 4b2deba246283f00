package ops

import (
	"bytes"
	"context"

	"github.com/hpungsan/hilite/internal/dom"
	"github.com/hpungsan/hilite/internal/errors"
)

// ViewInput contains parameters for the View operation.
type ViewInput struct {
	URL  string `json:"url"`            // required
	HTML string `json:"html,omitempty"` // optional, fetched from URL when empty
}

// ViewOutput contains the materialized page.
type ViewOutput struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Applied int    `json:"applied"`
	HTML    string `json:"html"`
}

// View loads a page and marks the saved highlights recorded for its URL.
func View(ctx context.Context, env *Env, input ViewInput) (*ViewOutput, error) {
	p, err := loadPage(ctx, env, input.URL, input.HTML)
	if err != nil {
		return nil, err
	}

	applied := dom.Reapply(p.Document(), env.Store.List(ctx), p.URL())

	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &ViewOutput{
		URL:     p.URL(),
		Title:   p.Title(),
		Applied: applied,
		HTML:    buf.String(),
	}, nil
}
