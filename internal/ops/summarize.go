package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/highlight"
	"github.com/hpungsan/hilite/internal/notify"
)

// SummarizeInput contains parameters for the Summarize operation.
type SummarizeInput struct {
	ID string `json:"id"`
}

// SummarizeOutput contains the result of the Summarize operation.
type SummarizeOutput struct {
	ID        string              `json:"id"`
	Summary   string              `json:"summary"`
	Highlight highlight.Highlight `json:"highlight"`
}

// Summarize generates a summary for a highlight and stores it.
// Any failure leaves the stored record untouched.
func Summarize(ctx context.Context, env *Env, input SummarizeInput) (*SummarizeOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if env.Summarizer == nil {
		return nil, errors.NewNotConfigured("summarizer not configured")
	}

	h, ok := env.Store.Get(ctx, id)
	if !ok {
		return nil, errors.NewNotFound(id)
	}

	text, err := env.Summarizer.Generate(ctx, h.Text, h.Domain)
	if err != nil {
		return nil, err
	}

	updated, found, ok := env.Store.Patch(ctx, id, highlight.Patch{Summary: &text})
	if !ok {
		return nil, errors.NewInternal(nil)
	}
	if !found {
		// Deleted while the summary was being generated.
		return nil, errors.NewNotFound(id)
	}
	env.publish(notify.Message{Type: notify.HighlightUpdated, Highlight: &updated})

	return &SummarizeOutput{ID: id, Summary: text, Highlight: updated}, nil
}
