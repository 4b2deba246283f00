package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/highlight"
	"github.com/hpungsan/hilite/internal/notify"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID      string  `json:"id"`                // required
	Summary *string `json:"summary,omitempty"` // the only mutable field
	Text    *string `json:"text,omitempty"`    // rejected: text is immutable
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID        string               `json:"id"`
	Updated   bool                 `json:"updated"`
	Highlight *highlight.Highlight `json:"highlight,omitempty"`
}

// Update sets the summary of an existing highlight. A missing id is not an
// error: nothing is written and Updated is false.
func Update(ctx context.Context, env *Env, input UpdateInput) (*UpdateOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.Text != nil {
		return nil, errors.NewInvalidRequest("text cannot be changed after capture")
	}
	patch := highlight.Patch{Summary: input.Summary}
	if patch.Empty() {
		return nil, errors.NewInvalidRequest("no fields to update")
	}
	summary := strings.TrimSpace(*input.Summary)
	patch.Summary = &summary

	updated, found, ok := env.Store.Patch(ctx, id, patch)
	if !ok {
		return nil, errors.NewInternal(nil)
	}
	if !found {
		return &UpdateOutput{ID: id, Updated: false}, nil
	}
	env.publish(notify.Message{Type: notify.HighlightUpdated, Highlight: &updated})

	return &UpdateOutput{ID: id, Updated: true, Highlight: &updated}, nil
}
