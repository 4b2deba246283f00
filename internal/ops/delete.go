package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/notify"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string `json:"id"`
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Delete removes a highlight. A missing id is not an error.
func Delete(ctx context.Context, env *Env, input DeleteInput) (*DeleteOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	h, ok := env.Store.Get(ctx, id)
	if !ok {
		return &DeleteOutput{ID: id, Deleted: false}, nil
	}
	if !env.Store.Delete(ctx, id) {
		return nil, errors.NewInternal(nil)
	}
	env.publish(notify.Message{Type: notify.HighlightDeleted, Highlight: &h})

	return &DeleteOutput{ID: id, Deleted: true}, nil
}
