package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/highlight"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID string `json:"id"`
}

// FetchOutput is the requested highlight.
type FetchOutput struct {
	highlight.Highlight
}

// Fetch retrieves a single highlight by id.
func Fetch(ctx context.Context, env *Env, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	h, ok := env.Store.Get(ctx, id)
	if !ok {
		return nil, errors.NewNotFound(id)
	}
	return &FetchOutput{Highlight: h}, nil
}
