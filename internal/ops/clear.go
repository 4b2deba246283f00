package ops

import (
	"context"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/notify"
)

// ClearInput contains parameters for the Clear operation.
type ClearInput struct {
	Confirm bool `json:"confirm"`
}

// ClearOutput contains the result of the Clear operation.
type ClearOutput struct {
	Cleared int `json:"cleared"`
}

// Clear removes every highlight. Confirm must be set.
func Clear(ctx context.Context, env *Env, input ClearInput) (*ClearOutput, error) {
	if !input.Confirm {
		return nil, errors.NewInvalidRequest("confirm must be true to clear all highlights")
	}

	count := len(env.Store.List(ctx))
	if !env.Store.Clear(ctx) {
		return nil, errors.NewInternal(nil)
	}
	env.publish(notify.Message{Type: notify.HighlightsCleared})

	return &ClearOutput{Cleared: count}, nil
}
