package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/highlight"
	"github.com/hpungsan/hilite/internal/notify"
	"github.com/hpungsan/hilite/internal/page"
)

// SaveInput contains parameters for the Save operation.
type SaveInput struct {
	Text  string `json:"text"`  // required
	URL   string `json:"url"`   // required, absolute http(s)
	Title string `json:"title"` // optional
}

// SaveOutput is the stored highlight.
type SaveOutput struct {
	highlight.Highlight
}

// Save stores a highlight captured outside a page session, such as a
// bookmarklet post or an API call.
func Save(ctx context.Context, env *Env, input SaveInput) (*SaveOutput, error) {
	pageURL := strings.TrimSpace(input.URL)
	if pageURL == "" {
		return nil, errors.NewInvalidRequest("url is required")
	}
	if err := page.ValidateURL(pageURL); err != nil {
		return nil, err
	}

	h, err := highlight.New(input.Text, pageURL, strings.TrimSpace(input.Title), env.now())
	if err != nil {
		return nil, err
	}

	if !env.Store.Create(ctx, h) {
		return nil, errors.NewInternal(nil)
	}
	env.publish(notify.Saved(h))

	return &SaveOutput{Highlight: h}, nil
}
