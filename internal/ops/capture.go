package ops

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/hilite/internal/capture"
	"github.com/hpungsan/hilite/internal/errors"
	"github.com/hpungsan/hilite/internal/highlight"
	"github.com/hpungsan/hilite/internal/page"
)

// CaptureInput contains parameters for the Capture operation.
type CaptureInput struct {
	URL       string `json:"url"`            // required
	HTML      string `json:"html,omitempty"` // optional, fetched from URL when empty
	Selection string `json:"selection"`      // required, text to select on the page

	IncludeHTML bool `json:"include_html,omitempty"`
}

// CaptureOutput contains the result of the Capture operation.
type CaptureOutput struct {
	Highlight highlight.Highlight `json:"highlight"`
	Wrapped   bool                `json:"wrapped"`
	Reapplied int                 `json:"reapplied"`
	HTML      string              `json:"html,omitempty"`
}

// Capture drives one selection session on a page: saved highlights for the
// page are marked first, then the selection is made, settled and saved.
func Capture(ctx context.Context, env *Env, input CaptureInput) (*CaptureOutput, error) {
	if strings.TrimSpace(input.Selection) == "" {
		return nil, errors.NewInvalidRequest("selection is required")
	}

	p, err := loadPage(ctx, env, input.URL, input.HTML)
	if err != nil {
		return nil, err
	}

	cfg := env.config()
	c := capture.New(p, env.Store, env.Bus, capture.Options{
		SettleDelay:   time.Duration(cfg.SettleDelayMs) * time.Millisecond,
		ToastDuration: time.Duration(cfg.ToastMs) * time.Millisecond,
		Now:           env.now,
	})
	defer c.Close()

	reapplied := c.Load(ctx)

	if !p.SelectText(input.Selection) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("selection %q not found in a single text node of the page", input.Selection))
	}
	c.SelectionChanged()

	res, err := c.Save(ctx)
	if err != nil {
		return nil, err
	}

	out := &CaptureOutput{
		Highlight: res.Highlight,
		Wrapped:   res.Wrapped,
		Reapplied: reapplied,
	}
	if input.IncludeHTML {
		var buf bytes.Buffer
		if err := p.Render(&buf); err != nil {
			return nil, errors.NewInternal(err)
		}
		out.HTML = buf.String()
	}
	return out, nil
}

// loadPage parses rawHTML when given, otherwise fetches pageURL.
func loadPage(ctx context.Context, env *Env, pageURL, rawHTML string) (*page.Page, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, errors.NewInvalidRequest("url is required")
	}
	if err := page.ValidateURL(pageURL); err != nil {
		return nil, err
	}
	if rawHTML == "" {
		return page.Fetch(ctx, env.HTTPClient, pageURL)
	}
	p, err := page.Parse(strings.NewReader(rawHTML), pageURL)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid html: %v", err))
	}
	return p, nil
}
