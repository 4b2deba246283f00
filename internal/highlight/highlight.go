package highlight

import (
	"crypto/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/hilite/internal/errors"
)

// TimestampLayout is the ISO-8601 UTC form used for Highlight.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Highlight is one saved text selection.
// Field names are the persisted JSON names and must not change.
type Highlight struct {
	// ID is a ULID derived from the capture instant
	ID string `json:"id"`

	// Text is the captured selection, trimmed and non-empty
	Text string `json:"text"`

	// URL is the full page URL at capture time
	URL string `json:"url"`

	// Title is the page title at capture time (may be empty)
	Title string `json:"title"`

	// Timestamp is the capture instant in TimestampLayout
	Timestamp string `json:"timestamp"`

	// Domain is the host component of URL
	Domain string `json:"domain"`

	// Summary is absent until generated
	Summary *string `json:"summary,omitempty"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a ULID for the given instant. IDs generated within one
// process are unique and sort in creation order even within a millisecond.
func NewID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// New builds a Highlight for a selection captured at now.
// Text is trimmed; empty text is rejected.
func New(text, pageURL, title string, now time.Time) (Highlight, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Highlight{}, errors.NewInvalidRequest("text is required")
	}
	return Highlight{
		ID:        NewID(now),
		Text:      text,
		URL:       pageURL,
		Title:     title,
		Timestamp: now.UTC().Format(TimestampLayout),
		Domain:    Domain(pageURL),
	}, nil
}

// Domain returns the host component of rawURL without port, or "" when the
// URL cannot be parsed.
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// HasSummary reports whether a summary has been generated.
func (h Highlight) HasSummary() bool {
	return h.Summary != nil && *h.Summary != ""
}

// Patch is the set of mutable fields. Only the summary can change after capture.
type Patch struct {
	Summary *string `json:"summary,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Summary == nil
}

// Apply returns a copy of h with the patch's fields merged in.
func (p Patch) Apply(h Highlight) Highlight {
	if p.Summary != nil {
		s := *p.Summary
		h.Summary = &s
	}
	return h
}
