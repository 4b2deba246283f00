// Package dom holds the tree operations behind highlight markers: finding
// text, wrapping ranges and re-applying saved highlights to a parsed page.
// Everything here is a pure function over an *html.Node tree.
package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hpungsan/hilite/internal/highlight"
)

const (
	// MarkerClass identifies marker elements.
	MarkerClass = "saved-highlight"

	// MarkerStyle is the inline style of a marker.
	MarkerStyle = "background-color: #ffeb3b; padding: 2px; border-radius: 2px"
)

// NewMarker returns a detached, empty marker element.
func NewMarker() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr: []html.Attribute{
			{Key: "class", Val: MarkerClass},
			{Key: "style", Val: MarkerStyle},
		},
	}
}

// IsMarker reports whether n is a marker element.
func IsMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Span {
		return false
	}
	for _, cls := range strings.Fields(Attr(n, "class")) {
		if cls == MarkerClass {
			return true
		}
	}
	return false
}

// Markers returns every marker element under root in document order.
func Markers(root *html.Node) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if IsMarker(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// HighlightText wraps the first occurrence of text found inside a single
// candidate text node. It reports whether a marker was inserted.
func HighlightText(doc *html.Node, text string) bool {
	r, ok := FindRange(doc, text)
	if !ok {
		return false
	}
	return Surround(doc, r, NewMarker()) == nil
}

// FindRange locates the first candidate text node containing text and
// returns the range covering that occurrence.
func FindRange(doc *html.Node, text string) (Range, bool) {
	if text == "" {
		return Range{}, false
	}
	for _, t := range TextNodes(Body(doc)) {
		if i := strings.Index(t.Data, text); i >= 0 {
			return Range{
				StartContainer: t,
				StartOffset:    i,
				EndContainer:   t,
				EndOffset:      i + len(text),
			}, true
		}
	}
	return Range{}, false
}

// Reapply marks the saved highlights belonging to pageURL and returns how
// many markers it inserted. Records for other URLs (exact string match) are
// skipped. Each existing marker accounts for one record with the same text,
// so reapplying is idempotent while several records sharing a text each get
// their own marker. Records whose text no longer occurs on the page are
// skipped silently.
func Reapply(doc *html.Node, records []highlight.Highlight, pageURL string) int {
	shown := make(map[string]int)
	for _, m := range Markers(doc) {
		shown[TextContent(m)]++
	}

	applied := 0
	for _, rec := range records {
		if rec.URL != pageURL {
			continue
		}
		if shown[rec.Text] > 0 {
			shown[rec.Text]--
			continue
		}
		if HighlightText(doc, rec.Text) {
			applied++
		}
	}
	return applied
}

// Parse parses an HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// Render serializes n.
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}
