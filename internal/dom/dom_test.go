package dom

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hpungsan/hilite/internal/highlight"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func byID(doc *html.Node, id string) *html.Node {
	return FindElement(doc, func(n *html.Node) bool { return Attr(n, "id") == id })
}

func TestHighlightText_SplitsIntoThree(t *testing.T) {
	doc := parse(t, `<html><body><p id="p">The quick brown fox</p></body></html>`)

	if !HighlightText(doc, "quick brown") {
		t.Fatal("HighlightText() = false, want true")
	}

	p := byID(doc, "p")
	before := p.FirstChild
	marker := before.NextSibling
	after := marker.NextSibling

	if before.Type != html.TextNode || before.Data != "The " {
		t.Errorf("before = %q, want %q", before.Data, "The ")
	}
	if !IsMarker(marker) {
		t.Fatalf("middle node is not a marker: %+v", marker)
	}
	if got := TextContent(marker); got != "quick brown" {
		t.Errorf("marker text = %q, want %q", got, "quick brown")
	}
	if after.Type != html.TextNode || after.Data != " fox" {
		t.Errorf("after = %q, want %q", after.Data, " fox")
	}
	if after.NextSibling != nil {
		t.Error("unexpected extra node after split")
	}
	if Attr(marker, "style") != MarkerStyle {
		t.Errorf("marker style = %q", Attr(marker, "style"))
	}
}

func TestHighlightText_WholeNodeLeavesNoEmptyParts(t *testing.T) {
	doc := parse(t, `<body><p id="p">exact</p></body>`)

	if !HighlightText(doc, "exact") {
		t.Fatal("HighlightText() = false")
	}
	p := byID(doc, "p")
	if p.FirstChild != p.LastChild || !IsMarker(p.FirstChild) {
		t.Errorf("p children = %s, want a single marker", render(t, p))
	}
}

func TestHighlightText_NotFoundNoChange(t *testing.T) {
	doc := parse(t, `<body><p>The quick brown fox</p></body>`)
	before := render(t, doc)

	if HighlightText(doc, "lazy dog") {
		t.Error("HighlightText() = true for absent text")
	}
	if HighlightText(doc, "") {
		t.Error("HighlightText() = true for empty text")
	}
	if after := render(t, doc); after != before {
		t.Errorf("document changed:\n%s\n%s", before, after)
	}
}

func TestHighlightText_FirstOccurrenceInDocumentOrder(t *testing.T) {
	doc := parse(t, `<body><p id="a">one match</p><p id="b">two match</p></body>`)

	HighlightText(doc, "match")
	if len(Markers(byID(doc, "a"))) != 1 {
		t.Error("first paragraph not marked")
	}
	if len(Markers(byID(doc, "b"))) != 0 {
		t.Error("second paragraph marked")
	}
}

func TestHighlightText_SkipsUnrenderedText(t *testing.T) {
	doc := parse(t, `<html><head><title>secret</title></head><body><script>var secret = 1;</script><style>.secret{}</style><p id="p">the secret word</p></body></html>`)

	if !HighlightText(doc, "secret") {
		t.Fatal("HighlightText() = false")
	}
	markers := Markers(doc)
	if len(markers) != 1 {
		t.Fatalf("markers = %d, want 1", len(markers))
	}
	if markers[0].Parent != byID(doc, "p") {
		t.Error("marker placed outside the paragraph")
	}
}

func TestHighlightText_DoesNotMatchAcrossNodes(t *testing.T) {
	doc := parse(t, `<body><p>quick <b>brown</b> fox</p></body>`)
	if HighlightText(doc, "quick brown") {
		t.Error("HighlightText() matched text spanning elements")
	}
}

func TestReapply(t *testing.T) {
	doc := parse(t, `<body><p>The quick brown fox jumps over the lazy dog</p></body>`)
	records := []highlight.Highlight{
		{ID: "1", Text: "quick brown", URL: "https://a.test/"},
		{ID: "2", Text: "lazy dog", URL: "https://a.test/"},
		{ID: "3", Text: "jumps", URL: "https://a.test/?x=1"},
		{ID: "4", Text: "not on page", URL: "https://a.test/"},
	}

	if n := Reapply(doc, records, "https://a.test/"); n != 2 {
		t.Fatalf("Reapply() = %d, want 2", n)
	}
	var texts []string
	for _, m := range Markers(doc) {
		texts = append(texts, TextContent(m))
	}
	if strings.Join(texts, "|") != "quick brown|lazy dog" {
		t.Errorf("marker texts = %v", texts)
	}
}

func TestReapply_Idempotent(t *testing.T) {
	src := `<body><p>repeat here and repeat there</p></body>`
	records := []highlight.Highlight{{ID: "1", Text: "repeat", URL: "https://a.test/"}}

	once := parse(t, src)
	Reapply(once, records, "https://a.test/")

	twice := parse(t, src)
	Reapply(twice, records, "https://a.test/")
	if n := Reapply(twice, records, "https://a.test/"); n != 0 {
		t.Errorf("second Reapply() = %d, want 0", n)
	}

	if render(t, once) != render(t, twice) {
		t.Errorf("second pass changed the document:\n%s\n%s", render(t, once), render(t, twice))
	}
}

func TestReapply_SameTextTwoRecords(t *testing.T) {
	doc := parse(t, `<body><p>alpha beta</p><p>alpha gamma</p></body>`)
	records := []highlight.Highlight{
		{ID: "1", Text: "alpha", URL: "u"},
		{ID: "2", Text: "alpha", URL: "u"},
	}
	if n := Reapply(doc, records, "u"); n != 2 {
		t.Fatalf("Reapply() = %d, want 2", n)
	}
	if got := len(Markers(doc)); got != 2 {
		t.Fatalf("markers = %d, want 2", got)
	}
	if n := Reapply(doc, records, "u"); n != 0 {
		t.Errorf("second Reapply() = %d, want 0", n)
	}
	if got := len(Markers(doc)); got != 2 {
		t.Errorf("markers after second pass = %d, want 2", got)
	}
}

func TestReapply_MarkerTextExcluded(t *testing.T) {
	doc := parse(t, `<body><p>alpha beta</p></body>`)
	records := []highlight.Highlight{
		{ID: "1", Text: "alpha beta", URL: "u"},
		{ID: "2", Text: "beta", URL: "u"},
	}
	if n := Reapply(doc, records, "u"); n != 1 {
		t.Errorf("Reapply() = %d, want 1 (overlapping text lives inside a marker)", n)
	}
	if len(Markers(doc)) != 1 {
		t.Errorf("markers = %d, want 1", len(Markers(doc)))
	}
}

func TestSurround_AcrossSiblings(t *testing.T) {
	doc := parse(t, `<body><p id="p">Hello <b>bold</b> world</p></body>`)
	p := byID(doc, "p")
	first := p.FirstChild
	last := p.LastChild

	r := Range{StartContainer: first, StartOffset: 2, EndContainer: last, EndOffset: 2}
	if got := r.Text(); got != "llo bold w" {
		t.Errorf("Text() = %q, want %q", got, "llo bold w")
	}

	if err := Surround(doc, r, NewMarker()); err != nil {
		t.Fatalf("Surround() error = %v", err)
	}
	want := `<p id="p">He<span class="saved-highlight" style="` + MarkerStyle + `">llo <b>bold</b> w</span>orld</p>`
	if got := render(t, p); got != want {
		t.Errorf("rendered = %s\nwant      %s", got, want)
	}
}

func TestSurround_ElementBoundaries(t *testing.T) {
	doc := parse(t, `<body><ul id="u"><li>a</li><li>b</li><li>c</li></ul></body>`)
	u := byID(doc, "u")

	r := Range{StartContainer: u, StartOffset: 1, EndContainer: u, EndOffset: 3}
	if got := r.Text(); got != "bc" {
		t.Errorf("Text() = %q, want bc", got)
	}
	wrapper := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	if err := Surround(doc, r, wrapper); err != nil {
		t.Fatalf("Surround() error = %v", err)
	}
	if got := render(t, u); got != `<ul id="u"><li>a</li><div><li>b</li><li>c</li></div></ul>` {
		t.Errorf("rendered = %s", got)
	}
}

func TestSurround_PartialElementFails(t *testing.T) {
	doc := parse(t, `<body><p id="p">one <b>two three</b> four</p></body>`)
	p := byID(doc, "p")
	before := render(t, doc)

	inner := p.FirstChild.NextSibling.FirstChild // "two three"
	r := Range{StartContainer: p.FirstChild, StartOffset: 1, EndContainer: inner, EndOffset: 3}

	if err := Surround(doc, r, NewMarker()); err != ErrPartialRange {
		t.Fatalf("Surround() error = %v, want ErrPartialRange", err)
	}
	if after := render(t, doc); after != before {
		t.Errorf("tree changed on failure:\n%s\n%s", before, after)
	}
}

func TestSurround_DetachedRange(t *testing.T) {
	doc := parse(t, `<body><p id="p">some text</p></body>`)
	text := byID(doc, "p").FirstChild
	r := Range{StartContainer: text, StartOffset: 0, EndContainer: text, EndOffset: 4}

	if !r.Attached(doc) {
		t.Fatal("Attached() = false before mutation")
	}
	Detach(byID(doc, "p"))
	if r.Attached(doc) {
		t.Error("Attached() = true after removal")
	}
	if err := Surround(doc, r, NewMarker()); err != ErrDetachedRange {
		t.Errorf("Surround() error = %v, want ErrDetachedRange", err)
	}
}

func TestSurround_InvalidRanges(t *testing.T) {
	doc := parse(t, `<body><p id="p">abc</p><p id="q">def</p></body>`)
	a := byID(doc, "p").FirstChild
	d := byID(doc, "q").FirstChild

	tests := []struct {
		name string
		r    Range
	}{
		{"offset past end", Range{StartContainer: a, StartOffset: 0, EndContainer: a, EndOffset: 9}},
		{"negative offset", Range{StartContainer: a, StartOffset: -1, EndContainer: a, EndOffset: 1}},
		{"end before start same node", Range{StartContainer: a, StartOffset: 2, EndContainer: a, EndOffset: 1}},
		{"end before start across nodes", Range{StartContainer: d, StartOffset: 0, EndContainer: a, EndOffset: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Surround(doc, tt.r, NewMarker()); err != ErrInvalidRange {
				t.Errorf("Surround() error = %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestFindRange(t *testing.T) {
	doc := parse(t, `<body><p>alpha <span class="saved-highlight">beta</span> beta</p></body>`)

	r, ok := FindRange(doc, "beta")
	if !ok {
		t.Fatal("FindRange() ok = false")
	}
	if IsMarker(r.StartContainer.Parent) {
		t.Error("FindRange() matched text inside a marker")
	}
	if r.Text() != "beta" {
		t.Errorf("Text() = %q", r.Text())
	}
}

func TestBody_FallsBackToDocument(t *testing.T) {
	frag := &html.Node{Type: html.DocumentNode}
	frag.AppendChild(&html.Node{Type: html.TextNode, Data: "loose text"})
	if Body(frag) != frag {
		t.Error("Body() did not fall back to the document node")
	}
	if !HighlightText(frag, "loose") {
		t.Error("HighlightText() = false on a document without body")
	}
}
