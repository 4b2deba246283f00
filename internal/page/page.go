// Package page is the page surface a capture runs against: a parsed HTML
// document plus its URL, a current selection and the overlays shown on it.
package page

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hpungsan/hilite/internal/dom"
)

const (
	// AffordanceClass is the class of the save popup.
	AffordanceClass = "highlight-save-popup"

	// ToastClass is the class of the success message.
	ToastClass = "highlight-success-message"
)

// Page is a parsed document with selection state.
type Page struct {
	url       string
	doc       *html.Node
	selection *dom.Range
}

// New wraps an already parsed document.
func New(doc *html.Node, pageURL string) *Page {
	return &Page{url: pageURL, doc: doc}
}

// Parse reads an HTML document from r.
func Parse(r io.Reader, pageURL string) (*Page, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, err
	}
	return New(doc, pageURL), nil
}

// URL returns the page URL the document was loaded from.
func (p *Page) URL() string { return p.url }

// Document returns the document root.
func (p *Page) Document() *html.Node { return p.doc }

// Title returns the first <title>, falling back to og:title and then the
// first <h1>. Empty when none is present.
func (p *Page) Title() string {
	if t := p.find(func(n *html.Node) bool { return n.DataAtom == atom.Title }); t != nil {
		if s := cleanText(dom.TextContent(t)); s != "" {
			return s
		}
	}
	if m := p.find(func(n *html.Node) bool {
		return n.DataAtom == atom.Meta && dom.Attr(n, "property") == "og:title"
	}); m != nil {
		if s := cleanText(dom.Attr(m, "content")); s != "" {
			return s
		}
	}
	if h := p.find(func(n *html.Node) bool { return n.DataAtom == atom.H1 }); h != nil {
		return cleanText(dom.TextContent(h))
	}
	return ""
}

func (p *Page) find(pred func(*html.Node) bool) *html.Node {
	return dom.FindElement(p.doc, pred)
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Select makes r the current selection.
func (p *Page) Select(r dom.Range) {
	p.selection = &r
}

// SelectText selects the first occurrence of text inside a single text node.
func (p *Page) SelectText(text string) bool {
	r, ok := dom.FindRange(p.doc, text)
	if !ok {
		return false
	}
	p.Select(r)
	return true
}

// Selection returns the current selection, if any.
func (p *Page) Selection() (dom.Range, bool) {
	if p.selection == nil {
		return dom.Range{}, false
	}
	return *p.selection, true
}

// ClearSelection drops the current selection.
func (p *Page) ClearSelection() {
	p.selection = nil
}

// ShowAffordance appends the save popup to the page.
func (p *Page) ShowAffordance(dom.Range) *dom.Overlay {
	popup := element(atom.Div, "class", AffordanceClass, "style", "position: fixed; z-index: 10000")
	content := element(atom.Div, "class", "popup-content")
	label := element(atom.Span, "class", "popup-text")
	label.AppendChild(text("Save Highlight?"))
	save := element(atom.Button, "class", "save-btn", "id", "saveHighlightBtn")
	save.AppendChild(text("Save"))
	cancel := element(atom.Button, "class", "cancel-btn", "id", "cancelHighlightBtn")
	cancel.AppendChild(text("×"))

	content.AppendChild(label)
	content.AppendChild(save)
	content.AppendChild(cancel)
	popup.AppendChild(content)
	return dom.AppendOverlay(p.doc, popup)
}

// ShowToast appends a transient message to the page.
func (p *Page) ShowToast(msg string) *dom.Overlay {
	toast := element(atom.Div, "class", ToastClass, "style", "position: fixed; top: 20px; right: 20px; z-index: 10001")
	toast.AppendChild(text(msg))
	return dom.AppendOverlay(p.doc, toast)
}

// Render serializes the current document.
func (p *Page) Render(w io.Writer) error {
	return dom.Render(w, p.doc)
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
