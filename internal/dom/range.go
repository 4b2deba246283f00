package dom

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
)

var (
	// ErrDetachedRange means a boundary node is no longer part of the document.
	ErrDetachedRange = errors.New("range is not attached to the document")

	// ErrPartialRange means the range partially selects a non-text node.
	ErrPartialRange = errors.New("range partially selects a non-text node")

	// ErrInvalidRange means an offset is out of bounds or the end precedes the start.
	ErrInvalidRange = errors.New("invalid range")
)

// Range is a span of a document between two boundary points.
// For a text container the offset is a byte offset into its Data; for an
// element container it is a child index.
type Range struct {
	StartContainer *html.Node
	StartOffset    int
	EndContainer   *html.Node
	EndOffset      int
}

// Collapsed reports whether the range selects nothing.
func (r Range) Collapsed() bool {
	return r.StartContainer == r.EndContainer && r.StartOffset == r.EndOffset
}

// Attached reports whether both boundary nodes still belong to doc.
func (r Range) Attached(doc *html.Node) bool {
	if r.StartContainer == nil || r.EndContainer == nil {
		return false
	}
	return root(r.StartContainer) == doc && root(r.EndContainer) == doc
}

// Text returns the text the range covers.
func (r Range) Text() string {
	if r.StartContainer == nil || r.EndContainer == nil || root(r.StartContainer) != root(r.EndContainer) {
		return ""
	}
	if r.StartContainer == r.EndContainer && r.StartContainer.Type == html.TextNode {
		data := r.StartContainer.Data
		if !validOffset(r.StartContainer, r.StartOffset) || !validOffset(r.EndContainer, r.EndOffset) || r.EndOffset < r.StartOffset {
			return ""
		}
		return data[r.StartOffset:r.EndOffset]
	}

	order := preorder(root(r.StartContainer))
	start, ok1 := boundaryKey(order, r.StartContainer, r.StartOffset)
	end, ok2 := boundaryKey(order, r.EndContainer, r.EndOffset)
	if !ok1 || !ok2 || end.less(start) {
		return ""
	}

	var sb strings.Builder
	walk(root(r.StartContainer), func(n *html.Node) bool {
		if n.Type != html.TextNode {
			return true
		}
		from, to := 0, len(n.Data)
		pos := order[n]
		if pos < start.pos || pos > end.pos {
			return true
		}
		if pos == start.pos && start.off > 0 {
			from = start.off
		}
		if pos == end.pos {
			if end.off < 0 {
				return true
			}
			to = end.off
		}
		if from < to {
			sb.WriteString(n.Data[from:to])
		}
		return true
	})
	return sb.String()
}

// key orders boundary points. off is -1 for "just before node pos".
type key struct {
	pos int
	off int
}

func (k key) less(o key) bool {
	if k.pos != o.pos {
		return k.pos < o.pos
	}
	return k.off < o.off
}

func validOffset(n *html.Node, off int) bool {
	if off < 0 {
		return false
	}
	if n.Type == html.TextNode {
		return off <= len(n.Data)
	}
	return off <= childCount(n)
}

func boundaryKey(order map[*html.Node]int, n *html.Node, off int) (key, bool) {
	if !validOffset(n, off) {
		return key{}, false
	}
	if n.Type == html.TextNode {
		return key{pos: order[n], off: off}, true
	}
	if c := childAt(n, off); c != nil {
		return key{pos: order[c], off: -1}, true
	}
	return key{pos: order[lastDescendant(n)] + 1, off: -1}, true
}

// Surround moves the content of r into wrapper and inserts wrapper where the
// content was. It follows the rules of the DOM surroundContents operation:
// a boundary may split a text node, but any element the range only partly
// covers makes the operation fail. On error the tree is left unchanged.
func Surround(doc *html.Node, r Range, wrapper *html.Node) error {
	if !r.Attached(doc) {
		return ErrDetachedRange
	}
	if wrapper == nil || wrapper.Type != html.ElementNode {
		return ErrInvalidRange
	}

	order := preorder(doc)
	start, ok1 := boundaryKey(order, r.StartContainer, r.StartOffset)
	end, ok2 := boundaryKey(order, r.EndContainer, r.EndOffset)
	if !ok1 || !ok2 || end.less(start) {
		return ErrInvalidRange
	}

	if r.StartContainer == r.EndContainer && r.StartContainer.Type == html.TextNode {
		if r.StartContainer.Parent == nil {
			return ErrPartialRange
		}
		surroundText(r.StartContainer, r.StartOffset, r.EndOffset, wrapper)
		return nil
	}

	ca := commonAncestor(r.StartContainer, r.EndContainer)
	if !boundaryInside(ca, r.StartContainer) || !boundaryInside(ca, r.EndContainer) {
		return ErrPartialRange
	}

	// Resolve element offsets to nodes before any split shifts child indices.
	var from, until *html.Node
	if r.StartContainer.Type != html.TextNode {
		from = childAt(ca, r.StartOffset)
	}
	if r.EndContainer.Type != html.TextNode {
		until = childAt(ca, r.EndOffset)
	}

	if t := r.StartContainer; t.Type == html.TextNode {
		switch {
		case r.StartOffset == 0:
			from = t
		case r.StartOffset == len(t.Data):
			from = t.NextSibling
		default:
			from = splitText(t, r.StartOffset)
		}
	}
	if t := r.EndContainer; t.Type == html.TextNode {
		switch {
		case r.EndOffset == 0:
			until = t
		case r.EndOffset == len(t.Data):
			until = t.NextSibling
		default:
			until = splitText(t, r.EndOffset)
		}
	}

	prepareWrapper(wrapper)
	if from == nil {
		ca.AppendChild(wrapper)
		return nil
	}
	ca.InsertBefore(wrapper, from)
	for n := from; n != nil && n != until; {
		next := n.NextSibling
		ca.RemoveChild(n)
		wrapper.AppendChild(n)
		n = next
	}
	return nil
}

// boundaryInside reports whether a boundary container sits directly in ca:
// text containers must be children of ca, element containers must be ca.
func boundaryInside(ca, container *html.Node) bool {
	if ca == nil {
		return false
	}
	if container.Type == html.TextNode {
		return container.Parent == ca
	}
	return container == ca
}

// surroundText splits t into before, selected and after parts, wraps the
// selected part and splices the non-empty parts back in order.
func surroundText(t *html.Node, startOff, endOff int, wrapper *html.Node) {
	parent := t.Parent
	before, mid, after := t.Data[:startOff], t.Data[startOff:endOff], t.Data[endOff:]

	prepareWrapper(wrapper)
	if mid != "" {
		wrapper.AppendChild(&html.Node{Type: html.TextNode, Data: mid})
	}
	if before != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: before}, t)
	}
	parent.InsertBefore(wrapper, t)
	if after != "" {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: after}, t)
	}
	parent.RemoveChild(t)
}

// splitText truncates t at off and inserts the remainder as a new sibling,
// which it returns.
func splitText(t *html.Node, off int) *html.Node {
	rest := &html.Node{Type: html.TextNode, Data: t.Data[off:]}
	t.Data = t.Data[:off]
	t.Parent.InsertBefore(rest, t.NextSibling)
	return rest
}

func prepareWrapper(w *html.Node) {
	Detach(w)
	for c := w.FirstChild; c != nil; {
		next := c.NextSibling
		w.RemoveChild(c)
		c = next
	}
}
