package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// walk visits n and its descendants in document order. Returning false from
// fn skips the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// unrendered elements never contribute visible text.
func unrendered(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

// Body returns the <body> element of doc, or doc itself when there is none.
func Body(doc *html.Node) *html.Node {
	var body *html.Node
	walk(doc, func(n *html.Node) bool {
		if body != nil {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return false
		}
		return true
	})
	if body == nil {
		return doc
	}
	return body
}

// TextNodes returns the candidate text nodes under root in document order.
// Text inside script, style, noscript and template is skipped, as is text
// whose parent is a marker.
func TextNodes(root *html.Node) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if unrendered(n) {
			return false
		}
		if n.Type == html.TextNode && !IsMarker(n.Parent) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// TextContent concatenates the text of n and all its descendants.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// Attr returns the value of the named attribute, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// FindElement returns the first element under root matching pred.
func FindElement(root *html.Node, pred func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && pred(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func root(n *html.Node) *html.Node {
	for n != nil && n.Parent != nil {
		n = n.Parent
	}
	return n
}

func childCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

func childAt(n *html.Node, i int) *html.Node {
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

func ancestors(n *html.Node) []*html.Node {
	var out []*html.Node
	for ; n != nil; n = n.Parent {
		out = append(out, n)
	}
	return out
}

// commonAncestor returns the deepest node that contains both a and b
// (a node contains itself).
func commonAncestor(a, b *html.Node) *html.Node {
	inA := make(map[*html.Node]bool)
	for _, n := range ancestors(a) {
		inA[n] = true
	}
	for _, n := range ancestors(b) {
		if inA[n] {
			return n
		}
	}
	return nil
}

// preorder numbers every node under r in document order.
func preorder(r *html.Node) map[*html.Node]int {
	order := make(map[*html.Node]int)
	i := 0
	walk(r, func(n *html.Node) bool {
		order[n] = i
		i++
		return true
	})
	return order
}

// lastDescendant returns the deepest last node of n's subtree.
func lastDescendant(n *html.Node) *html.Node {
	for n.LastChild != nil {
		n = n.LastChild
	}
	return n
}
