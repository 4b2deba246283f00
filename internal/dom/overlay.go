package dom

import "golang.org/x/net/html"

// Overlay is page chrome (a popup or a toast) appended to the body.
type Overlay struct {
	node *html.Node
}

// AppendOverlay appends n to the body of doc and returns a handle for it.
func AppendOverlay(doc, n *html.Node) *Overlay {
	Detach(n)
	Body(doc).AppendChild(n)
	return &Overlay{node: n}
}

// Node returns the overlay's root element.
func (o *Overlay) Node() *html.Node {
	if o == nil {
		return nil
	}
	return o.node
}

// Attached reports whether the overlay is still in a tree.
func (o *Overlay) Attached() bool {
	return o != nil && o.node != nil && o.node.Parent != nil
}

// Remove detaches the overlay. Safe to call more than once.
func (o *Overlay) Remove() {
	if o != nil {
		Detach(o.node)
	}
}

// Contains reports whether n is the overlay element or one of its descendants.
func (o *Overlay) Contains(n *html.Node) bool {
	if o == nil || o.node == nil {
		return false
	}
	for ; n != nil; n = n.Parent {
		if n == o.node {
			return true
		}
	}
	return false
}
