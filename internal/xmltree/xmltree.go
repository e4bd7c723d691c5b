// Package xmltree implements the generic, schema-agnostic XML node tree
// that the lems and instance packages walk — this module's stand-in for the
// borrowed roxmltree::Node tree the original toolchain builds its LEMS and
// instance documents from. Unlike the struct-tag-driven decoding used
// elsewhere for statically known document shapes, ComponentType composition
// and instance elaboration both need to dispatch on an element's tag name
// at runtime, so they read this tree instead of a fixed Go struct.
package xmltree

import (
	"encoding/xml"
	"fmt"
	"io"
)

// Node is one element of a parsed XML document. Comments and processing
// instructions are dropped; text content is accumulated into Text.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Children []*Node
	Text     string
}

// Attribute returns the named attribute and whether it was present.
func (n *Node) Attribute(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// AttributeOr returns the named attribute, or def if absent.
func (n *Node) AttributeOr(name, def string) string {
	if v, ok := n.Attrs[name]; ok {
		return v
	}
	return def
}

// Parse reads a full XML document from r and returns its root Node.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var root *Node
	var stack []*Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltree: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local, Attrs: map[string]string{}}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("xmltree: unbalanced closing tag %q", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("xmltree: document has no root element")
	}
	return root, nil
}
