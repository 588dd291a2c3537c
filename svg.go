package svgmin

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

var (
	ErrNoSvgRoot = errors.New("no <svg> root element found")
	ErrMalformed = errors.New("malformed XML")
)

type NodeKind uint8

const (
	ElementNode NodeKind = iota
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

// Attr is an attribute with its qualified name kept verbatim, eg: "xlink:href".
type Attr struct {
	Name  string
	Value string
}

// Node is one node of the transient tree built for a single pipeline stage.
type Node struct {
	Kind     NodeKind
	Tag      string // qualified element name, eg: "svg", "inkscape:grid"
	Attrs    []Attr
	Children []*Node
	Data     string // text, comment, processing instruction or directive body
}

// Document holds the top level nodes (prolog, root element, trailing misc).
type Document struct {
	Nodes []*Node
}

// ParseDocument parses svg markup into a tree. The decoder runs in raw mode so
// namespace prefixes survive a parse/serialize round trip unchanged.
func ParseDocument(svg string) (*Document, error) {
	decoder := xml.NewDecoder(strings.NewReader(svg))
	decoder.Strict = true
	// input is already decoded text, a declared encoding must not transcode it again
	decoder.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	doc := &Document{}
	var stack []*Node
	roots := 0

	appendNode := func(n *Node) {
		if len(stack) == 0 {
			doc.Nodes = append(doc.Nodes, n)
			return
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, n)
	}

	for {
		token, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(ErrMalformed.Error() + ": " + err.Error())
		}

		switch t := token.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				roots++
				if roots > 1 {
					return nil, errors.New(ErrMalformed.Error() + ": multiple root elements")
				}
			}
			n := &Node{Kind: ElementNode, Tag: qualifiedName(t.Name)}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualifiedName(a.Name), Value: a.Value})
			}
			appendNode(n)
			stack = append(stack, n)

		case xml.EndElement:
			name := qualifiedName(t.Name)
			if len(stack) == 0 || stack[len(stack)-1].Tag != name {
				return nil, errors.New(ErrMalformed.Error() + ": unexpected closing tag </" + name + ">")
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			text := string(t)
			if len(stack) == 0 {
				if strings.TrimSpace(text) != "" {
					return nil, errors.New(ErrMalformed.Error() + ": text outside root element")
				}
				continue
			}
			appendNode(&Node{Kind: TextNode, Data: text})

		case xml.Comment:
			appendNode(&Node{Kind: CommentNode, Data: string(t)})

		case xml.ProcInst:
			appendNode(&Node{Kind: ProcInstNode, Tag: t.Target, Data: string(t.Inst)})

		case xml.Directive:
			appendNode(&Node{Kind: DirectiveNode, Data: string(t)})
		}
	}

	if len(stack) != 0 {
		return nil, errors.New(ErrMalformed.Error() + ": unclosed element <" + stack[len(stack)-1].Tag + ">")
	}
	if roots == 0 {
		return nil, ErrNoSvgRoot
	}
	return doc, nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// localName strips any namespace prefix, eg: "svg:path" -> "path".
func localName(qualified string) string {
	if i := strings.IndexByte(qualified, ':'); i != -1 {
		return qualified[i+1:]
	}
	return qualified
}

// Root returns the root element when it is an <svg>, nil otherwise.
func (d *Document) Root() *Node {
	for _, n := range d.Nodes {
		if n.Kind == ElementNode {
			if localName(n.Tag) == "svg" {
				return n
			}
			return nil
		}
	}
	return nil
}

func (d *Document) String() string {
	var sb strings.Builder
	for _, n := range d.Nodes {
		n.write(&sb)
	}
	return sb.String()
}

func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes every attribute for which drop returns true and reports
// how many were removed.
func (n *Node) RemoveAttr(drop func(a Attr) bool) int {
	kept := n.Attrs[:0]
	removed := 0
	for _, a := range n.Attrs {
		if drop(a) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	n.Attrs = kept
	return removed
}

// Walk visits n and its element descendants in document order. Returning false
// from fn skips the children of that element.
func (n *Node) Walk(fn func(*Node) bool) {
	if n.Kind != ElementNode {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Descendants returns all element descendants of n in document order, n excluded.
func (n *Node) Descendants() []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(e *Node) bool {
			out = append(out, e)
			return true
		})
	}
	return out
}

func (n *Node) hasElementChildren() bool {
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			return true
		}
	}
	return false
}

func (n *Node) textContent() string {
	var sb strings.Builder
	for _, c := range n.Children {
		switch c.Kind {
		case TextNode:
			sb.WriteString(c.Data)
		case ElementNode:
			sb.WriteString(c.textContent())
		}
	}
	return sb.String()
}

var (
	attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `"`, "&quot;", "\n", "&#xA;", "\t", "&#x9;", "\r", "&#xD;")
	textEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;")
)

func (n *Node) write(sb *strings.Builder) {
	switch n.Kind {
	case TextNode:
		sb.WriteString(textEscaper.Replace(n.Data))
	case CommentNode:
		sb.WriteString("<!--" + n.Data + "-->")
	case ProcInstNode:
		sb.WriteString("<?" + n.Tag)
		if n.Data != "" {
			sb.WriteString(" " + n.Data)
		}
		sb.WriteString("?>")
	case DirectiveNode:
		sb.WriteString("<!" + n.Data + ">")
	case ElementNode:
		sb.WriteString("<" + n.Tag)
		for _, a := range n.Attrs {
			sb.WriteString(" " + a.Name + `="` + attrEscaper.Replace(a.Value) + `"`)
		}
		if len(n.Children) == 0 {
			// keep the root as an explicit pair so "</svg>" always survives
			if localName(n.Tag) == "svg" {
				sb.WriteString("></" + n.Tag + ">")
				return
			}
			sb.WriteString("/>")
			return
		}
		sb.WriteString(">")
		for _, c := range n.Children {
			c.write(sb)
		}
		sb.WriteString("</" + n.Tag + ">")
	}
}

// isWhitespace reports whether s contains only XML whitespace.
func isWhitespace(s string) bool {
	return strings.TrimLeft(s, " \t\r\n") == ""
}
