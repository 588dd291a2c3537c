package svgmin

import (
	"html"
	"regexp"
	"strings"
)

// rule is one tree rewrite. Rules run in the order listed, tier after tier;
// later rules rely on earlier ones (empty element removal after stripping).
type rule struct {
	name  string
	apply func(o *Optimizer, doc *Document, root *Node)
}

// tiers[l] holds the rules Level l adds on top of every lower level.
var tiers = [...][]rule{
	Conservative: {
		{"strip-executable-content", stripExecutableContent},
		{"strip-non-content", stripNonContent},
		{"normalize-attribute-whitespace", normalizeAttributeWhitespace},
		{"collapse-whitespace", collapseWhitespace},
	},
	Balanced: {
		{"remove-editor-attributes", removeEditorAttributes},
		{"trim-decimal-zeros", trimDecimalZeros},
		{"minify-inline-style", minifyInlineStyle},
		{"remove-empty-groups", removeEmptyGroups},
	},
	Aggressive: {
		{"remove-class-and-name", removeClassAndName},
		{"remove-hidden-elements", removeHiddenElements},
		{"remove-empty-containers", removeEmptyContainers},
		{"truncate-path-precision", truncatePathPrecision},
	},
	Maximum: {
		// transparent elements go before opacity is stripped, otherwise they would show up
		{"remove-transparent-elements", removeTransparentElements},
		{"remove-empty-containers", removeEmptyContainers},
		{"strip-presentation-attributes", stripPresentationAttributes},
		{"drop-inter-tag-whitespace", dropInterTagWhitespace},
	},
}

// rulesFor returns the cumulative rule list for level.
func rulesFor(level Level) []rule {
	var out []rule
	for l := Conservative; l <= level && int(l) < len(tiers); l++ {
		out = append(out, tiers[l]...)
	}
	return out
}

// elements whose character data is content, not formatting
var textContentElements = map[string]bool{
	"text": true, "tspan": true, "textPath": true, "style": true, "script": true,
	"title": true, "desc": true, "foreignObject": true,
}

// removeNodes deletes, at any depth below n, every child for which drop is true.
func removeNodes(n *Node, drop func(*Node) bool) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if drop(c) {
			continue
		}
		if c.Kind == ElementNode {
			removeNodes(c, drop)
		}
		kept = append(kept, c)
	}
	n.Children = kept
}

// removeEmpty deletes elements matched by candidate once they hold nothing but
// whitespace. Children are processed first so emptiness propagates upwards.
func removeEmpty(n *Node, candidate func(*Node) bool) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			removeEmpty(c, candidate)
			if candidate(c) && isEmptyElement(c) {
				continue
			}
		}
		kept = append(kept, c)
	}
	n.Children = kept
}

func isEmptyElement(n *Node) bool {
	for _, c := range n.Children {
		if c.Kind != TextNode || !isWhitespace(c.Data) {
			return false
		}
	}
	return true
}

// stripExecutableContent removes <script> elements, on* event handler
// attributes and javascript: links. Names are matched case-insensitively
// since HTML parsers lowercase inline svg markup.
func stripExecutableContent(_ *Optimizer, _ *Document, root *Node) {
	stripExecutable(root)
}

func stripExecutable(root *Node) {
	removeNodes(root, func(n *Node) bool {
		return n.Kind == ElementNode && strings.EqualFold(localName(n.Tag), "script")
	})
	root.Walk(func(n *Node) bool {
		n.RemoveAttr(isExecutableAttr)
		return true
	})
}

func isExecutableAttr(a Attr) bool {
	name := strings.ToLower(localName(a.Name))
	if strings.HasPrefix(name, "on") {
		return true
	}
	if name != "href" {
		return false
	}
	v := strings.ToLower(strings.Join(strings.Fields(a.Value), ""))
	return strings.HasPrefix(v, "javascript:")
}

// StripExecutable returns svg without scripts, event handlers or
// javascript: links and with nothing else rewritten. Markup that does not
// parse is returned HTML-escaped so it can only ever render as text.
func StripExecutable(svg string) string {
	doc, err := ParseDocument(svg)
	if err != nil {
		return html.EscapeString(svg)
	}
	for _, n := range doc.Nodes {
		if n.Kind == ElementNode {
			if strings.EqualFold(localName(n.Tag), "script") {
				return html.EscapeString(svg)
			}
			stripExecutable(n)
		}
	}
	return doc.String()
}

func stripNonContent(_ *Optimizer, doc *Document, root *Node) {
	doc.Nodes = []*Node{root}
	removeNodes(root, func(n *Node) bool {
		switch n.Kind {
		case CommentNode, ProcInstNode, DirectiveNode:
			return true
		case ElementNode:
			switch localName(n.Tag) {
			case "metadata", "title", "desc":
				return true
			}
		}
		return false
	})
}

func normalizeAttributeWhitespace(_ *Optimizer, _ *Document, root *Node) {
	root.Walk(func(n *Node) bool {
		for i := range n.Attrs {
			n.Attrs[i].Value = strings.TrimSpace(spaceRe.ReplaceAllString(n.Attrs[i].Value, " "))
		}
		return true
	})
}

// collapseWhitespace merges adjacent text nodes, turns whitespace runs between
// tags into a single space and trims whitespace next to an element's own tags.
// Text-content elements are left untouched.
func collapseWhitespace(_ *Optimizer, _ *Document, root *Node) {
	tidyWhitespace(root, false)
}

func dropInterTagWhitespace(_ *Optimizer, _ *Document, root *Node) {
	tidyWhitespace(root, true)
}

func tidyWhitespace(n *Node, dropAll bool) {
	if textContentElements[localName(n.Tag)] {
		return
	}
	merged := n.Children[:0]
	for _, c := range n.Children {
		if c.Kind == TextNode && len(merged) > 0 && merged[len(merged)-1].Kind == TextNode {
			merged[len(merged)-1].Data += c.Data
			continue
		}
		merged = append(merged, c)
	}

	kept := merged[:0]
	last := len(merged) - 1
	for i, c := range merged {
		if c.Kind == ElementNode {
			tidyWhitespace(c, dropAll)
			kept = append(kept, c)
			continue
		}
		if c.Kind != TextNode {
			kept = append(kept, c)
			continue
		}
		text := spaceRe.ReplaceAllString(c.Data, " ")
		if i == 0 {
			text = strings.TrimLeft(text, " ")
		}
		if i == last {
			text = strings.TrimRight(text, " ")
		}
		if text == "" || (dropAll && text == " ") {
			continue
		}
		c.Data = text
		kept = append(kept, c)
	}
	n.Children = kept
}

func removeEditorAttributes(_ *Optimizer, _ *Document, root *Node) {
	usesXlink := false
	root.Walk(func(n *Node) bool {
		if strings.HasPrefix(n.Tag, "xlink:") {
			usesXlink = true
		}
		for _, a := range n.Attrs {
			if strings.HasPrefix(a.Name, "xlink:") {
				usesXlink = true
			}
		}
		return !usesXlink
	})

	root.Walk(func(n *Node) bool {
		n.RemoveAttr(func(a Attr) bool {
			switch a.Name {
			case "version", "enable-background", "xml:space":
				return true
			case "xmlns:xlink":
				return !usesXlink
			}
			return false
		})
		return true
	})
}

var decimalRe = regexp.MustCompile(`\d*\.\d+`)

// numericAttr reports whether numbers inside the attribute may be rewritten.
func numericAttr(name string) bool {
	switch localName(name) {
	case "id", "class", "href", "src", "name", "style", "font-family", "lang":
		return false
	}
	return !strings.HasPrefix(name, "data-") && !strings.HasPrefix(name, "aria-") && !strings.HasPrefix(name, "xmlns")
}

// formatDecimals rewrites every decimal in s: fraction cut to prec digits
// (prec < 0 keeps them all), trailing zeros and a bare dot removed. When the
// dot goes away and the next number starts with its own dot (path shorthand
// "10.0.5"), a space keeps the two numbers apart.
func formatDecimals(s string, prec int) string {
	matches := decimalRe.FindAllStringIndex(s, -1)
	if matches == nil {
		return s
	}
	var sb strings.Builder
	prev := 0
	for _, m := range matches {
		sb.WriteString(s[prev:m[0]])
		prev = m[1]

		num := s[m[0]:m[1]]
		dot := strings.IndexByte(num, '.')
		intPart, frac := num[:dot], num[dot+1:]
		if prec >= 0 && len(frac) > prec {
			frac = frac[:prec]
		}
		frac = strings.TrimRight(frac, "0")
		if frac != "" {
			sb.WriteString(intPart + "." + frac)
			continue
		}
		if intPart == "" {
			intPart = "0"
		}
		sb.WriteString(intPart)
		if m[1] < len(s) && s[m[1]] == '.' {
			sb.WriteByte(' ')
		}
	}
	sb.WriteString(s[prev:])
	return sb.String()
}

func trimDecimalZeros(_ *Optimizer, _ *Document, root *Node) {
	root.Walk(func(n *Node) bool {
		for i, a := range n.Attrs {
			if numericAttr(a.Name) {
				n.Attrs[i].Value = formatDecimals(a.Value, -1)
			}
		}
		return true
	})
}

func minifyInlineStyle(o *Optimizer, _ *Document, root *Node) {
	root.Walk(func(n *Node) bool {
		for i, a := range n.Attrs {
			if a.Name != "style" {
				continue
			}
			minified, err := o.min.String(inlineCSSMediaType, a.Value)
			if err != nil {
				o.log.Debug("inline style left as is", "err", err)
				continue
			}
			if len(minified) <= len(a.Value) {
				n.Attrs[i].Value = minified
			}
		}
		return true
	})
	root.Walk(func(n *Node) bool {
		n.RemoveAttr(func(a Attr) bool { return a.Name == "style" && a.Value == "" })
		return true
	})
}

func removeEmptyGroups(_ *Optimizer, _ *Document, root *Node) {
	removeEmpty(root, func(n *Node) bool { return localName(n.Tag) == "g" })
}

func removeClassAndName(_ *Optimizer, _ *Document, root *Node) {
	root.Walk(func(n *Node) bool {
		n.RemoveAttr(func(a Attr) bool { return a.Name == "class" || a.Name == "name" })
		return true
	})
}

func removeHiddenElements(_ *Optimizer, _ *Document, root *Node) {
	removeNodes(root, func(n *Node) bool {
		if n.Kind != ElementNode {
			return false
		}
		if v, ok := n.Attr("display"); ok && strings.TrimSpace(v) == "none" {
			return true
		}
		v, ok := n.Attr("visibility")
		return ok && strings.TrimSpace(v) == "hidden"
	})
}

// containers that render nothing once empty; clipPath and mask are excluded
// because an empty clip or mask still hides whatever references it
var emptyRemovable = map[string]bool{
	"g": true, "defs": true, "symbol": true, "switch": true, "a": true,
	"text": true, "tspan": true, "textPath": true, "style": true,
}

func removeEmptyContainers(_ *Optimizer, _ *Document, root *Node) {
	removeEmpty(root, func(n *Node) bool { return emptyRemovable[localName(n.Tag)] })
}

func truncatePathPrecision(_ *Optimizer, _ *Document, root *Node) {
	root.Walk(func(n *Node) bool {
		if localName(n.Tag) != "path" {
			return true
		}
		for i, a := range n.Attrs {
			if a.Name == "d" {
				n.Attrs[i].Value = formatDecimals(a.Value, 2)
			}
		}
		return true
	})
}

func removeTransparentElements(_ *Optimizer, _ *Document, root *Node) {
	removeNodes(root, func(n *Node) bool {
		if n.Kind != ElementNode {
			return false
		}
		v, ok := n.Attr("opacity")
		return ok && strings.TrimSpace(v) == "0"
	})
}

var presentationAttrs = map[string]bool{
	"style": true, "transform": true, "opacity": true, "filter": true, "clip-path": true, "mask": true,
}

func stripPresentationAttributes(_ *Optimizer, _ *Document, root *Node) {
	root.Walk(func(n *Node) bool {
		n.RemoveAttr(func(a Attr) bool { return presentationAttrs[a.Name] })
		return true
	})
}
