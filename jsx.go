package svgmin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// root attributes turned into component props, in declaration order
var promotedRootAttrs = []struct {
	attr, prop, typ string
}{
	{"width", "width", "string | number"},
	{"height", "height", "string | number"},
	{"fill", "fill", "string"},
	{"stroke", "stroke", "string"},
	{"class", "className", "string"},
}

// JSXComponent synthesizes a self-contained React (TSX) component from svg.
// Every fill/stroke occurrence below the root becomes its own prop defaulting
// to the original color. Input that cannot be parsed yields a placeholder
// component instead of an error.
func JSXComponent(svg, componentName string) (out string) {
	name := componentIdent(componentName)
	defer func() {
		if r := recover(); r != nil {
			out = placeholderComponent(name, fmt.Sprint(r))
		}
	}()

	doc, err := ParseDocument(svg)
	if err != nil {
		return placeholderComponent(name, err.Error())
	}
	root := doc.Root()
	if root == nil {
		return placeholderComponent(name, ErrNoSvgRoot.Error())
	}

	colors := ExtractColorBindings(doc)
	propRefs := make(map[*Node]map[string]string)
	for _, b := range colors.Bindings {
		if propRefs[b.node] == nil {
			propRefs[b.node] = make(map[string]string)
		}
		propRefs[b.node][b.Kind.String()] = b.PropName
	}

	w := &jsxWriter{propRefs: propRefs}
	var sb strings.Builder
	propsType := name + "Props"

	sb.WriteString("import * as React from \"react\";\n\n")

	sb.WriteString("interface " + propsType + " extends React.SVGProps<SVGSVGElement> {\n")
	for _, p := range promotedRootAttrs {
		sb.WriteString("  " + p.prop + "?: " + p.typ + ";\n")
	}
	for _, b := range colors.Bindings {
		sb.WriteString("  " + b.PropName + "?: string;\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("const " + name + " = ({\n")
	for _, p := range promotedRootAttrs {
		if v, ok := root.Attr(p.attr); ok {
			sb.WriteString("  " + p.prop + " = " + jsString(v) + ",\n")
			continue
		}
		sb.WriteString("  " + p.prop + ",\n")
	}
	for _, b := range colors.Bindings {
		sb.WriteString("  " + b.PropName + " = " + jsString(b.Original) + ",\n")
	}
	sb.WriteString("  ...props\n")
	sb.WriteString("}: " + propsType + ") => (\n")

	// root element: fixed attributes, promoted props, then the spread
	sb.WriteString("  <svg\n")
	promoted := make(map[string]bool)
	for _, p := range promotedRootAttrs {
		promoted[p.attr] = true
	}
	for _, a := range root.Attrs {
		if promoted[a.Name] {
			continue
		}
		if attr, ok := w.attribute(root, a); ok {
			sb.WriteString("    " + attr + "\n")
		}
	}
	for _, p := range promotedRootAttrs {
		sb.WriteString("    " + p.prop + "={" + p.prop + "}\n")
	}
	sb.WriteString("    {...props}\n")

	children := w.children(root, 2)
	if len(children) == 0 {
		sb.WriteString("  />\n")
	} else {
		sb.WriteString("  >\n")
		for _, line := range children {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("  </svg>\n")
	}
	sb.WriteString(");\n\n")
	sb.WriteString("export default " + name + ";\n")
	return sb.String()
}

func placeholderComponent(name, reason string) string {
	reason = strings.ReplaceAll(strings.ReplaceAll(reason, "\n", " "), "*/", "* /")
	return "import * as React from \"react\";\n\n" +
		"// The SVG source could not be converted: " + reason + "\n" +
		"const " + name + " = (props: React.SVGProps<SVGSVGElement>) => (\n" +
		"  <svg {...props}>\n" +
		"    {/* invalid SVG: nothing to render */}\n" +
		"  </svg>\n" +
		");\n\n" +
		"export default " + name + ";\n"
}

type jsxWriter struct {
	propRefs map[*Node]map[string]string
}

// children renders the renderable children of n, one slice entry per line.
func (w *jsxWriter) children(n *Node, depth int) []string {
	var lines []string
	indent := strings.Repeat("  ", depth)
	raw := textContentElements[localName(n.Tag)]

	for _, c := range n.Children {
		switch c.Kind {
		case TextNode:
			if localName(n.Tag) == "style" {
				lines = append(lines, indent+"{"+jsTemplate(c.Data)+"}")
				continue
			}
			text := c.Data
			if !raw {
				text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			if strings.ContainsAny(text, "{}<>&\"\n") {
				lines = append(lines, indent+"{"+jsString(text)+"}")
				continue
			}
			lines = append(lines, indent+text)
		case ElementNode:
			lines = append(lines, w.element(c, depth)...)
		}
	}
	return lines
}

func (w *jsxWriter) element(n *Node, depth int) []string {
	tag, ok := jsxTag(n.Tag)
	if !ok || tag == "script" {
		return nil
	}
	indent := strings.Repeat("  ", depth)

	open := indent + "<" + tag
	for _, a := range n.Attrs {
		if attr, ok := w.attribute(n, a); ok {
			open += " " + attr
		}
	}

	children := w.children(n, depth+1)
	if len(children) == 0 {
		return []string{open + " />"}
	}
	lines := []string{open + ">"}
	lines = append(lines, children...)
	return append(lines, indent+"</"+tag+">")
}

// attribute renders one attribute in JSX syntax; false drops it.
func (w *jsxWriter) attribute(n *Node, a Attr) (string, bool) {
	lower := strings.ToLower(a.Name)
	if strings.HasPrefix(lower, "on") {
		return "", false
	}
	name, ok := jsxAttrName(a.Name)
	if !ok {
		return "", false
	}
	if prop, ok := w.propRefs[n][a.Name]; ok {
		return name + "={" + prop + "}", true
	}
	if a.Name == "style" {
		return "style={" + styleObject(a.Value) + "}", true
	}
	if strings.ContainsAny(a.Value, "\"&{}\n") {
		return name + "={" + jsString(a.Value) + "}", true
	}
	return name + `="` + a.Value + `"`, true
}

// jsxTag maps an element name to its JSX tag; foreign-namespace elements
// (editor data such as sodipodi:namedview) are dropped.
func jsxTag(tag string) (string, bool) {
	if i := strings.IndexByte(tag, ':'); i != -1 {
		if tag[:i] != "svg" {
			return "", false
		}
		return tag[i+1:], true
	}
	return tag, true
}

var jsxRenamed = map[string]string{
	"class":    "className",
	"tabindex": "tabIndex",
	"for":      "htmlFor",
}

// jsxAttrName converts an svg attribute name to its React prop name:
// kebab-case and prefixed names become camelCase, data-/aria- stay as is.
func jsxAttrName(name string) (string, bool) {
	if renamed, ok := jsxRenamed[name]; ok {
		return renamed, true
	}
	if strings.HasPrefix(name, "data-") || strings.HasPrefix(name, "aria-") {
		return name, true
	}
	if i := strings.IndexByte(name, ':'); i != -1 {
		prefix := name[:i]
		switch prefix {
		case "xlink", "xml", "xmlns":
		default:
			return "", false
		}
		return camelCase(prefix + "-" + name[i+1:]), true
	}
	return camelCase(name), true
}

func camelCase(s string) string {
	parts := strings.Split(s, "-")
	var sb strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			sb.WriteString(p)
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		sb.WriteString(string(r))
	}
	return sb.String()
}

// styleObject turns "fill: red; stroke-width: 2" into a JSX style object.
func styleObject(style string) string {
	var entries []string
	for _, decl := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop, value = strings.TrimSpace(prop), strings.TrimSpace(value)
		if prop == "" || value == "" {
			continue
		}
		key := camelCase(prop)
		if strings.HasPrefix(prop, "--") {
			key = jsString(prop)
		}
		entries = append(entries, key+": "+jsString(value))
	}
	if len(entries) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(entries, ", ") + " }"
}

var identInvalidRe = regexp.MustCompile(`[^A-Za-z0-9]+`)

// componentIdent makes a PascalCase identifier out of name, eg: "arrow-left" -> "ArrowLeft".
func componentIdent(name string) string {
	var sb strings.Builder
	for _, part := range identInvalidRe.Split(name, -1) {
		if part == "" {
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		sb.WriteString(string(r))
	}
	ident := sb.String()
	if ident == "" {
		return defaultComponentName
	}
	if unicode.IsDigit([]rune(ident)[0]) {
		ident = "Svg" + ident
	}
	return ident
}

func jsString(s string) string {
	return strconv.Quote(s)
}

var templateEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${")

func jsTemplate(s string) string {
	return "`" + templateEscaper.Replace(s) + "`"
}
