package svgmin

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

type ColorKind uint8

const (
	Fill ColorKind = iota
	Stroke
)

func (k ColorKind) String() string {
	if k == Stroke {
		return "stroke"
	}
	return "fill"
}

// ColorBinding ties one fill/stroke occurrence to a generated component prop.
// ID is only stable within a single parse.
type ColorBinding struct {
	ID       string    `json:"id"`
	Kind     ColorKind `json:"-"`
	KindName string    `json:"kind"`
	Original string    `json:"originalColor"`
	Current  string    `json:"currentColor"`
	PropName string    `json:"propName"`

	node *Node
}

// ColorSet is the ordered list of bindings plus an index from normalized color
// value to every binding sharing it.
type ColorSet struct {
	Bindings []ColorBinding
	byValue  map[string][]int
	byID     map[string]int
}

// ExtractColorBindings walks the descendants of the svg root in document order.
// Each element contributes up to two bindings, fill first. Counters are per kind
// so ids read fill-0, stroke-0, fill-1...
func ExtractColorBindings(doc *Document) *ColorSet {
	cs := &ColorSet{
		byValue: make(map[string][]int),
		byID:    make(map[string]int),
	}
	root := doc.Root()
	if root == nil {
		return cs
	}

	counters := [2]int{}
	for _, el := range root.Descendants() {
		for _, kind := range []ColorKind{Fill, Stroke} {
			value, ok := el.Attr(kind.String())
			if !ok || !isConcreteColor(value) {
				continue
			}
			n := strconv.Itoa(counters[kind])
			counters[kind]++

			b := ColorBinding{
				ID:       kind.String() + "-" + n,
				Kind:     kind,
				KindName: kind.String(),
				Original: value,
				Current:  value,
				PropName: kind.String() + n,
				node:     el,
			}
			idx := len(cs.Bindings)
			cs.Bindings = append(cs.Bindings, b)
			cs.byID[b.ID] = idx
			key := NormalizeColor(value)
			cs.byValue[key] = append(cs.byValue[key], idx)
		}
	}
	return cs
}

func isConcreteColor(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "none" && v != "currentColor"
}

// Lookup returns the bindings whose original color normalizes to the same value.
func (cs *ColorSet) Lookup(color string) []ColorBinding {
	var out []ColorBinding
	for _, idx := range cs.byValue[NormalizeColor(color)] {
		out = append(out, cs.Bindings[idx])
	}
	return out
}

// Distinct returns the distinct original colors in first-seen order.
func (cs *ColorSet) Distinct() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range cs.Bindings {
		key := NormalizeColor(b.Original)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b.Original)
	}
	return out
}

// SetColor changes a single binding and the attribute it came from.
func (cs *ColorSet) SetColor(id, value string) bool {
	idx, ok := cs.byID[id]
	if !ok {
		return false
	}
	cs.set(idx, value)
	return true
}

// Recolor changes every binding whose original color matches original and
// returns how many attributes were rewritten.
func (cs *ColorSet) Recolor(original, value string) int {
	indexes := cs.byValue[NormalizeColor(original)]
	for _, idx := range indexes {
		cs.set(idx, value)
	}
	return len(indexes)
}

func (cs *ColorSet) set(idx int, value string) {
	b := &cs.Bindings[idx]
	b.Current = value
	if b.node != nil {
		b.node.SetAttr(b.Kind.String(), value)
	}
}

var (
	hexColorRe  = regexp.MustCompile(`#(?:[0-9a-fA-F]{8}|[0-9a-fA-F]{6}|[0-9a-fA-F]{3,4})\b`)
	funcColorRe = regexp.MustCompile(`(?i)\b(?:rgba?|hsla?)\([^)]*\)`)
	urlRefRe    = regexp.MustCompile(`(?i)url\([^)]*\)`)
	spaceRe     = regexp.MustCompile(`\s+`)
	// color-bearing properties, either as attributes or inside style declarations
	namedColorRe = regexp.MustCompile(`(?i)(?:^|[\s;{"'])(?:fill|stroke|stop-color|flood-color|lighting-color|color)\s*[:=]\s*["']?([a-zA-Z]+)`)
)

// NormalizeColor is the single equality policy for colors: lowercase, trimmed,
// short hex expanded (#fff -> #ffffff), no whitespace inside functional
// notation. Named colors stay names, so "white" and "#ffffff" differ.
func NormalizeColor(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if strings.HasPrefix(v, "#") && (len(v) == 4 || len(v) == 5) {
		var sb strings.Builder
		sb.WriteByte('#')
		for _, c := range v[1:] {
			sb.WriteRune(c)
			sb.WriteRune(c)
		}
		return sb.String()
	}
	if strings.ContainsRune(v, '(') {
		return spaceRe.ReplaceAllString(v, "")
	}
	return v
}

// colorTokens returns every color token found in s, normalized.
func colorTokens(s string) []string {
	s = urlRefRe.ReplaceAllString(s, "")
	var out []string
	for _, m := range hexColorRe.FindAllString(s, -1) {
		out = append(out, NormalizeColor(m))
	}
	for _, m := range funcColorRe.FindAllString(s, -1) {
		out = append(out, NormalizeColor(m))
	}
	return out
}

// namedColor reports whether name is a CSS/SVG 1.1 color keyword.
func namedColor(name string) bool {
	_, ok := colornames.Map[strings.ToLower(name)]
	return ok
}

// countColors counts distinct colors used by the document: hex and functional
// tokens in any attribute value (ids and references excluded) or <style> text,
// plus named colors assigned to color-bearing properties.
func countColors(root *Node) int {
	set := make(map[string]struct{})
	add := func(s string) {
		for _, tok := range colorTokens(s) {
			set[tok] = struct{}{}
		}
		for _, m := range namedColorRe.FindAllStringSubmatch(s, -1) {
			if namedColor(m[1]) {
				set[strings.ToLower(m[1])] = struct{}{}
			}
		}
	}

	root.Walk(func(n *Node) bool {
		for _, a := range n.Attrs {
			switch localName(a.Name) {
			case "id", "href", "src":
				continue
			case "fill", "stroke", "stop-color", "flood-color", "lighting-color", "color":
				add(a.Name + "=" + a.Value)
			default:
				add(a.Value)
			}
		}
		if localName(n.Tag) == "style" {
			add(n.textContent())
		}
		return true
	})
	return len(set)
}
