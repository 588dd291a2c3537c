package svgmin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxFileSize is the hard cap on input size, in UTF-8 bytes.
const MaxFileSize = 5 << 20

type ValidationReport struct {
	IsValid  bool     `json:"isValid"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings"`
	Metrics  *Metrics `json:"metrics,omitempty"`
}

type Metrics struct {
	HasViewBox            bool    `json:"hasViewBox"`
	Width                 float64 `json:"width,omitempty"`  // 0 when not declared
	Height                float64 `json:"height,omitempty"` // 0 when not declared
	ElementCount          int     `json:"elementCount"`
	PathCount             int     `json:"pathCount"`
	ColorCount            int     `json:"colorCount"`
	FileSizeBytes         int     `json:"fileSizeBytes"`
	HasScripts            bool    `json:"hasScripts"`
	HasExternalReferences bool    `json:"hasExternalReferences"`
}

const (
	msgEmpty      = "empty input"
	msgNoSizing   = "SVG should declare explicit sizing (viewBox or width and height)"
	msgScripts    = "SVG contains executable content (scripts or event handlers); it will be stripped, not executed"
	msgExternal   = "SVG references external resources that may not resolve in other contexts"
	msgEmptyImage = "SVG appears empty: no rendering elements found"
)

var svgElements = map[string]bool{
	"a": true, "animate": true, "animateMotion": true, "animateTransform": true, "circle": true,
	"clipPath": true, "defs": true, "desc": true, "discard": true, "ellipse": true,
	"feBlend": true, "feColorMatrix": true, "feComponentTransfer": true, "feComposite": true,
	"feConvolveMatrix": true, "feDiffuseLighting": true, "feDisplacementMap": true,
	"feDistantLight": true, "feDropShadow": true, "feFlood": true, "feFuncA": true, "feFuncB": true,
	"feFuncG": true, "feFuncR": true, "feGaussianBlur": true, "feImage": true, "feMerge": true,
	"feMergeNode": true, "feMorphology": true, "feOffset": true, "fePointLight": true,
	"feSpecularLighting": true, "feSpotLight": true, "feTile": true, "feTurbulence": true,
	"filter": true, "font": true, "font-face": true, "foreignObject": true, "g": true, "glyph": true,
	"hatch": true, "hatchpath": true, "image": true, "line": true, "linearGradient": true,
	"marker": true, "mask": true, "metadata": true, "missing-glyph": true, "mpath": true,
	"path": true, "pattern": true, "polygon": true, "polyline": true, "radialGradient": true,
	"rect": true, "script": true, "set": true, "stop": true, "style": true, "svg": true,
	"switch": true, "symbol": true, "text": true, "textPath": true, "title": true, "tspan": true,
	"use": true, "view": true,
}

var renderingElements = map[string]bool{
	"path": true, "rect": true, "circle": true, "ellipse": true, "line": true, "polyline": true,
	"polygon": true, "text": true, "image": true, "use": true, "g": true,
}

var (
	invalidPathDataRe = regexp.MustCompile(`[^MLHVCSQTAZmlhvcsqtaz0-9.,\-\s]`)
	leadingFloatRe    = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// Validate checks svg for structural soundness and collects metrics. It never
// panics; every failure is reported through IsValid and Error. In strict mode
// the policy checks that are warnings otherwise become hard errors.
func Validate(svg string, strict bool) (report ValidationReport) {
	defer func() {
		if r := recover(); r != nil {
			report = ValidationReport{Error: fmt.Sprintf("validation failed: %v", r)}
		}
		if report.Warnings == nil {
			report.Warnings = []string{}
		}
	}()

	if strings.TrimSpace(svg) == "" {
		return ValidationReport{Error: msgEmpty}
	}
	size := len(svg)
	if size > MaxFileSize {
		return ValidationReport{Error: fmt.Sprintf("file too large: %d bytes exceeds the 5 MiB limit", size)}
	}
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "</svg>") {
		return ValidationReport{Error: "missing <svg> opening or closing tag"}
	}
	doc, err := ParseDocument(svg)
	if err != nil {
		return ValidationReport{Error: err.Error()}
	}
	root := doc.Root()
	if root == nil {
		return ValidationReport{Error: ErrNoSvgRoot.Error()}
	}

	a := analyze(root)
	a.metrics.FileSizeBytes = size

	warnings := []string{}
	// policy reports a failed check: warning normally, error in strict mode
	policy := func(msg string) bool {
		if strict {
			return false
		}
		warnings = append(warnings, msg)
		return true
	}
	fail := func(msg string) ValidationReport {
		return ValidationReport{Error: msg, Warnings: warnings, Metrics: a.metrics}
	}

	if !a.metrics.HasViewBox && (!a.hasWidth || !a.hasHeight) {
		if a.renderCount == 0 {
			return fail(msgNoSizing)
		}
		if !policy(msgNoSizing) {
			return fail(msgNoSizing)
		}
	}
	if a.metrics.HasScripts && !policy(msgScripts) {
		return fail(msgScripts)
	}
	if a.metrics.HasExternalReferences {
		warnings = append(warnings, msgExternal)
	}
	if len(a.unknown) > 0 {
		msg := "SVG contains unrecognized elements: " + strings.Join(a.unknown, ", ")
		if !policy(msg) {
			return fail(msg)
		}
	}
	if a.renderCount == 0 {
		warnings = append(warnings, msgEmptyImage)
	}
	if a.badPaths > 0 {
		warnings = append(warnings, fmt.Sprintf("%d path element(s) contain invalid path data", a.badPaths))
	}

	return ValidationReport{IsValid: true, Warnings: warnings, Metrics: a.metrics}
}

type analysis struct {
	metrics     *Metrics
	hasWidth    bool
	hasHeight   bool
	renderCount int
	badPaths    int
	unknown     []string
}

func analyze(root *Node) *analysis {
	a := &analysis{metrics: &Metrics{}}
	m := a.metrics

	_, m.HasViewBox = root.Attr("viewBox")
	if w, ok := root.Attr("width"); ok {
		a.hasWidth = true
		m.Width, _ = parseLeadingFloat(w)
	}
	if h, ok := root.Attr("height"); ok {
		a.hasHeight = true
		m.Height, _ = parseLeadingFloat(h)
	}

	seenUnknown := make(map[string]bool)
	inspect := func(n *Node) {
		for _, attr := range n.Attrs {
			name := strings.ToLower(localName(attr.Name))
			if strings.HasPrefix(name, "on") && len(name) > 2 {
				m.HasScripts = true
			}
			if name == "href" || name == "src" {
				v := strings.ToLower(strings.TrimSpace(attr.Value))
				if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
					m.HasExternalReferences = true
				}
			}
		}
	}
	inspect(root)

	for _, c := range root.Children {
		c.Walk(func(n *Node) bool {
			m.ElementCount++
			inspect(n)

			tag := n.Tag
			local := localName(tag)
			if tag != local && !strings.HasPrefix(tag, "svg:") {
				local = tag
			}
			switch {
			case local == "script":
				m.HasScripts = true
			case local == "path":
				m.PathCount++
				if d, ok := n.Attr("d"); ok && invalidPathDataRe.MatchString(d) {
					a.badPaths++
				}
			}
			if renderingElements[local] {
				a.renderCount++
			}
			if !svgElements[local] && !seenUnknown[tag] {
				seenUnknown[tag] = true
				a.unknown = append(a.unknown, tag)
			}
			// foreign content is not held to the SVG vocabulary
			if local == "foreignObject" {
				m.ElementCount += len(n.Descendants())
				return false
			}
			return true
		})
	}

	m.ColorCount = countColors(root)
	return a
}

// parseLeadingFloat reads the numeric prefix of s, eg: "100px" -> 100.
func parseLeadingFloat(s string) (float64, bool) {
	num := leadingFloatRe.FindString(strings.TrimSpace(s))
	if num == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
