package svgmin

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
)

// EncodedOutput holds the three representations generated from one source.
type EncodedOutput struct {
	URLEncodedCSS string `json:"urlEncodedCss"`
	Base64CSS     string `json:"base64Css"`
	JSX           string `json:"jsx"`
}

// Encode builds every representation from the same svg string.
func Encode(svg, componentName string) EncodedOutput {
	return EncodedOutput{
		URLEncodedCSS: URLEncodeCSS(svg),
		Base64CSS:     Base64CSS(svg),
		JSX:           JSXComponent(svg, componentName),
	}
}

var (
	rootTagRe   = regexp.MustCompile(`<svg\b[^>]*>`)
	viewBoxRe   = regexp.MustCompile(`\sviewBox\s*=`)
	sizeAttrRe  = regexp.MustCompile(`\s(width|height)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	percentEnc  = strings.NewReplacer("%", "%25", "<", "%3C", ">", "%3E", `"`, "%22", "'", "%27", "&", "%26", "#", "%23", "{", "%7B", "}", "%7D")
	dataURIWrap = `background-image: url("data:image/svg+xml`
)

// BackfillViewBox adds viewBox="0 0 W H" to the root tag when it has no
// viewBox but declares absolute width and height, so the image scales when
// used as a CSS background.
func BackfillViewBox(svg string) string {
	loc := rootTagRe.FindStringIndex(svg)
	if loc == nil {
		return svg
	}
	tag := svg[loc[0]:loc[1]]
	if viewBoxRe.MatchString(tag) {
		return svg
	}

	var width, height string
	for _, m := range sizeAttrRe.FindAllStringSubmatch(tag, -1) {
		value := m[2] + m[3]
		n, ok := absoluteLength(value)
		if !ok {
			return svg
		}
		if m[1] == "width" {
			width = n
		} else {
			height = n
		}
	}
	if width == "" || height == "" {
		return svg
	}

	insert := loc[0] + len("<svg")
	return svg[:insert] + ` viewBox="0 0 ` + width + " " + height + `"` + svg[insert:]
}

// absoluteLength returns the number of a width/height value such as "24" or
// "24px"; relative units like "100%" or "2em" are refused.
func absoluteLength(v string) (string, bool) {
	v = strings.TrimSpace(v)
	num := leadingFloatRe.FindString(v)
	if num == "" {
		return "", false
	}
	if unit := strings.TrimSpace(v[len(num):]); unit != "" && unit != "px" {
		return "", false
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f <= 0 {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

// URLEncodeCSS returns a background-image declaration with the svg inlined as
// a percent-encoded data URI. Only % < > " ' & # { } are encoded.
func URLEncodeCSS(svg string) string {
	s := BackfillViewBox(svg)
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	return dataURIWrap + "," + percentEnc.Replace(s) + `");`
}

// Base64CSS returns a background-image declaration with the UTF-8 bytes of
// the svg Base64 encoded.
func Base64CSS(svg string) string {
	s := BackfillViewBox(svg)
	return dataURIWrap + ";base64," + base64.StdEncoding.EncodeToString([]byte(s)) + `");`
}
