package svgmin

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStructure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // substring of the error
	}{
		{"empty", "", msgEmpty},
		{"blank", " \n\t ", msgEmpty},
		{"no svg tag", `<html><body></body></html>`, "missing <svg>"},
		{"no closing tag", `<svg viewBox="0 0 1 1">`, "missing <svg>"},
		{"malformed", `<svg viewBox="0 0 1 1"><path d="M0 0"></svg>`, ErrMalformed.Error()},
		{"svg not root", `<div><svg viewBox="0 0 1 1"></svg></div>`, ErrNoSvgRoot.Error()},
		{"oversize", `<svg viewBox="0 0 1 1">` + strings.Repeat(" ", MaxFileSize) + `</svg>`, "file too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, strict := range []bool{false, true} {
				r := Validate(tt.input, strict)
				assert.False(t, r.IsValid)
				assert.Contains(t, r.Error, tt.want)
			}
		})
	}
}

func TestValidateConcreteCases(t *testing.T) {
	t.Run("bare svg fails in both modes", func(t *testing.T) {
		assert.False(t, Validate("<svg></svg>", false).IsValid)
		assert.False(t, Validate("<svg></svg>", true).IsValid)
	})

	t.Run("single path", func(t *testing.T) {
		r := Validate(`<svg viewBox="0 0 24 24"><path d="M0 0 L10 10 Z"/></svg>`, false)
		require.True(t, r.IsValid, r.Error)
		assert.Empty(t, r.Warnings)
		require.NotNil(t, r.Metrics)
		assert.Equal(t, 1, r.Metrics.PathCount)
		assert.Equal(t, 1, r.Metrics.ElementCount)
		assert.True(t, r.Metrics.HasViewBox)
		assert.False(t, r.Metrics.HasScripts)
	})

	t.Run("warnings serialize as a list", func(t *testing.T) {
		for _, in := range []string{`<svg viewBox="0 0 1 1"><rect width="1" height="1"/></svg>`, "", "<svg></svg>"} {
			data, err := json.Marshal(Validate(in, false))
			require.NoError(t, err)
			assert.Contains(t, string(data), `"warnings":[]`, in)
		}
	})

	t.Run("script is a warning unless strict", func(t *testing.T) {
		in := `<svg viewBox="0 0 24 24"><script>alert(1)</script><rect width="1" height="1"/></svg>`

		r := Validate(in, false)
		assert.True(t, r.IsValid)
		assert.Contains(t, r.Warnings, msgScripts)
		assert.True(t, r.Metrics.HasScripts)

		r = Validate(in, true)
		assert.False(t, r.IsValid)
		assert.Equal(t, msgScripts, r.Error)
	})

	t.Run("event handler attribute counts as executable", func(t *testing.T) {
		r := Validate(`<svg viewBox="0 0 1 1" onload="x()"><rect width="1" height="1"/></svg>`, false)
		assert.True(t, r.IsValid)
		assert.True(t, r.Metrics.HasScripts)
	})
}

func TestValidatePolicy(t *testing.T) {
	t.Run("missing sizing with content", func(t *testing.T) {
		in := `<svg><rect width="1" height="1"/></svg>`
		r := Validate(in, false)
		assert.True(t, r.IsValid)
		assert.Contains(t, r.Warnings, msgNoSizing)

		r = Validate(in, true)
		assert.False(t, r.IsValid)
		assert.Equal(t, msgNoSizing, r.Error)
	})

	t.Run("width and height are enough", func(t *testing.T) {
		r := Validate(`<svg width="100px" height="50"><rect width="1" height="1"/></svg>`, true)
		require.True(t, r.IsValid, r.Error)
		assert.Equal(t, 100.0, r.Metrics.Width)
		assert.Equal(t, 50.0, r.Metrics.Height)
		assert.False(t, r.Metrics.HasViewBox)
	})

	t.Run("external references only warn", func(t *testing.T) {
		in := `<svg viewBox="0 0 1 1"><image href="https://example.com/a.png" width="1" height="1"/></svg>`
		for _, strict := range []bool{false, true} {
			r := Validate(in, strict)
			assert.True(t, r.IsValid)
			assert.Contains(t, r.Warnings, msgExternal)
			assert.True(t, r.Metrics.HasExternalReferences)
		}
	})

	t.Run("unknown elements", func(t *testing.T) {
		in := `<svg viewBox="0 0 1 1"><blink/><rect width="1" height="1"/><blink/></svg>`
		r := Validate(in, false)
		assert.True(t, r.IsValid)
		assert.Contains(t, r.Warnings, "SVG contains unrecognized elements: blink")

		r = Validate(in, true)
		assert.False(t, r.IsValid)
		assert.Contains(t, r.Error, "blink")
	})

	t.Run("foreignObject content is not checked", func(t *testing.T) {
		in := `<svg viewBox="0 0 1 1"><foreignObject><div><p>hi</p></div></foreignObject><rect width="1" height="1"/></svg>`
		r := Validate(in, true)
		require.True(t, r.IsValid, r.Error)
		assert.Equal(t, 4, r.Metrics.ElementCount)
	})

	t.Run("appears empty", func(t *testing.T) {
		r := Validate(`<svg viewBox="0 0 1 1"><defs/></svg>`, true)
		assert.True(t, r.IsValid)
		assert.Contains(t, r.Warnings, msgEmptyImage)
	})

	t.Run("invalid path data is counted", func(t *testing.T) {
		r := Validate(`<svg viewBox="0 0 1 1"><path d="M0 0 X1"/><path d="M0 0#"/><path d="M0 0z"/></svg>`, false)
		assert.True(t, r.IsValid)
		assert.Contains(t, r.Warnings, "2 path element(s) contain invalid path data")
		assert.Equal(t, 3, r.Metrics.PathCount)
	})
}

func TestValidateColorCount(t *testing.T) {
	// short hex is expanded before comparing: #fff and #FFFFFF are one color
	in := `<svg viewBox="0 0 10 10">` +
		`<rect fill="#fff" width="1" height="1"/>` +
		`<rect fill="#FFFFFF" width="1" height="1"/>` +
		`<circle stroke="rgb(0,0,0)" r="1"/>` +
		`</svg>`
	r := Validate(in, false)
	require.True(t, r.IsValid, r.Error)
	assert.Equal(t, 2, r.Metrics.ColorCount)

	in = `<svg viewBox="0 0 10 10"><style>.a{fill:Red}</style>` +
		`<rect fill="red" stroke="rgba(0, 0, 0, 0.5)" width="1" height="1"/>` +
		`<rect style="stroke: rgba(0,0,0,0.5)" fill="url(#grad)" id="ff0000" width="1" height="1"/>` +
		`</svg>`
	r = Validate(in, false)
	require.True(t, r.IsValid, r.Error)
	assert.Equal(t, 2, r.Metrics.ColorCount)
}

func TestParseLeadingFloat(t *testing.T) {
	f, ok := parseLeadingFloat("24.5px")
	assert.True(t, ok)
	assert.Equal(t, 24.5, f)

	_, ok = parseLeadingFloat("auto")
	assert.False(t, ok)
}
