package svgmin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	t.Run("round trip keeps prefixes and prolog", func(t *testing.T) {
		in := `<?xml version="1.0" encoding="UTF-8"?><!-- icon --><svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 10 10"><use xlink:href="#a"/></svg>`
		doc, err := ParseDocument(in)
		require.NoError(t, err)
		assert.Equal(t, in, doc.String())
	})

	t.Run("empty root stays an explicit pair", func(t *testing.T) {
		doc, err := ParseDocument(`<svg width="1" height="1"/>`)
		require.NoError(t, err)
		assert.Equal(t, `<svg width="1" height="1"></svg>`, doc.String())
	})

	t.Run("text and attributes are escaped", func(t *testing.T) {
		doc, err := ParseDocument(`<svg><text title="a &quot;b&quot; &amp; c">1 &lt; 2</text></svg>`)
		require.NoError(t, err)
		assert.Equal(t, `<svg><text title="a &quot;b&quot; &amp; c">1 &lt; 2</text></svg>`, doc.String())
	})

	t.Run("malformed input", func(t *testing.T) {
		for name, in := range map[string]string{
			"unclosed":       `<svg><path></svg>`,
			"mismatched":     `<svg><g></path></svg>`,
			"two roots":      `<svg></svg><svg></svg>`,
			"text after":     `<svg></svg>trailing`,
			"bad attribute":  `<svg width=10></svg>`,
			"unclosed final": `<svg><g>`,
		} {
			_, err := ParseDocument(in)
			assert.Error(t, err, name)
			assert.Contains(t, err.Error(), ErrMalformed.Error(), name)
		}
	})

	t.Run("no root element", func(t *testing.T) {
		_, err := ParseDocument(`<!-- nothing -->`)
		assert.ErrorIs(t, err, ErrNoSvgRoot)
	})

	t.Run("root must be svg", func(t *testing.T) {
		doc, err := ParseDocument(`<html></html>`)
		require.NoError(t, err)
		assert.Nil(t, doc.Root())
	})
}

func TestNodeHelpers(t *testing.T) {
	doc, err := ParseDocument(`<svg><g id="a"><path d="M0 0"/><rect/></g><circle/></svg>`)
	require.NoError(t, err)
	root := doc.Root()
	require.NotNil(t, root)

	var tags []string
	for _, n := range root.Descendants() {
		tags = append(tags, n.Tag)
	}
	assert.Equal(t, []string{"g", "path", "rect", "circle"}, tags)

	g := root.Children[0]
	v, ok := g.Attr("id")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	g.SetAttr("id", "b")
	g.SetAttr("fill", "red")
	assert.Equal(t, []Attr{{"id", "b"}, {"fill", "red"}}, g.Attrs)

	removed := g.RemoveAttr(func(a Attr) bool { return a.Name == "fill" })
	assert.Equal(t, 1, removed)
	assert.Equal(t, []Attr{{"id", "b"}}, g.Attrs)

	assert.Equal(t, "path", localName("svg:path"))
	assert.True(t, isWhitespace(" \n\t"))
	assert.False(t, isWhitespace(" x "))
}
