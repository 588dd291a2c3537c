package export

import (
	"bytes"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10" width="10" height="10"><path fill="#ff0000" d="M0 0 L10 0 L10 10 L0 10 Z"/></svg>`
const wide = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 20 10"><rect fill="#0000ff" width="20" height="10"/></svg>`

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"png": PNG, "PNG": PNG, " jpeg ": JPEG, "jpg": JPEG, "pdf": PDF} {
		f, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, f)
	}
	_, err := ParseFormat("gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Equal(t, "image/png", PNG.MediaType())
	assert.Equal(t, "image/jpeg", JPEG.MediaType())
	assert.Equal(t, "application/pdf", PDF.MediaType())
	assert.Equal(t, ".jpg", JPEG.Extension())
	assert.Equal(t, ".pdf", PDF.Extension())
}

func TestRasterize(t *testing.T) {
	img, err := Rasterize(square, 32)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	r, g, b, a := img.At(16, 16).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Greater(t, r, g)
	assert.Greater(t, r, b)

	// aspect ratio is kept and the drawing centered: the top rows of a wide image stay transparent
	img, err = Rasterize(wide, 40)
	require.NoError(t, err)
	_, _, _, a = img.At(20, 2).RGBA()
	assert.Equal(t, uint32(0), a)
	_, _, b, a = img.At(20, 20).RGBA()
	assert.NotZero(t, a)
	assert.NotZero(t, b)

	img, err = Rasterize(square, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())

	img, err = Rasterize(square, MaxSize*2)
	require.NoError(t, err)
	assert.Equal(t, MaxSize, img.Bounds().Dx())
}

func TestRender(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, PNG, square, 16))
		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dy())
	})

	t.Run("jpeg is flattened on white", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, JPEG, wide, 40))
		img, err := jpeg.Decode(&buf)
		require.NoError(t, err)
		r, g, b, _ := img.At(20, 1).RGBA()
		assert.Greater(t, r, uint32(0xf000))
		assert.Greater(t, g, uint32(0xf000))
		assert.Greater(t, b, uint32(0xf000))
	})

	t.Run("pdf", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, PDF, square, 0))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	})

	t.Run("pdf needs an explicit extent", func(t *testing.T) {
		var buf bytes.Buffer
		err := Render(&buf, PDF, wide, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pdf:")
		assert.Zero(t, buf.Len())

		buf.Reset()
		assert.Error(t, WritePDF(&buf, `<svg viewBox="0 0 10 10"><path d="M0 0 L10 10"/></svg>`))
	})

	t.Run("unsupported", func(t *testing.T) {
		var buf bytes.Buffer
		assert.ErrorIs(t, Render(&buf, Format("gif"), square, 0), ErrUnsupportedFormat)
	})

	t.Run("broken svg", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, Render(&buf, PNG, "<svg", 10))
	})
}
