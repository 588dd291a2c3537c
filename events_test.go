package svgmin

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileEvent(t *testing.T) {
	dir := t.TempDir()
	iconPath := filepath.Join(dir, "icon.svg")
	require.NoError(t, os.WriteFile(iconPath, []byte(dotSVG), 0644))

	t.Run("write feeds the session", func(t *testing.T) {
		s := newTestSession(t, time.Hour)
		require.NoError(t, s.NewFileEvent(iconPath, "write"))
		res := s.Flush()
		require.NotNil(t, res)
		assert.Equal(t, dotSVG, res.Input)
	})

	t.Run("create with upper case extension", func(t *testing.T) {
		upper := filepath.Join(dir, "LOGO.SVG")
		require.NoError(t, os.WriteFile(upper, []byte(dotSVG), 0644))
		s := newTestSession(t, time.Hour)
		require.NoError(t, s.NewFileEvent(upper, "create"))
		assert.NotNil(t, s.Flush())
	})

	t.Run("remove clears the session", func(t *testing.T) {
		s := newTestSession(t, time.Hour)
		require.NoError(t, s.NewFileEvent(iconPath, "modify"))
		require.NotNil(t, s.Flush())
		require.NoError(t, s.NewFileEvent(iconPath, "remove"))
		assert.Nil(t, s.Result())
	})

	t.Run("rename is ignored", func(t *testing.T) {
		s := newTestSession(t, time.Hour)
		require.NoError(t, s.NewFileEvent(iconPath, "rename"))
		assert.Nil(t, s.Flush())
	})

	t.Run("errors", func(t *testing.T) {
		s := newTestSession(t, time.Hour)
		assert.Error(t, s.NewFileEvent("", "write"))
		assert.Error(t, s.NewFileEvent(filepath.Join(dir, "style.css"), "write"))
		assert.Error(t, s.NewFileEvent(iconPath, "chmod"))
		assert.Error(t, s.NewFileEvent(filepath.Join(dir, "missing.svg"), "write"))
	})
}
