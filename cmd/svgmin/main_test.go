package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywasm/svgmin"
)

const iconSVG = `<svg viewBox="0 0 24 24" width="24" height="24">
  <path fill="#FF0000" d="M2.000 2.000 L22.000 22.000 Z"/>
</svg>`

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cmd := serveCmd()
		cfg, err := loadConfig(cmd)
		require.NoError(t, err)
		assert.Equal(t, defaultConfig(), *cfg)
	})

	t.Run("environment then flags", func(t *testing.T) {
		t.Setenv("SVGMIN_LEVEL", "Maximum")
		t.Setenv("SVGMIN_CACHE_SIZE", "16")
		t.Setenv("SVGMIN_DEBOUNCE", "50ms")
		t.Setenv("SVGMIN_STRICT", "true")

		cmd := serveCmd()
		require.NoError(t, cmd.Flags().Parse([]string{"--cache-size=32", "--component-name=Logo"}))
		cfg, err := loadConfig(cmd)
		require.NoError(t, err)
		assert.Equal(t, "maximum", cfg.Level)
		assert.Equal(t, 32, cfg.CacheSize)
		assert.Equal(t, 50*time.Millisecond, cfg.Debounce)
		assert.True(t, cfg.Strict)
		assert.Equal(t, "Logo", cfg.ComponentName)

		pcfg, err := cfg.pipelineConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, svgmin.Maximum, pcfg.Level)
	})

	t.Run("invalid values", func(t *testing.T) {
		cmd := serveCmd()
		require.NoError(t, cmd.Flags().Parse([]string{"--level=extreme"}))
		_, err := loadConfig(cmd)
		assert.Error(t, err)

		cmd = serveCmd()
		require.NoError(t, cmd.Flags().Parse([]string{"--cache-size=0"}))
		_, err = loadConfig(cmd)
		assert.Error(t, err)
	})
}

func TestOptimizeCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "heart.svg")
	require.NoError(t, os.WriteFile(in, []byte(iconSVG), 0644))
	out := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"optimize", in, "--out", out, "--level", "aggressive", "--export", "png,pdf", "--size", "32"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), `"isValid": true`)
	for _, name := range []string{"heart.min.svg", "heart.url.css", "heart.base64.css", "SvgIcon.tsx", "heart.png", "heart.pdf"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	content, err := os.ReadFile(filepath.Join(out, "heart.min.svg"))
	require.NoError(t, err)
	assert.Equal(t, svgmin.Optimize(iconSVG, svgmin.Aggressive), string(content))
}

func TestOptimizeCommandInvalid(t *testing.T) {
	var stdout bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(bytes.NewBufferString("<svg></svg>"))
	cmd.SetArgs([]string{"optimize", "-"})
	assert.Error(t, cmd.Execute())
	assert.Contains(t, stdout.String(), `"isValid": false`)
}

func TestVersionCommand(t *testing.T) {
	var stdout bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "svgmin dev\n", stdout.String())
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "write", eventName(fsnotify.Write))
	assert.Equal(t, "create", eventName(fsnotify.Create|fsnotify.Write))
	assert.Equal(t, "remove", eventName(fsnotify.Remove))
	assert.Equal(t, "rename", eventName(fsnotify.Rename))
	assert.Equal(t, "", eventName(fsnotify.Chmod))
}
