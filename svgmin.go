package svgmin

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/svg"
)

const (
	svgMediaType       = "image/svg+xml"
	htmlMediaType      = "text/html"
	inlineCSSMediaType = "text/css+inline" // declarations only, as found in a style attribute
)

// Config drives a Pipeline and the sessions and HTTP handlers built on it.
type Config struct {
	Level         Level         // default optimization tier, eg: Balanced
	Optimize      bool          // run the optimizer at all
	Strict        bool          // policy warnings become validation errors
	DeepMinify    bool          // extra tdewolff svg pass after the tier rules
	ComponentName string        // JSX component name (default: "SvgIcon")
	Debounce      time.Duration // quiet period before a session reprocesses input (default: 300ms)
	CacheSize     int           // processed results kept by the HTTP handlers (default: 128)
	Logger        *log.Logger   // nil discards
}

const (
	defaultComponentName = "SvgIcon"
	defaultDebounce      = 300 * time.Millisecond
	defaultCacheSize     = 128
)

// DefaultConfig returns the settings the site starts with.
func DefaultConfig() *Config {
	return &Config{
		Level:         Balanced,
		Optimize:      true,
		ComponentName: defaultComponentName,
		Debounce:      defaultDebounce,
		CacheSize:     defaultCacheSize,
	}
}

func (c *Config) withDefaults() *Config {
	out := DefaultConfig()
	if c == nil {
		return out
	}
	cp := *c
	if cp.ComponentName == "" {
		cp.ComponentName = out.ComponentName
	}
	if cp.Debounce <= 0 {
		cp.Debounce = out.Debounce
	}
	if cp.CacheSize <= 0 {
		cp.CacheSize = out.CacheSize
	}
	return &cp
}

// Settings returns the per-run knobs carried by the config.
func (c *Config) Settings() Settings {
	return Settings{
		Level:         c.Level,
		Optimize:      c.Optimize,
		Strict:        c.Strict,
		DeepMinify:    c.DeepMinify,
		ComponentName: c.ComponentName,
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

// newMinifier registers the tdewolff minifiers the pipeline relies on.
func newMinifier() *minify.M {
	m := minify.New()
	m.Add(svgMediaType, &svg.Minifier{})
	m.Add(inlineCSSMediaType, &css.Minifier{Inline: true})
	m.AddFunc("text/css", css.Minify)
	m.Add(htmlMediaType, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	return m
}
