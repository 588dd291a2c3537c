package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"

	"github.com/tinywasm/svgmin"
)

const envPrefix = "SVGMIN_"

// Config is read from defaults, then SVGMIN_* environment variables, then
// the flags given on the command line.
type Config struct {
	Addr          string        `koanf:"addr" validate:"required"`
	Level         string        `koanf:"level" validate:"oneof=conservative balanced aggressive maximum"`
	Optimize      bool          `koanf:"optimize"`
	Strict        bool          `koanf:"strict"`
	DeepMinify    bool          `koanf:"deep_minify"`
	ComponentName string        `koanf:"component_name"`
	Debounce      time.Duration `koanf:"debounce" validate:"gte=0"`
	CacheSize     int           `koanf:"cache_size" validate:"gte=1"`
	LogLevel      string        `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogJSON       bool          `koanf:"log_json"`
}

func defaultConfig() Config {
	d := svgmin.DefaultConfig()
	return Config{
		Addr:          "localhost:8080",
		Level:         d.Level.String(),
		Optimize:      d.Optimize,
		ComponentName: d.ComponentName,
		Debounce:      d.Debounce,
		CacheSize:     d.CacheSize,
		LogLevel:      "info",
	}
}

// flags shared by every command that reads Config, by koanf key
var configFlags = []string{"addr", "level", "optimize", "strict", "deep-minify", "component-name", "debounce", "cache-size", "log-level", "log-json"}

func addConfigFlags(cmd *cobra.Command) {
	d := defaultConfig()
	f := cmd.Flags()
	f.String("addr", d.Addr, "listen address")
	f.String("level", d.Level, "optimization level: conservative, balanced, aggressive, maximum")
	f.Bool("optimize", d.Optimize, "run the optimizer")
	f.Bool("strict", d.Strict, "treat policy warnings as validation errors")
	f.Bool("deep-minify", d.DeepMinify, "run an extra svg minifier pass after the level rules")
	f.String("component-name", d.ComponentName, "name of the generated JSX component")
	f.Duration("debounce", d.Debounce, "quiet period before a watched file is reprocessed")
	f.Int("cache-size", d.CacheSize, "processed results kept in memory by the server")
	f.String("log-level", d.LogLevel, "debug, info, warn or error")
	f.Bool("log-json", d.LogJSON, "log as JSON")
}

func loadConfig(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for _, name := range configFlags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := k.Set(strings.ReplaceAll(name, "-", "_"), flag.Value.String()); err != nil {
			return nil, fmt.Errorf("failed to apply flag --%s: %w", name, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Level = strings.ToLower(strings.TrimSpace(cfg.Level))
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// pipelineConfig converts the command configuration for the library.
func (c *Config) pipelineConfig(logger *charmlog.Logger) (*svgmin.Config, error) {
	level, err := svgmin.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	return &svgmin.Config{
		Level:         level,
		Optimize:      c.Optimize,
		Strict:        c.Strict,
		DeepMinify:    c.DeepMinify,
		ComponentName: c.ComponentName,
		Debounce:      c.Debounce,
		CacheSize:     c.CacheSize,
		Logger:        logger,
	}, nil
}

func newLogger(c *Config, out io.Writer) *charmlog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level, err := charmlog.ParseLevel(c.LogLevel)
	if err != nil {
		level = charmlog.InfoLevel
	}
	logger := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
		Prefix:          "svgmin",
	})
	if c.LogJSON {
		logger.SetFormatter(charmlog.JSONFormatter)
	}
	return logger
}
