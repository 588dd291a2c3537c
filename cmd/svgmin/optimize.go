package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tinywasm/svgmin"
	"github.com/tinywasm/svgmin/export"
)

func optimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize <file.svg|->",
		Short: "Validate and optimize one SVG file",
		Long: "Validate and optimize one SVG file. The validation report is printed as JSON; " +
			"with --out the optimized svg, both CSS declarations and the JSX component are written there.",
		Args: cobra.ExactArgs(1),
		RunE: runOptimize,
	}
	addConfigFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "directory the outputs are written to")
	cmd.Flags().Bool("overwrite", false, "replace files that already exist in --out")
	cmd.Flags().StringSlice("export", nil, "also render these formats into --out: png, jpeg, pdf")
	cmd.Flags().Int("size", export.DefaultSize, "longest side in pixels of raster exports")
	return cmd
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	pcfg, err := cfg.pipelineConfig(logger)
	if err != nil {
		return err
	}

	input, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	res, err := svgmin.NewPipeline(logger).Process(context.Background(), input, pcfg.Settings())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Validation svgmin.ValidationReport `json:"validation"`
		Stats      svgmin.FileSizeStats    `json:"stats"`
		Notice     string                  `json:"notice,omitempty"`
	}{res.Report, res.Stats, res.Notice}); err != nil {
		return err
	}
	if !res.Report.IsValid {
		return fmt.Errorf("invalid svg: %s", res.Report.Error)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return nil
	}
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	sink := svgmin.DirSink{Dir: out, Overwrite: overwrite}
	baseName := args[0]
	if baseName == "-" {
		baseName = "image"
	}
	if err := svgmin.Export(sink, res, baseName); err != nil {
		return err
	}

	formats, _ := cmd.Flags().GetStringSlice("export")
	size, _ := cmd.Flags().GetInt("size")
	base := strings.TrimSuffix(filepath.Base(baseName), filepath.Ext(baseName))
	for _, name := range formats {
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := export.Render(&buf, format, svgmin.BackfillViewBox(res.Active), size); err != nil {
			return err
		}
		if err := sink.Download(base+format.Extension(), format.MediaType(), buf.Bytes()); err != nil {
			return err
		}
	}
	logger.Info("outputs written", "dir", out)
	return nil
}

func readInput(stdin io.Reader, name string) (string, error) {
	var r io.Reader = stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	// one byte past the limit is enough for the validator to report it
	data, err := io.ReadAll(io.LimitReader(r, svgmin.MaxFileSize+1))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
