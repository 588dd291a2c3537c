package svgmin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Sink receives a generated file: the download half of the page shell.
type Sink interface {
	Download(name, mediatype string, data []byte) error
}

// Artifact is one downloadable representation of a result.
type Artifact struct {
	Name      string // eg: icon.min.svg, icon.url.css, Icon.tsx
	MediaType string
	Data      []byte
}

// Artifacts lists the files a valid result can be downloaded as.
func Artifacts(res *Result, baseName string) []Artifact {
	if res == nil || !res.Report.IsValid {
		return nil
	}
	base := strings.TrimSuffix(filepath.Base(baseName), filepath.Ext(baseName))
	if base == "" || base == "." {
		base = "image"
	}
	svgName := base + ".svg"
	if res.Settings.Optimize {
		svgName = base + ".min.svg"
	}
	return []Artifact{
		{Name: svgName, MediaType: svgMediaType, Data: []byte(res.Active)},
		{Name: base + ".url.css", MediaType: "text/css", Data: []byte(res.Outputs.URLEncodedCSS + "\n")},
		{Name: base + ".base64.css", MediaType: "text/css", Data: []byte(res.Outputs.Base64CSS + "\n")},
		{Name: componentIdent(res.Settings.ComponentName) + ".tsx", MediaType: "text/typescript", Data: []byte(res.Outputs.JSX)},
	}
}

// Export hands every artifact of res to sink.
func Export(sink Sink, res *Result, baseName string) error {
	artifacts := Artifacts(res, baseName)
	if artifacts == nil {
		return errors.New("Export nothing to export: result is not valid")
	}
	for _, a := range artifacts {
		if err := sink.Download(a.Name, a.MediaType, a.Data); err != nil {
			return err
		}
	}
	return nil
}

// DirSink writes downloads into a directory.
type DirSink struct {
	Dir       string
	Overwrite bool // false keeps files that already exist
}

func (d DirSink) Download(name, _ string, data []byte) error {
	path := filepath.Join(d.Dir, filepath.Base(name))
	if d.Overwrite {
		return WriteFile(path, data)
	}
	_, err := WriteFileIfMissing(path, data)
	return err
}

// WriteFile writes data to path, creating missing parent directories and
// truncating an existing file.
func WriteFile(path string, data []byte) error {
	return writeFile(path, data, os.O_TRUNC)
}

// WriteFileIfMissing writes data to path unless a file is already there and
// reports whether it wrote.
func WriteFileIfMissing(path string, data []byte) (bool, error) {
	err := writeFile(path, data, os.O_EXCL)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	return err == nil, err
}

func writeFile(path string, data []byte, mode int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|mode, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
