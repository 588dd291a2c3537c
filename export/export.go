// Package export renders an svg document into raster images and PDF for the
// download links of the tool page.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	PDF  Format = "pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

const (
	DefaultSize = 512
	MaxSize     = 4096
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case PNG, JPEG, PDF:
		return f, nil
	case "jpg":
		return JPEG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// MediaType returns the Content-Type of the format.
func (f Format) MediaType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	case PDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Extension returns the file extension of the format, dot included.
func (f Format) Extension() string {
	if f == JPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// Render writes svg to w in the requested format. size is the longest side in
// pixels for raster formats and is ignored for PDF.
func Render(w io.Writer, f Format, svg string, size int) error {
	switch f {
	case PNG, JPEG:
		img, err := Rasterize(svg, size)
		if err != nil {
			return err
		}
		if f == PNG {
			return imaging.Encode(w, img, imaging.PNG)
		}
		// jpeg has no alpha channel, flatten onto white
		bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
		flat := imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
		return imaging.Encode(w, flat, imaging.JPEG, imaging.JPEGQuality(92))
	case PDF:
		return WritePDF(w, svg)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

// Rasterize draws svg into a transparent square image of size pixels,
// preserving the aspect ratio and centering the drawing.
func Rasterize(svg string, size int) (*image.NRGBA, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader([]byte(svg)))
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}

	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = float64(size), float64(size)
	}
	scale := float64(size) / max(w, h)
	outW, outH := int(w*scale), int(h*scale)
	offsetX, offsetY := (size-outW)/2, (size-outH)/2
	icon.SetTarget(float64(offsetX), float64(offsetY), float64(outW), float64(outH))

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

// WritePDF draws the path outlines of svg on a page sized after the document.
// The root must declare width and height; without them an error is returned.
// Only path geometry survives; fills, text and gradients are not supported by
// the PDF writer.
func WritePDF(w io.Writer, svg string) error {
	sig, err := gofpdf.SVGBasicParse([]byte(svg))
	if err != nil {
		return fmt.Errorf("pdf: %w", err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: sig.Wd, Ht: sig.Ht},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SVGBasicWrite(&sig, 1)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return pdf.Output(w)
}
