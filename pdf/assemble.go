package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PdfcpuAssembler builds documents with pdfcpu's image import. Each page is
// sized to its image at the requested resolution and the JPEG-encoded image
// fills it.
type PdfcpuAssembler struct{}

// Assemble writes a document with one page per image to w
func (PdfcpuAssembler) Assemble(w io.Writer, pages []image.Image, dpi int) error {
	if len(pages) == 0 {
		return ErrNoImages
	}
	if dpi <= 0 {
		dpi = DefaultMergeDPI
	}

	// pdfcpu takes one page size per import, so pages are appended one at a time
	var doc []byte
	for i, img := range pages {
		var enc bytes.Buffer
		if err := jpeg.Encode(&enc, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}

		var rs io.ReadSeeker
		if doc != nil {
			rs = bytes.NewReader(doc)
		}

		var out bytes.Buffer
		imp := importConfig(img.Bounds(), dpi)
		if err := api.ImportImages(rs, &out, []io.Reader{&enc}, imp, newConfiguration()); err != nil {
			return fmt.Errorf("pdfcpu import of page %d failed: %w", i+1, err)
		}
		doc = out.Bytes()
	}

	if _, err := w.Write(doc); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// pageDim returns the size in points of a page holding an image of bounds
// at dpi
func pageDim(bounds image.Rectangle, dpi int) types.Dim {
	return types.Dim{
		Width:  float64(bounds.Dx()) * 72 / float64(dpi),
		Height: float64(bounds.Dy()) * 72 / float64(dpi),
	}
}

// importConfig places one image, scaled to dpi, on a page of exactly its size
func importConfig(bounds image.Rectangle, dpi int) *pdfcpu.Import {
	dim := pageDim(bounds, dpi)

	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &dim
	imp.Pos = types.Center
	imp.Scale = 1
	imp.ScaleAbs = true
	imp.DPI = dpi
	return imp
}
