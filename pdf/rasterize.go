package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// RasterOptions configures a rasterization run
type RasterOptions struct {
	DPI     int
	Workers int
	// PopplerPath overrides where the native rendering tool is looked up
	PopplerPath string
}

// Rasterizer renders every page of a document, in page order
type Rasterizer interface {
	Rasterize(ctx context.Context, path string, opts RasterOptions) ([]image.Image, error)
}

// ToJPEG renders every page of src and writes one JPEG per page to outDir,
// named <base>_page_<n>.jpg. It returns the written paths in page order.
// On failure the pages already written are removed again.
func (c *Converter) ToJPEG(ctx context.Context, src, outDir string) ([]string, error) {
	if c.rasterizer == nil {
		return nil, ErrRasterizerUnavailable
	}

	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return nil, fmt.Errorf("failed to stat PDF: %w", err)
	}

	opts := RasterOptions{
		DPI:         c.cfg.RasterDPI,
		Workers:     c.cfg.RasterWorkers,
		PopplerPath: c.cfg.PopplerPath,
	}

	c.logger.WithFields(logrus.Fields{
		"file":    filepath.Base(src),
		"dpi":     opts.DPI,
		"workers": opts.Workers,
	}).Info("Starting PDF to JPG conversion")

	images, err := c.rasterizer.Rasterize(ctx, src, opts)
	if err != nil {
		return nil, fmt.Errorf("rasterization failed: %w", err)
	}

	// Encode everything before touching the output directory
	encoded := make([][]byte, len(images))
	for i, img := range images {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}
		encoded[i] = buf.Bytes()
	}

	base := baseName(src)
	written := make([]string, 0, len(encoded))
	for i, data := range encoded {
		outFile := filepath.Join(outDir, fmt.Sprintf("%s_page_%d.jpg", base, i+1))
		if err := writeFileAtomic(outFile, data); err != nil {
			for _, path := range written {
				os.Remove(path)
			}
			return nil, err
		}
		c.logger.WithFields(logrus.Fields{
			"page":   i + 1,
			"output": filepath.Base(outFile),
		}).Debug("Saved page")
		written = append(written, outFile)
	}

	return written, nil
}
