package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	// Register the decoders image.Decode needs for the accepted extensions
	_ "image/jpeg"
	_ "image/png"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

// ImageDecoder opens an image file
type ImageDecoder interface {
	Decode(path string) (image.Image, error)
}

// PageAssembler builds a multi-page document, one page per image, in order
type PageAssembler interface {
	Assemble(w io.Writer, pages []image.Image, dpi int) error
}

// StdImageDecoder decodes PNG and JPEG files
type StdImageDecoder struct{}

// Decode reads the image at path
func (StdImageDecoder) Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// MergeResult describes a written merge
type MergeResult struct {
	Path   string
	Images []string
	Size   int64
}

// DiscoverImages lists the JPG, JPEG and PNG files directly inside folder.
// Extensions match case-insensitively. The result is sorted by file name,
// which is the only ordering applied.
func DiscoverImages(folder string) ([]string, error) {
	info, err := os.Stat(folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
		}
		return nil, fmt.Errorf("failed to stat image folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrFolderNotFound, folder)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read image folder: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !hasImageExtension(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(folder, name)
	}
	return paths, nil
}

// NormalizeRGB flattens img onto an opaque white background so every page
// shares one color model regardless of source transparency or palette
func NormalizeRGB(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}

// MergeImages combines the images of folder into one document written to
// outDir/name. The first image in name order becomes page one.
func (c *Converter) MergeImages(folder, outDir, name string) (*MergeResult, error) {
	if name == "" {
		name = DefaultMergeName
	}
	name = filepath.Base(name)

	paths, err := DiscoverImages(folder)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in folder: %s", ErrNoImages, folder)
	}

	c.logger.WithFields(logrus.Fields{
		"folder": folder,
		"images": len(paths),
	}).Info("Starting merge to PDF")

	pages := make([]image.Image, 0, len(paths))
	for _, path := range paths {
		img, err := c.decoder.Decode(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		pages = append(pages, NormalizeRGB(img))
	}

	var buf bytes.Buffer
	if err := c.assembler.Assemble(&buf, pages, c.cfg.MergeDPI); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	outFile := filepath.Join(outDir, name)
	if err := writeFileAtomic(outFile, buf.Bytes()); err != nil {
		return nil, err
	}

	return &MergeResult{
		Path:   outFile,
		Images: paths,
		Size:   int64(buf.Len()),
	}, nil
}
