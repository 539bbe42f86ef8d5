package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"strings"
)

// fakeDocument writes "p<index>;" for every copied page
type fakeDocument struct {
	path     string
	pages    int
	writeErr error
	calls    [][]int
}

func (d *fakeDocument) Path() string   { return d.path }
func (d *fakeDocument) PageCount() int { return d.pages }

func (d *fakeDocument) WritePages(w io.Writer, indices []int) error {
	d.calls = append(d.calls, append([]int(nil), indices...))
	if d.writeErr != nil {
		return d.writeErr
	}
	for _, idx := range indices {
		if _, err := fmt.Fprintf(w, "p%d;", idx); err != nil {
			return err
		}
	}
	return nil
}

type fakeOpener struct {
	docs map[string]*fakeDocument
}

func (o *fakeOpener) Open(path string) (Document, error) {
	doc, ok := o.docs[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	return doc, nil
}

// fakeRasterizer returns pages solid images, one per page
type fakeRasterizer struct {
	pages int
	err   error
	opts  RasterOptions
	calls int
}

func (r *fakeRasterizer) Rasterize(_ context.Context, _ string, opts RasterOptions) ([]image.Image, error) {
	r.calls++
	r.opts = opts
	if r.err != nil {
		return nil, r.err
	}
	images := make([]image.Image, r.pages)
	for i := range images {
		images[i] = solidImage(10+i, 8, color.RGBA{R: 200, G: 30, B: 30, A: 255})
	}
	return images, nil
}

// fakeDecoder records the order images are opened in and returns an image
// whose width encodes that position
type fakeDecoder struct {
	opened []string
	failOn string
}

func (d *fakeDecoder) Decode(path string) (image.Image, error) {
	if d.failOn != "" && strings.HasSuffix(path, d.failOn) {
		return nil, errors.New("corrupt image")
	}
	d.opened = append(d.opened, filepath.Base(path))
	return solidImage(len(d.opened), 4, color.NRGBA{R: 0, G: 0, B: 255, A: 128}), nil
}

// fakeAssembler writes one line per page
type fakeAssembler struct {
	pages []image.Image
	dpi   int
	err   error
}

func (a *fakeAssembler) Assemble(w io.Writer, pages []image.Image, dpi int) error {
	a.pages = pages
	a.dpi = dpi
	if a.err != nil {
		return a.err
	}
	for i, p := range pages {
		if _, err := fmt.Fprintf(w, "page %d: %dx%d\n", i+1, p.Bounds().Dx(), p.Bounds().Dy()); err != nil {
			return err
		}
	}
	return nil
}

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
