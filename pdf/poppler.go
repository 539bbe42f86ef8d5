package pdf

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// PopplerRasterizer renders pages with poppler's pdftoppm. The page range is
// split into contiguous chunks and one pdftoppm process runs per chunk.
type PopplerRasterizer struct {
	// PageCounter returns the number of pages of a document
	PageCounter func(path string) (int, error)
	// Timeout bounds each pdftoppm process; zero means no limit
	Timeout time.Duration
}

// NewPopplerRasterizer returns a rasterizer that counts pages with counter
func NewPopplerRasterizer(counter func(path string) (int, error)) *PopplerRasterizer {
	return &PopplerRasterizer{
		PageCounter: counter,
		Timeout:     RasterTimeout,
	}
}

// pageChunk is an inclusive 1-based page range rendered by one process
type pageChunk struct {
	First int
	Last  int
}

// pdftoppm names its output <prefix>-<page>.png, zero padding the page number
var pdftoppmPageRe = regexp.MustCompile(`-(\d+)\.png$`)

// LocatePdftoppm finds the pdftoppm binary, inside dir when it is set and on
// $PATH otherwise
func LocatePdftoppm(dir string) (string, error) {
	name := "pdftoppm"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	if dir != "" {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("%w in %s", ErrPopplerNotFound, dir)
		}
		return candidate, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPopplerNotFound, err)
	}
	return path, nil
}

// Rasterize renders every page of the document at path
func (r *PopplerRasterizer) Rasterize(ctx context.Context, path string, opts RasterOptions) ([]image.Image, error) {
	bin, err := LocatePdftoppm(opts.PopplerPath)
	if err != nil {
		return nil, err
	}

	if r.PageCounter == nil {
		return nil, fmt.Errorf("no page counter configured")
	}
	total, err := r.PageCounter(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if total == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	dpi := opts.DPI
	if dpi <= 0 {
		dpi = DefaultRasterDPI
	}

	tmpDir, err := os.MkdirTemp("", "pdfconv-raster-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	chunks := splitPages(total, opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(chunks))
	for i, chunk := range chunks {
		prefix := filepath.Join(tmpDir, fmt.Sprintf("chunk%d", i))
		g.Go(func() error {
			_, err := execCommandWithTimeout(gctx, r.Timeout, bin,
				"-r", strconv.Itoa(dpi),
				"-f", strconv.Itoa(chunk.First),
				"-l", strconv.Itoa(chunk.Last),
				"-png",
				path, prefix)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files, err := collectRenderedPages(tmpDir)
	if err != nil {
		return nil, err
	}
	if len(files) != total {
		return nil, fmt.Errorf("pdftoppm rendered %d of %d pages", len(files), total)
	}

	images := make([]image.Image, 0, len(files))
	for _, file := range files {
		img, err := decodePNG(file)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// splitPages divides pages 1..total into at most workers contiguous chunks
// whose sizes differ by at most one
func splitPages(total, workers int) []pageChunk {
	if total <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	base, rem := total/workers, total%workers
	chunks := make([]pageChunk, 0, workers)
	first := 1
	for i := 0; i < workers; i++ {
		size := base
		if i < rem {
			size++
		}
		chunks = append(chunks, pageChunk{First: first, Last: first + size - 1})
		first += size
	}
	return chunks
}

// collectRenderedPages returns the pdftoppm outputs in dir ordered by page number
func collectRenderedPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read render directory: %w", err)
	}

	byPage := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		page, ok := parsePdftoppmPageNumber(entry.Name())
		if !ok {
			continue
		}
		byPage[page] = filepath.Join(dir, entry.Name())
	}

	pages := make([]int, 0, len(byPage))
	for page := range byPage {
		pages = append(pages, page)
	}
	sort.Ints(pages)

	files := make([]string, len(pages))
	for i, page := range pages {
		files[i] = byPage[page]
	}
	return files, nil
}

func parsePdftoppmPageNumber(name string) (int, bool) {
	m := pdftoppmPageRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	page, err := strconv.Atoi(m[1])
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rendered page: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
