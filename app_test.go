package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"pdf_converter/pdf"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocument struct {
	path  string
	pages int
}

func (d *fakeDocument) Path() string   { return d.path }
func (d *fakeDocument) PageCount() int { return d.pages }

func (d *fakeDocument) WritePages(w io.Writer, indices []int) error {
	for _, idx := range indices {
		fmt.Fprintf(w, "p%d;", idx)
	}
	return nil
}

type fakeOpener struct {
	pages int
	err   error
}

func (o fakeOpener) Open(path string) (pdf.Document, error) {
	if o.err != nil {
		return nil, o.err
	}
	return &fakeDocument{path: path, pages: o.pages}, nil
}

type fakeRasterizer struct{ pages int }

func (r fakeRasterizer) Rasterize(context.Context, string, pdf.RasterOptions) ([]image.Image, error) {
	images := make([]image.Image, r.pages)
	for i := range images {
		images[i] = image.NewGray(image.Rect(0, 0, 4, 4))
	}
	return images, nil
}

type fakeDecoder struct{}

func (fakeDecoder) Decode(string) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

type fakeAssembler struct{}

func (fakeAssembler) Assemble(w io.Writer, pages []image.Image, _ int) error {
	_, err := fmt.Fprintf(w, "%%PDF pages=%d", len(pages))
	return err
}

func fakes(pages int) []pdf.Option {
	return []pdf.Option{
		pdf.WithOpener(fakeOpener{pages: pages}),
		pdf.WithRasterizer(fakeRasterizer{pages: pages}),
		pdf.WithImageDecoder(fakeDecoder{}),
		pdf.WithAssembler(fakeAssembler{}),
	}
}

func runCLI(t *testing.T, options []pdf.Option, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"pdfconv"}, args...), &stdout, &stderr, options...)
	return code, stdout.String()
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
	return path
}

func TestRunUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"report.pdf"}} {
		code, out := runCLI(t, fakes(3), args...)
		assert.Equal(t, 1, code)
		assert.Contains(t, out, "Usage:")
		assert.Contains(t, out, "Examples:")
	}
}

func TestRunRejectsTrailingArguments(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, t.TempDir(), "slides.pdf")

	code, out := runCLI(t, fakes(2), "--output-root", root, src, "to_jpg", "--poppler-path", "/opt/poppler")

	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Unexpected arguments: --poppler-path /opt/poppler")
	assert.Contains(t, out, "Options must come before the paths")
	_, err := os.Stat(filepath.Join(root, pdf.ImageDirName))
	assert.True(t, os.IsNotExist(err))
}

func TestRunExtract(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, t.TempDir(), "report.pdf")

	code, out := runCLI(t, fakes(10), "--output-root", root, src, "5, 1-2, abc")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "Extracted 3 page(s)")

	data, err := os.ReadFile(filepath.Join(root, pdf.ExtractDirName, "pages_1_2_5_of_report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "p0;p1;p4;", string(data))
}

func TestRunExtractNothingToDo(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, t.TempDir(), "report.pdf")

	code, out := runCLI(t, fakes(10), "--output-root", root, src, "0,11")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "nothing to do")
	_, err := os.Stat(filepath.Join(root, pdf.ExtractDirName))
	assert.True(t, os.IsNotExist(err))
}

func TestRunExtractOpenFailure(t *testing.T) {
	root := t.TempDir()
	opts := []pdf.Option{pdf.WithOpener(fakeOpener{err: fmt.Errorf("%w: report.pdf", pdf.ErrSourceNotFound)})}

	code, _ := runCLI(t, opts, "--output-root", root, "report.pdf", "1")

	assert.Equal(t, 1, code)
	_, err := os.Stat(filepath.Join(root, pdf.ExtractDirName))
	assert.True(t, os.IsNotExist(err))
}

func TestRunToJPEG(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, t.TempDir(), "slides.pdf")

	// mode keywords are case-insensitive
	code, out := runCLI(t, fakes(2), "--output-root", root, src, "TO_JPG")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "Wrote 2 JPEG image(s)")
	for _, name := range []string{"slides_page_1.jpg", "slides_page_2.jpg"} {
		assert.FileExists(t, filepath.Join(root, pdf.ImageDirName, name))
	}
}

func TestRunToJPEGFailures(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, t.TempDir(), "slides.pdf")

	code, _ := runCLI(t, []pdf.Option{pdf.WithRasterizer(nil)}, "--output-root", root, src, "to_jpg")
	assert.Equal(t, 1, code)

	code, _ = runCLI(t, fakes(2), "--output-root", root, filepath.Join(root, "missing.pdf"), "to_jpg")
	assert.Equal(t, 1, code)
}

func TestRunFromImages(t *testing.T) {
	root := t.TempDir()
	folder := t.TempDir()
	writeFile(t, folder, "b.jpg")
	writeFile(t, folder, "a.png")

	code, out := runCLI(t, fakes(0), "--output-root", root, "--output-name", "album.pdf", folder, "from_images")

	require.Equal(t, 0, code)
	assert.Contains(t, out, "Merged 2 image(s)")
	data, err := os.ReadFile(filepath.Join(root, pdf.MergeDirName, "album.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF pages=2", string(data))
}

func TestRunFromImagesFailures(t *testing.T) {
	root := t.TempDir()

	code, _ := runCLI(t, fakes(0), "--output-root", root, t.TempDir(), "from_images")
	assert.Equal(t, 1, code, "empty folder")

	code, _ = runCLI(t, fakes(0), "--output-root", root, filepath.Join(root, "nope"), "from_images")
	assert.Equal(t, 1, code, "missing folder")

	_, err := os.Stat(filepath.Join(root, pdf.MergeDirName, pdf.DefaultMergeName))
	assert.True(t, os.IsNotExist(err))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, parseLogLevel(" warning "))
	assert.Equal(t, logrus.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, logrus.InfoLevel, parseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, parseLogLevel("verbose"))
}

func TestServerConfigFromEnv(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE", "2048")
	t.Setenv("TEMP_DIR", "/tmp/pdfconv")

	cfg := serverConfig("9090")
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, int64(2048), cfg.MaxFileSize)
	assert.Equal(t, "/tmp/pdfconv", cfg.TempDir)

	t.Setenv("MAX_FILE_SIZE", "lots")
	assert.Equal(t, int64(DefaultMaxFileSize), serverConfig("9090").MaxFileSize)
}
