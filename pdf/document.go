package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document is an opened source PDF
type Document interface {
	// Path is the file the document was opened from
	Path() string
	// PageCount is the number of pages in the document
	PageCount() int
	// WritePages writes a new document holding the given zero-based pages to w.
	// The source is left untouched.
	WritePages(w io.Writer, indices []int) error
}

// Opener opens documents by path
type Opener interface {
	Open(path string) (Document, error)
}

// PdfcpuOpener opens documents with pdfcpu. The whole file is read into
// memory so the source handle is released before any page is copied.
type PdfcpuOpener struct{}

// NewPdfcpuOpener returns an Opener backed by pdfcpu
func NewPdfcpuOpener() *PdfcpuOpener {
	return &PdfcpuOpener{}
}

// Open reads and validates the document at path
func (o *PdfcpuOpener) Open(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	pageCount, err := api.PageCount(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %s: %w", path, err)
	}

	return &pdfcpuDocument{path: path, data: data, pageCount: pageCount}, nil
}

// PageCount opens path and returns its page count
func (o *PdfcpuOpener) PageCount(path string) (int, error) {
	doc, err := o.Open(path)
	if err != nil {
		return 0, err
	}
	return doc.PageCount(), nil
}

type pdfcpuDocument struct {
	path      string
	data      []byte
	pageCount int
}

func (d *pdfcpuDocument) Path() string {
	return d.path
}

func (d *pdfcpuDocument) PageCount() int {
	return d.pageCount
}

// WritePages trims a copy of the document down to the selected pages.
// pdfcpu keeps the pages in document order, which is ascending index order.
func (d *pdfcpuDocument) WritePages(w io.Writer, indices []int) error {
	if err := ValidateIndices(indices, d.pageCount); err != nil {
		return err
	}

	selected := make([]string, len(indices))
	for i, idx := range indices {
		selected[i] = strconv.Itoa(idx + 1)
	}

	if err := api.Trim(bytes.NewReader(d.data), w, selected, newConfiguration()); err != nil {
		return fmt.Errorf("pdfcpu trim failed: %w", err)
	}
	return nil
}

// newConfiguration returns a fresh pdfcpu configuration. pdfcpu mutates the
// configuration it is handed, so one is created per call.
func newConfiguration() *model.Configuration {
	return model.NewDefaultConfiguration()
}
