package pdf

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ExtractionResult describes a written extraction
type ExtractionResult struct {
	Path  string
	Pages []int // 1-based, ascending
	Size  int64
}

// ExtractPages copies the given zero-based pages of doc into a new document
// inside outDir. Pages are always written in ascending order, regardless of
// the order they are passed in. Nothing is written unless every page was
// copied successfully.
func (c *Converter) ExtractPages(doc Document, indices []int, outDir string) (*ExtractionResult, error) {
	if len(indices) == 0 {
		return nil, ErrNoValidPages
	}

	indices = normalizeIndices(indices)
	if err := ValidateIndices(indices, doc.PageCount()); err != nil {
		return nil, err
	}

	pages := make([]int, len(indices))
	for i, idx := range indices {
		pages[i] = idx + 1
	}

	c.logger.WithFields(logrus.Fields{
		"file":  filepath.Base(doc.Path()),
		"pages": pages,
	}).Info("Extracting pages")

	var buf bytes.Buffer
	if err := doc.WritePages(&buf, indices); err != nil {
		return nil, fmt.Errorf("failed to extract pages: %w", err)
	}

	outFile := filepath.Join(outDir, ExtractionFileName(doc.Path(), pages))
	if err := writeFileAtomic(outFile, buf.Bytes()); err != nil {
		return nil, err
	}

	c.logger.WithField("output", outFile).Debug("Extraction written")

	return &ExtractionResult{
		Path:  outFile,
		Pages: pages,
		Size:  int64(buf.Len()),
	}, nil
}

// ExtractionFileName names the output of an extraction from source.
// The page list is replaced by "<count>_pages" once it exceeds
// MaxPageListLength characters.
func ExtractionFileName(source string, pages []int) string {
	pageStrs := make([]string, len(pages))
	for i, p := range pages {
		pageStrs[i] = strconv.Itoa(p)
	}

	pageList := strings.Join(pageStrs, "_")
	if len(pageList) > MaxPageListLength {
		pageList = fmt.Sprintf("%d_pages", len(pages))
	}

	return fmt.Sprintf("pages_%s_of_%s", pageList, filepath.Base(source))
}
