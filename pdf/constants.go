package pdf

import "time"

const (
	// ExtractDirName is the directory extracted page documents are written to
	ExtractDirName = "extracted_pages"

	// ImageDirName is the directory rasterized pages are written to
	ImageDirName = "extracted_images"

	// MergeDirName is the directory merged image documents are written to
	MergeDirName = "merged_pdfs"

	// DefaultMergeName is the default file name of a merged image document
	DefaultMergeName = "merged_images.pdf"

	// MaxPageListLength is the longest joined page list kept in an output file name
	MaxPageListLength = 30

	// DefaultRasterDPI is the resolution pages are rendered at
	DefaultRasterDPI = 300

	// DefaultRasterWorkers is the number of pdftoppm processes run in parallel
	DefaultRasterWorkers = 4

	// DefaultMergeDPI is the resolution images are embedded at when merged
	DefaultMergeDPI = 100

	// JPEGQuality is used for every JPEG this package encodes
	JPEGQuality = 90

	// DefaultDirPermissions for output directory creation
	DefaultDirPermissions = 0755

	// DefaultFilePermissions for written documents and images
	DefaultFilePermissions = 0644
)

// RasterTimeout bounds a single pdftoppm run
const RasterTimeout = 10 * time.Minute
