package pdf

import "errors"

var (
	// ErrSourceNotFound is returned when the input document does not exist
	ErrSourceNotFound = errors.New("source file not found")

	// ErrFolderNotFound is returned when the image folder does not exist
	ErrFolderNotFound = errors.New("image folder not found")

	// ErrNoImages is returned when a folder holds no JPG or PNG images
	ErrNoImages = errors.New("no JPG or PNG images found")

	// ErrNoValidPages is returned when a page specification selects nothing
	ErrNoValidPages = errors.New("no valid pages specified")

	// ErrRasterizerUnavailable is returned when no rasterization engine is configured
	ErrRasterizerUnavailable = errors.New("rasterizer not configured")

	// ErrPopplerNotFound is returned when the pdftoppm binary cannot be located
	ErrPopplerNotFound = errors.New("poppler (pdftoppm) not found")

	// ErrPageOutOfBounds rejects a page number outside the document
	ErrPageOutOfBounds = errors.New("page number out of bounds")

	// ErrInvalidRange rejects a range whose start is after its end
	ErrInvalidRange = errors.New("invalid range")

	// ErrNotANumber rejects a token that is not an integer
	ErrNotANumber = errors.New("not a page number")
)
