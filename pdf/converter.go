package pdf

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Config holds the settings of a Converter
type Config struct {
	// PopplerPath is the directory holding pdftoppm. Empty means search $PATH.
	PopplerPath   string
	RasterDPI     int
	RasterWorkers int
	MergeDPI      int
}

// DefaultConfig returns the settings used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		RasterDPI:     DefaultRasterDPI,
		RasterWorkers: DefaultRasterWorkers,
		MergeDPI:      DefaultMergeDPI,
	}
}

// Converter runs the three conversions against its collaborators
type Converter struct {
	cfg        Config
	logger     *logrus.Logger
	opener     Opener
	rasterizer Rasterizer
	decoder    ImageDecoder
	assembler  PageAssembler
}

// Option replaces one of the Converter collaborators
type Option func(*Converter)

// WithOpener sets the document opener
func WithOpener(o Opener) Option {
	return func(c *Converter) { c.opener = o }
}

// WithRasterizer sets the rasterization engine. A nil engine makes ToJPEG
// fail with ErrRasterizerUnavailable.
func WithRasterizer(r Rasterizer) Option {
	return func(c *Converter) { c.rasterizer = r }
}

// WithImageDecoder sets the image decoder used by MergeImages
func WithImageDecoder(d ImageDecoder) Option {
	return func(c *Converter) { c.decoder = d }
}

// WithAssembler sets the document assembler used by MergeImages
func WithAssembler(a PageAssembler) Option {
	return func(c *Converter) { c.assembler = a }
}

// NewConverter returns a Converter using pdfcpu, pdftoppm and the standard
// image decoders unless options say otherwise
func NewConverter(cfg Config, logger *logrus.Logger, opts ...Option) *Converter {
	if cfg.RasterDPI <= 0 {
		cfg.RasterDPI = DefaultRasterDPI
	}
	if cfg.RasterWorkers <= 0 {
		cfg.RasterWorkers = DefaultRasterWorkers
	}
	if cfg.MergeDPI <= 0 {
		cfg.MergeDPI = DefaultMergeDPI
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	opener := NewPdfcpuOpener()
	c := &Converter{
		cfg:        cfg,
		logger:     logger,
		opener:     opener,
		rasterizer: NewPopplerRasterizer(opener.PageCount),
		decoder:    StdImageDecoder{},
		assembler:  PdfcpuAssembler{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenDocument opens the source document at path
func (c *Converter) OpenDocument(path string) (Document, error) {
	c.logger.WithField("file", path).Debug("Opening document")
	return c.opener.Open(path)
}
