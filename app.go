package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"pdf_converter/api"
	"pdf_converter/pdf"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	modeToJPG      = "to_jpg"
	modeFromImages = "from_images"
)

const usageText = `Usage:
  pdfconv [options] <input_pdf_path> "<page_spec>"    extract pages into a new PDF
  pdfconv [options] <input_pdf_path> to_jpg           convert every page to JPEG
  pdfconv [options] <image_folder_path> from_images   merge JPEG/PNG images into a PDF
  pdfconv serve [--port N]                            run the HTTP API

Options must come before the paths.

Examples:
  pdfconv report.pdf "1,3,5-7"
  pdfconv report.pdf to_jpg
  pdfconv ./scans from_images
  pdfconv --poppler-path /opt/poppler/bin report.pdf to_jpg
`

var (
	success = color.New(color.FgGreen)
	notice  = color.New(color.FgYellow)
)

// dispatcher routes command line invocations to the converter
type dispatcher struct {
	logger  *logrus.Logger
	stdout  io.Writer
	options []pdf.Option
}

func newApp(logger *logrus.Logger, stdout, stderr io.Writer, options ...pdf.Option) *cli.App {
	d := &dispatcher{logger: logger, stdout: stdout, options: options}

	return &cli.App{
		Name:            "pdfconv",
		Usage:           "extract PDF pages, rasterize PDFs to JPEG, merge images into a PDF",
		UsageText:       usageText,
		HideHelpCommand: true,
		Writer:          stdout,
		ErrWriter:       stderr,
		Flags:           globalFlags(),
		// exit codes are mapped by run
		ExitErrHandler: func(*cli.Context, error) {},
		Before: func(c *cli.Context) error {
			logger.SetLevel(parseLogLevel(c.String("log-level")))
			return nil
		},
		Action: d.convert,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the conversions behind an HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Usage:   "listen port",
						Value:   DefaultPort,
						EnvVars: []string{"PORT"},
					},
				},
				Action: d.serve,
			},
		},
	}
}

// run executes the command line and returns the process exit code
func run(args []string, stdout, stderr io.Writer, options ...pdf.Option) int {
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	err := newApp(logger, stdout, stderr, options...).Run(args)
	if err == nil {
		return 0
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(stderr, msg)
		}
		return exitErr.ExitCode()
	}
	logger.WithError(err).Error("Command failed")
	return 1
}

func (d *dispatcher) convert(c *cli.Context) error {
	if c.NArg() < 2 {
		fmt.Fprint(d.stdout, usageText)
		return cli.Exit("", 1)
	}
	if c.NArg() > 2 {
		// flags after the first path are not parsed and would be lost
		fmt.Fprintf(d.stdout, "Unexpected arguments: %s\n\n", strings.Join(c.Args().Slice()[2:], " "))
		fmt.Fprint(d.stdout, usageText)
		return cli.Exit("", 1)
	}

	cfg := configFromContext(c)
	conv := pdf.NewConverter(cfg.converterConfig(), d.logger, d.options...)
	path, mode := c.Args().Get(0), c.Args().Get(1)

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case modeToJPG:
		return d.toJPEG(c.Context, conv, cfg, path)
	case modeFromImages:
		return d.fromImages(conv, cfg, path)
	default:
		return d.extract(conv, cfg, path, mode)
	}
}

func (d *dispatcher) extract(conv *pdf.Converter, cfg Config, path, spec string) error {
	doc, err := conv.OpenDocument(path)
	if err != nil {
		return d.failure("Failed to open PDF", path, err)
	}

	sel, err := pdf.ParsePageSpec(spec, doc.PageCount())
	for _, rej := range sel.Rejected {
		d.logger.WithFields(logrus.Fields{
			"file":  path,
			"token": rej.Token,
		}).Warn(rej.Error())
	}
	if errors.Is(err, pdf.ErrNoValidPages) {
		notice.Fprintf(d.stdout, "No valid pages selected from %s, nothing to do\n", path)
		return nil
	}

	result, err := conv.ExtractPages(doc, sel.Indices, filepath.Join(cfg.OutputRoot, pdf.ExtractDirName))
	if err != nil {
		return d.failure("Failed to extract pages", path, err)
	}

	success.Fprintf(d.stdout, "Extracted %d page(s) to %s (%s)\n",
		len(result.Pages), result.Path, humanize.Bytes(uint64(result.Size)))
	return nil
}

func (d *dispatcher) toJPEG(ctx context.Context, conv *pdf.Converter, cfg Config, path string) error {
	written, err := conv.ToJPEG(ctx, path, filepath.Join(cfg.OutputRoot, pdf.ImageDirName))
	if err != nil {
		return d.failure("Failed to convert PDF to JPEG", path, err)
	}

	success.Fprintf(d.stdout, "Wrote %d JPEG image(s) to %s\n",
		len(written), filepath.Join(cfg.OutputRoot, pdf.ImageDirName))
	return nil
}

func (d *dispatcher) fromImages(conv *pdf.Converter, cfg Config, folder string) error {
	result, err := conv.MergeImages(folder, filepath.Join(cfg.OutputRoot, pdf.MergeDirName), cfg.OutputName)
	if err != nil {
		return d.failure("Failed to merge images", folder, err)
	}

	success.Fprintf(d.stdout, "Merged %d image(s) into %s (%s)\n",
		len(result.Images), result.Path, humanize.Bytes(uint64(result.Size)))
	return nil
}

// failure logs err and turns it into exit status 1
func (d *dispatcher) failure(msg, path string, err error) error {
	entry := d.logger.WithField("file", path).WithError(err)
	entry.Error(msg)
	if errors.Is(err, pdf.ErrPopplerNotFound) {
		entry.Error("Install poppler-utils or point --poppler-path at the directory holding pdftoppm")
	}
	return cli.Exit("", 1)
}

func (d *dispatcher) serve(c *cli.Context) error {
	cfg := configFromContext(c)
	config := serverConfig(c.String("port"))

	if err := os.MkdirAll(config.TempDir, api.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	conv := pdf.NewConverter(cfg.converterConfig(), d.logger, d.options...)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = config.MaxFileSize
	api.SetupRoutes(r, api.NewServer(config, conv, d.logger))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", config.Port),
		Handler:      r,
		ReadTimeout:  ServerReadTimeout,
		WriteTimeout: ServerWriteTimeout,
		IdleTimeout:  ServerIdleTimeout,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		d.logger.WithFields(logrus.Fields{
			"addr":          srv.Addr,
			"max_file_size": humanize.Bytes(uint64(config.MaxFileSize)),
			"temp_dir":      config.TempDir,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	d.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	d.logger.Info("Server exited gracefully")
	return nil
}
