package api

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pdf_converter/pdf"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pdf_converter",
	})
}

func (s *Server) HandleExtract(c *gin.Context) {
	pagesParam := c.PostForm("pages")
	if strings.TrimSpace(pagesParam) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No pages specified"})
		return
	}

	workDir, inFile, ok := s.receivePDF(c)
	if !ok {
		return
	}
	defer os.RemoveAll(workDir)

	doc, err := s.converter.OpenDocument(inFile)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	sel, err := pdf.ParsePageSpec(pagesParam, doc.PageCount())
	rejected := make([]string, len(sel.Rejected))
	for i, rej := range sel.Rejected {
		s.logger.WithField("token", rej.Token).Warn(rej.Error())
		rejected[i] = rej.Token
	}
	if errors.Is(err, pdf.ErrNoValidPages) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "No valid pages specified",
			"rejected": rejected,
		})
		return
	}

	result, err := s.converter.ExtractPages(doc, sel.Indices, filepath.Join(workDir, pdf.ExtractDirName))
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	if len(rejected) > 0 {
		c.Header(RejectedPagesHeader, strings.Join(rejected, ","))
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(result.Path)))
	c.File(result.Path)
}

func (s *Server) HandleToJPG(c *gin.Context) {
	workDir, inFile, ok := s.receivePDF(c)
	if !ok {
		return
	}
	defer os.RemoveAll(workDir)

	written, err := s.converter.ToJPEG(c.Request.Context(), inFile, filepath.Join(workDir, pdf.ImageDirName))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pdf.ErrPopplerNotFound) || errors.Is(err, pdf.ErrRasterizerUnavailable) {
			status = http.StatusServiceUnavailable
		}
		s.fail(c, status, err)
		return
	}

	archive, err := zipFiles(written)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	name := strings.TrimSuffix(filepath.Base(inFile), filepath.Ext(inFile)) + "_pages.zip"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/zip", archive)
}

func (s *Server) HandleFromImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No images uploaded"})
		return
	}

	workDir, err := s.newWorkDir()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp directory"})
		return
	}
	defer os.RemoveAll(workDir)

	imageDir := filepath.Join(workDir, "images")
	if err := os.MkdirAll(imageDir, DefaultFilePermissions); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp directory"})
		return
	}

	seen := make(map[string]bool)
	for _, header := range form.File["images"] {
		name := sanitizeFilename(header.Filename, "image.png")
		if seen[name] {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Duplicate image name: %s", name)})
			return
		}
		seen[name] = true

		if header.Size > s.config.MaxFileSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file size %d exceeds maximum allowed %d bytes", header.Size, s.config.MaxFileSize)})
			return
		}
		if err := c.SaveUploadedFile(header, filepath.Join(imageDir, name)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
			return
		}
	}

	outName := sanitizeFilename(c.PostForm("output_name"), pdf.DefaultMergeName)
	result, err := s.converter.MergeImages(imageDir, filepath.Join(workDir, pdf.MergeDirName), outName)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pdf.ErrNoImages) {
			status = http.StatusBadRequest
		}
		s.fail(c, status, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(result.Path)))
	c.File(result.Path)
}

// receivePDF validates the "pdf" form file and stores it, under its sanitized
// name, inside a fresh work directory
func (s *Server) receivePDF(c *gin.Context) (string, string, bool) {
	file, header, err := c.Request.FormFile("pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF file provided"})
		return "", "", false
	}
	defer file.Close()

	// Validate PDF file
	if err := validatePDFFile(file, header, s.config.MaxFileSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", "", false
	}

	workDir, err := s.newWorkDir()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp directory"})
		return "", "", false
	}

	inFile := filepath.Join(workDir, sanitizeFilename(header.Filename, "document.pdf"))
	out, err := os.Create(inFile)
	if err != nil {
		os.RemoveAll(workDir)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp file"})
		return "", "", false
	}

	_, err = out.ReadFrom(file)
	out.Close()
	if err != nil {
		os.RemoveAll(workDir) // Clean up on error
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save input file"})
		return "", "", false
	}

	return workDir, inFile, true
}

// newWorkDir creates a per-request directory below the temp directory
func (s *Server) newWorkDir() (string, error) {
	dir := filepath.Join(s.config.TempDir, uuid.NewString())
	if err := os.MkdirAll(dir, DefaultFilePermissions); err != nil {
		return "", err
	}
	return dir, nil
}

// fail logs err and returns it to the client, truncated
func (s *Server) fail(c *gin.Context, status int, err error) {
	s.logger.WithFields(logFields(c)).WithError(err).Error("PDF operation failed")

	errorMsg := err.Error()
	if len(errorMsg) > MaxErrorLength {
		errorMsg = errorMsg[:MaxErrorLength] + "..."
	}
	if errors.Is(err, pdf.ErrPopplerNotFound) {
		errorMsg += ". Install poppler-utils or set PDFCONV_POPPLER_PATH"
	}
	c.JSON(status, gin.H{"error": errorMsg})
}

// zipFiles packs files into an in-memory zip archive, flat
func zipFiles(files []string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, path := range files {
		if err := addToZip(zw, path); err != nil {
			zw.Close()
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func addToZip(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", filepath.Base(path), err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", filepath.Base(path), err)
	}
	return nil
}

// sanitizeFilename removes path traversal attempts and dangerous characters
func sanitizeFilename(filename, fallback string) string {
	// Remove directory separators and path traversal attempts
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")

	// Get just the base filename to prevent path issues
	filename = filepath.Base(filename)
	filename = strings.TrimSpace(filename)

	// If empty after sanitization, use default
	if filename == "" || filename == "." {
		filename = fallback
	}

	return filename
}

// validatePDFFile checks if the file is a valid PDF by reading the header
func validatePDFFile(file multipart.File, header *multipart.FileHeader, maxSize int64) error {
	if header.Size > maxSize {
		return fmt.Errorf("file size %d exceeds maximum allowed %d bytes", header.Size, maxSize)
	}

	// Read first 4 bytes to check PDF header
	buffer := make([]byte, 4)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file header: %v", err)
	}

	if n < 4 || string(buffer[:4]) != "%PDF" {
		return fmt.Errorf("invalid PDF file: header does not match")
	}

	// Seek back to beginning for subsequent reads
	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return fmt.Errorf("failed to reset file position: %v", err)
	}

	return nil
}

// RequestLogger logs every request once it has been handled
func (s *Server) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.WithFields(logFields(c)).WithFields(logrus.Fields{
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Info("Request handled")
	}
}

// logFields is a helper for request scoped log entries
func logFields(c *gin.Context) logrus.Fields {
	return logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"client": c.ClientIP(),
	}
}
