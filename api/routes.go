package api

import (
	"pdf_converter/pdf"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Config holds application configuration
type Config struct {
	Port        string
	MaxFileSize int64
	TempDir     string
}

// Server bundles what the handlers need
type Server struct {
	config    *Config
	converter *pdf.Converter
	logger    *logrus.Logger
}

// NewServer returns handlers running conversions through converter
func NewServer(config *Config, converter *pdf.Converter, logger *logrus.Logger) *Server {
	return &Server{config: config, converter: converter, logger: logger}
}

func SetupRoutes(r *gin.Engine, s *Server) {
	r.Use(s.RequestLogger())
	r.GET("/health", s.HandleHealth)

	apiGroup := r.Group("/api/pdf")
	{
		apiGroup.POST("/extract", s.HandleExtract)
		apiGroup.POST("/to-jpg", s.HandleToJPG)
		apiGroup.POST("/from-images", s.HandleFromImages)
	}
}
