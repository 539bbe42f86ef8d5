package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"pdf_converter/api"
	"pdf_converter/pdf"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	// DefaultMaxFileSize is the default maximum upload size (10MB)
	DefaultMaxFileSize = 10 * 1024 * 1024

	// DefaultPort is the default server port
	DefaultPort = "8080"

	// DefaultTempDir is the default temporary directory
	DefaultTempDir = "./temp"

	// DefaultOutputRoot is where the output directories are created
	DefaultOutputRoot = "."

	// ServerReadTimeout is the HTTP server read timeout
	ServerReadTimeout = 15 * time.Second

	// ServerWriteTimeout is the HTTP server write timeout. Rasterizing a large
	// upload takes a while.
	ServerWriteTimeout = 5 * time.Minute

	// ServerIdleTimeout is the HTTP server idle timeout
	ServerIdleTimeout = 60 * time.Second

	// GracefulShutdownTimeout is the timeout for graceful shutdown
	GracefulShutdownTimeout = 10 * time.Second
)

// Config is the resolved command line configuration
type Config struct {
	PopplerPath string
	OutputRoot  string
	OutputName  string
	LogLevel    string
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "poppler-path",
			Usage:   "directory containing pdftoppm (default: search $PATH)",
			EnvVars: []string{"PDFCONV_POPPLER_PATH"},
		},
		&cli.StringFlag{
			Name:    "output-root",
			Usage:   "directory below which output folders are created",
			Value:   DefaultOutputRoot,
			EnvVars: []string{"PDFCONV_OUTPUT_ROOT"},
		},
		&cli.StringFlag{
			Name:    "output-name",
			Usage:   "file name of the merged PDF in from_images mode",
			Value:   pdf.DefaultMergeName,
			EnvVars: []string{"PDFCONV_OUTPUT_NAME"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			Value:   "info",
			EnvVars: []string{"LOG_LEVEL"},
		},
	}
}

// configFromContext collects the global flags
func configFromContext(c *cli.Context) Config {
	return Config{
		PopplerPath: c.String("poppler-path"),
		OutputRoot:  c.String("output-root"),
		OutputName:  c.String("output-name"),
		LogLevel:    c.String("log-level"),
	}
}

// converterConfig maps the command line settings onto the converter settings
func (c Config) converterConfig() pdf.Config {
	cfg := pdf.DefaultConfig()
	cfg.PopplerPath = c.PopplerPath
	return cfg
}

// serverConfig reads the HTTP settings from the environment, with port
// coming from the serve command flag
func serverConfig(port string) *api.Config {
	if port == "" {
		port = getEnv("PORT", DefaultPort)
	}
	return &api.Config{
		Port:        port,
		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", DefaultMaxFileSize),
		TempDir:     getEnv("TEMP_DIR", DefaultTempDir),
	}
}

// parseLogLevel maps a level name onto a logrus level, defaulting to info
func parseLogLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
