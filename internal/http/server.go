// Package http provides the HTTP API for docguard.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/docguard/internal/keywords"
	"github.com/fyrsmithlabs/docguard/internal/logging"
	"github.com/fyrsmithlabs/docguard/internal/scan"
)

// uploadField is the multipart field carrying documents.
const uploadField = "files"

// Scanner scans a batch of uploaded files.
type Scanner interface {
	Scan(ctx context.Context, files []scan.File) []scan.FileResult
}

// Server provides HTTP endpoints for docguard.
type Server struct {
	echo    *echo.Echo
	scanner Scanner
	store   *keywords.Store
	logger  *zap.Logger
	config  *Config
	metrics *HTTPMetrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// MaxFiles bounds the number of files per upload.
	MaxFiles int
	// MaxUploadMB bounds the request body size in megabytes.
	MaxUploadMB int
	// RateLimit is the sustained upload requests per second per client.
	// Zero disables rate limiting.
	RateLimit float64
	RateBurst int

	// KeywordsPath is reloaded by POST /api/v1/keywords/reload.
	KeywordsPath string
}

// DefaultConfig returns the server defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:        "localhost",
		Port:        8000,
		MaxFiles:    25,
		MaxUploadMB: 100,
		RateBurst:   10,
	}
}

// NewServer creates a new HTTP server.
func NewServer(scanner Scanner, store *keywords.Store, logger *zap.Logger, cfg *Config) (*Server, error) {
	if scanner == nil {
		return nil, fmt.Errorf("scanner cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("keyword store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultConfig().MaxFiles
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = DefaultConfig().MaxUploadMB
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := NewHTTPMetrics(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	e.Use(metrics.MetricsMiddleware())

	s := &Server{
		echo:    e,
		scanner: scanner,
		store:   store,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")

	upload := []echo.MiddlewareFunc{
		middleware.BodyLimit(fmt.Sprintf("%dM", s.config.MaxUploadMB)),
	}
	if s.config.RateLimit > 0 {
		store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(s.config.RateLimit),
			Burst:     s.config.RateBurst,
			ExpiresIn: 3 * time.Minute,
		})
		upload = append(upload, middleware.RateLimiter(store))
	}
	v1.POST("/check-document", s.handleCheckDocument, upload...)

	v1.GET("/keywords", s.handleListKeywords)
	v1.POST("/keywords/reload", s.handleReloadKeywords)
}

// ServeHTTP lets the server be driven directly by tests and embedding code.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// handleHealth reports liveness and the loaded keyword count.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Keywords: s.store.Snapshot().Len(),
	})
}

// handleCheckDocument scans every uploaded file and returns one result per
// file in upload order.
func (s *Server) handleCheckDocument(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		s.logger.Warn("invalid upload", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "request must be multipart/form-data")
	}

	headers := form.File[uploadField]
	switch {
	case len(headers) == 0:
		return echo.NewHTTPError(http.StatusBadRequest, "files: no file was submitted")
	case len(headers) > s.config.MaxFiles:
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("files: ensure this field has no more than %d elements", s.config.MaxFiles))
	}

	files := make([]scan.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size == 0 {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("files: the submitted file %q is empty", fh.Filename))
		}
		data, err := readUpload(fh)
		if err != nil {
			s.logger.Warn("failed to read upload", zap.String("file", fh.Filename), zap.Error(err))
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("files: could not read %q", fh.Filename))
		}
		files = append(files, scan.File{Name: fh.Filename, Data: data})
	}

	ctx := c.Request().Context()
	s.metrics.RecordUpload(ctx, len(files))
	results := s.scanner.Scan(ctx, files)
	return c.JSON(http.StatusOK, results)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// handleListKeywords lists the current registry in configuration order.
func (s *Server) handleListKeywords(c echo.Context) error {
	return c.JSON(http.StatusOK, keywordResponses(s.store.Snapshot()))
}

// handleReloadKeywords reloads the keyword file and swaps it in.
func (s *Server) handleReloadKeywords(c echo.Context) error {
	if s.config.KeywordsPath == "" {
		return echo.NewHTTPError(http.StatusConflict, "no keyword file configured")
	}

	report, err := s.store.Reload(s.config.KeywordsPath, s.logger)
	if err != nil {
		s.logger.Warn("keyword reload rejected", zap.Error(err))
		status := http.StatusUnprocessableEntity
		if errors.Is(report.Err, keywords.ErrUnsupportedFormat) {
			status = http.StatusConflict
		}
		return echo.NewHTTPError(status, err.Error())
	}

	s.logger.Info("keyword registry reloaded", zap.Int("keywords", report.Loaded))
	return c.JSON(http.StatusOK, ReloadResponse{Keywords: report.Loaded})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
