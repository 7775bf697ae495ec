// Package server exposes the mapping engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Veraticus/invoice-mapper/internal/model"
)

// DefaultMaxUploadBytes caps multipart uploads.
const DefaultMaxUploadBytes int64 = 32 << 20

// Service is the engine surface the HTTP adapter drives.
type Service interface {
	InitializeCustomer(ctx context.Context, customerID string, items []string) error
	ProcessDocument(ctx context.Context, customerID string, doc model.Document) (model.Resolution, error)
	ApplyDecision(ctx context.Context, customerID, invoiceItem string, resolved *string) error
	Decide(ctx context.Context, customerID string, item model.MappedItem, decision model.Decision) (model.ReviewState, error)
	Mappings(ctx context.Context, customerID string) (model.MappingMemory, error)
	ReferenceList(ctx context.Context, customerID string) (model.ReferenceList, error)
}

// Config holds HTTP adapter settings.
type Config struct {
	Addr           string
	AllowedOrigins []string
	MaxUploadBytes int64
}

// Server is the HTTP adapter.
type Server struct {
	svc    Service
	logger *slog.Logger
	cfg    Config
}

// New creates a server for svc.
func New(svc Service, cfg Config, logger *slog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, cfg: cfg, logger: logger}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", s.handleHealth)
	r.Post("/upload-list", s.handleUploadList)
	r.Post("/process-invoice", s.handleProcessInvoice)
	r.Post("/confirm-mapping", s.handleConfirmMapping)
	r.Post("/review-decision", s.handleReviewDecision)
	r.Route("/customers/{customerID}", func(r chi.Router) {
		r.Get("/mappings", s.handleGetMappings)
		r.Get("/list", s.handleGetList)
	})

	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
