package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"ticketscan/backend/internal/config"
	"ticketscan/backend/internal/http/middleware"
	"ticketscan/backend/internal/ticketparser/core"
)

// ScanRepository is the scan history store. A nil repository disables the history endpoints.
type ScanRepository interface {
	GetScan(ctx context.Context, id string) (*core.ScanResult, error)
	ListScans(ctx context.Context, limit int) ([]core.ScanResult, error)
	DeleteScan(ctx context.Context, id string) error
}

type Handler struct {
	scanner   *core.Scanner
	scans     ScanRepository
	cfg       *config.Config
	logger    *slog.Logger
	validator *validator.Validate
}

func New(scanner *core.Scanner, scans ScanRepository, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Handler{
		scanner:   scanner,
		scans:     scans,
		cfg:       cfg,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func (h *Handler) loggerForRequest(r *http.Request) *slog.Logger {
	logger := h.logger
	if logger == nil {
		return slog.Default()
	}
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if login, ok := middleware.LoginFromContext(r.Context()); ok {
		logger = logger.With("login", login)
	}
	return logger
}
