package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/netutil"

	"ticketscan/backend/internal/config"
	"ticketscan/backend/internal/db"
	"ticketscan/backend/internal/http/handlers"
	"ticketscan/backend/internal/http/middleware"
	"ticketscan/backend/internal/integrations"
	"ticketscan/backend/internal/logging"
	"ticketscan/backend/internal/rate"
	"ticketscan/backend/internal/repository"
	"ticketscan/backend/internal/ticketparser"
	"ticketscan/backend/internal/ticketparser/core"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging, "api")
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	slog.SetDefault(logger)

	ctx := context.Background()

	var (
		store core.ScanStore
		scans handlers.ScanRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("db error", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Error("migrate error", "error", err)
			os.Exit(1)
		}
		repo := repository.New(pool)
		store, scans = repo, repo
	} else {
		logger.Warn("scan_history_disabled", "reason", "DATABASE_URL not set")
	}

	var archive core.ImageArchive
	if cfg.S3.Bucket != "" {
		s3Client, err := integrations.NewS3(ctx, cfg.S3)
		if err != nil {
			logger.Error("s3 error", "error", err)
			os.Exit(1)
		}
		archive = s3Client
	}

	scanner, closeOCR, err := ticketparser.NewScanner(cfg, logger, archive, store)
	if err != nil {
		logger.Error("scanner error", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = closeOCR()
	}()

	h := handlers.New(scanner, scans, cfg, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(h, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		logger.Error("listen error", "error", err)
		os.Exit(1)
	}
	if cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConns)
	}

	go func() {
		logger.Info("api_listening", "addr", cfg.HTTPAddr, "ocr_backend", cfg.OCR.Backend, "max_conns", cfg.MaxConns)
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutdown", "service", "api")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
}

func newRouter(h *handlers.Handler, cfg *config.Config, logger *slog.Logger) http.Handler {
	requestTimeout := cfg.OCR.Timeout + 10*time.Second
	if requestTimeout < 15*time.Second {
		requestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(corsMiddleware)

	r.Get("/", h.Index)
	r.Get("/health", h.Health)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(rate.NewWindowLimiter(cfg.ScanRateLimit, time.Minute), logger))
		r.Post("/api/ocr", h.ScanTicket)
		r.Post("/api/extract", h.ExtractText)
	})

	r.Post("/api/auth/admin", h.AuthAdmin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
		r.Get("/api/scans", h.ListScans)
		r.Get("/api/scans/export.xlsx", h.ExportScans)
		r.Get("/api/scans/{id}", h.GetScan)
		r.Delete("/api/scans/{id}", h.DeleteScan)
	})
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
