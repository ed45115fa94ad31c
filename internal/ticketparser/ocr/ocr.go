// Package ocr turns ticket images into text for the field extractor.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ticketscan/backend/internal/config"
	"ticketscan/backend/internal/ticketparser/core"
)

const cachePingTimeout = 3 * time.Second

// Cleanup releases connections held by the transcriber chain.
type Cleanup func() error

// New builds the transcriber chain selected by cfg.Backend. Remote and CPU-bound backends are
// wrapped in a rate limiter and, when REDIS_URL is set, a result cache. An unreachable
// Redis fails construction.
func New(cfg config.OCRConfig, logger *slog.Logger) (core.Transcriber, Cleanup, error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }

	var base core.Transcriber
	switch cfg.Backend {
	case config.OCRBackendFake:
		return NewFileTranscriber(cfg.FakeTextFile), noop, nil
	case config.OCRBackendNone:
		logger.Warn("ocr_backend_disabled")
		return NoopTranscriber{}, noop, nil
	case config.OCRBackendTesseract, "":
		base = NewTesseractTranscriber(TesseractConfig{
			Binary:      cfg.TesseractBin,
			TessdataDir: cfg.TessdataDir,
			Format:      cfg.TesseractFormat,
			Timeout:     cfg.Timeout,
		}, logger)
	case config.OCRBackendOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, nil, fmt.Errorf("ocr: OPENAI_API_KEY is required for the openai backend")
		}
		base = NewOpenAITranscriber(OpenAIConfig{
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.Timeout,
			Retries: 2,
		}, logger)
	default:
		return nil, nil, fmt.Errorf("ocr: unknown backend %q", cfg.Backend)
	}

	chain := core.Transcriber(base)
	if cfg.RateRPS > 0 {
		chain = NewRateLimited(chain, cfg.RateRPS, cfg.RateBurst)
	}
	cleanup := Cleanup(noop)
	if cfg.RedisURL != "" {
		cache, err := NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("ocr cache: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), cachePingTimeout)
		err = cache.Ping(ctx)
		cancel()
		if err != nil {
			_ = cache.Close()
			return nil, nil, fmt.Errorf("ocr cache ping: %w", err)
		}
		backend := cfg.Backend
		if backend == "" {
			backend = config.OCRBackendTesseract
		}
		chain = NewCached(chain, cache, backend, logger)
		cleanup = cache.Close
	}
	logger.Info("ocr_backend_ready", "backend", cfg.Backend, "rate_rps", cfg.RateRPS, "cache", cfg.RedisURL != "")
	return chain, cleanup, nil
}
