// Package ticketparser extracts the event date, venue and title from ticket OCR text.
package ticketparser

import (
	"fmt"
	"log/slog"

	"ticketscan/backend/internal/config"
	"ticketscan/backend/internal/ticketparser/core"
	"ticketscan/backend/internal/ticketparser/extract"
	"ticketscan/backend/internal/ticketparser/ocr"
)

// ExtractFields runs every extractor of the built-in catalog over text. It never fails: a
// field that cannot be found is nil.
func ExtractFields(text string) core.FieldRecord {
	return core.ExtractFields(extract.Default(), text)
}

// NewScanner builds a scanner from cfg. archive and store may be nil.
func NewScanner(cfg *config.Config, logger *slog.Logger, archive core.ImageArchive, store core.ScanStore) (*core.Scanner, ocr.Cleanup, error) {
	if logger == nil {
		logger = slog.Default()
	}
	extractor, err := extract.NewFromFile(cfg.CatalogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: %w", err)
	}
	transcriber, cleanup, err := ocr.New(cfg.OCR, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("catalog_loaded", "version", extractor.Version(), "file", cfg.CatalogFile)
	scanner := core.NewScanner(core.ScannerConfig{
		Transcriber:   transcriber,
		Extractor:     extractor,
		Archive:       archive,
		Store:         store,
		Hints:         cfg.OCR.LanguageHints,
		ImageOptional: cfg.OCR.Backend == config.OCRBackendFake,
		Logger:        logger,
	})
	return scanner, cleanup, nil
}
