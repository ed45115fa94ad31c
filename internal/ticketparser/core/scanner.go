package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticketscan/backend/internal/ticketparser/extract"
)

// previewLines is how much raw OCR text goes into debug logs.
const previewLines = 12

// ScannerConfig wires a Scanner. Transcriber is required; Archive and Store are optional.
type ScannerConfig struct {
	Transcriber Transcriber
	Extractor   *extract.Extractor
	Archive     ImageArchive
	Store       ScanStore
	Hints       []string
	// ImageOptional lets scans run without an image, for text sources that ignore it.
	ImageOptional bool
	Logger        *slog.Logger
	Now           func() time.Time
	NewID         func() string
}

// Scanner runs one ticket photo through OCR and field extraction.
type Scanner struct {
	transcriber   Transcriber
	extractor     *extract.Extractor
	archive       ImageArchive
	store         ScanStore
	hints         []string
	imageOptional bool
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string
}

// NewScanner creates scanner.
func NewScanner(cfg ScannerConfig) *Scanner {
	if cfg.Extractor == nil {
		cfg.Extractor = extract.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}
	return &Scanner{
		transcriber:   cfg.Transcriber,
		extractor:     cfg.Extractor,
		archive:       cfg.Archive,
		store:         cfg.Store,
		hints:         append([]string(nil), cfg.Hints...),
		imageOptional: cfg.ImageOptional,
		logger:        cfg.Logger,
		now:           cfg.Now,
		newID:         cfg.NewID,
	}
}

// ImageOptional reports whether Scan accepts an empty image.
func (s *Scanner) ImageOptional() bool {
	return s.imageOptional
}

// Extractor returns the compiled catalog the scanner extracts with.
func (s *Scanner) Extractor() *extract.Extractor {
	return s.extractor
}

// Scan transcribes the image and extracts the ticket fields. Archive and store failures are
// logged and do not fail the scan; OCR failures are returned as *UpstreamError.
func (s *Scanner) Scan(ctx context.Context, in ScanInput) (*ScanResult, error) {
	if s == nil {
		return nil, errors.New("scanner is nil")
	}
	if len(in.Image) == 0 && !s.imageOptional {
		return nil, ErrNoImage
	}
	if s.transcriber == nil {
		return nil, &UpstreamError{Stage: "ocr", Err: errors.New("no transcriber configured")}
	}

	start := s.now()
	raw, err := s.transcriber.Transcribe(ctx, in.Image, s.hints)
	if err != nil {
		return nil, &UpstreamError{Stage: "ocr", Err: err}
	}
	if strings.TrimSpace(raw) == "" {
		raw = NoTextPlaceholder
	}
	s.logger.Debug("ocr_text",
		"length", len(raw),
		"duration_ms", s.now().Sub(start).Milliseconds(),
		"preview", extract.Preview(raw, previewLines),
	)

	result := s.newResult(raw)

	if s.archive != nil && len(in.Image) > 0 {
		name := result.ID + strings.ToLower(path.Ext(in.FileName))
		url, err := s.archive.UploadObject(ctx, name, in.ContentType, bytes.NewReader(in.Image), int64(len(in.Image)))
		if err != nil {
			s.logger.Warn("scan_archive_failed", "scan_id", result.ID, "error", err)
		} else {
			result.ImageURL = url
		}
	}
	if s.store != nil {
		if err := s.store.InsertScan(ctx, *result); err != nil {
			s.logger.Warn("scan_store_failed", "scan_id", result.ID, "error", err)
		}
	}
	return result, nil
}

// ExtractText runs field extraction on text that did not come from OCR. Nothing is stored.
func (s *Scanner) ExtractText(text string) *ScanResult {
	return s.newResult(text)
}

func (s *Scanner) newResult(raw string) *ScanResult {
	fields := ExtractFields(s.extractor, raw)
	result := &ScanResult{
		ID:             s.newID(),
		RawText:        raw,
		Fields:         fields,
		CatalogVersion: s.extractor.Version(),
		CreatedAt:      s.now().UTC(),
	}
	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		s.logger.Debug("dates_found", "scan_id", result.ID, "candidates", candidateStrings(s.extractor.CollectDates(raw)))
	}
	s.logger.Debug("fields_extracted",
		"scan_id", result.ID,
		"event_date", fieldString(fields.EventDate),
		"venue", derefString(fields.Venue),
		"title", derefString(fields.Title),
	)
	return result
}

func candidateStrings(candidates []extract.CandidateDate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Date.String())
	}
	return out
}

func fieldString(d *extract.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
