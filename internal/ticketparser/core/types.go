package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ticketscan/backend/internal/ticketparser/extract"
)

// NoTextPlaceholder stands in for the raw text when the OCR backend returns nothing.
const NoTextPlaceholder = "[No OCR result - Vision client not available]"

// FieldRecord is the extraction result. Absent fields are nil and encode as JSON null.
type FieldRecord struct {
	EventDate *extract.Date `json:"event_date"`
	Venue     *string       `json:"venue"`
	Title     *string       `json:"title"`
}

// Empty reports whether no field was found.
func (r FieldRecord) Empty() bool {
	return r.EventDate == nil && r.Venue == nil && r.Title == nil
}

// ExtractFields runs the date, venue and title extractors of e over the same text.
func ExtractFields(e *extract.Extractor, text string) FieldRecord {
	return FieldRecord{
		EventDate: e.EventDate(text),
		Venue:     e.Venue(text),
		Title:     e.Title(text),
	}
}

// ScanResult is a completed scan: the fields plus the raw text they came from.
type ScanResult struct {
	ID             string      `json:"id"`
	RawText        string      `json:"raw_text"`
	Fields         FieldRecord `json:"fields"`
	ImageURL       string      `json:"image_url,omitempty"`
	CatalogVersion string      `json:"catalog_version"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ScanInput is one ticket photo.
type ScanInput struct {
	Image       []byte
	ContentType string
	FileName    string
}

// Transcriber turns an image into text. Implementations may block on the network.
type Transcriber interface {
	Transcribe(ctx context.Context, image []byte, hints []string) (string, error)
}

// ImageArchive stores the original photo and returns its public URL.
type ImageArchive interface {
	UploadObject(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (string, error)
}

// ScanStore persists scan results.
type ScanStore interface {
	InsertScan(ctx context.Context, scan ScanResult) error
}

var (
	// ErrNoImage is returned when a scan is requested without an image.
	ErrNoImage = errors.New("no image provided")
	// ErrStoreDisabled is returned by history lookups when no database is configured.
	ErrStoreDisabled = errors.New("scan history is not configured")
)

// InvalidImageError represents an upload that is not a usable image.
type InvalidImageError struct {
	ContentType string
	Reason      string
}

// Error handles internal error behavior.
func (e *InvalidImageError) Error() string {
	if e == nil {
		return "invalid image"
	}
	if e.ContentType != "" {
		return fmt.Sprintf("invalid image (%s): %s", e.ContentType, e.Reason)
	}
	return fmt.Sprintf("invalid image: %s", e.Reason)
}

// UpstreamError represents a failure to obtain the raw text.
type UpstreamError struct {
	Stage string
	Err   error
}

// Error handles internal error behavior.
func (e *UpstreamError) Error() string {
	if e == nil {
		return "upstream failure"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Stage)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
