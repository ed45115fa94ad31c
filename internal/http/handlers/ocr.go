package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"ticketscan/backend/internal/ticketparser/core"
)

type scanRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
}

type extractRequest struct {
	Text string `json:"text" validate:"required"`
}

// ScanTicket handles POST /api/ocr: OCR the uploaded ticket and extract its fields.
func (h *Handler) ScanTicket(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)

	in, err := h.readImage(w, r)
	if err != nil {
		if !h.scanner.ImageOptional() {
			logger.Warn("action", "action", "scan_ticket", "status", "bad_request", "error", err)
			writeError(w, statusForError(err), err.Error())
			return
		}
		in = core.ScanInput{}
	}

	result, err := h.scanner.Scan(r.Context(), in)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("action", "action", "scan_ticket", "status", "upstream_error", "error", err)
		} else {
			logger.Warn("action", "action", "scan_ticket", "status", "bad_request", "error", err)
		}
		writeError(w, status, err.Error())
		return
	}

	logger.Info("action", "action", "scan_ticket", "status", "success",
		"scan_id", result.ID,
		"image_bytes", len(in.Image),
		"text_length", len(result.RawText),
		"fields_found", !result.Fields.Empty(),
	)
	writeJSON(w, http.StatusOK, scanResponse{OK: true, ScanResult: result})
}

// ExtractText handles POST /api/extract: extract fields from text the client already has.
func (h *Handler) ExtractText(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes())
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result := h.scanner.ExtractText(req.Text)
	logger.Info("action", "action", "extract_text", "status", "success", "text_length", len(req.Text), "fields_found", !result.Fields.Empty())
	writeJSON(w, http.StatusOK, scanResponse{OK: true, ScanResult: result})
}

// readImage accepts the image as multipart field "image" or as JSON {"image_base64": ...},
// with or without a data: URI prefix.
func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) (core.ScanInput, error) {
	limit := h.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var in core.ScanInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(limit); err != nil {
			return in, uploadError(err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return in, core.ErrNoImage
			}
			return in, uploadError(err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return in, uploadError(err)
		}
		in.Image = data
		in.FileName = header.Filename
	} else {
		var req scanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return in, uploadError(err)
		}
		if err := h.validator.Struct(req); err != nil {
			return in, core.ErrNoImage
		}
		data, err := base64.StdEncoding.DecodeString(stripDataURI(req.ImageBase64))
		if err != nil {
			return in, &core.InvalidImageError{Reason: "image_base64 is not valid base64"}
		}
		in.Image = data
	}

	if len(in.Image) == 0 {
		return in, core.ErrNoImage
	}
	mt := mimetype.Detect(in.Image)
	if !strings.HasPrefix(mt.String(), "image/") {
		return in, &core.InvalidImageError{ContentType: mt.String(), Reason: "not an image"}
	}
	in.ContentType = mt.String()
	if in.FileName == "" {
		in.FileName = "ticket" + mt.Extension()
	}
	return in, nil
}

func (h *Handler) maxUploadBytes() int64 {
	if h.cfg.MaxUploadBytes > 0 {
		return h.cfg.MaxUploadBytes
	}
	return 10 << 20
}

func stripDataURI(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ","); ok {
			return payload
		}
	}
	return s
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &core.InvalidImageError{Reason: fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)}
	}
	return &core.InvalidImageError{Reason: "malformed upload: " + err.Error()}
}

func statusForError(err error) int {
	var invalid *core.InvalidImageError
	var upstream *core.UpstreamError
	switch {
	case errors.Is(err, core.ErrNoImage), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrStoreDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
