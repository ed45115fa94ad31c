package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ticketscan/backend/internal/export"
	"ticketscan/backend/internal/repository"
	"ticketscan/backend/internal/ticketparser/core"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type scanListResponse struct {
	OK    bool              `json:"ok"`
	Items []core.ScanResult `json:"items"`
}

// ListScans handles GET /api/scans.
func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if h.scans == nil {
		writeError(w, http.StatusServiceUnavailable, core.ErrStoreDisabled.Error())
		return
	}
	limit, ok := parseLimit(w, r, 50)
	if !ok {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	items, err := h.scans.ListScans(ctx, limit)
	if err != nil {
		logger.Error("action", "action", "list_scans", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	if items == nil {
		items = []core.ScanResult{}
	}
	writeJSON(w, http.StatusOK, scanListResponse{OK: true, Items: items})
}

// GetScan handles GET /api/scans/{id}.
func (h *Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if h.scans == nil {
		writeError(w, http.StatusServiceUnavailable, core.ErrStoreDisabled.Error())
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid scan id")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	scan, err := h.scans.GetScan(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		logger.Error("action", "action", "get_scan", "status", "db_error", "scan_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, scanResponse{OK: true, ScanResult: scan})
}

// DeleteScan handles DELETE /api/scans/{id}.
func (h *Handler) DeleteScan(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if h.scans == nil {
		writeError(w, http.StatusServiceUnavailable, core.ErrStoreDisabled.Error())
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid scan id")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	err := h.scans.DeleteScan(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		logger.Error("action", "action", "delete_scan", "status", "db_error", "scan_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	logger.Info("action", "action", "delete_scan", "status", "success", "scan_id", id)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// ExportScans handles GET /api/scans/export.xlsx.
func (h *Handler) ExportScans(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if h.scans == nil {
		writeError(w, http.StatusServiceUnavailable, core.ErrStoreDisabled.Error())
		return
	}
	limit, ok := parseLimit(w, r, 1000)
	if !ok {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	items, err := h.scans.ListScans(ctx, limit)
	if err != nil {
		logger.Error("action", "action", "export_scans", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	data, err := export.ScansXLSX(items)
	if err != nil {
		logger.Error("action", "action", "export_scans", "status", "xlsx_error", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	name := "ticket-scans-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	logger.Info("action", "action", "export_scans", "status", "success", "rows", len(items))
}

func parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 || parsed > 1000 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return parsed, true
}
