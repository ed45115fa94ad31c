package handlers

import (
	"net/http"
	"os"
	"path/filepath"
)

// Index serves the upload page from STATIC_DIR.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.cfg.StaticDir, "index.html")
	if _, err := os.Stat(path); err != nil {
		h.loggerForRequest(r).Warn("action", "action", "index", "status", "missing", "path", path)
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
