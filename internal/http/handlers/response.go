package handlers

import (
	"encoding/json"
	"net/http"

	"ticketscan/backend/internal/ticketparser/core"
)

// scanResponse is the success body of the scan endpoints.
type scanResponse struct {
	OK bool `json:"ok"`
	*core.ScanResult
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes {"ok":false,"error":message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "error": message})
}
