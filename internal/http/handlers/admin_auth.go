package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"ticketscan/backend/internal/auth"
)

type adminAuthRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthAdmin exchanges the operator login for an access token to the scan history.
func (h *Handler) AuthAdmin(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req adminAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("action", "action", "auth_admin", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := h.validator.Struct(req); err != nil {
		logger.Warn("action", "action", "auth_admin", "status", "invalid_credentials")
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}
	cfg := h.cfg.Auth
	if cfg.JWTSecret == "" || cfg.AdminLogin == "" || (cfg.AdminPassword == "" && cfg.AdminPassHash == "") {
		logger.Warn("action", "action", "auth_admin", "status", "disabled")
		writeError(w, http.StatusUnauthorized, "admin login disabled")
		return
	}
	if req.Username != cfg.AdminLogin || !auth.CheckPassword(cfg.AdminPassHash, cfg.AdminPassword, req.Password) {
		logger.Warn("action", "action", "auth_admin", "status", "invalid_credentials")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.SignAccessToken(cfg.JWTSecret, req.Username, cfg.TokenTTL)
	if err != nil {
		logger.Error("action", "action", "auth_admin", "status", "token_error", "error", err)
		writeError(w, http.StatusInternalServerError, "token error")
		return
	}
	logger.Info("action", "action", "auth_admin", "status", "success", "login", req.Username)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":          true,
		"accessToken": token,
	})
}
