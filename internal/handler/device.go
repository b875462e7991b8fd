package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"hydromate/internal/httputil"
	"hydromate/internal/model"
	"hydromate/internal/repository"
	"hydromate/internal/transport/http/middleware"
)

type DeviceHandler struct {
	tokens repository.DeviceTokenRepository
}

func NewDeviceHandler(tokens repository.DeviceTokenRepository) *DeviceHandler {
	return &DeviceHandler{tokens: tokens}
}

// RegisterToken handles POST /devices/token
// Registers a device for push reminders. Called on login and whenever the
// push token is refreshed by the mobile app.
func (h *DeviceHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "token is required")
		return
	}
	if req.Platform == "" {
		req.Platform = "expo"
	}

	if err := h.tokens.Upsert(r.Context(), userID, req.Token, req.Platform); err != nil {
		log.Printf("[ERROR] Register device token: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to register device token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Device token registered",
	})
}

// RemoveToken handles DELETE /devices/token
// Removes a device token, e.g. on logout.
func (h *DeviceHandler) RemoveToken(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Token == "" {
		httputil.WriteBadRequest(w, "token is required")
		return
	}

	if err := h.tokens.Delete(r.Context(), req.Token); err != nil {
		log.Printf("[ERROR] Remove device token: err=%v", err)
		httputil.WriteInternalError(w, "Failed to remove device token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Device token removed",
	})
}
