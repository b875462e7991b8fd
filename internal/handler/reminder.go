package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"hydromate/internal/httputil"
	"hydromate/internal/model"
	"hydromate/internal/repository"
	"hydromate/internal/scheduler"
	"hydromate/internal/transport/http/middleware"
)

type ReminderHandler struct {
	registry *scheduler.Registry
	remote   *scheduler.Remote
	configs  repository.ReminderConfigRepository
}

func NewReminderHandler(registry *scheduler.Registry, remote *scheduler.Remote, configs repository.ReminderConfigRepository) *ReminderHandler {
	return &ReminderHandler{
		registry: registry,
		remote:   remote,
		configs:  configs,
	}
}

// Poll handles POST /reminders/poll
// Externally triggered remote-scheduler run (cron collaborator). Idempotent
// per invocation: the dedup timestamps make an immediate second call a no-op.
func (h *ReminderHandler) Poll(w http.ResponseWriter, r *http.Request) {
	sent, err := h.remote.Poll(r.Context())
	if err != nil {
		log.Printf("[ERROR] Reminder poll: err=%v", err)
		httputil.WriteJSON(w, http.StatusInternalServerError, model.PollResponse{Success: false, Sent: 0})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.PollResponse{Success: true, Sent: sent})
}

// Preflight handles OPTIONS /reminders/poll
// Cross-origin preflight: 200 with no body.
func (h *ReminderHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Start handles POST /reminders/start
// Arms the caller's local scheduler and persists the active state.
func (h *ReminderHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.StartReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.IntervalMinutes == 0 {
		req.IntervalMinutes = model.DefaultIntervalMinutes
	}

	err := h.registry.StartFor(r.Context(), userID, req.IntervalMinutes, req.Target)
	if errors.Is(err, model.ErrInvalidInterval) {
		httputil.WriteBadRequest(w, "interval_minutes must be positive")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Start reminders: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to start reminders")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Reminders started",
	})
}

// Stop handles POST /reminders/stop
// Disarms the caller's scheduler. A tick already dispatched stays
// resolvable; only future ticks stop.
func (h *ReminderHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.registry.StopFor(r.Context(), userID); err != nil {
		log.Printf("[ERROR] Stop reminders: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to stop reminders")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Reminders stopped",
	})
}

// State handles GET /reminders/state
func (h *ReminderHandler) State(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	st, err := h.registry.StateFor(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Get scheduler state: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get reminder state")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, st)
}

// UpdateSettings handles PUT /reminders/settings
// Updates the SMS channel config. Fields left out of the body keep their
// current values; last_sent_at is never touched from here.
func (h *ReminderHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.UpdateReminderSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.IntervalMinutes != nil && *req.IntervalMinutes <= 0 {
		httputil.WriteBadRequest(w, "interval_minutes must be positive")
		return
	}

	cfg, err := h.configs.GetByUserID(r.Context(), userID)
	if errors.Is(err, model.ErrRecordNotFound) {
		cfg = &model.ReminderConfig{
			UserID:          userID,
			IntervalMinutes: model.DefaultIntervalMinutes,
		}
	} else if err != nil {
		log.Printf("[ERROR] Get reminder config: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get reminder settings")
		return
	}

	if req.PhoneNumber != nil {
		cfg.PhoneNumber = req.PhoneNumber
	}
	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}
	if req.IntervalMinutes != nil {
		cfg.IntervalMinutes = *req.IntervalMinutes
	}

	if err := h.configs.Save(r.Context(), cfg); err != nil {
		log.Printf("[ERROR] Save reminder config: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to save reminder settings")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, cfg)
}
