package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"hydromate/internal/httputil"
	"hydromate/internal/model"
	"hydromate/internal/queue"
	"hydromate/internal/service"
	"hydromate/internal/transport/http/middleware"
)

type IntakeHandler struct {
	intake    *service.IntakeService
	router    *service.ActionRouter
	publisher queue.Publisher
}

func NewIntakeHandler(intake *service.IntakeService, router *service.ActionRouter, publisher queue.Publisher) *IntakeHandler {
	return &IntakeHandler{
		intake:    intake,
		router:    router,
		publisher: publisher,
	}
}

// Today handles GET /intake/today
// Reads the current day's counter, creating it lazily on day rollover.
func (h *IntakeHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	rec, err := h.intake.Today(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Get today's intake: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get intake record")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rec)
}

// UpdateServingSize handles PUT /intake/serving-size
// Changes the default serving going forward; the counter is untouched.
func (h *IntakeHandler) UpdateServingSize(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.UpdateServingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	rec, err := h.intake.UpdateServingSize(r.Context(), userID, req.ServingML)
	if errors.Is(err, model.ErrInvalidAmount) {
		httputil.WriteBadRequest(w, "serving_ml must be positive")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Update serving size: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to update serving size")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rec)
}

// UpdateGoal handles PUT /intake/goal
func (h *IntakeHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.UpdateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	rec, err := h.intake.UpdateGoal(r.Context(), userID, req.GoalML)
	if errors.Is(err, model.ErrInvalidAmount) {
		httputil.WriteBadRequest(w, "goal_ml must be positive")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Update goal: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to update goal")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rec)
}

// ResolveTick handles POST /ticks/resolve
// The synchronous path: the foreground modal's yes/no button. Resolves the
// tick immediately and returns the updated counter.
func (h *IntakeHandler) ResolveTick(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.router.Resolve(r.Context(), userID, req.TickID, req.Decision, req.ServingML)
	if errors.Is(err, model.ErrInvalidDecision) || errors.Is(err, model.ErrInvalidAmount) {
		httputil.WriteBadRequest(w, "Invalid tick resolution")
		return
	}
	if err != nil {
		log.Printf("[ERROR] Resolve tick: user=%d tick=%s err=%v", userID, req.TickID, err)
		httputil.WriteInternalError(w, "Failed to resolve tick")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// NotificationCallback handles POST /notifications/callback
// The asynchronous path: an OS notification action button, possibly firing
// long after the tick was dispatched. The decision is queued and the worker
// applies it; a duplicate of a modal resolution dedups inside the router.
func (h *IntakeHandler) NotificationCallback(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.TickID == "" || (req.Decision != model.DecisionYes && req.Decision != model.DecisionNo) {
		httputil.WriteBadRequest(w, "tick_id and a yes/no decision are required")
		return
	}

	event := queue.NewResolutionEvent(userID, req.TickID, req.Decision, req.ServingML)
	if _, err := h.publisher.Publish(r.Context(), queue.StreamResolutions, event); err != nil {
		log.Printf("[ERROR] Queue resolution: user=%d tick=%s err=%v", userID, req.TickID, err)
		httputil.WriteInternalError(w, "Failed to queue resolution")
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "Resolution queued",
	})
}
