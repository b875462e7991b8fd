package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hydromate/internal/handler"
	"hydromate/internal/httputil"
	authmw "hydromate/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	IntakeHandler   *handler.IntakeHandler
	ReminderHandler *handler.ReminderHandler
	DeviceHandler   *handler.DeviceHandler
	JWTSecret       string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Poll trigger - invoked by an external cron, no auth. Idempotent per
	// invocation; the dedup timestamps bound what any caller can make it do.
	r.Post("/reminders/poll", cfg.ReminderHandler.Poll)
	r.Options("/reminders/poll", cfg.ReminderHandler.Preflight)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Route("/intake", func(r chi.Router) {
			r.Get("/today", cfg.IntakeHandler.Today)
			r.Put("/serving-size", cfg.IntakeHandler.UpdateServingSize)
			r.Put("/goal", cfg.IntakeHandler.UpdateGoal)
		})

		// Tick resolution: the synchronous (modal) path
		r.Post("/ticks/resolve", cfg.IntakeHandler.ResolveTick)

		// Tick resolution: the asynchronous (notification action) path
		r.Post("/notifications/callback", cfg.IntakeHandler.NotificationCallback)

		r.Route("/reminders", func(r chi.Router) {
			r.Post("/start", cfg.ReminderHandler.Start)
			r.Post("/stop", cfg.ReminderHandler.Stop)
			r.Get("/state", cfg.ReminderHandler.State)
			r.Put("/settings", cfg.ReminderHandler.UpdateSettings)
		})

		r.Post("/devices/token", cfg.DeviceHandler.RegisterToken)
		r.Delete("/devices/token", cfg.DeviceHandler.RemoveToken)
	})

	return r
}
