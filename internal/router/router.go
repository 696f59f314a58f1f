package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chaschni/orderbot/internal/config"
	"github.com/chaschni/orderbot/internal/handler"
	mw "github.com/chaschni/orderbot/internal/middleware"
	"github.com/chaschni/orderbot/internal/ws"
)

// New creates a Chi router with all application routes wired up: the
// Telegram webhook, the dashboard API, and the live order feed.
func New(cfg *config.Config, webhook *handler.WebhookHandler, dashboard *handler.DashboardHandler, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS only matters for the dashboard; the webhook is server-to-server.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Telegram webhook (the bot token in the path is the secret)
	webhook.RegisterRoutes(r)

	// Dashboard login (public)
	dashboard.RegisterPublicRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.DashboardSecret, w, r)
	})

	// Protected dashboard routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.DashboardSecret))
		dashboard.RegisterProtectedRoutes(r)
	})

	return r
}
