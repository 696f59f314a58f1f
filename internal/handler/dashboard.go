package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/chaschni/orderbot/internal/auth"
	"github.com/chaschni/orderbot/internal/service"
)

// ReportStore defines the order queries the dashboard reads.
// Satisfied by *service.OrderService.
type ReportStore interface {
	Report(ctx context.Context) ([]service.ReportRow, error)
}

// DashboardHandler serves the operator dashboard API: login and the order
// report. The live feed is a separate WebSocket endpoint.
type DashboardHandler struct {
	store        ReportStore
	jwtSecret    string
	passwordHash string // bcrypt hash of the operator password
}

func NewDashboardHandler(store ReportStore, jwtSecret, passwordHash string) *DashboardHandler {
	return &DashboardHandler{store: store, jwtSecret: jwtSecret, passwordHash: passwordHash}
}

// RegisterPublicRoutes registers the unauthenticated endpoints.
func (h *DashboardHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/dashboard/login", h.Login)
}

// RegisterProtectedRoutes registers endpoints that sit behind the session
// token middleware.
func (h *DashboardHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/dashboard/orders", h.Orders)
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges the operator password for a session token.
func (h *DashboardHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password is required"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

// Orders returns every recorded order, newest first.
func (h *DashboardHandler) Orders(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.Report(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if rows == nil {
		rows = []service.ReportRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
