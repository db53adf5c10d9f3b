package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/MisterBo-ops/Gestionfil/internal/store"
)

type Handler struct {
	store store.Store
}

func NewHandler(store store.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/logout", h.handleLogout)
	mux.HandleFunc("/api/auth/me", h.handleMe)
	mux.HandleFunc("/api/users/conseiller", h.handleCreateConseiller)
	mux.HandleFunc("/api/users/conseillers", h.handleListConseillers)
	mux.HandleFunc("/api/users/conseiller/", h.handleConseillerActions)
	mux.HandleFunc("/api/clients", h.handleRegisterClient)
	mux.HandleFunc("/api/clients/queue", h.handleQueue)
	mux.HandleFunc("/api/clients/current", h.handleCurrentClient)
	mux.HandleFunc("/api/clients/", h.handleClientActions)
	mux.HandleFunc("/api/dashboard/agents", h.handleDashboardAgents)
	mux.HandleFunc("/api/dashboard/stats", h.handleDashboardStats)
	mux.HandleFunc("/api/reports", h.handleReports)
	mux.HandleFunc("/api/statistics/charts", h.handleChartStats)
	mux.HandleFunc("/api/statistics/advanced", h.handleAdvancedStats)
	mux.HandleFunc("/api/breaks/start", h.handleStartBreak)
	mux.HandleFunc("/api/breaks/end", h.handleEndBreak)
	mux.HandleFunc("/api/breaks/history", h.handleBreakHistory)
	mux.HandleFunc("/api/tickets/", h.handleTicket)
	mux.HandleFunc("/api/activity", h.handleActivity)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Identifiants invalides"
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusUnauthorized, "Session invalide"
	case errors.Is(err, store.ErrUserNotFound):
		return http.StatusNotFound, "Conseiller non trouvé"
	case errors.Is(err, store.ErrDuplicateUsername):
		return http.StatusBadRequest, "Ce nom d'utilisateur existe déjà"
	case errors.Is(err, store.ErrNothingToUpdate):
		return http.StatusBadRequest, "Aucune modification fournie"
	case errors.Is(err, store.ErrClientNotFound):
		return http.StatusNotFound, "Client non trouvé ou déjà pris en charge"
	case errors.Is(err, store.ErrAdvisorUnavailable):
		return http.StatusForbidden, "Vous devez terminer avec votre client actuel avant d'en appeler un autre"
	case errors.Is(err, store.ErrAdvisorServing):
		return http.StatusBadRequest, "Impossible de supprimer: le conseiller a un client en cours"
	case errors.Is(err, store.ErrClientInService):
		return http.StatusBadRequest, "Impossible de prendre une pause avec un client en service"
	case errors.Is(err, store.ErrBreakOpen):
		return http.StatusBadRequest, "Une pause est déjà en cours"
	case errors.Is(err, store.ErrNoOpenBreak):
		return http.StatusBadRequest, "Aucune pause en cours"
	default:
		return http.StatusInternalServerError, "Erreur serveur"
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	status, message := mapError(err)
	if status == http.StatusInternalServerError {
		log.Printf("store error: %v", err)
	}
	writeError(w, status, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
