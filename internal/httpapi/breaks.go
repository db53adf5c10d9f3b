package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
)

type startBreakRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleStartBreak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := requireUser(w, r, models.RoleConseiller)
	if !ok {
		return
	}

	var req startBreakRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	breakStart, err := h.store.StartBreak(r.Context(), user.ID, strings.TrimSpace(req.Reason))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Pause commencée",
		"break_start": breakStart,
	})
}

func (h *Handler) handleEndBreak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := requireUser(w, r, models.RoleConseiller)
	if !ok {
		return
	}

	duration, err := h.store.EndBreak(r.Context(), user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"message":          "Pause terminée",
		"duration_minutes": duration,
	})
}

// handleBreakHistory serves a conseiller's own breaks. Chefs and team
// leaders can look up any conseiller via ?user_id=.
func (h *Handler) handleBreakHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	targetID := user.ID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Identifiant invalide")
			return
		}
		if user.Role == models.RoleConseiller && parsed != user.ID {
			writeError(w, http.StatusForbidden, "Accès refusé")
			return
		}
		targetID = parsed
	}

	breaks, err := h.store.ListBreaks(r.Context(), targetID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if breaks == nil {
		breaks = []models.Break{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"breaks":  breaks,
	})
}
