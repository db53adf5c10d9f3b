package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
	"github.com/MisterBo-ops/Gestionfil/internal/store"
)

type createConseillerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (h *Handler) handleCreateConseiller(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := requireUser(w, r, models.RoleChef, models.RoleTeamLeader)
	if !ok {
		return
	}

	var req createConseillerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Username == "" || req.Password == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "Tous les champs sont requis")
		return
	}

	conseillerID, err := h.store.CreateConseiller(r.Context(), store.CreateConseillerInput{
		Username:  req.Username,
		Password:  req.Password,
		FullName:  req.FullName,
		CreatedBy: user.ID,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":       "Conseiller créé avec succès",
		"conseiller_id": conseillerID,
	})
}

func (h *Handler) handleListConseillers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireUser(w, r); !ok {
		return
	}

	conseillers, err := h.store.ListConseillers(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if conseillers == nil {
		conseillers = []models.User{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conseillers": conseillers})
}

type updateConseillerRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// handleConseillerActions routes /api/users/conseiller/{id} and
// /api/users/conseiller/{id}/toggle.
func (h *Handler) handleConseillerActions(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, models.RoleChef, models.RoleTeamLeader)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/users/conseiller/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	conseillerID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "toggle" && r.Method == http.MethodPatch:
		isActive, err := h.store.ToggleConseiller(r.Context(), user.ID, conseillerID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		message := "Conseiller désactivé"
		if isActive {
			message = "Conseiller activé"
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":   message,
			"is_active": isActive,
		})
	case len(parts) == 1 && r.Method == http.MethodPatch:
		var req updateConseillerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Requête invalide")
			return
		}
		err := h.store.UpdateConseiller(r.Context(), user.ID, store.UpdateConseillerInput{
			ConseillerID: conseillerID,
			Username:     strings.TrimSpace(req.Username),
			FullName:     strings.TrimSpace(req.FullName),
			Password:     req.Password,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Conseiller modifié avec succès"})
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := h.store.DeleteConseiller(r.Context(), user.ID, conseillerID); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Conseiller supprimé avec succès"})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
