package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
	"github.com/MisterBo-ops/Gestionfil/internal/store"
)

type registerClientRequest struct {
	Nom           string `json:"nom"`
	Prenom        string `json:"prenom"`
	NumeroMTN     string `json:"numero_mtn"`
	SecondContact string `json:"second_contact"`
	RaisonVisite  string `json:"raison_visite"`
	TypeClient    string `json:"type_client"`
}

func validClientType(typeClient string) bool {
	switch typeClient {
	case models.TypeHVCOr, models.TypeHVCArgent, models.TypeHVCBronze, models.TypeNonHVC:
		return true
	}
	return false
}

func (h *Handler) handleRegisterClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req registerClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	req.Nom = strings.TrimSpace(req.Nom)
	req.Prenom = strings.TrimSpace(req.Prenom)
	req.NumeroMTN = strings.TrimSpace(req.NumeroMTN)
	req.RaisonVisite = strings.TrimSpace(req.RaisonVisite)
	req.TypeClient = strings.TrimSpace(req.TypeClient)

	if req.Nom == "" || req.Prenom == "" || req.NumeroMTN == "" || req.RaisonVisite == "" || req.TypeClient == "" {
		writeError(w, http.StatusBadRequest, "Tous les champs obligatoires doivent être remplis")
		return
	}
	if !validClientType(req.TypeClient) {
		writeError(w, http.StatusBadRequest, "Type de client invalide")
		return
	}

	result, err := h.store.RegisterClient(r.Context(), store.RegisterClientInput{
		Nom:           req.Nom,
		Prenom:        req.Prenom,
		NumeroMTN:     req.NumeroMTN,
		SecondContact: strings.TrimSpace(req.SecondContact),
		RaisonVisite:  req.RaisonVisite,
		TypeClient:    req.TypeClient,
		RegisteredBy:  user.ID,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":       "Client enregistré avec succès",
		"client_id":     result.ClientID,
		"priority":      result.Priority,
		"ticket_number": result.TicketNumber,
		"qr_code":       result.QRCode,
	})
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireUser(w, r); !ok {
		return
	}

	queue, err := h.store.ListQueue(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if queue == nil {
		queue = []models.Client{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"queue": queue})
}

func (h *Handler) handleCurrentClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := requireUser(w, r, models.RoleConseiller)
	if !ok {
		return
	}

	client, found, err := h.store.CurrentClient(r.Context(), user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]interface{}{"client": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"client": client})
}

// handleClientActions routes POST /api/clients/{id}/call and
// POST /api/clients/{id}/complete.
func (h *Handler) handleClientActions(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, models.RoleConseiller)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/clients/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	clientID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}

	switch parts[1] {
	case "call":
		client, err := h.store.CallClient(r.Context(), user.ID, clientID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":              "Client appelé",
			"client":               client,
			"waiting_time_minutes": client.WaitingTimeMinutes,
		})
	case "complete":
		client, err := h.store.CompleteClient(r.Context(), user.ID, clientID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":              "Service terminé",
			"service_time_minutes": client.ServiceTimeMinutes,
			"total_time_minutes":   client.TotalTimeMinutes,
		})
	default:
		http.NotFound(w, r)
	}
}

// handleTicket serves GET /api/tickets/{clientId}, used by the printed
// ticket view. Any authenticated user can look up a ticket.
func (h *Handler) handleTicket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireUser(w, r); !ok {
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tickets/"), "/")
	clientID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identifiant invalide")
		return
	}

	client, err := h.store.GetTicket(r.Context(), clientID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ticket": client})
}
