package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
	"github.com/MisterBo-ops/Gestionfil/internal/store"
)

type authContextKey struct{}

type authInfo struct {
	User  models.User
	Token string
}

func AuthMiddleware(s store.Store, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicEndpoint(r) {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Non autorisé")
			return
		}
		user, err := s.GetSession(r.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				writeError(w, http.StatusUnauthorized, "Session invalide")
				return
			}
			writeError(w, http.StatusInternalServerError, "Erreur serveur")
			return
		}
		ctx := context.WithValue(r.Context(), authContextKey{}, authInfo{User: user, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isPublicEndpoint(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	if r.URL.Path == "/healthz" {
		return true
	}
	return r.URL.Path == "/api/auth/login" && r.Method == http.MethodPost
}

func authFromContext(ctx context.Context) (authInfo, bool) {
	value := ctx.Value(authContextKey{})
	if value == nil {
		return authInfo{}, false
	}
	info, ok := value.(authInfo)
	return info, ok
}

// requireUser returns the authenticated user, constrained to the given
// roles when any are passed.
func requireUser(w http.ResponseWriter, r *http.Request, roles ...string) (models.User, bool) {
	info, ok := authFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Non autorisé")
		return models.User{}, false
	}
	if len(roles) == 0 {
		return info.User, true
	}
	for _, role := range roles {
		if info.User.Role == role {
			return info.User, true
		}
	}
	writeError(w, http.StatusForbidden, "Accès refusé")
	return models.User{}, false
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Nom d'utilisateur et mot de passe requis")
		return
	}

	result, err := h.store.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": result.Token,
		"user": map[string]interface{}{
			"id":           result.User.ID,
			"username":     result.User.Username,
			"full_name":    result.User.FullName,
			"role":         result.User.Role,
			"is_available": result.User.IsAvailable,
		},
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	info, ok := authFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Non autorisé")
		return
	}
	if err := h.store.Logout(r.Context(), info.Token); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Déconnexion réussie"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
