package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
	"github.com/MisterBo-ops/Gestionfil/internal/store"
)

func (h *Handler) handleDashboardAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireUser(w, r, models.RoleChef, models.RoleTeamLeader); !ok {
		return
	}

	agents, err := h.store.DashboardAgents(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if agents == nil {
		agents = []store.AgentStatus{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"agents": agents})
}

func (h *Handler) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireUser(w, r, models.RoleChef, models.RoleTeamLeader); !ok {
		return
	}

	stats, err := h.store.DashboardStats(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// periodStart maps a named reporting period to its start time. Days
// begin at server-local midnight.
func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case "year":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
}

func (h *Handler) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireUser(w, r, models.RoleChef, models.RoleTeamLeader); !ok {
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "day"
	}
	from := periodStart(period, time.Now())

	report, err := h.store.Report(r.Context(), from)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period": period,
		"report": report,
	})
}

func (h *Handler) handleChartStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireUser(w, r, models.RoleChef, models.RoleTeamLeader); !ok {
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}
	from := periodStart(period, time.Now())

	stats, err := h.store.ChartStats(r.Context(), from)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period": period,
		"charts": stats,
	})
}

// handleAdvancedStats filters on start_date/end_date (YYYY-MM-DD),
// conseillers and client_types (comma-separated). Defaults to the last
// 30 days.
func (h *Handler) handleAdvancedStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireUser(w, r, models.RoleChef, models.RoleTeamLeader); !ok {
		return
	}

	now := time.Now()
	filter := store.AdvancedFilter{
		From: now.AddDate(0, 0, -30),
		To:   now.AddDate(0, 0, 1),
	}

	query := r.URL.Query()
	startDate := query.Get("start_date")
	endDate := query.Get("end_date")
	if startDate != "" && endDate != "" {
		from, err := time.ParseInLocation("2006-01-02", startDate, now.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Date de début invalide")
			return
		}
		to, err := time.ParseInLocation("2006-01-02", endDate, now.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Date de fin invalide")
			return
		}
		filter.From = from
		filter.To = to.AddDate(0, 0, 1)
	}

	if raw := query.Get("conseillers"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Liste de conseillers invalide")
				return
			}
			filter.Conseillers = append(filter.Conseillers, id)
		}
	}
	if raw := query.Get("client_types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			typeClient := strings.TrimSpace(part)
			if !validClientType(typeClient) {
				writeError(w, http.StatusBadRequest, "Type de client invalide")
				return
			}
			filter.ClientTypes = append(filter.ClientTypes, typeClient)
		}
	}

	stats, err := h.store.AdvancedStats(r.Context(), filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireUser(w, r, models.RoleChef, models.RoleTeamLeader); !ok {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Limite invalide")
			return
		}
		if parsed > 500 {
			parsed = 500
		}
		limit = parsed
	}

	entries, err := h.store.ListActivity(r.Context(), limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if entries == nil {
		entries = []models.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activity": entries})
}
