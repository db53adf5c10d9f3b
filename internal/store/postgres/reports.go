package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
	"github.com/MisterBo-ops/Gestionfil/internal/store"
)

func (s *Store) DashboardAgents(ctx context.Context) ([]store.AgentStatus, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.full_name, u.role, u.is_available,
		       sess.login_time,
		       c.id, c.nom || ' ' || c.prenom
		FROM users u
		JOIN LATERAL (
			SELECT login_time FROM sessions
			WHERE user_id = u.id AND is_active = TRUE
			ORDER BY login_time DESC
			LIMIT 1
		) sess ON TRUE
		LEFT JOIN clients c ON c.served_by = u.id AND c.status = $1
		WHERE u.is_active = TRUE
		ORDER BY u.role, u.full_name
	`, models.StatusInService)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []store.AgentStatus
	for rows.Next() {
		var agent store.AgentStatus
		var clientID sql.NullInt64
		var clientName sql.NullString
		if err := rows.Scan(&agent.ID, &agent.FullName, &agent.Role, &agent.IsAvailable, &agent.LoginTime, &clientID, &clientName); err != nil {
			return nil, err
		}
		agent.CurrentClientID = nullInt64Ptr(clientID)
		agent.CurrentClientName = nullStringOr(clientName)
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return agents, nil
}

func (s *Store) DashboardStats(ctx context.Context) (store.DashboardStats, error) {
	var stats store.DashboardStats
	row := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM clients WHERE status = 'waiting'),
			(SELECT COUNT(*) FROM clients WHERE status = 'in_service'),
			(SELECT COUNT(*) FROM clients WHERE status = 'completed' AND service_end_time >= date_trunc('day', NOW())),
			(SELECT COUNT(*) FROM users WHERE role = 'conseiller' AND is_active = TRUE AND is_available = TRUE AND on_break = FALSE),
			(SELECT COALESCE(ROUND(AVG(waiting_time_minutes)), 0)::int FROM clients
			 WHERE status = 'completed' AND service_end_time >= date_trunc('day', NOW()))
	`)
	if err := row.Scan(&stats.Waiting, &stats.InService, &stats.CompletedToday, &stats.AvailableConseillers, &stats.AvgWaitingTime); err != nil {
		return store.DashboardStats{}, err
	}
	return stats, nil
}

func (s *Store) Report(ctx context.Context, from time.Time) (store.Report, error) {
	var report store.Report

	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(ROUND(AVG(waiting_time_minutes)), 0)::int,
		       COALESCE(ROUND(AVG(service_time_minutes)), 0)::int,
		       COALESCE(ROUND(AVG(total_time_minutes)), 0)::int
		FROM clients
		WHERE status = 'completed' AND arrival_time >= $1
	`, from)
	if err := row.Scan(&report.TotalClients, &report.AvgTimes.Waiting, &report.AvgTimes.Service, &report.AvgTimes.Total); err != nil {
		return store.Report{}, err
	}

	conseillerRows, err := s.pool.Query(ctx, `
		SELECT u.full_name, COUNT(c.id),
		       COALESCE(ROUND(AVG(c.service_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(c.waiting_time_minutes), 1), 0)
		FROM clients c
		JOIN users u ON u.id = c.served_by
		WHERE c.status = 'completed' AND c.arrival_time >= $1
		GROUP BY u.full_name
		ORDER BY COUNT(c.id) DESC
	`, from)
	if err != nil {
		return store.Report{}, err
	}
	defer conseillerRows.Close()
	for conseillerRows.Next() {
		var r store.ConseillerReportRow
		if err := conseillerRows.Scan(&r.FullName, &r.ClientsServed, &r.AvgServiceTime, &r.AvgWaitingTime); err != nil {
			return store.Report{}, err
		}
		report.ByConseiller = append(report.ByConseiller, r)
	}
	if err := conseillerRows.Err(); err != nil {
		return store.Report{}, err
	}

	typeRows, err := s.pool.Query(ctx, `
		SELECT type_client, COUNT(*),
		       COALESCE(ROUND(AVG(waiting_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(service_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(total_time_minutes), 1), 0)
		FROM clients
		WHERE status = 'completed' AND arrival_time >= $1
		GROUP BY type_client
		ORDER BY COUNT(*) DESC
	`, from)
	if err != nil {
		return store.Report{}, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var r store.TypeReportRow
		if err := typeRows.Scan(&r.TypeClient, &r.Count, &r.AvgWaiting, &r.AvgService, &r.AvgTotalTime); err != nil {
			return store.Report{}, err
		}
		report.ByType = append(report.ByType, r)
	}
	if err := typeRows.Err(); err != nil {
		return store.Report{}, err
	}

	return report, nil
}

func (s *Store) ChartStats(ctx context.Context, from time.Time) (store.ChartStats, error) {
	var stats store.ChartStats

	hourRows, err := s.pool.Query(ctx, `
		SELECT EXTRACT(HOUR FROM arrival_time)::int, COUNT(*)
		FROM clients
		WHERE arrival_time >= $1
		GROUP BY 1
		ORDER BY 1
	`, from)
	if err != nil {
		return store.ChartStats{}, err
	}
	defer hourRows.Close()
	for hourRows.Next() {
		var r store.HourCount
		if err := hourRows.Scan(&r.Hour, &r.Count); err != nil {
			return store.ChartStats{}, err
		}
		stats.ByHour = append(stats.ByHour, r)
	}
	if err := hourRows.Err(); err != nil {
		return store.ChartStats{}, err
	}

	perfRows, err := s.pool.Query(ctx, `
		SELECT u.full_name, COUNT(c.id),
		       COALESCE(ROUND(AVG(c.service_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(c.waiting_time_minutes), 1), 0)
		FROM clients c
		JOIN users u ON u.id = c.served_by
		WHERE c.status = 'completed' AND c.arrival_time >= $1
		GROUP BY u.full_name
		ORDER BY COUNT(c.id) DESC
	`, from)
	if err != nil {
		return store.ChartStats{}, err
	}
	defer perfRows.Close()
	for perfRows.Next() {
		var r store.ConseillerReportRow
		if err := perfRows.Scan(&r.FullName, &r.ClientsServed, &r.AvgServiceTime, &r.AvgWaitingTime); err != nil {
			return store.ChartStats{}, err
		}
		stats.ConseillerPerformance = append(stats.ConseillerPerformance, r)
	}
	if err := perfRows.Err(); err != nil {
		return store.ChartStats{}, err
	}

	typeRows, err := s.pool.Query(ctx, `
		SELECT type_client, COUNT(*)
		FROM clients
		WHERE arrival_time >= $1
		GROUP BY type_client
		ORDER BY COUNT(*) DESC
	`, from)
	if err != nil {
		return store.ChartStats{}, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var r store.TypeCount
		if err := typeRows.Scan(&r.TypeClient, &r.Count); err != nil {
			return store.ChartStats{}, err
		}
		stats.ByClientType = append(stats.ByClientType, r)
	}
	if err := typeRows.Err(); err != nil {
		return store.ChartStats{}, err
	}

	trendRows, err := s.pool.Query(ctx, `
		SELECT to_char(arrival_time, 'YYYY-MM-DD'),
		       COALESCE(ROUND(AVG(waiting_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(service_time_minutes), 1), 0),
		       COUNT(*)
		FROM clients
		WHERE status = 'completed' AND arrival_time >= $1
		GROUP BY 1
		ORDER BY 1
	`, from)
	if err != nil {
		return store.ChartStats{}, err
	}
	defer trendRows.Close()
	for trendRows.Next() {
		var r store.DayTrendRow
		if err := trendRows.Scan(&r.Date, &r.AvgWaiting, &r.AvgService, &r.Count); err != nil {
			return store.ChartStats{}, err
		}
		stats.WaitingTrend = append(stats.WaitingTrend, r)
	}
	if err := trendRows.Err(); err != nil {
		return store.ChartStats{}, err
	}

	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(ROUND(AVG(waiting_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(service_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(total_time_minutes), 1), 0),
		       COALESCE(MAX(waiting_time_minutes), 0),
		       COALESCE(MIN(waiting_time_minutes), 0)
		FROM clients
		WHERE status = 'completed' AND arrival_time >= $1
	`, from)
	if err := row.Scan(&stats.GlobalStats.TotalClients, &stats.GlobalStats.AvgWaiting, &stats.GlobalStats.AvgService, &stats.GlobalStats.AvgTotal, &stats.GlobalStats.MaxWaiting, &stats.GlobalStats.MinWaiting); err != nil {
		return store.ChartStats{}, err
	}

	return stats, nil
}

// advancedWhere builds the shared filter clause. Every value rides in as
// a bind parameter, including the list filters, which go through = ANY.
func advancedWhere(filter store.AdvancedFilter, column string) (string, []interface{}) {
	clauses := []string{"c.status = 'completed'"}
	args := []interface{}{filter.From, filter.To}
	clauses = append(clauses, fmt.Sprintf("%s >= $1", column), fmt.Sprintf("%s < $2", column))
	if len(filter.Conseillers) > 0 {
		args = append(args, filter.Conseillers)
		clauses = append(clauses, fmt.Sprintf("c.served_by = ANY($%d)", len(args)))
	}
	if len(filter.ClientTypes) > 0 {
		args = append(args, filter.ClientTypes)
		clauses = append(clauses, fmt.Sprintf("c.type_client = ANY($%d)", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func (s *Store) AdvancedStats(ctx context.Context, filter store.AdvancedFilter) (store.AdvancedStats, error) {
	var stats store.AdvancedStats
	where, args := advancedWhere(filter, "c.created_at")

	dayRows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT to_char(c.created_at, 'YYYY-MM-DD'), COUNT(*),
		       COALESCE(ROUND(AVG(c.waiting_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(c.service_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(c.total_time_minutes), 1), 0),
		       COALESCE(MIN(c.waiting_time_minutes), 0),
		       COALESCE(MAX(c.waiting_time_minutes), 0),
		       COALESCE(MIN(c.service_time_minutes), 0),
		       COALESCE(MAX(c.service_time_minutes), 0)
		FROM clients c
		WHERE %s
		GROUP BY 1
		ORDER BY 1
	`, where), args...)
	if err != nil {
		return store.AdvancedStats{}, err
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var r store.DayStatsRow
		if err := dayRows.Scan(&r.Date, &r.TotalClients, &r.AvgWaiting, &r.AvgService, &r.AvgTotal, &r.MinWaiting, &r.MaxWaiting, &r.MinService, &r.MaxService); err != nil {
			return store.AdvancedStats{}, err
		}
		stats.StatsByDay = append(stats.StatsByDay, r)
	}
	if err := dayRows.Err(); err != nil {
		return store.AdvancedStats{}, err
	}

	typeRows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT c.type_client, COUNT(*),
		       COALESCE(ROUND(AVG(c.waiting_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(c.service_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(c.total_time_minutes), 1), 0)
		FROM clients c
		WHERE %s
		GROUP BY c.type_client
		ORDER BY COUNT(*) DESC
	`, where), args...)
	if err != nil {
		return store.AdvancedStats{}, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var r store.TypeReportRow
		if err := typeRows.Scan(&r.TypeClient, &r.Count, &r.AvgWaiting, &r.AvgService, &r.AvgTotalTime); err != nil {
			return store.AdvancedStats{}, err
		}
		stats.ByClientType = append(stats.ByClientType, r)
	}
	if err := typeRows.Err(); err != nil {
		return store.AdvancedStats{}, err
	}

	detailRows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT u.id, u.full_name, COUNT(c.id),
		       COALESCE(ROUND(AVG(c.waiting_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(c.service_time_minutes), 1), 0),
		       COALESCE(ROUND(AVG(c.total_time_minutes), 1), 0),
		       COALESCE(MIN(c.service_time_minutes), 0),
		       COALESCE(MAX(c.service_time_minutes), 0),
		       u.total_break_time_minutes,
		       COALESCE(SUM(CASE WHEN c.type_client = 'HVC_OR' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN c.type_client = 'HVC_ARGENT' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN c.type_client = 'HVC_BRONZE' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN c.type_client = 'NON_HVC' THEN 1 ELSE 0 END), 0)
		FROM clients c
		JOIN users u ON u.id = c.served_by
		WHERE %s
		GROUP BY u.id, u.full_name, u.total_break_time_minutes
		ORDER BY COUNT(c.id) DESC
	`, where), args...)
	if err != nil {
		return store.AdvancedStats{}, err
	}
	defer detailRows.Close()
	for detailRows.Next() {
		var r store.ConseillerDetailRow
		if err := detailRows.Scan(&r.ID, &r.FullName, &r.TotalClients, &r.AvgWaiting, &r.AvgService, &r.AvgTotal, &r.MinService, &r.MaxService, &r.TotalBreakTimeMinutes, &r.VIPCount, &r.ArgentCount, &r.BronzeCount, &r.NonHVCCount); err != nil {
			return store.AdvancedStats{}, err
		}
		stats.ConseillerDetailed = append(stats.ConseillerDetailed, r)
	}
	if err := detailRows.Err(); err != nil {
		return store.AdvancedStats{}, err
	}

	breakArgs := []interface{}{filter.From, filter.To}
	breakWhere := "b.break_start >= $1 AND b.break_start < $2 AND b.duration_minutes IS NOT NULL"
	if len(filter.Conseillers) > 0 {
		breakArgs = append(breakArgs, filter.Conseillers)
		breakWhere += fmt.Sprintf(" AND b.user_id = ANY($%d)", len(breakArgs))
	}
	breakRows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT b.user_id, COUNT(*),
		       COALESCE(SUM(b.duration_minutes), 0),
		       COALESCE(ROUND(AVG(b.duration_minutes), 1), 0)
		FROM breaks b
		WHERE %s
		GROUP BY b.user_id
		ORDER BY SUM(b.duration_minutes) DESC
	`, breakWhere), breakArgs...)
	if err != nil {
		return store.AdvancedStats{}, err
	}
	defer breakRows.Close()
	for breakRows.Next() {
		var r store.BreakStatsRow
		if err := breakRows.Scan(&r.UserID, &r.TotalBreaks, &r.TotalBreakMins, &r.AvgBreakDuration); err != nil {
			return store.AdvancedStats{}, err
		}
		stats.BreakStats = append(stats.BreakStats, r)
	}
	if err := breakRows.Err(); err != nil {
		return store.AdvancedStats{}, err
	}

	return stats, nil
}

func (s *Store) ListActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, COALESCE(a.user_id, 0), COALESCE(u.full_name, ''), a.action, a.client_id, COALESCE(a.details, ''), a.created_at
		FROM activity_logs a
		LEFT JOIN users u ON u.id = a.user_id
		ORDER BY a.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var entry models.ActivityEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.UserName, &entry.Action, &entry.ClientID, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
