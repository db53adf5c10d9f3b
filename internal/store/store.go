package store

import (
	"context"
	"time"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
)

type LoginResult struct {
	Token string
	User  models.User
}

type CreateConseillerInput struct {
	Username  string
	Password  string
	FullName  string
	CreatedBy int64
}

type UpdateConseillerInput struct {
	ConseillerID int64
	Username     string
	FullName     string
	Password     string
}

type RegisterClientInput struct {
	Nom           string
	Prenom        string
	NumeroMTN     string
	SecondContact string
	RaisonVisite  string
	TypeClient    string
	RegisteredBy  int64
}

type RegisterClientResult struct {
	ClientID     int64  `json:"client_id"`
	Priority     int    `json:"priority"`
	TicketNumber string `json:"ticket_number"`
	QRCode       string `json:"qr_code"`
}

type AgentStatus struct {
	ID                int64     `json:"id"`
	FullName          string    `json:"full_name"`
	Role              string    `json:"role"`
	IsAvailable       bool      `json:"is_available"`
	LoginTime         time.Time `json:"login_time"`
	CurrentClientID   *int64    `json:"current_client_id,omitempty"`
	CurrentClientName string    `json:"current_client_name,omitempty"`
}

type DashboardStats struct {
	Waiting              int `json:"waiting"`
	InService            int `json:"in_service"`
	CompletedToday       int `json:"completed_today"`
	AvailableConseillers int `json:"available_conseillers"`
	AvgWaitingTime       int `json:"avg_waiting_time"`
}

type ConseillerReportRow struct {
	FullName       string  `json:"full_name"`
	ClientsServed  int     `json:"clients_served"`
	AvgServiceTime float64 `json:"avg_service_time"`
	AvgWaitingTime float64 `json:"avg_waiting_time"`
}

type TypeReportRow struct {
	TypeClient   string  `json:"type_client"`
	Count        int     `json:"count"`
	AvgWaiting   float64 `json:"avg_waiting"`
	AvgService   float64 `json:"avg_service"`
	AvgTotalTime float64 `json:"avg_total_time"`
}

type AvgTimes struct {
	Waiting int `json:"waiting"`
	Service int `json:"service"`
	Total   int `json:"total"`
}

type Report struct {
	TotalClients int                   `json:"total_clients"`
	ByConseiller []ConseillerReportRow `json:"by_conseiller"`
	ByType       []TypeReportRow       `json:"by_type"`
	AvgTimes     AvgTimes              `json:"avg_times"`
}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type TypeCount struct {
	TypeClient string `json:"type_client"`
	Count      int    `json:"count"`
}

type DayTrendRow struct {
	Date       string  `json:"date"`
	AvgWaiting float64 `json:"avg_waiting"`
	AvgService float64 `json:"avg_service"`
	Count      int     `json:"count"`
}

type GlobalStats struct {
	TotalClients int     `json:"total_clients"`
	AvgWaiting   float64 `json:"avg_waiting"`
	AvgService   float64 `json:"avg_service"`
	AvgTotal     float64 `json:"avg_total"`
	MaxWaiting   int     `json:"max_waiting"`
	MinWaiting   int     `json:"min_waiting"`
}

type ChartStats struct {
	ByHour                []HourCount           `json:"by_hour"`
	ConseillerPerformance []ConseillerReportRow `json:"conseiller_performance"`
	ByClientType          []TypeCount           `json:"by_client_type"`
	WaitingTrend          []DayTrendRow         `json:"waiting_trend"`
	GlobalStats           GlobalStats           `json:"global_stats"`
}

type AdvancedFilter struct {
	From        time.Time
	To          time.Time
	Conseillers []int64
	ClientTypes []string
}

type DayStatsRow struct {
	Date         string  `json:"date"`
	TotalClients int     `json:"total_clients"`
	AvgWaiting   float64 `json:"avg_waiting"`
	AvgService   float64 `json:"avg_service"`
	AvgTotal     float64 `json:"avg_total"`
	MinWaiting   int     `json:"min_waiting"`
	MaxWaiting   int     `json:"max_waiting"`
	MinService   int     `json:"min_service"`
	MaxService   int     `json:"max_service"`
}

type ConseillerDetailRow struct {
	ID                    int64   `json:"id"`
	FullName              string  `json:"full_name"`
	TotalClients          int     `json:"total_clients"`
	AvgWaiting            float64 `json:"avg_waiting"`
	AvgService            float64 `json:"avg_service"`
	AvgTotal              float64 `json:"avg_total"`
	MinService            int     `json:"min_service"`
	MaxService            int     `json:"max_service"`
	TotalBreakTimeMinutes int     `json:"total_break_time_minutes"`
	VIPCount              int     `json:"vip_count"`
	ArgentCount           int     `json:"argent_count"`
	BronzeCount           int     `json:"bronze_count"`
	NonHVCCount           int     `json:"non_hvc_count"`
}

type BreakStatsRow struct {
	UserID           int64   `json:"user_id"`
	TotalBreaks      int     `json:"total_breaks"`
	TotalBreakMins   int     `json:"total_break_minutes"`
	AvgBreakDuration float64 `json:"avg_break_duration"`
}

type AdvancedStats struct {
	StatsByDay         []DayStatsRow         `json:"stats_by_day"`
	ByClientType       []TypeReportRow       `json:"by_client_type"`
	ConseillerDetailed []ConseillerDetailRow `json:"conseiller_detailed"`
	BreakStats         []BreakStatsRow       `json:"break_stats"`
}

type Store interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
	GetSession(ctx context.Context, token string) (models.User, error)
	Logout(ctx context.Context, token string) error
	ExpireSessions(ctx context.Context, maxAge time.Duration) (int, error)

	CreateConseiller(ctx context.Context, input CreateConseillerInput) (int64, error)
	ListConseillers(ctx context.Context) ([]models.User, error)
	ToggleConseiller(ctx context.Context, actorID, conseillerID int64) (bool, error)
	UpdateConseiller(ctx context.Context, actorID int64, input UpdateConseillerInput) error
	DeleteConseiller(ctx context.Context, actorID, conseillerID int64) error

	RegisterClient(ctx context.Context, input RegisterClientInput) (RegisterClientResult, error)
	ListQueue(ctx context.Context) ([]models.Client, error)
	CallClient(ctx context.Context, advisorID, clientID int64) (models.Client, error)
	CompleteClient(ctx context.Context, advisorID, clientID int64) (models.Client, error)
	CurrentClient(ctx context.Context, advisorID int64) (models.Client, bool, error)
	GetTicket(ctx context.Context, clientID int64) (models.Client, error)

	StartBreak(ctx context.Context, userID int64, reason string) (time.Time, error)
	EndBreak(ctx context.Context, userID int64) (int, error)
	ListBreaks(ctx context.Context, userID int64) ([]models.Break, error)

	DashboardAgents(ctx context.Context) ([]AgentStatus, error)
	DashboardStats(ctx context.Context) (DashboardStats, error)
	Report(ctx context.Context, from time.Time) (Report, error)
	ChartStats(ctx context.Context, from time.Time) (ChartStats, error)
	AdvancedStats(ctx context.Context, filter AdvancedFilter) (AdvancedStats, error)

	ListActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}
