package models

import "time"

const (
	RoleChef       = "chef"
	RoleTeamLeader = "team_leader"
	RoleConseiller = "conseiller"
)

const (
	StatusWaiting   = "waiting"
	StatusInService = "in_service"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	TypeHVCOr     = "HVC_OR"
	TypeHVCArgent = "HVC_ARGENT"
	TypeHVCBronze = "HVC_BRONZE"
	TypeNonHVC    = "NON_HVC"
)

type User struct {
	ID                    int64      `json:"id"`
	Username              string     `json:"username"`
	FullName              string     `json:"full_name"`
	Role                  string     `json:"role"`
	IsActive              bool       `json:"is_active"`
	IsAvailable           bool       `json:"is_available"`
	OnBreak               bool       `json:"on_break"`
	BreakStartTime        *time.Time `json:"break_start_time,omitempty"`
	TotalBreakTimeMinutes int        `json:"total_break_time_minutes"`
	CreatedAt             time.Time  `json:"created_at"`
}

type Client struct {
	ID                    int64      `json:"id"`
	Nom                   string     `json:"nom"`
	Prenom                string     `json:"prenom"`
	NumeroMTN             string     `json:"numero_mtn"`
	SecondContact         string     `json:"second_contact,omitempty"`
	RaisonVisite          string     `json:"raison_visite"`
	TypeClient            string     `json:"type_client"`
	Priority              int        `json:"priority"`
	Status                string     `json:"status"`
	ArrivalTime           time.Time  `json:"arrival_time"`
	ServedBy              *int64     `json:"served_by,omitempty"`
	ServiceStartTime      *time.Time `json:"service_start_time,omitempty"`
	ServiceEndTime        *time.Time `json:"service_end_time,omitempty"`
	WaitingTimeMinutes    *int       `json:"waiting_time_minutes,omitempty"`
	ServiceTimeMinutes    *int       `json:"service_time_minutes,omitempty"`
	TotalTimeMinutes      *int       `json:"total_time_minutes,omitempty"`
	TicketNumber          string     `json:"ticket_number"`
	QRCode                string     `json:"qr_code"`
	RegisteredBy          *int64     `json:"registered_by,omitempty"`
	RegisteredByName      string     `json:"registered_by_name,omitempty"`
	CurrentWaitingMinutes int        `json:"current_waiting_minutes,omitempty"`
	CurrentServiceMinutes int        `json:"current_service_minutes,omitempty"`
}

type Break struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	BreakStart      time.Time  `json:"break_start"`
	BreakEnd        *time.Time `json:"break_end,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Reason          string     `json:"reason,omitempty"`
}

type ActivityEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Action    string    `json:"action"`
	ClientID  *int64    `json:"client_id,omitempty"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
