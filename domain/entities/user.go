package entities

import (
	"time"
)

// User is an account known to the platform. Identity is owned by the external provider.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Balance   int64     `db:"balance" json:"balance"` // pence
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Identity is what the identity provider tells us about the caller
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// UserEntry summarises a user's tickets in one competition
type UserEntry struct {
	CompetitionID     string            `db:"competition_id" json:"competition_id"`
	CompetitionTitle  string            `db:"competition_title" json:"competition_title"`
	CompetitionStatus CompetitionStatus `db:"competition_status" json:"competition_status"`
	EndDate           time.Time         `db:"end_date" json:"end_date"`
	TicketCount       int               `db:"ticket_count" json:"ticket_count"`
}

// Entrant is a user together with their ticket numbers in one competition
type Entrant struct {
	User          *User    `json:"user"`
	TicketNumbers []string `json:"tickets"`
}

// Analytics holds platform-wide totals for the admin dashboard
type Analytics struct {
	TotalUsers         int64 `json:"total_users"`
	TotalCompetitions  int64 `json:"total_competitions"`
	ActiveCompetitions int64 `json:"active_competitions"`
	CompletedOrders    int64 `json:"total_orders"`
	TotalTickets       int64 `json:"total_tickets"`
	TotalRevenue       int64 `json:"total_revenue"`
	TotalWinners       int64 `json:"total_winners"`
}
