package entities

import (
	"time"
)

// Winner records the grand-prize draw of a competition. At most one exists per competition.
type Winner struct {
	ID               string    `db:"id" json:"id"`
	CompetitionID    string    `db:"competition_id" json:"competition_id"`
	UserID           string    `db:"user_id" json:"user_id"`
	TicketID         string    `db:"ticket_id" json:"ticket_id"`
	TicketNumber     string    `db:"ticket_number" json:"ticket_number"`
	UserEmail        string    `db:"user_email" json:"user_email"`
	UserName         string    `db:"user_name" json:"user_name"`
	CompetitionTitle string    `db:"competition_title" json:"competition_title"`
	PrizeType        string    `db:"prize_type" json:"prize_type"`
	PrizeValue       int64     `db:"prize_value" json:"prize_value"`
	AnnouncedAt      time.Time `db:"announced_at" json:"announced_at"`
}
