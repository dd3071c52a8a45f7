package entities

import (
	"time"
)

// TicketNumberLength is the number of characters in a ticket number
const TicketNumberLength = 8

// TicketNumberAlphabet holds the characters a ticket number is drawn from
const TicketNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Ticket is one numbered entry into a competition. Tickets are never updated.
type Ticket struct {
	ID                   string    `db:"id" json:"id"`
	CompetitionID        string    `db:"competition_id" json:"competition_id"`
	UserID               string    `db:"user_id" json:"user_id"`
	OrderID              string    `db:"order_id" json:"order_id"`
	TicketNumber         string    `db:"ticket_number" json:"ticket_number"`
	IsInstantWin         bool      `db:"is_instant_win" json:"is_instant_win"`
	InstantWinPrizeID    *int64    `db:"instant_win_prize_id" json:"instant_win_prize_id,omitempty"`
	InstantWinPrizeName  *string   `db:"instant_win_prize_name" json:"instant_win_prize_name,omitempty"`
	InstantWinPrizeValue *int64    `db:"instant_win_prize_value" json:"instant_win_prize_value,omitempty"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// AwardInstantWin snapshots prize onto the ticket
func (t *Ticket) AwardInstantWin(prize *InstantWinPrize) {
	id, name, value := prize.ID, prize.Name, prize.Value
	t.IsInstantWin = true
	t.InstantWinPrizeID = &id
	t.InstantWinPrizeName = &name
	t.InstantWinPrizeValue = &value
}

// IsValidTicketNumber checks length and alphabet
func IsValidTicketNumber(number string) bool {
	if len(number) != TicketNumberLength {
		return false
	}
	for _, r := range number {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
