package entities

import (
	"time"
)

// CompetitionStatus is the lifecycle state of a competition
type CompetitionStatus string

const (
	CompetitionStatusActive    CompetitionStatus = "active"
	CompetitionStatusEnded     CompetitionStatus = "ended"
	CompetitionStatusSoldOut   CompetitionStatus = "sold_out"
	CompetitionStatusCancelled CompetitionStatus = "cancelled"
)

// IsValid reports whether s is a known status
func (s CompetitionStatus) IsValid() bool {
	switch s {
	case CompetitionStatusActive, CompetitionStatusEnded, CompetitionStatusSoldOut, CompetitionStatusCancelled:
		return true
	}
	return false
}

// DefaultMaxTicketsPerUser applies when a competition is created without a cap
const DefaultMaxTicketsPerUser = 10

// Competition is a raffle with a fixed ticket supply and a single grand-prize draw
type Competition struct {
	ID                string            `db:"id" json:"id"`
	Title             string            `db:"title" json:"title"`
	Description       string            `db:"description" json:"description"`
	PrizeType         string            `db:"prize_type" json:"prize_type"`
	PrizeValue        int64             `db:"prize_value" json:"prize_value"`
	PrizeImageURL     string            `db:"prize_image_url" json:"prize_image_url"`
	TicketPrice       int64             `db:"ticket_price" json:"ticket_price"` // pence
	TotalTickets      int               `db:"total_tickets" json:"total_tickets"`
	SoldTickets       int               `db:"sold_tickets" json:"sold_tickets"`
	MaxTicketsPerUser int               `db:"max_tickets_per_user" json:"max_tickets_per_user"`
	EndDate           time.Time         `db:"end_date" json:"end_date"`
	Status            CompetitionStatus `db:"status" json:"status"`
	IsInstantWin      bool              `db:"is_instant_win" json:"is_instant_win"`
	LiveStreamURL     string            `db:"live_stream_url" json:"live_stream_url"`
	WinnerID          *string           `db:"winner_id" json:"winner_id"` // NULL until drawn
	DrawDate          *time.Time        `db:"draw_date" json:"draw_date"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`

	// Loaded separately; empty unless the caller asked for prizes
	InstantWinPrizes []*InstantWinPrize `db:"-" json:"instant_win_prizes,omitempty"`
}

// RemainingTickets returns how many tickets can still be sold
func (c *Competition) RemainingTickets() int {
	remaining := c.TotalTickets - c.SoldTickets
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsActive returns true if tickets may be sold
func (c *Competition) IsActive() bool {
	return c.Status == CompetitionStatusActive
}

// HasWinner returns true once the grand prize has been drawn
func (c *Competition) HasWinner() bool {
	return c.WinnerID != nil
}

// IsExpired returns true if the end date has passed
func (c *Competition) IsExpired(now time.Time) bool {
	return !c.EndDate.After(now)
}

// TotalPrice returns the price of count tickets
func (c *Competition) TotalPrice(count int) int64 {
	return c.TicketPrice * int64(count)
}

// InstantWinPrize is one entry of a competition's instant-win pool
type InstantWinPrize struct {
	ID            int64  `db:"id" json:"id"`
	CompetitionID string `db:"competition_id" json:"competition_id"`
	Name          string `db:"name" json:"name"`
	Value         int64  `db:"value" json:"value"`
	Total         int    `db:"total" json:"total"`
	Remaining     int    `db:"remaining" json:"remaining"`
}

// IsExhausted returns true when no more of this prize can be awarded
func (p *InstantWinPrize) IsExhausted() bool {
	return p.Remaining <= 0
}

// CompetitionSort names a listing order
type CompetitionSort string

const (
	SortNewest     CompetitionSort = "newest"
	SortEndingSoon CompetitionSort = "ending_soon"
	SortPriceLow   CompetitionSort = "price_low"
	SortPriceHigh  CompetitionSort = "price_high"
	SortPrizeValue CompetitionSort = "prize_value"
)

// CompetitionFilter narrows a competition listing
type CompetitionFilter struct {
	Status     *CompetitionStatus
	PrizeType  string
	InstantWin *bool
	Sort       CompetitionSort
	Limit      int
	Offset     int
}
