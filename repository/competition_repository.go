package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rafflehouse/database"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const competitionColumns = `
	id, title, description, prize_type, prize_value, prize_image_url, ticket_price,
	total_tickets, sold_tickets, max_tickets_per_user, end_date, status, is_instant_win,
	live_stream_url, winner_id, draw_date, created_at, updated_at`

var competitionOrderBy = map[entities.CompetitionSort]string{
	entities.SortNewest:     "created_at DESC, id",
	entities.SortEndingSoon: "end_date ASC, id",
	entities.SortPriceLow:   "ticket_price ASC, id",
	entities.SortPriceHigh:  "ticket_price DESC, id",
	entities.SortPrizeValue: "prize_value DESC, end_date, id",
}

// CompetitionRepository implements competition data access
type CompetitionRepository struct {
	q Queryable
}

// NewCompetitionRepository creates a competition repository on the pool
func NewCompetitionRepository(db *database.DB) interfaces.CompetitionRepository {
	return &CompetitionRepository{q: db.Pool}
}

func newCompetitionRepository(q Queryable) *CompetitionRepository {
	return &CompetitionRepository{q: q}
}

func scanCompetition(row pgx.Row) (*entities.Competition, error) {
	var c entities.Competition
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.PrizeType,
		&c.PrizeValue,
		&c.PrizeImageURL,
		&c.TicketPrice,
		&c.TotalTickets,
		&c.SoldTickets,
		&c.MaxTicketsPerUser,
		&c.EndDate,
		&c.Status,
		&c.IsInstantWin,
		&c.LiveStreamURL,
		&c.WinnerID,
		&c.DrawDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCompetitions(rows pgx.Rows) ([]*entities.Competition, error) {
	defer rows.Close()

	var competitions []*entities.Competition
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan competition: %w", err)
		}
		competitions = append(competitions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate competitions: %w", err)
	}
	return competitions, nil
}

// Create inserts a competition
func (r *CompetitionRepository) Create(ctx context.Context, c *entities.Competition) error {
	query := `
		INSERT INTO competitions (
			id, title, description, prize_type, prize_value, prize_image_url, ticket_price,
			total_tickets, sold_tickets, max_tickets_per_user, end_date, status, is_instant_win, live_stream_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		c.ID, c.Title, c.Description, c.PrizeType, c.PrizeValue, c.PrizeImageURL, c.TicketPrice,
		c.TotalTickets, c.SoldTickets, c.MaxTicketsPerUser, c.EndDate, c.Status, c.IsInstantWin, c.LiveStreamURL,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create competition %s: %w", c.ID, err)
	}
	return nil
}

// GetByID retrieves a competition, nil if it does not exist
func (r *CompetitionRepository) GetByID(ctx context.Context, id string) (*entities.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1`

	c, err := scanCompetition(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competition %s: %w", id, err)
	}
	return c, nil
}

// GetByIDForUpdate retrieves a competition and locks its row
func (r *CompetitionRepository) GetByIDForUpdate(ctx context.Context, id string) (*entities.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1 FOR UPDATE`

	c, err := scanCompetition(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competition %s for update: %w", id, err)
	}
	return c, nil
}

// List returns competitions matching the filter
func (r *CompetitionRepository) List(ctx context.Context, filter entities.CompetitionFilter) ([]*entities.Competition, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PrizeType != "" {
		args = append(args, filter.PrizeType)
		conditions = append(conditions, fmt.Sprintf("prize_type = $%d", len(args)))
	}
	if filter.InstantWin != nil {
		args = append(args, *filter.InstantWin)
		conditions = append(conditions, fmt.Sprintf("is_instant_win = $%d", len(args)))
	}

	query := `SELECT ` + competitionColumns + ` FROM competitions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy, ok := competitionOrderBy[filter.Sort]
	if !ok {
		orderBy = competitionOrderBy[entities.SortNewest]
	}
	query += " ORDER BY " + orderBy

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	return collectCompetitions(rows)
}

// Update persists the mutable fields of a competition
func (r *CompetitionRepository) Update(ctx context.Context, c *entities.Competition) error {
	query := `
		UPDATE competitions
		SET title = $2, description = $3, prize_type = $4, prize_value = $5, prize_image_url = $6,
		    ticket_price = $7, total_tickets = $8, max_tickets_per_user = $9, end_date = $10,
		    status = $11, is_instant_win = $12, live_stream_url = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING sold_tickets, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		c.ID, c.Title, c.Description, c.PrizeType, c.PrizeValue, c.PrizeImageURL,
		c.TicketPrice, c.TotalTickets, c.MaxTicketsPerUser, c.EndDate,
		c.Status, c.IsInstantWin, c.LiveStreamURL,
	).Scan(&c.SoldTickets, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("competition %s not found", c.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update competition %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes a competition with no orders
func (r *CompetitionRepository) Delete(ctx context.Context, id string) (bool, error) {
	query := `
		DELETE FROM competitions
		WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM orders WHERE competition_id = $1)
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete competition %s: %w", id, err)
	}
	return result.RowsAffected() > 0, nil
}

// SetStatus changes the competition status
func (r *CompetitionRepository) SetStatus(ctx context.Context, id string, status entities.CompetitionStatus) error {
	query := `UPDATE competitions SET status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.q.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to set status of competition %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("competition %s not found", id)
	}
	return nil
}

// ReserveTickets claims count tickets of supply in one conditional update. The bound
// check and the increment happen in the same statement, so concurrent callers can never
// push sold_tickets past total_tickets.
func (r *CompetitionRepository) ReserveTickets(ctx context.Context, id string, count int) (*entities.Competition, error) {
	query := `
		UPDATE competitions
		SET sold_tickets = sold_tickets + $2,
		    status = CASE WHEN sold_tickets + $2 >= total_tickets THEN 'sold_out' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
		  AND status = 'active'
		  AND winner_id IS NULL
		  AND sold_tickets + $2 <= total_tickets
		RETURNING ` + competitionColumns

	c, err := scanCompetition(r.q.QueryRow(ctx, query, id, count))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reserve %d tickets for competition %s: %w", count, id, err)
	}
	return c, nil
}

// RecordWinner stores the drawn winner and ends the competition
func (r *CompetitionRepository) RecordWinner(ctx context.Context, id, winnerID string, drawDate time.Time) error {
	query := `
		UPDATE competitions
		SET winner_id = $2, draw_date = $3, status = 'ended', updated_at = NOW()
		WHERE id = $1 AND winner_id IS NULL
	`

	result, err := r.q.Exec(ctx, query, id, winnerID, drawDate)
	if err != nil {
		return fmt.Errorf("failed to record winner for competition %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("competition %s already has a winner", id)
	}
	return nil
}

// CloseExpired ends active competitions at or past their end date
func (r *CompetitionRepository) CloseExpired(ctx context.Context, now time.Time) ([]*entities.Competition, error) {
	query := `
		UPDATE competitions
		SET status = 'ended', updated_at = NOW()
		WHERE status = 'active' AND end_date <= $1
		RETURNING ` + competitionColumns

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to close expired competitions: %w", err)
	}
	return collectCompetitions(rows)
}
