package repository

import (
	"context"
	"errors"
	"fmt"

	"rafflehouse/database"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const winnerColumns = `
	id, competition_id, user_id, ticket_id, ticket_number, user_email, user_name,
	competition_title, prize_type, prize_value, announced_at`

// WinnerRepository implements winner data access
type WinnerRepository struct {
	q Queryable
}

// NewWinnerRepository creates a winner repository on the pool
func NewWinnerRepository(db *database.DB) interfaces.WinnerRepository {
	return &WinnerRepository{q: db.Pool}
}

func newWinnerRepository(q Queryable) *WinnerRepository {
	return &WinnerRepository{q: q}
}

func scanWinner(row pgx.Row) (*entities.Winner, error) {
	var w entities.Winner
	err := row.Scan(
		&w.ID,
		&w.CompetitionID,
		&w.UserID,
		&w.TicketID,
		&w.TicketNumber,
		&w.UserEmail,
		&w.UserName,
		&w.CompetitionTitle,
		&w.PrizeType,
		&w.PrizeValue,
		&w.AnnouncedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WinnerRepository) queryWinners(ctx context.Context, query string, args ...any) ([]*entities.Winner, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var winners []*entities.Winner
	for rows.Next() {
		w, err := scanWinner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan winner: %w", err)
		}
		winners = append(winners, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate winners: %w", err)
	}
	return winners, nil
}

// Create inserts a winner. The unique competition_id rejects a second draw.
func (r *WinnerRepository) Create(ctx context.Context, w *entities.Winner) error {
	query := `
		INSERT INTO winners (id, competition_id, user_id, ticket_id, ticket_number, user_email,
		                     user_name, competition_title, prize_type, prize_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING announced_at
	`

	err := r.q.QueryRow(ctx, query,
		w.ID, w.CompetitionID, w.UserID, w.TicketID, w.TicketNumber, w.UserEmail,
		w.UserName, w.CompetitionTitle, w.PrizeType, w.PrizeValue,
	).Scan(&w.AnnouncedAt)
	if err != nil {
		return fmt.Errorf("failed to create winner for competition %s: %w", w.CompetitionID, err)
	}
	return nil
}

// GetByCompetition returns the competition's winner, nil if not drawn
func (r *WinnerRepository) GetByCompetition(ctx context.Context, competitionID string) (*entities.Winner, error) {
	w, err := scanWinner(r.q.QueryRow(ctx,
		`SELECT `+winnerColumns+` FROM winners WHERE competition_id = $1`, competitionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get winner for competition %s: %w", competitionID, err)
	}
	return w, nil
}

// GetByUser returns the grand prizes a user has won
func (r *WinnerRepository) GetByUser(ctx context.Context, userID string) ([]*entities.Winner, error) {
	winners, err := r.queryWinners(ctx,
		`SELECT `+winnerColumns+` FROM winners WHERE user_id = $1 ORDER BY announced_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get winners for user %s: %w", userID, err)
	}
	return winners, nil
}

// List returns the most recent winners
func (r *WinnerRepository) List(ctx context.Context, limit int) ([]*entities.Winner, error) {
	winners, err := r.queryWinners(ctx,
		`SELECT `+winnerColumns+` FROM winners ORDER BY announced_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	return winners, nil
}
