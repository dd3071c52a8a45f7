package repository

import (
	"context"
	"fmt"

	"rafflehouse/database"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"
)

// InstantWinPrizeRepository implements access to the instant-win prize pool
type InstantWinPrizeRepository struct {
	q Queryable
}

// NewInstantWinPrizeRepository creates a prize repository on the pool
func NewInstantWinPrizeRepository(db *database.DB) interfaces.InstantWinPrizeRepository {
	return &InstantWinPrizeRepository{q: db.Pool}
}

func newInstantWinPrizeRepository(q Queryable) *InstantWinPrizeRepository {
	return &InstantWinPrizeRepository{q: q}
}

// CreateBatch inserts prizes in a single statement and fills their IDs
func (r *InstantWinPrizeRepository) CreateBatch(ctx context.Context, prizes []*entities.InstantWinPrize) error {
	if len(prizes) == 0 {
		return nil
	}

	query := `INSERT INTO instant_win_prizes (competition_id, name, value, total, remaining) VALUES `
	values := make([]any, 0, len(prizes)*5)
	for i, p := range prizes {
		if i > 0 {
			query += ", "
		}
		o := i * 5
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", o+1, o+2, o+3, o+4, o+5)
		values = append(values, p.CompetitionID, p.Name, p.Value, p.Total, p.Remaining)
	}
	query += " RETURNING id"

	rows, err := r.q.Query(ctx, query, values...)
	if err != nil {
		return fmt.Errorf("failed to create instant win prizes: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if err := rows.Scan(&prizes[i].ID); err != nil {
			return fmt.Errorf("failed to scan prize id: %w", err)
		}
		i++
	}
	return rows.Err()
}

// ListByCompetition returns the competition's prizes ordered by id
func (r *InstantWinPrizeRepository) ListByCompetition(ctx context.Context, competitionID string) ([]*entities.InstantWinPrize, error) {
	query := `
		SELECT id, competition_id, name, value, total, remaining
		FROM instant_win_prizes
		WHERE competition_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes for competition %s: %w", competitionID, err)
	}
	defer rows.Close()

	var prizes []*entities.InstantWinPrize
	for rows.Next() {
		var p entities.InstantWinPrize
		if err := rows.Scan(&p.ID, &p.CompetitionID, &p.Name, &p.Value, &p.Total, &p.Remaining); err != nil {
			return nil, fmt.Errorf("failed to scan prize: %w", err)
		}
		prizes = append(prizes, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prizes: %w", err)
	}
	return prizes, nil
}

// ReplaceForCompetition swaps the whole pool
func (r *InstantWinPrizeRepository) ReplaceForCompetition(ctx context.Context, competitionID string, prizes []*entities.InstantWinPrize) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM instant_win_prizes WHERE competition_id = $1`, competitionID); err != nil {
		return fmt.Errorf("failed to clear prizes for competition %s: %w", competitionID, err)
	}
	return r.CreateBatch(ctx, prizes)
}

// ClaimOne takes one unit of a prize if any remain
func (r *InstantWinPrizeRepository) ClaimOne(ctx context.Context, prizeID int64) (bool, error) {
	query := `
		UPDATE instant_win_prizes
		SET remaining = remaining - 1
		WHERE id = $1 AND remaining > 0
	`

	result, err := r.q.Exec(ctx, query, prizeID)
	if err != nil {
		return false, fmt.Errorf("failed to claim prize %d: %w", prizeID, err)
	}
	return result.RowsAffected() == 1, nil
}
