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

// ticketInsertChunk keeps a batch insert well under the 65535 bind parameter limit
const ticketInsertChunk = 1000

const ticketColumns = `
	id, competition_id, user_id, order_id, ticket_number, is_instant_win,
	instant_win_prize_id, instant_win_prize_name, instant_win_prize_value, created_at`

// TicketRepository implements ticket data access
type TicketRepository struct {
	q Queryable
}

// NewTicketRepository creates a ticket repository on the pool
func NewTicketRepository(db *database.DB) interfaces.TicketRepository {
	return &TicketRepository{q: db.Pool}
}

func newTicketRepository(q Queryable) *TicketRepository {
	return &TicketRepository{q: q}
}

func scanTicket(row pgx.Row) (*entities.Ticket, error) {
	var t entities.Ticket
	err := row.Scan(
		&t.ID,
		&t.CompetitionID,
		&t.UserID,
		&t.OrderID,
		&t.TicketNumber,
		&t.IsInstantWin,
		&t.InstantWinPrizeID,
		&t.InstantWinPrizeName,
		&t.InstantWinPrizeValue,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) queryTickets(ctx context.Context, query string, args ...any) ([]*entities.Ticket, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*entities.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}
	return tickets, nil
}

// CreateBatch inserts tickets in chunks. Rows whose number is already taken in the
// competition are skipped rather than failing the transaction; the caller gets back only
// the tickets that were written.
func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []*entities.Ticket) ([]*entities.Ticket, error) {
	inserted := make([]*entities.Ticket, 0, len(tickets))
	for start := 0; start < len(tickets); start += ticketInsertChunk {
		end := min(start+ticketInsertChunk, len(tickets))
		chunk, err := r.insertChunk(ctx, tickets[start:end])
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, chunk...)
	}
	return inserted, nil
}

func (r *TicketRepository) insertChunk(ctx context.Context, tickets []*entities.Ticket) ([]*entities.Ticket, error) {
	const params = 9

	query := `
		INSERT INTO tickets (id, competition_id, user_id, order_id, ticket_number, is_instant_win,
		                     instant_win_prize_id, instant_win_prize_name, instant_win_prize_value)
		VALUES `

	byID := make(map[string]*entities.Ticket, len(tickets))
	values := make([]any, 0, len(tickets)*params)
	for i, t := range tickets {
		if i > 0 {
			query += ", "
		}
		o := i * params
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			o+1, o+2, o+3, o+4, o+5, o+6, o+7, o+8, o+9)
		values = append(values, t.ID, t.CompetitionID, t.UserID, t.OrderID, t.TicketNumber,
			t.IsInstantWin, t.InstantWinPrizeID, t.InstantWinPrizeName, t.InstantWinPrizeValue)
		byID[t.ID] = t
	}
	query += `
		ON CONFLICT (competition_id, ticket_number) DO NOTHING
		RETURNING id, created_at`

	rows, err := r.q.Query(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("failed to batch create tickets: %w", err)
	}
	defer rows.Close()

	inserted := make([]*entities.Ticket, 0, len(tickets))
	for rows.Next() {
		var id string
		var ticket entities.Ticket
		if err := rows.Scan(&id, &ticket.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket result: %w", err)
		}
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("insert returned unknown ticket %s", id)
		}
		t.CreatedAt = ticket.CreatedAt
		inserted = append(inserted, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inserted tickets: %w", err)
	}
	return inserted, nil
}

// FindExistingNumbers returns which candidate numbers are already used in the competition
func (r *TicketRepository) FindExistingNumbers(ctx context.Context, competitionID string, numbers []string) ([]string, error) {
	if len(numbers) == 0 {
		return nil, nil
	}

	query := `
		SELECT ticket_number
		FROM tickets
		WHERE competition_id = $1 AND ticket_number = ANY($2)
	`

	rows, err := r.q.Query(ctx, query, competitionID, numbers)
	if err != nil {
		return nil, fmt.Errorf("failed to check ticket numbers for competition %s: %w", competitionID, err)
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan ticket number: %w", err)
		}
		existing = append(existing, n)
	}
	return existing, rows.Err()
}

// CountByCompetition returns the number of persisted tickets for a competition
func (r *TicketRepository) CountByCompetition(ctx context.Context, competitionID string) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE competition_id = $1`, competitionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets for competition %s: %w", competitionID, err)
	}
	return count, nil
}

// CountByUserForCompetition returns how many tickets the user holds in the competition
func (r *TicketRepository) CountByUserForCompetition(ctx context.Context, competitionID, userID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE competition_id = $1 AND user_id = $2`,
		competitionID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets of user %s in competition %s: %w", userID, competitionID, err)
	}
	return count, nil
}

// GetByOffset returns the ticket at a position in id order
func (r *TicketRepository) GetByOffset(ctx context.Context, competitionID string, offset int64) (*entities.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE competition_id = $1
		ORDER BY id
		OFFSET $2 LIMIT 1`

	t, err := scanTicket(r.q.QueryRow(ctx, query, competitionID, offset))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket at offset %d in competition %s: %w", offset, competitionID, err)
	}
	return t, nil
}

// GetByIDs returns tickets in the order the ids were given
func (r *TicketRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tickets, err := r.queryTickets(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets by id: %w", err)
	}

	byID := make(map[string]*entities.Ticket, len(tickets))
	for _, t := range tickets {
		byID[t.ID] = t
	}
	ordered := make([]*entities.Ticket, 0, len(tickets))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered, nil
}

// GetByCompetition returns a competition's tickets in purchase order
func (r *TicketRepository) GetByCompetition(ctx context.Context, competitionID string) ([]*entities.Ticket, error) {
	tickets, err := r.queryTickets(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE competition_id = $1 ORDER BY created_at, id`,
		competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets for competition %s: %w", competitionID, err)
	}
	return tickets, nil
}

// GetByUser returns the user's most recent tickets
func (r *TicketRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*entities.Ticket, error) {
	tickets, err := r.queryTickets(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets for user %s: %w", userID, err)
	}
	return tickets, nil
}

// GetInstantWinsByUser returns the user's winning instant-win tickets
func (r *TicketRepository) GetInstantWinsByUser(ctx context.Context, userID string) ([]*entities.Ticket, error) {
	tickets, err := r.queryTickets(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE user_id = $1 AND is_instant_win ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get instant wins for user %s: %w", userID, err)
	}
	return tickets, nil
}

// GetEntriesByUser summarises the user's holdings per competition, most recent first
func (r *TicketRepository) GetEntriesByUser(ctx context.Context, userID string) ([]*entities.UserEntry, error) {
	query := `
		SELECT c.id, c.title, c.status, c.end_date, COUNT(t.id)
		FROM tickets t
		JOIN competitions c ON c.id = t.competition_id
		WHERE t.user_id = $1
		GROUP BY c.id, c.title, c.status, c.end_date
		ORDER BY MAX(t.created_at) DESC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries for user %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []*entities.UserEntry
	for rows.Next() {
		var e entities.UserEntry
		if err := rows.Scan(&e.CompetitionID, &e.CompetitionTitle, &e.CompetitionStatus, &e.EndDate, &e.TicketCount); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}
