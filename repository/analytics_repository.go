package repository

import (
	"context"
	"fmt"

	"rafflehouse/database"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"
)

// AnalyticsRepository computes dashboard totals
type AnalyticsRepository struct {
	q Queryable
}

// NewAnalyticsRepository creates an analytics repository on the pool
func NewAnalyticsRepository(db *database.DB) interfaces.AnalyticsRepository {
	return &AnalyticsRepository{q: db.Pool}
}

func newAnalyticsRepository(q Queryable) *AnalyticsRepository {
	return &AnalyticsRepository{q: q}
}

// GetAnalytics counts users, competitions, completed orders, tickets and winners.
// Revenue is the gross amount of completed orders.
func (r *AnalyticsRepository) GetAnalytics(ctx context.Context) (*entities.Analytics, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM competitions),
			(SELECT COUNT(*) FROM competitions WHERE status = 'active'),
			(SELECT COUNT(*) FROM orders WHERE status = 'completed'),
			(SELECT COUNT(*) FROM tickets),
			(SELECT COALESCE(SUM(amount), 0) FROM orders WHERE status = 'completed'),
			(SELECT COUNT(*) FROM winners)
	`

	var a entities.Analytics
	err := r.q.QueryRow(ctx, query).Scan(
		&a.TotalUsers,
		&a.TotalCompetitions,
		&a.ActiveCompetitions,
		&a.CompletedOrders,
		&a.TotalTickets,
		&a.TotalRevenue,
		&a.TotalWinners,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute analytics: %w", err)
	}
	return &a, nil
}
