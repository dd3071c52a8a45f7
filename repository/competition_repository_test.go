package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"rafflehouse/domain/entities"
	"rafflehouse/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompetitionRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCompetitionRepository(testDB.DB)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		comp, err := repo.GetByID(ctx, "comp_missing00000")
		require.NoError(t, err)
		assert.Nil(t, comp)
	})

	t.Run("round trip", func(t *testing.T) {
		comp := testutil.CreateTestCompetition(100)
		require.NoError(t, repo.Create(ctx, comp))
		assert.False(t, comp.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, comp.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, comp.Title, got.Title)
		assert.Equal(t, 100, got.TotalTickets)
		assert.Equal(t, 0, got.SoldTickets)
		assert.Equal(t, entities.CompetitionStatusActive, got.Status)
		assert.Nil(t, got.WinnerID)
	})
}

func TestCompetitionRepository_List(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCompetitionRepository(testDB.DB)
	ctx := context.Background()

	cheap := testutil.CreateTestCompetition(10)
	cheap.TicketPrice = 50
	cheap.EndDate = time.Now().Add(72 * time.Hour)
	pricey := testutil.CreateTestCompetition(10)
	pricey.TicketPrice = 500
	pricey.IsInstantWin = true
	pricey.EndDate = time.Now().Add(2 * time.Hour)
	cancelled := testutil.CreateTestCompetition(10)
	cancelled.Status = entities.CompetitionStatusCancelled

	for _, c := range []*entities.Competition{cheap, pricey, cancelled} {
		require.NoError(t, repo.Create(ctx, c))
	}

	active := entities.CompetitionStatusActive

	t.Run("status filter and price sort", func(t *testing.T) {
		list, err := repo.List(ctx, entities.CompetitionFilter{Status: &active, Sort: entities.SortPriceHigh, Limit: 10})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, pricey.ID, list[0].ID)
		assert.Equal(t, cheap.ID, list[1].ID)
	})

	t.Run("ending soon", func(t *testing.T) {
		list, err := repo.List(ctx, entities.CompetitionFilter{Status: &active, Sort: entities.SortEndingSoon, Limit: 1})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, pricey.ID, list[0].ID)
	})

	t.Run("instant win filter", func(t *testing.T) {
		instant := true
		list, err := repo.List(ctx, entities.CompetitionFilter{InstantWin: &instant, Limit: 10})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, pricey.ID, list[0].ID)
	})
}

func TestCompetitionRepository_ReserveTickets(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCompetitionRepository(testDB.DB)
	ctx := context.Background()

	t.Run("rejects more than remain", func(t *testing.T) {
		comp := testutil.CreateTestCompetition(5)
		require.NoError(t, repo.Create(ctx, comp))

		updated, err := repo.ReserveTickets(ctx, comp.ID, 3)
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, 3, updated.SoldTickets)

		rejected, err := repo.ReserveTickets(ctx, comp.ID, 3)
		require.NoError(t, err)
		assert.Nil(t, rejected)

		got, err := repo.GetByID(ctx, comp.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.SoldTickets)
	})

	t.Run("flips to sold out when full", func(t *testing.T) {
		comp := testutil.CreateTestCompetition(4)
		require.NoError(t, repo.Create(ctx, comp))

		updated, err := repo.ReserveTickets(ctx, comp.ID, 4)
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, entities.CompetitionStatusSoldOut, updated.Status)

		again, err := repo.ReserveTickets(ctx, comp.ID, 1)
		require.NoError(t, err)
		assert.Nil(t, again)
	})

	t.Run("concurrent buyers never oversell", func(t *testing.T) {
		comp := testutil.CreateTestCompetition(5)
		require.NoError(t, repo.Create(ctx, comp))

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				updated, err := repo.ReserveTickets(ctx, comp.ID, 1)
				assert.NoError(t, err)
				if updated != nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, succeeded)
		got, err := repo.GetByID(ctx, comp.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.SoldTickets)
		assert.Equal(t, entities.CompetitionStatusSoldOut, got.Status)
	})
}

func TestCompetitionRepository_RecordWinner(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCompetitionRepository(testDB.DB)
	ctx := context.Background()

	comp := testutil.CreateTestCompetition(10)
	require.NoError(t, repo.Create(ctx, comp))

	require.NoError(t, repo.RecordWinner(ctx, comp.ID, "winner_000000000001", time.Now()))

	got, err := repo.GetByID(ctx, comp.ID)
	require.NoError(t, err)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, "winner_000000000001", *got.WinnerID)
	assert.NotNil(t, got.DrawDate)
	assert.Equal(t, entities.CompetitionStatusEnded, got.Status)

	err = repo.RecordWinner(ctx, comp.ID, "winner_000000000002", time.Now())
	assert.Error(t, err)

	// a row forced back to active still refuses sales once drawn
	got.Status = entities.CompetitionStatusActive
	require.NoError(t, repo.Update(ctx, got))
	reserved, err := repo.ReserveTickets(ctx, comp.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, reserved)

	after, err := repo.GetByID(ctx, comp.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.SoldTickets)
}

func TestCompetitionRepository_CloseExpired(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCompetitionRepository(testDB.DB)
	ctx := context.Background()

	expired := testutil.CreateTestCompetition(10)
	expired.EndDate = time.Now().Add(-time.Hour)
	running := testutil.CreateTestCompetition(10)
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, running))

	closed, err := repo.CloseExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, expired.ID, closed[0].ID)
	assert.Equal(t, entities.CompetitionStatusEnded, closed[0].Status)

	again, err := repo.CloseExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestCompetitionRepository_Delete(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewCompetitionRepository(testDB.DB)
	userRepo := NewUserRepository(testDB.DB)
	orderRepo := NewOrderRepository(testDB.DB)
	ctx := context.Background()

	t.Run("removes an unsold competition", func(t *testing.T) {
		comp := testutil.CreateTestCompetition(10)
		require.NoError(t, repo.Create(ctx, comp))

		removed, err := repo.Delete(ctx, comp.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		got, err := repo.GetByID(ctx, comp.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("keeps a competition with orders", func(t *testing.T) {
		comp := testutil.CreateTestCompetition(10)
		require.NoError(t, repo.Create(ctx, comp))
		user, err := userRepo.Upsert(ctx, testutil.CreateTestIdentity("buyer-1"))
		require.NoError(t, err)
		require.NoError(t, orderRepo.Create(ctx, testutil.CreateTestOrder(comp, user.ID, 1)))

		removed, err := repo.Delete(ctx, comp.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}
