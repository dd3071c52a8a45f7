package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"rafflehouse/domain/entities"
	"rafflehouse/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewOrderRepository(testDB.DB)
	ctx := context.Background()
	f := setupTicketFixture(t, ctx, testDB, 10, 2)

	got, err := repo.GetByID(ctx, f.order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entities.OrderStatusPending, got.Status)
	assert.Equal(t, f.order.Amount, got.Amount)
	assert.Empty(t, got.TicketIDs)
	assert.Nil(t, got.CompletedAt)

	missing, err := repo.GetByID(ctx, "order_missing0000")
	require.NoError(t, err)
	assert.Nil(t, missing)

	t.Run("ticket ids round trip", func(t *testing.T) {
		require.NoError(t, repo.SetTicketIDs(ctx, f.order.ID, []string{"ticket_a", "ticket_b"}))
		got, err := repo.GetByID(ctx, f.order.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"ticket_a", "ticket_b"}, got.TicketIDs)
	})

	t.Run("listed for user", func(t *testing.T) {
		orders, err := repo.GetByUser(ctx, f.user.ID)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, f.order.ID, orders[0].ID)
	})
}

func TestOrderRepository_TransitionStatus(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewOrderRepository(testDB.DB)
	ctx := context.Background()

	t.Run("only from the expected status", func(t *testing.T) {
		f := setupTicketFixture(t, ctx, testDB, 10, 1)

		moved, err := repo.TransitionStatus(ctx, f.order.ID, entities.OrderStatusPending, entities.OrderStatusCompleted)
		require.NoError(t, err)
		assert.True(t, moved)

		moved, err = repo.TransitionStatus(ctx, f.order.ID, entities.OrderStatusPending, entities.OrderStatusFailed)
		require.NoError(t, err)
		assert.False(t, moved)

		got, err := repo.GetByID(ctx, f.order.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.OrderStatusCompleted, got.Status)
		assert.NotNil(t, got.CompletedAt)
	})

	t.Run("concurrent confirmations settle once", func(t *testing.T) {
		f := setupTicketFixture(t, ctx, testDB, 10, 1)

		var winners atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				moved, err := repo.TransitionStatus(ctx, f.order.ID, entities.OrderStatusPending, entities.OrderStatusCompleted)
				assert.NoError(t, err)
				if moved {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), winners.Load())
	})
}
