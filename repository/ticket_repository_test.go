package repository

import (
	"context"
	"fmt"
	"testing"

	"rafflehouse/domain/entities"
	"rafflehouse/domain/services"
	"rafflehouse/domain/testhelpers"
	"rafflehouse/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ticketFixture struct {
	comp  *entities.Competition
	user  *entities.User
	order *entities.Order
}

func setupTicketFixture(t *testing.T, ctx context.Context, testDB *testutil.TestDatabase, total, count int) ticketFixture {
	t.Helper()

	comp := testutil.CreateTestCompetition(total)
	require.NoError(t, NewCompetitionRepository(testDB.DB).Create(ctx, comp))

	user, err := NewUserRepository(testDB.DB).Upsert(ctx, testutil.CreateTestIdentity(fmt.Sprintf("holder-%s", comp.ID)))
	require.NoError(t, err)

	order := testutil.CreateTestOrder(comp, user.ID, count)
	require.NoError(t, NewOrderRepository(testDB.DB).Create(ctx, order))

	return ticketFixture{comp: comp, user: user, order: order}
}

func TestTicketRepository_CreateBatch(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTicketRepository(testDB.DB)
	ctx := context.Background()
	f := setupTicketFixture(t, ctx, testDB, 100, 3)

	t.Run("inserts and reports every ticket", func(t *testing.T) {
		tickets := []*entities.Ticket{
			testutil.CreateTestTicket(f.order, "AAAA0001"),
			testutil.CreateTestTicket(f.order, "AAAA0002"),
		}
		inserted, err := repo.CreateBatch(ctx, tickets)
		require.NoError(t, err)
		require.Len(t, inserted, 2)
		assert.False(t, inserted[0].CreatedAt.IsZero())
	})

	t.Run("skips numbers already taken in the competition", func(t *testing.T) {
		tickets := []*entities.Ticket{
			testutil.CreateTestTicket(f.order, "AAAA0002"),
			testutil.CreateTestTicket(f.order, "AAAA0003"),
		}
		inserted, err := repo.CreateBatch(ctx, tickets)
		require.NoError(t, err)
		require.Len(t, inserted, 1)
		assert.Equal(t, "AAAA0003", inserted[0].TicketNumber)

		count, err := repo.CountByCompetition(ctx, f.comp.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("same number is fine in another competition", func(t *testing.T) {
		other := setupTicketFixture(t, ctx, testDB, 100, 1)
		inserted, err := repo.CreateBatch(ctx, []*entities.Ticket{testutil.CreateTestTicket(other.order, "AAAA0001")})
		require.NoError(t, err)
		assert.Len(t, inserted, 1)
	})
}

func TestTicketRepository_Queries(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTicketRepository(testDB.DB)
	ctx := context.Background()
	f := setupTicketFixture(t, ctx, testDB, 100, 3)

	tickets := []*entities.Ticket{
		testutil.CreateTestTicket(f.order, "BBBB0001"),
		testutil.CreateTestTicket(f.order, "BBBB0002"),
		testutil.CreateTestTicket(f.order, "BBBB0003"),
	}
	prizeName, prizeValue := "Voucher", int64(500)
	tickets[2].IsInstantWin = true
	tickets[2].InstantWinPrizeName = &prizeName
	tickets[2].InstantWinPrizeValue = &prizeValue
	_, err := repo.CreateBatch(ctx, tickets)
	require.NoError(t, err)

	t.Run("find existing numbers", func(t *testing.T) {
		existing, err := repo.FindExistingNumbers(ctx, f.comp.ID, []string{"BBBB0001", "ZZZZ9999", "BBBB0003"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"BBBB0001", "BBBB0003"}, existing)
	})

	t.Run("count by user", func(t *testing.T) {
		count, err := repo.CountByUserForCompetition(ctx, f.comp.ID, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		count, err = repo.CountByUserForCompetition(ctx, f.comp.ID, "someone-else")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("offset walks a stable order", func(t *testing.T) {
		seen := map[string]bool{}
		for i := int64(0); i < 3; i++ {
			ticket, err := repo.GetByOffset(ctx, f.comp.ID, i)
			require.NoError(t, err)
			require.NotNil(t, ticket)
			seen[ticket.ID] = true
		}
		assert.Len(t, seen, 3)

		beyond, err := repo.GetByOffset(ctx, f.comp.ID, 3)
		require.NoError(t, err)
		assert.Nil(t, beyond)
	})

	t.Run("get by ids keeps input order", func(t *testing.T) {
		got, err := repo.GetByIDs(ctx, []string{tickets[2].ID, "ticket_missing00", tickets[0].ID})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, tickets[2].ID, got[0].ID)
		assert.Equal(t, tickets[0].ID, got[1].ID)
	})

	t.Run("instant wins by user", func(t *testing.T) {
		wins, err := repo.GetInstantWinsByUser(ctx, f.user.ID)
		require.NoError(t, err)
		require.Len(t, wins, 1)
		assert.Equal(t, "BBBB0003", wins[0].TicketNumber)
		require.NotNil(t, wins[0].InstantWinPrizeName)
		assert.Equal(t, "Voucher", *wins[0].InstantWinPrizeName)
	})

	t.Run("entries by user", func(t *testing.T) {
		entries, err := repo.GetEntriesByUser(ctx, f.user.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, f.comp.ID, entries[0].CompetitionID)
		assert.Equal(t, 3, entries[0].TicketCount)
		assert.Equal(t, entities.CompetitionStatusActive, entries[0].CompetitionStatus)
	})
}

func TestTicketRepository_TenThousandUniqueNumbers(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTicketRepository(testDB.DB)
	ctx := context.Background()
	const count = 10000
	f := setupTicketFixture(t, ctx, testDB, count, count)

	generator := services.NewTicketNumberGenerator(repo, testhelpers.NewSeededRandom(42), services.DefaultTicketNumberMaxRounds)
	numbers, err := generator.GenerateUnique(ctx, f.comp.ID, count, map[string]struct{}{})
	require.NoError(t, err)
	require.Len(t, numbers, count)

	tickets := make([]*entities.Ticket, count)
	for i, n := range numbers {
		tickets[i] = testutil.CreateTestTicket(f.order, n)
	}
	inserted, err := repo.CreateBatch(ctx, tickets)
	require.NoError(t, err)
	assert.Len(t, inserted, count)

	var distinct int
	err = testDB.DB.QueryRow(ctx,
		`SELECT COUNT(DISTINCT ticket_number) FROM tickets WHERE competition_id = $1`, f.comp.ID,
	).Scan(&distinct)
	require.NoError(t, err)
	assert.Equal(t, count, distinct)
}
