package services

import (
	"context"
	"fmt"
	"testing"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/events"
	"rafflehouse/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type drawMocks struct {
	competitionRepo *testhelpers.MockCompetitionRepository
	ticketRepo      *testhelpers.MockTicketRepository
	winnerRepo      *testhelpers.MockWinnerRepository
	userRepo        *testhelpers.MockUserRepository
	publisher       *testhelpers.MockEventPublisher
}

func setupDraw(rng *testhelpers.ScriptedRandom) (*drawMocks, *winnerDrawService) {
	m := &drawMocks{
		competitionRepo: new(testhelpers.MockCompetitionRepository),
		ticketRepo:      new(testhelpers.MockTicketRepository),
		winnerRepo:      new(testhelpers.MockWinnerRepository),
		userRepo:        new(testhelpers.MockUserRepository),
		publisher:       new(testhelpers.MockEventPublisher),
	}
	service := NewWinnerDrawService(m.competitionRepo, m.ticketRepo, m.winnerRepo, m.userRepo, m.publisher, rng)
	return m, service.(*winnerDrawService)
}

func TestWinnerDrawService_DrawWinner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupDraw(testhelpers.NewScriptedRandom(41))

	competition := createTestCompetition(func(c *entities.Competition) { c.SoldTickets = 100 })
	ticket := &entities.Ticket{ID: "ticket_000000000042", CompetitionID: testCompetitionID, UserID: testUserID, TicketNumber: "WINN3R42"}

	m.competitionRepo.On("GetByIDForUpdate", ctx, testCompetitionID).Return(competition, nil)
	m.ticketRepo.On("CountByCompetition", ctx, testCompetitionID).Return(int64(100), nil)
	m.ticketRepo.On("GetByOffset", ctx, testCompetitionID, int64(41)).Return(ticket, nil)
	m.userRepo.On("GetByID", ctx, testUserID).Return(createTestUser(0), nil)
	m.winnerRepo.On("Create", ctx, mock.MatchedBy(func(w *entities.Winner) bool {
		return w.TicketID == ticket.ID && w.TicketNumber == "WINN3R42" && w.UserEmail == "player@example.com" &&
			w.CompetitionTitle == "Win a Campervan" && w.PrizeValue == 3_500_000
	})).Return(nil)
	m.competitionRepo.On("RecordWinner", ctx, testCompetitionID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	m.publisher.On("Publish", mock.MatchedBy(func(e events.WinnerDrawnEvent) bool {
		return e.TicketNumber == "WINN3R42" && e.TotalEntries == 100 && e.UserName == "Player One"
	})).Return(nil)

	winner, err := service.DrawWinner(ctx, testCompetitionID)
	require.NoError(t, err)
	assert.Equal(t, testUserID, winner.UserID)
	assert.Contains(t, winner.ID, "winner_")

	m.competitionRepo.AssertExpectations(t)
	m.winnerRepo.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestWinnerDrawService_DrawWinner_Rejections(t *testing.T) {
	t.Parallel()

	winnerID := "winner_abcdef123456"
	tests := []struct {
		name        string
		competition *entities.Competition
		count       int64
		wantKind    common.ErrorKind
		wantMessage string
	}{
		{
			name:        "unknown competition",
			wantKind:    common.KindNotFound,
			wantMessage: "Competition not found",
		},
		{
			name:        "already drawn",
			competition: createTestCompetition(func(c *entities.Competition) { c.WinnerID = &winnerID }),
			wantKind:    common.KindInvalidState,
			wantMessage: "Winner already drawn",
		},
		{
			name:        "cancelled",
			competition: createTestCompetition(func(c *entities.Competition) { c.Status = entities.CompetitionStatusCancelled }),
			wantKind:    common.KindInvalidState,
			wantMessage: "Competition is cancelled",
		},
		{
			name:        "no tickets",
			competition: createTestCompetition(),
			count:       0,
			wantKind:    common.KindInvalidState,
			wantMessage: "No tickets sold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			rng := testhelpers.NewScriptedRandom()
			m, service := setupDraw(rng)

			m.competitionRepo.On("GetByIDForUpdate", ctx, testCompetitionID).Return(tt.competition, nil)
			m.ticketRepo.On("CountByCompetition", ctx, testCompetitionID).Return(tt.count, nil)

			winner, err := service.DrawWinner(ctx, testCompetitionID)
			require.Error(t, err)
			assert.Nil(t, winner)
			assert.Equal(t, tt.wantKind, common.KindOf(err))
			assert.Equal(t, tt.wantMessage, common.MessageOf(err))
			assert.Equal(t, 0, rng.Calls())
			m.winnerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestWinnerDrawService_DrawWinner_EndedCompetitionIsDrawable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupDraw(testhelpers.NewScriptedRandom(0))

	competition := createTestCompetition(func(c *entities.Competition) { c.Status = entities.CompetitionStatusEnded })
	ticket := &entities.Ticket{ID: "ticket_000000000001", CompetitionID: testCompetitionID, UserID: testUserID, TicketNumber: "ONLY0001"}

	m.competitionRepo.On("GetByIDForUpdate", ctx, testCompetitionID).Return(competition, nil)
	m.ticketRepo.On("CountByCompetition", ctx, testCompetitionID).Return(int64(1), nil)
	m.ticketRepo.On("GetByOffset", ctx, testCompetitionID, int64(0)).Return(ticket, nil)
	m.userRepo.On("GetByID", ctx, testUserID).Return(createTestUser(0), nil)
	m.winnerRepo.On("Create", ctx, mock.Anything).Return(nil)
	m.competitionRepo.On("RecordWinner", ctx, testCompetitionID, mock.Anything, mock.Anything).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	winner, err := service.DrawWinner(ctx, testCompetitionID)
	require.NoError(t, err)
	assert.Equal(t, "ONLY0001", winner.TicketNumber)
}

// stubTicketPool mocks a competition whose 100 sold tickets are held 10/30/60 by three players,
// ticket i sitting at offset i.
func stubTicketPool(ctx context.Context, m *drawMocks) map[int64]string {
	holders := []struct {
		userID string
		count  int
	}{{"usr_small", 10}, {"usr_medium", 30}, {"usr_large", 60}}

	owners := make(map[int64]string, 100)
	m.competitionRepo.On("GetByIDForUpdate", ctx, testCompetitionID).
		Return(createTestCompetition(func(c *entities.Competition) { c.SoldTickets = 100 }), nil)
	m.ticketRepo.On("CountByCompetition", ctx, testCompetitionID).Return(int64(100), nil)

	var offset int64
	for _, h := range holders {
		user := createTestUser(0)
		user.ID = h.userID
		m.userRepo.On("GetByID", ctx, h.userID).Return(user, nil)
		for i := 0; i < h.count; i++ {
			ticket := &entities.Ticket{
				ID:            fmt.Sprintf("ticket_%012d", offset),
				CompetitionID: testCompetitionID,
				UserID:        h.userID,
				TicketNumber:  fmt.Sprintf("T%07d", offset),
			}
			m.ticketRepo.On("GetByOffset", ctx, testCompetitionID, offset).Return(ticket, nil)
			owners[offset] = h.userID
			offset++
		}
	}

	m.winnerRepo.On("Create", ctx, mock.Anything).Return(nil)
	m.competitionRepo.On("RecordWinner", ctx, testCompetitionID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)
	return owners
}

func TestWinnerDrawService_DrawWinner_EachOffsetPicksItsTicket(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	script := make([]int64, 100)
	for i := range script {
		script[i] = int64(i)
	}
	m, service := setupDraw(testhelpers.NewScriptedRandom(script...))
	owners := stubTicketPool(ctx, m)

	wins := map[string]int{}
	for offset := int64(0); offset < 100; offset++ {
		winner, err := service.DrawWinner(ctx, testCompetitionID)
		require.NoError(t, err)
		assert.Equal(t, owners[offset], winner.UserID)
		assert.Equal(t, fmt.Sprintf("T%07d", offset), winner.TicketNumber)
		wins[winner.UserID]++
	}

	// sweeping every offset once gives each player exactly their ticket count
	assert.Equal(t, map[string]int{"usr_small": 10, "usr_medium": 30, "usr_large": 60}, wins)
}

func TestWinnerDrawService_DrawWinner_WinsTrackTicketShare(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m, _ := setupDraw(testhelpers.NewScriptedRandom())
	stubTicketPool(ctx, m)
	service := NewWinnerDrawService(m.competitionRepo, m.ticketRepo, m.winnerRepo, m.userRepo, m.publisher, testhelpers.NewSeededRandom(7))

	const draws = 10000
	wins := map[string]int{}
	for i := 0; i < draws; i++ {
		winner, err := service.DrawWinner(ctx, testCompetitionID)
		require.NoError(t, err)
		wins[winner.UserID]++
	}

	assert.InDelta(t, 0.10, float64(wins["usr_small"])/draws, 0.02)
	assert.InDelta(t, 0.30, float64(wins["usr_medium"])/draws, 0.03)
	assert.InDelta(t, 0.60, float64(wins["usr_large"])/draws, 0.03)
}
