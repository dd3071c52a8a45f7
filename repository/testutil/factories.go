package testutil

import (
	"time"

	"rafflehouse/domain/entities"
)

// CreateTestIdentity returns an identity for a test user
func CreateTestIdentity(userID string) entities.Identity {
	return entities.Identity{
		UserID: userID,
		Email:  userID + "@example.com",
		Name:   "Test " + userID,
	}
}

// CreateTestCompetition creates an active competition with default values
func CreateTestCompetition(totalTickets int) *entities.Competition {
	return &entities.Competition{
		ID:                entities.NewID(entities.CompetitionIDPrefix),
		Title:             "Test Competition",
		Description:       "A competition for tests",
		PrizeType:         "cash",
		PrizeValue:        100000,
		TicketPrice:       199,
		TotalTickets:      totalTickets,
		MaxTicketsPerUser: totalTickets,
		EndDate:           time.Now().Add(24 * time.Hour),
		Status:            entities.CompetitionStatusActive,
	}
}

// CreateTestInstantWinCompetition creates an instant-win competition
func CreateTestInstantWinCompetition(totalTickets int) *entities.Competition {
	c := CreateTestCompetition(totalTickets)
	c.IsInstantWin = true
	return c
}

// CreateTestPrize creates a prize for the competition with the given stock
func CreateTestPrize(competitionID, name string, total int) *entities.InstantWinPrize {
	return &entities.InstantWinPrize{
		CompetitionID: competitionID,
		Name:          name,
		Value:         500,
		Total:         total,
		Remaining:     total,
	}
}

// CreateTestOrder creates a pending order paid fully from balance
func CreateTestOrder(competition *entities.Competition, userID string, ticketCount int) *entities.Order {
	return entities.NewOrder(competition, userID, ticketCount, competition.TotalPrice(ticketCount))
}

// CreateTestTicket creates a ticket with the given number
func CreateTestTicket(order *entities.Order, number string) *entities.Ticket {
	return &entities.Ticket{
		ID:            entities.NewID(entities.TicketIDPrefix),
		CompetitionID: order.CompetitionID,
		UserID:        order.UserID,
		OrderID:       order.ID,
		TicketNumber:  number,
	}
}
