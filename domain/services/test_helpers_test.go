package services

import (
	"time"

	"rafflehouse/domain/entities"
)

const (
	testCompetitionID = "comp_test00000001"
	testUserID        = "user-sub-1"
	testOrderID       = "order_test0000001"
	testSessionID     = "cs_test_session_1"
)

// createTestCompetition builds an active competition that ends tomorrow
func createTestCompetition(opts ...func(*entities.Competition)) *entities.Competition {
	competition := &entities.Competition{
		ID:                testCompetitionID,
		Title:             "Win a Campervan",
		PrizeType:         "vehicle",
		PrizeValue:        3_500_000,
		TicketPrice:       299,
		TotalTickets:      1000,
		SoldTickets:       0,
		MaxTicketsPerUser: 10,
		EndDate:           time.Now().Add(24 * time.Hour),
		Status:            entities.CompetitionStatusActive,
	}
	for _, opt := range opts {
		opt(competition)
	}
	return competition
}

func createTestUser(balance int64) *entities.User {
	return &entities.User{
		ID:      testUserID,
		Email:   "player@example.com",
		Name:    "Player One",
		Balance: balance,
	}
}

func createTestOrder(opts ...func(*entities.Order)) *entities.Order {
	order := &entities.Order{
		ID:            testOrderID,
		CompetitionID: testCompetitionID,
		UserID:        testUserID,
		TicketCount:   3,
		TicketPrice:   299,
		Amount:        897,
		AmountCharged: 897,
		Status:        entities.OrderStatusPending,
		TicketIDs:     []string{},
	}
	for _, opt := range opts {
		opt(order)
	}
	return order
}
