package services

import (
	"context"
	"testing"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/events"
	"rafflehouse/domain/interfaces"
	"rafflehouse/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderMocks struct {
	competitionRepo    *testhelpers.MockCompetitionRepository
	orderRepo          *testhelpers.MockOrderRepository
	paymentTxnRepo     *testhelpers.MockPaymentTransactionRepository
	ticketRepo         *testhelpers.MockTicketRepository
	userRepo           *testhelpers.MockUserRepository
	balanceHistoryRepo *testhelpers.MockBalanceHistoryRepository
	guard              *testhelpers.MockEligibilityGuard
	issuance           *testhelpers.MockTicketIssuanceService
	publisher          *testhelpers.MockEventPublisher
}

func setupOrderService() (*orderMocks, interfaces.OrderService) {
	m := &orderMocks{
		competitionRepo:    new(testhelpers.MockCompetitionRepository),
		orderRepo:          new(testhelpers.MockOrderRepository),
		paymentTxnRepo:     new(testhelpers.MockPaymentTransactionRepository),
		ticketRepo:         new(testhelpers.MockTicketRepository),
		userRepo:           new(testhelpers.MockUserRepository),
		balanceHistoryRepo: new(testhelpers.MockBalanceHistoryRepository),
		guard:              new(testhelpers.MockEligibilityGuard),
		issuance:           new(testhelpers.MockTicketIssuanceService),
		publisher:          new(testhelpers.MockEventPublisher),
	}
	service := NewOrderService(m.competitionRepo, m.orderRepo, m.paymentTxnRepo, m.ticketRepo,
		m.userRepo, m.balanceHistoryRepo, m.guard, m.issuance, m.publisher)
	return m, service
}

func issuedTickets(n int) []*entities.Ticket {
	tickets := make([]*entities.Ticket, n)
	for i := range tickets {
		tickets[i] = &entities.Ticket{
			ID:            entities.NewID(entities.TicketIDPrefix),
			CompetitionID: testCompetitionID,
			UserID:        testUserID,
			OrderID:       testOrderID,
			TicketNumber:  []string{"AAAA1111", "BBBB2222", "CCCC3333", "DDDD4444"}[i%4],
		}
	}
	return tickets
}

func pendingTransaction() *entities.PaymentTransaction {
	return &entities.PaymentTransaction{
		ID:            "txn_test00000001",
		SessionID:     testSessionID,
		OrderID:       testOrderID,
		UserID:        testUserID,
		Amount:        897,
		Currency:      "gbp",
		Status:        entities.TransactionStatusPending,
		PaymentStatus: entities.PaymentStatusUnpaid,
	}
}

func TestOrderService_QuoteOrder_SplitsBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupOrderService()

	identity := entities.Identity{UserID: testUserID, Email: "player@example.com"}
	m.guard.On("CheckEligibility", ctx, interfaces.EligibilityRequest{
		CompetitionID: testCompetitionID, UserID: testUserID, TicketCount: 3,
	}).Return(nil)
	m.competitionRepo.On("GetByID", ctx, testCompetitionID).Return(createTestCompetition(), nil)
	m.userRepo.On("GetByID", ctx, testUserID).Return(createTestUser(500), nil)

	quote, err := service.QuoteOrder(ctx, identity, testCompetitionID, 3)
	require.NoError(t, err)

	assert.Equal(t, int64(897), quote.Order.Amount)
	assert.Equal(t, int64(500), quote.Order.BalanceUsed)
	assert.Equal(t, int64(397), quote.Order.AmountCharged)
	assert.True(t, quote.Order.RequiresExternalPayment())
	assert.Equal(t, entities.OrderStatusPending, quote.Order.Status)
}

func TestOrderService_QuoteOrder_Ineligible(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupOrderService()

	m.guard.On("CheckEligibility", ctx, mock.Anything).Return(common.CapacityExceeded("Only 2 tickets available"))

	_, err := service.QuoteOrder(ctx, entities.Identity{UserID: testUserID}, testCompetitionID, 3)
	require.Error(t, err)
	assert.Equal(t, "Only 2 tickets available", common.MessageOf(err))
	m.userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestOrderService_CompleteBalanceOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupOrderService()

	order := createTestOrder(func(o *entities.Order) {
		o.BalanceUsed = 897
		o.AmountCharged = 0
	})
	tickets := issuedTickets(3)

	m.orderRepo.On("Create", ctx, order).Return(nil)
	m.orderRepo.On("TransitionStatus", ctx, testOrderID, entities.OrderStatusPending, entities.OrderStatusCompleted).Return(true, nil)
	m.userRepo.On("Debit", ctx, testUserID, int64(897)).Return(int64(103), true, nil)
	m.balanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.BalanceBefore == 1000 && h.BalanceAfter == 103 && h.ChangeAmount == -897 &&
			h.TransactionType == entities.TransactionTypeOrderDebit && h.ReferenceID == testOrderID
	})).Return(nil)
	m.issuance.On("IssueTickets", ctx, order).Return(tickets, nil)
	m.orderRepo.On("SetTicketIDs", ctx, testOrderID, mock.MatchedBy(func(ids []string) bool { return len(ids) == 3 })).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil).Once()
	m.publisher.On("Publish", mock.AnythingOfType("events.OrderCompletedEvent")).Return(nil).Once()

	result, err := service.CompleteBalanceOrder(ctx, order)
	require.NoError(t, err)

	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, entities.OrderStatusCompleted, result.Order.Status)
	assert.Len(t, result.Tickets, 3)
	assert.Equal(t, tickets[0].ID, result.Order.TicketIDs[0])
	assert.NotNil(t, result.Order.CompletedAt)

	m.orderRepo.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
	m.issuance.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestOrderService_CompleteBalanceOrder_RequiresPayment(t *testing.T) {
	t.Parallel()
	m, service := setupOrderService()

	_, err := service.CompleteBalanceOrder(context.Background(), createTestOrder())
	require.Error(t, err)
	assert.Equal(t, common.KindInvalidState, common.KindOf(err))
	m.orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_RecordPendingOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupOrderService()

	order := createTestOrder()
	m.orderRepo.On("Create", ctx, mock.MatchedBy(func(o *entities.Order) bool {
		return o.PaymentSessionID != nil && *o.PaymentSessionID == testSessionID
	})).Return(nil)
	m.paymentTxnRepo.On("Create", ctx, mock.MatchedBy(func(txn *entities.PaymentTransaction) bool {
		return txn.SessionID == testSessionID && txn.OrderID == testOrderID && txn.Amount == 897 &&
			txn.Status == entities.TransactionStatusPending && txn.PaymentStatus == entities.PaymentStatusUnpaid
	})).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.OrderCreatedEvent")).Return(nil)

	txn, err := service.RecordPendingOrder(ctx, order, &interfaces.CheckoutSession{SessionID: testSessionID, URL: "https://pay.example/cs"}, "gbp")
	require.NoError(t, err)
	assert.Equal(t, "gbp", txn.Currency)
	m.paymentTxnRepo.AssertExpectations(t)
}

func TestOrderService_RecordPendingOrder_MissingSession(t *testing.T) {
	t.Parallel()
	_, service := setupOrderService()

	_, err := service.RecordPendingOrder(context.Background(), createTestOrder(), nil, "gbp")
	require.Error(t, err)
	assert.Equal(t, common.KindInvalidInput, common.KindOf(err))
}

func TestOrderService_ConfirmPayment_Paid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupOrderService()

	order := createTestOrder()
	tickets := issuedTickets(3)

	m.paymentTxnRepo.On("GetBySessionID", ctx, testSessionID).Return(pendingTransaction(), nil)
	m.orderRepo.On("GetByID", ctx, testOrderID).Return(order, nil)
	m.orderRepo.On("TransitionStatus", ctx, testOrderID, entities.OrderStatusPending, entities.OrderStatusCompleted).Return(true, nil)
	m.issuance.On("IssueTickets", ctx, order).Return(tickets, nil)
	m.orderRepo.On("SetTicketIDs", ctx, testOrderID, mock.Anything).Return(nil)
	m.paymentTxnRepo.On("UpdateStatus", ctx, testSessionID, entities.TransactionStatusCompleted, entities.PaymentStatusPaid).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.OrderCompletedEvent")).Return(nil)

	result, err := service.ConfirmPayment(ctx, testSessionID, entities.PaymentStatusPaid)
	require.NoError(t, err)

	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, entities.PaymentStatusPaid, result.PaymentStatus)
	assert.Len(t, result.Tickets, 3)
	m.userRepo.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything)
	m.paymentTxnRepo.AssertExpectations(t)
}

func TestOrderService_ConfirmPayment_AlreadyProcessed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupOrderService()

	tickets := issuedTickets(3)
	completed := createTestOrder(func(o *entities.Order) {
		o.Status = entities.OrderStatusCompleted
		o.TicketIDs = []string{tickets[0].ID, tickets[1].ID, tickets[2].ID}
	})

	m.paymentTxnRepo.On("GetBySessionID", ctx, testSessionID).Return(pendingTransaction(), nil)
	m.orderRepo.On("GetByID", ctx, testOrderID).Return(completed, nil)
	m.orderRepo.On("TransitionStatus", ctx, testOrderID, entities.OrderStatusPending, entities.OrderStatusCompleted).Return(false, nil)
	m.ticketRepo.On("GetByIDs", ctx, completed.TicketIDs).Return(tickets, nil)

	result, err := service.ConfirmPayment(ctx, testSessionID, entities.PaymentStatusPaid)
	require.NoError(t, err)

	assert.True(t, result.AlreadyProcessed)
	assert.Len(t, result.Tickets, 3)
	m.issuance.AssertNotCalled(t, "IssueTickets", mock.Anything, mock.Anything)
	m.paymentTxnRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestOrderService_ConfirmPayment_InsufficientBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupOrderService()

	order := createTestOrder(func(o *entities.Order) {
		o.BalanceUsed = 200
		o.AmountCharged = 697
	})

	m.paymentTxnRepo.On("GetBySessionID", ctx, testSessionID).Return(pendingTransaction(), nil)
	m.orderRepo.On("GetByID", ctx, testOrderID).Return(order, nil)
	m.orderRepo.On("TransitionStatus", ctx, testOrderID, entities.OrderStatusPending, entities.OrderStatusCompleted).Return(true, nil)
	m.userRepo.On("Debit", ctx, testUserID, int64(200)).Return(int64(0), false, nil)

	_, err := service.ConfirmPayment(ctx, testSessionID, entities.PaymentStatusPaid)
	require.Error(t, err)
	assert.Equal(t, common.KindInvalidState, common.KindOf(err))
	assert.Equal(t, "Insufficient balance", common.MessageOf(err))
	m.issuance.AssertNotCalled(t, "IssueTickets", mock.Anything, mock.Anything)
}

func TestOrderService_ConfirmPayment_TerminalFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    entities.PaymentStatus
		txnStatus entities.TransactionStatus
	}{
		{entities.PaymentStatusFailed, entities.TransactionStatusFailed},
		{entities.PaymentStatusExpired, entities.TransactionStatusExpired},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			m, service := setupOrderService()

			m.paymentTxnRepo.On("GetBySessionID", ctx, testSessionID).Return(pendingTransaction(), nil)
			m.orderRepo.On("GetByID", ctx, testOrderID).Return(createTestOrder(), nil)
			m.orderRepo.On("TransitionStatus", ctx, testOrderID, entities.OrderStatusPending, entities.OrderStatusFailed).Return(true, nil)
			m.paymentTxnRepo.On("UpdateStatus", ctx, testSessionID, tt.txnStatus, tt.status).Return(nil)
			m.publisher.On("Publish", events.OrderFailedEvent{OrderID: testOrderID, SessionID: testSessionID, Status: tt.status}).Return(nil)

			result, err := service.ConfirmPayment(ctx, testSessionID, tt.status)
			require.NoError(t, err)
			assert.Equal(t, entities.OrderStatusFailed, result.Order.Status)
			assert.Empty(t, result.Tickets)

			m.paymentTxnRepo.AssertExpectations(t)
			m.publisher.AssertExpectations(t)
		})
	}
}

func TestOrderService_ConfirmPayment_Unpaid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupOrderService()

	m.paymentTxnRepo.On("GetBySessionID", ctx, testSessionID).Return(pendingTransaction(), nil)
	m.orderRepo.On("GetByID", ctx, testOrderID).Return(createTestOrder(), nil)

	result, err := service.ConfirmPayment(ctx, testSessionID, entities.PaymentStatusUnpaid)
	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, entities.OrderStatusPending, result.Order.Status)
	m.orderRepo.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_ConfirmPayment_UnknownSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupOrderService()

	m.paymentTxnRepo.On("GetBySessionID", ctx, "cs_unknown").Return(nil, nil)

	_, err := service.ConfirmPayment(ctx, "cs_unknown", entities.PaymentStatusPaid)
	require.Error(t, err)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestOrderService_RefundOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupOrderService()

	m.paymentTxnRepo.On("GetBySessionID", ctx, testSessionID).Return(pendingTransaction(), nil)
	m.orderRepo.On("GetByID", ctx, testOrderID).Return(createTestOrder(), nil)
	m.orderRepo.On("TransitionStatus", ctx, testOrderID, entities.OrderStatusPending, entities.OrderStatusRefunded).Return(true, nil)
	m.userRepo.On("Credit", ctx, testUserID, int64(897)).Return(int64(897), nil)
	m.balanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *entities.BalanceHistory) bool {
		return h.BalanceBefore == 0 && h.BalanceAfter == 897 && h.TransactionType == entities.TransactionTypeRefundCredit
	})).Return(nil)
	m.paymentTxnRepo.On("UpdateStatus", ctx, testSessionID, entities.TransactionStatusCompleted, entities.PaymentStatusPaid).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	m.publisher.On("Publish", mock.MatchedBy(func(e events.OrderRefundedEvent) bool {
		return e.RefundedAmount == 897 && e.Reason == "sold out"
	})).Return(nil)

	order, err := service.RefundOrder(ctx, testSessionID, "sold out")
	require.NoError(t, err)
	assert.Equal(t, entities.OrderStatusRefunded, order.Status)

	m.userRepo.AssertExpectations(t)
	m.balanceHistoryRepo.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestOrderService_RefundOrder_NotPending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, service := setupOrderService()

	completed := createTestOrder(func(o *entities.Order) { o.Status = entities.OrderStatusCompleted })
	m.paymentTxnRepo.On("GetBySessionID", ctx, testSessionID).Return(pendingTransaction(), nil)
	m.orderRepo.On("GetByID", ctx, testOrderID).Return(completed, nil)
	m.orderRepo.On("TransitionStatus", ctx, testOrderID, entities.OrderStatusPending, entities.OrderStatusRefunded).Return(false, nil)

	_, err := service.RefundOrder(ctx, testSessionID, "sold out")
	require.Error(t, err)
	assert.Equal(t, common.KindInvalidState, common.KindOf(err))
	m.userRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything)
}
