package services

import (
	"context"
	"fmt"
	"time"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/events"
	"rafflehouse/domain/interfaces"
	"rafflehouse/domain/utils"

	log "github.com/sirupsen/logrus"
)

// orderService reconciles orders with payment outcomes
type orderService struct {
	competitionRepo    interfaces.CompetitionRepository
	orderRepo          interfaces.OrderRepository
	paymentTxnRepo     interfaces.PaymentTransactionRepository
	ticketRepo         interfaces.TicketRepository
	userRepo           interfaces.UserRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	guard              interfaces.EligibilityGuard
	issuance           interfaces.TicketIssuanceService
	eventPublisher     interfaces.EventPublisher
}

// NewOrderService creates a new order service
func NewOrderService(
	competitionRepo interfaces.CompetitionRepository,
	orderRepo interfaces.OrderRepository,
	paymentTxnRepo interfaces.PaymentTransactionRepository,
	ticketRepo interfaces.TicketRepository,
	userRepo interfaces.UserRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	guard interfaces.EligibilityGuard,
	issuance interfaces.TicketIssuanceService,
	eventPublisher interfaces.EventPublisher,
) interfaces.OrderService {
	return &orderService{
		competitionRepo:    competitionRepo,
		orderRepo:          orderRepo,
		paymentTxnRepo:     paymentTxnRepo,
		ticketRepo:         ticketRepo,
		userRepo:           userRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		guard:              guard,
		issuance:           issuance,
		eventPublisher:     eventPublisher,
	}
}

// QuoteOrder checks eligibility and splits the price between balance and external payment
func (s *orderService) QuoteOrder(ctx context.Context, identity entities.Identity, competitionID string, ticketCount int) (*interfaces.PurchaseQuote, error) {
	err := s.guard.CheckEligibility(ctx, interfaces.EligibilityRequest{
		CompetitionID: competitionID,
		UserID:        identity.UserID,
		TicketCount:   ticketCount,
	})
	if err != nil {
		return nil, err
	}

	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	if competition == nil {
		return nil, common.NotFound("Competition not found")
	}

	user, err := s.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, common.NotFound("User not found")
	}

	return &interfaces.PurchaseQuote{
		Order:       entities.NewOrder(competition, user.ID, ticketCount, user.Balance),
		Competition: competition,
		User:        user,
	}, nil
}

// CompleteBalanceOrder stores and settles an order with nothing left to charge
func (s *orderService) CompleteBalanceOrder(ctx context.Context, order *entities.Order) (*interfaces.ConfirmationResult, error) {
	if order.RequiresExternalPayment() {
		return nil, common.InvalidState("Order requires external payment")
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return s.settle(ctx, order)
}

// RecordPendingOrder stores an order and the transaction tracking its checkout session
func (s *orderService) RecordPendingOrder(ctx context.Context, order *entities.Order, session *interfaces.CheckoutSession, currency string) (*entities.PaymentTransaction, error) {
	if session == nil || session.SessionID == "" {
		return nil, common.InvalidInput("Payment session is required")
	}

	sessionID := session.SessionID
	order.PaymentSessionID = &sessionID
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	txn := &entities.PaymentTransaction{
		ID:            entities.NewID(entities.TransactionIDPrefix),
		SessionID:     sessionID,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Amount:        order.AmountCharged,
		Currency:      currency,
		Status:        entities.TransactionStatusPending,
		PaymentStatus: entities.PaymentStatusUnpaid,
	}
	if err := s.paymentTxnRepo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create payment transaction: %w", err)
	}

	if err := s.eventPublisher.Publish(events.OrderCreatedEvent{
		OrderID:       order.ID,
		CompetitionID: order.CompetitionID,
		UserID:        order.UserID,
		TicketCount:   order.TicketCount,
		Amount:        order.Amount,
		AmountCharged: order.AmountCharged,
		SessionID:     sessionID,
	}); err != nil {
		log.WithError(err).Error("Failed to publish order created event")
	}

	return txn, nil
}

// ConfirmPayment applies the provider's status to the order behind sessionID.
// Only the caller that moves the order out of pending issues tickets; every later
// call for the same session gets the stored outcome back.
func (s *orderService) ConfirmPayment(ctx context.Context, sessionID string, status entities.PaymentStatus) (*interfaces.ConfirmationResult, error) {
	txn, err := s.paymentTxnRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment transaction: %w", err)
	}
	if txn == nil {
		return nil, common.NotFound("Payment session not found")
	}

	order, err := s.orderRepo.GetByID(ctx, txn.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, common.NotFound("Order not found")
	}

	switch {
	case status == entities.PaymentStatusPaid:
		result, err := s.settle(ctx, order)
		if err != nil {
			return nil, err
		}
		if !result.AlreadyProcessed {
			if err := s.paymentTxnRepo.UpdateStatus(ctx, sessionID, entities.TransactionStatusCompleted, status); err != nil {
				return nil, fmt.Errorf("failed to update payment transaction: %w", err)
			}
		}
		return result, nil

	case status.IsTerminalFailure():
		moved, err := s.orderRepo.TransitionStatus(ctx, order.ID, entities.OrderStatusPending, entities.OrderStatusFailed)
		if err != nil {
			return nil, fmt.Errorf("failed to fail order: %w", err)
		}
		if !moved {
			return s.storedResult(ctx, order.ID, status)
		}

		txnStatus := entities.TransactionStatusFailed
		if status == entities.PaymentStatusExpired {
			txnStatus = entities.TransactionStatusExpired
		}
		if err := s.paymentTxnRepo.UpdateStatus(ctx, sessionID, txnStatus, status); err != nil {
			return nil, fmt.Errorf("failed to update payment transaction: %w", err)
		}

		order.Status = entities.OrderStatusFailed
		if err := s.eventPublisher.Publish(events.OrderFailedEvent{
			OrderID:   order.ID,
			SessionID: sessionID,
			Status:    status,
		}); err != nil {
			log.WithError(err).Error("Failed to publish order failed event")
		}
		return &interfaces.ConfirmationResult{Order: order, PaymentStatus: status}, nil

	default:
		// Still unpaid: nothing to do yet
		return &interfaces.ConfirmationResult{
			Order:            order,
			PaymentStatus:    status,
			AlreadyProcessed: !order.IsPending(),
		}, nil
	}
}

// RefundOrder gives a paid order that could not be fulfilled back to the user as balance
func (s *orderService) RefundOrder(ctx context.Context, sessionID, reason string) (*entities.Order, error) {
	txn, err := s.paymentTxnRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment transaction: %w", err)
	}
	if txn == nil {
		return nil, common.NotFound("Payment session not found")
	}

	order, err := s.orderRepo.GetByID(ctx, txn.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, common.NotFound("Order not found")
	}
	if order.Status == entities.OrderStatusRefunded {
		return order, nil
	}

	moved, err := s.orderRepo.TransitionStatus(ctx, order.ID, entities.OrderStatusPending, entities.OrderStatusRefunded)
	if err != nil {
		return nil, fmt.Errorf("failed to refund order: %w", err)
	}
	if !moved {
		return nil, common.InvalidState("Order is no longer pending")
	}

	if order.AmountCharged > 0 {
		if _, err := utils.CreditBalance(ctx, s.userRepo, s.balanceHistoryRepo, s.eventPublisher,
			order.UserID, order.AmountCharged, entities.TransactionTypeRefundCredit, order.ID); err != nil {
			return nil, err
		}
	}

	if err := s.paymentTxnRepo.UpdateStatus(ctx, sessionID, entities.TransactionStatusCompleted, entities.PaymentStatusPaid); err != nil {
		return nil, fmt.Errorf("failed to update payment transaction: %w", err)
	}

	order.Status = entities.OrderStatusRefunded
	log.WithFields(log.Fields{
		"orderID": order.ID,
		"userID":  order.UserID,
		"amount":  order.AmountCharged,
		"reason":  reason,
	}).Warn("Refunded paid order to balance")

	if err := s.eventPublisher.Publish(events.OrderRefundedEvent{
		OrderID:        order.ID,
		UserID:         order.UserID,
		RefundedAmount: order.AmountCharged,
		Reason:         reason,
	}); err != nil {
		log.WithError(err).Error("Failed to publish order refunded event")
	}

	return order, nil
}

// settle moves a pending order to completed, takes the balance share and issues tickets.
// Losing the status transition means another caller already settled it.
func (s *orderService) settle(ctx context.Context, order *entities.Order) (*interfaces.ConfirmationResult, error) {
	moved, err := s.orderRepo.TransitionStatus(ctx, order.ID, entities.OrderStatusPending, entities.OrderStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}
	if !moved {
		log.WithField("orderID", order.ID).Info("Order already processed")
		return s.storedResult(ctx, order.ID, entities.PaymentStatusPaid)
	}

	if order.BalanceUsed > 0 {
		if _, err := utils.DebitBalance(ctx, s.userRepo, s.balanceHistoryRepo, s.eventPublisher,
			order.UserID, order.BalanceUsed, entities.TransactionTypeOrderDebit, order.ID); err != nil {
			return nil, err
		}
	}

	tickets, err := s.issuance.IssueTickets(ctx, order)
	if err != nil {
		return nil, err
	}

	ticketIDs := make([]string, len(tickets))
	for i, t := range tickets {
		ticketIDs[i] = t.ID
	}
	if err := s.orderRepo.SetTicketIDs(ctx, order.ID, ticketIDs); err != nil {
		return nil, fmt.Errorf("failed to record order tickets: %w", err)
	}

	now := time.Now()
	order.Status = entities.OrderStatusCompleted
	order.TicketIDs = ticketIDs
	order.CompletedAt = &now

	if err := s.eventPublisher.Publish(events.OrderCompletedEvent{
		OrderID:       order.ID,
		CompetitionID: order.CompetitionID,
		UserID:        order.UserID,
		TicketCount:   order.TicketCount,
		Amount:        order.Amount,
		BalanceUsed:   order.BalanceUsed,
	}); err != nil {
		log.WithError(err).Error("Failed to publish order completed event")
	}

	return &interfaces.ConfirmationResult{
		Order:         order,
		Tickets:       tickets,
		PaymentStatus: entities.PaymentStatusPaid,
	}, nil
}

// storedResult reloads an order settled by someone else together with its tickets
func (s *orderService) storedResult(ctx context.Context, orderID string, status entities.PaymentStatus) (*interfaces.ConfirmationResult, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	if order == nil {
		return nil, common.NotFound("Order not found")
	}

	var tickets []*entities.Ticket
	if len(order.TicketIDs) > 0 {
		tickets, err = s.ticketRepo.GetByIDs(ctx, order.TicketIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load order tickets: %w", err)
		}
	}

	return &interfaces.ConfirmationResult{
		Order:            order,
		Tickets:          tickets,
		PaymentStatus:    status,
		AlreadyProcessed: true,
	}, nil
}
