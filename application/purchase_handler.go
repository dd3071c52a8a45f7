package application

import (
	"context"
	"fmt"

	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// PurchaseResult is what a buyer gets back from an order request. Either the order
// is already completed with its tickets, or CheckoutURL points at the payment page.
type PurchaseResult struct {
	Order       *entities.Order    `json:"order"`
	Tickets     []*entities.Ticket `json:"tickets,omitempty"`
	CheckoutURL string             `json:"checkout_url,omitempty"`
	SessionID   string             `json:"session_id,omitempty"`
}

// PurchaseHandler turns ticket requests into orders
type PurchaseHandler struct {
	uowFactory UnitOfWorkFactory
	settings   ServiceSettings
	provider   interfaces.PaymentProvider
	checkout   CheckoutSettings
	metrics    Metrics
}

// NewPurchaseHandler creates a purchase handler
func NewPurchaseHandler(uowFactory UnitOfWorkFactory, settings ServiceSettings, provider interfaces.PaymentProvider, checkout CheckoutSettings, metrics Metrics) *PurchaseHandler {
	return &PurchaseHandler{
		uowFactory: uowFactory,
		settings:   settings,
		provider:   provider,
		checkout:   checkout,
		metrics:    metricsOrNoop(metrics),
	}
}

// CheckEligibility runs the purchase pre-check without creating anything
func (h *PurchaseHandler) CheckEligibility(ctx context.Context, req interfaces.EligibilityRequest) error {
	_, err := inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (struct{}, error) {
		return struct{}{}, h.settings.EligibilityGuard(uow).CheckEligibility(ctx, req)
	})
	return err
}

// Purchase creates an order for ticketCount tickets. A balance that covers the
// whole price settles the order immediately; otherwise a checkout session is opened
// first and the order waits for payment confirmation. No transaction is held open
// while the payment provider is called.
func (h *PurchaseHandler) Purchase(ctx context.Context, identity entities.Identity, competitionID string, ticketCount int) (*PurchaseResult, error) {
	type quoteOutcome struct {
		quote  *interfaces.PurchaseQuote
		result *interfaces.ConfirmationResult
	}

	outcome, err := inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (quoteOutcome, error) {
		orderService := h.settings.OrderService(uow)

		quote, err := orderService.QuoteOrder(ctx, identity, competitionID, ticketCount)
		if err != nil {
			return quoteOutcome{}, err
		}
		if quote.Order.RequiresExternalPayment() {
			return quoteOutcome{quote: quote}, nil
		}

		result, err := orderService.CompleteBalanceOrder(ctx, quote.Order)
		if err != nil {
			return quoteOutcome{}, err
		}
		return quoteOutcome{quote: quote, result: result}, nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.result != nil {
		h.metrics.RecordOrder(OrderOutcomeCompleted)
		h.metrics.RecordTicketsIssued(len(outcome.result.Tickets))

		log.WithFields(log.Fields{
			"orderID":       outcome.result.Order.ID,
			"userID":        identity.UserID,
			"competitionID": competitionID,
			"tickets":       len(outcome.result.Tickets),
		}).Info("Order paid from balance")

		return &PurchaseResult{Order: outcome.result.Order, Tickets: outcome.result.Tickets}, nil
	}

	order := outcome.quote.Order
	session, err := h.provider.CreateCheckoutSession(ctx, interfaces.CheckoutRequest{
		OrderID:     order.ID,
		UserID:      identity.UserID,
		Email:       identity.Email,
		Amount:      order.AmountCharged,
		Currency:    h.checkout.Currency,
		Description: fmt.Sprintf("%d x %s", order.TicketCount, outcome.quote.Competition.Title),
		SuccessURL:  h.checkout.SuccessURL,
		CancelURL:   h.checkout.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	txn, err := inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.PaymentTransaction, error) {
		return h.settings.OrderService(uow).RecordPendingOrder(ctx, order, session, h.checkout.Currency)
	})
	if err != nil {
		return nil, err
	}

	h.metrics.RecordOrder(OrderOutcomeCheckout)

	log.WithFields(log.Fields{
		"orderID":       order.ID,
		"userID":        identity.UserID,
		"competitionID": competitionID,
		"sessionID":     txn.SessionID,
		"amountCharged": order.AmountCharged,
	}).Info("Order awaiting payment")

	return &PurchaseResult{
		Order:       order,
		CheckoutURL: session.URL,
		SessionID:   session.SessionID,
	}, nil
}
