package application

import (
	"context"
	"time"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// reconcileBatchSize bounds how many stale sessions one reconciliation run polls
const reconcileBatchSize = 100

// PaymentHandler applies payment provider outcomes to orders. The client poll,
// the provider webhook and the reconciliation job all end up in ApplyStatus.
type PaymentHandler struct {
	uowFactory UnitOfWorkFactory
	settings   ServiceSettings
	provider   interfaces.PaymentProvider
	metrics    Metrics
}

// NewPaymentHandler creates a payment handler
func NewPaymentHandler(uowFactory UnitOfWorkFactory, settings ServiceSettings, provider interfaces.PaymentProvider, metrics Metrics) *PaymentHandler {
	return &PaymentHandler{
		uowFactory: uowFactory,
		settings:   settings,
		provider:   provider,
		metrics:    metricsOrNoop(metrics),
	}
}

// CheckStatus answers a buyer polling their checkout session. Settled sessions are
// answered from storage; pending ones ask the provider and apply what it says.
func (h *PaymentHandler) CheckStatus(ctx context.Context, userID, sessionID string) (*interfaces.ConfirmationResult, error) {
	txn, err := inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.PaymentTransaction, error) {
		return uow.PaymentTransactionRepository().GetBySessionID(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	// Someone else's session looks the same as a missing one
	if txn == nil || txn.UserID != userID {
		return nil, common.NotFound("Payment session not found")
	}

	if !txn.IsPending() {
		return inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (*interfaces.ConfirmationResult, error) {
			return h.settings.OrderService(uow).ConfirmPayment(ctx, sessionID, txn.PaymentStatus)
		})
	}

	status, err := h.provider.GetSessionStatus(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return h.ApplyStatus(ctx, sessionID, status.Status)
}

// ApplyStatus confirms, fails or leaves alone the order behind sessionID. Safe to
// call any number of times. A paid order whose tickets can no longer be issued is
// refunded to the buyer's balance in a separate transaction.
func (h *PaymentHandler) ApplyStatus(ctx context.Context, sessionID string, status entities.PaymentStatus) (*interfaces.ConfirmationResult, error) {
	result, err := inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (*interfaces.ConfirmationResult, error) {
		return h.settings.OrderService(uow).ConfirmPayment(ctx, sessionID, status)
	})
	if err != nil {
		if status == entities.PaymentStatusPaid && isUnfulfillable(err) {
			return h.refund(ctx, sessionID, err)
		}
		return nil, err
	}

	if !result.AlreadyProcessed {
		switch {
		case result.Order.IsCompleted():
			h.metrics.RecordOrder(OrderOutcomeCompleted)
			h.metrics.RecordTicketsIssued(len(result.Tickets))
		case result.Order.Status == entities.OrderStatusFailed:
			h.metrics.RecordOrder(OrderOutcomeFailed)
		}
	}

	log.WithFields(log.Fields{
		"sessionID":        sessionID,
		"paymentStatus":    status,
		"orderID":          result.Order.ID,
		"orderStatus":      result.Order.Status,
		"alreadyProcessed": result.AlreadyProcessed,
	}).Info("Applied payment status")

	return result, nil
}

func (h *PaymentHandler) refund(ctx context.Context, sessionID string, cause error) (*interfaces.ConfirmationResult, error) {
	reason := common.MessageOf(cause)

	order, err := inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) (*entities.Order, error) {
		return h.settings.OrderService(uow).RefundOrder(ctx, sessionID, reason)
	})
	if err != nil {
		log.WithFields(log.Fields{
			"sessionID": sessionID,
			"cause":     cause,
			"error":     err,
		}).Error("Failed to refund unfulfillable order")
		return nil, err
	}

	h.metrics.RecordOrder(OrderOutcomeRefunded)
	return &interfaces.ConfirmationResult{
		Order:         order,
		PaymentStatus: entities.PaymentStatusPaid,
	}, nil
}

// isUnfulfillable reports whether issuance failed for a reason retrying will not fix
func isUnfulfillable(err error) bool {
	switch common.KindOf(err) {
	case common.KindCapacityExceeded, common.KindInvalidState, common.KindConflict:
		return true
	}
	return false
}

// Reconcile polls the provider for sessions still pending after olderThan and
// applies their status. Returns how many sessions were settled either way.
func (h *PaymentHandler) Reconcile(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	pending, err := inTransaction(ctx, h.uowFactory, func(uow UnitOfWork) ([]*entities.PaymentTransaction, error) {
		return uow.PaymentTransactionRepository().ListPendingOlderThan(ctx, cutoff, reconcileBatchSize)
	})
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, txn := range pending {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}

		status, err := h.provider.GetSessionStatus(ctx, txn.SessionID)
		if err != nil {
			log.WithFields(log.Fields{
				"sessionID": txn.SessionID,
				"error":     err,
			}).Warn("Failed to poll payment session")
			continue
		}
		if status.Status == entities.PaymentStatusUnpaid {
			continue
		}

		if _, err := h.ApplyStatus(ctx, txn.SessionID, status.Status); err != nil {
			log.WithFields(log.Fields{
				"sessionID": txn.SessionID,
				"error":     err,
			}).Error("Failed to reconcile payment session")
			continue
		}
		settled++
	}

	if len(pending) > 0 {
		log.WithFields(log.Fields{
			"pending": len(pending),
			"settled": settled,
		}).Info("Payment reconciliation finished")
	}
	return settled, nil
}
