package api

import (
	"io"
	"net/http"

	"rafflehouse/domain/common"
	"rafflehouse/domain/interfaces"
	"rafflehouse/infrastructure"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// CreateOrderRequest is the body of POST /api/orders
type CreateOrderRequest struct {
	CompetitionID string `json:"competition_id"`
	TicketCount   int    `json:"ticket_count"`
}

// EligibilityRequest is the body of POST /api/competitions/{id}/eligibility
type EligibilityRequest struct {
	TicketCount int `json:"ticket_count"`
}

// EligibilityResponse reports whether a purchase would be accepted
type EligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.CompetitionID == "" {
		respondError(w, r, common.InvalidInput("competition_id is required"))
		return
	}

	result, err := s.purchases.Purchase(r.Context(), identity, req.CompetitionID, req.TicketCount)
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.CheckoutURL != "" {
		status = http.StatusAccepted
	}
	respondJSON(w, status, result)
}

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req EligibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	err := s.purchases.CheckEligibility(r.Context(), interfaces.EligibilityRequest{
		CompetitionID: mux.Vars(r)["id"],
		UserID:        identity.UserID,
		TicketCount:   req.TicketCount,
	})
	switch common.KindOf(err) {
	case common.KindCapacityExceeded, common.KindInvalidState, common.KindInvalidInput:
		respondJSON(w, http.StatusOK, EligibilityResponse{Eligible: false, Reason: common.MessageOf(err)})
	default:
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, EligibilityResponse{Eligible: true})
	}
}

func (s *Server) handleCheckoutStatus(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	result, err := s.payments.CheckStatus(r.Context(), identity.UserID, mux.Vars(r)["session"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		respondStatus(w, http.StatusBadRequest, string(common.KindInvalidInput), "Unreadable body")
		return
	}

	event, err := s.webhooks.ParseWebhook(payload, r.Header.Get(infrastructure.PaymentSignatureHeader))
	if err != nil {
		log.WithError(err).Warn("Rejected payment webhook")
		respondError(w, r, err)
		return
	}

	if event.Status == "" {
		// Not a checkout event we act on; acknowledge so the provider stops retrying
		respondJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if _, err := s.payments.ApplyStatus(r.Context(), event.SessionID, event.Status); err != nil {
		// Unknown sessions are acknowledged; anything else asks the provider to retry
		if common.IsKind(err, common.KindNotFound) {
			log.WithField("sessionID", event.SessionID).Warn("Webhook for unknown payment session")
			respondJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
