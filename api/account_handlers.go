package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// defaultWinnersLimit caps the public winners list
const defaultWinnersLimit = 50

// AddBalanceRequest is the body of POST /api/admin/users/{id}/balance
type AddBalanceRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	user, err := s.accounts.EnsureUser(r.Context(), identity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleMyEntries(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	entries, err := s.accounts.GetEntries(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleMyTickets(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	tickets, err := s.accounts.GetTickets(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tickets)
}

func (s *Server) handleMyWins(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	wins, err := s.accounts.GetWins(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, wins)
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	orders, err := s.accounts.GetOrders(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) handleListWinners(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if limit <= 0 {
		limit = defaultWinnersLimit
	}

	winners, err := s.accounts.ListWinners(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, winners)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.accounts.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.accounts.ListOrders(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) handleAddBalance(w http.ResponseWriter, r *http.Request) {
	var req AddBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	user, err := s.accounts.AddBalance(r.Context(), mux.Vars(r)["id"], req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.accounts.Analytics(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, analytics)
}
