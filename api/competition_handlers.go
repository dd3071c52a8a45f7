package api

import (
	"net/http"
	"strconv"

	"rafflehouse/domain/common"
	"rafflehouse/domain/entities"
	"rafflehouse/domain/interfaces"

	"github.com/gorilla/mux"
)

var competitionSorts = map[string]entities.CompetitionSort{
	"":            entities.SortNewest,
	"newest":      entities.SortNewest,
	"ending_soon": entities.SortEndingSoon,
	"price_low":   entities.SortPriceLow,
	"price_high":  entities.SortPriceHigh,
	"prize_value": entities.SortPrizeValue,
}

// parseCompetitionFilter reads status, prize_type, instant_win, sort, limit and offset
func parseCompetitionFilter(r *http.Request) (entities.CompetitionFilter, error) {
	query := r.URL.Query()
	filter := entities.CompetitionFilter{PrizeType: query.Get("prize_type")}

	if status := query.Get("status"); status != "" {
		s := entities.CompetitionStatus(status)
		filter.Status = &s
	}

	if instantWin := query.Get("instant_win"); instantWin != "" {
		value, err := strconv.ParseBool(instantWin)
		if err != nil {
			return filter, common.InvalidInput("instant_win must be true or false")
		}
		filter.InstantWin = &value
	}

	sort, ok := competitionSorts[query.Get("sort")]
	if !ok {
		return filter, common.InvalidInput("Unknown sort %q", query.Get("sort"))
	}
	filter.Sort = sort

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.InvalidInput("%s must be a number", name)
	}
	return value, nil
}

func (s *Server) handleListCompetitions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCompetitionFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	competitions, err := s.catalogue.List(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, competitions)
}

func (s *Server) handleFeaturedCompetitions(w http.ResponseWriter, r *http.Request) {
	competitions, err := s.catalogue.Featured(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, competitions)
}

func (s *Server) handleGetCompetition(w http.ResponseWriter, r *http.Request) {
	competition, err := s.catalogue.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, competition)
}

func (s *Server) handleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	var input interfaces.CompetitionInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, r, err)
		return
	}

	competition, err := s.catalogue.Create(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, competition)
}

func (s *Server) handleUpdateCompetition(w http.ResponseWriter, r *http.Request) {
	var patch interfaces.CompetitionPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, r, err)
		return
	}

	competition, err := s.catalogue.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, competition)
}

func (s *Server) handleDeleteCompetition(w http.ResponseWriter, r *http.Request) {
	removed, err := s.catalogue.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	outcome := "cancelled"
	if removed {
		outcome = "deleted"
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": outcome})
}

func (s *Server) handleEntrants(w http.ResponseWriter, r *http.Request) {
	entrants, err := s.catalogue.Entrants(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entrants)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	winner, err := s.draws.Draw(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, winner)
}
