package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleStatus returns the caller's live yield view.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.caller(w, r)
	if !ok {
		return
	}
	view, err := s.staking.Status(r.Context(), handle)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListStakes(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.caller(w, r)
	if !ok {
		return
	}
	positions, err := s.staking.ListStakes(r.Context(), handle)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"stakes": positions})
}

func (s *Server) handleCreateStake(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	pos, err := s.staking.CreateStake(r.Context(), handle, req.Amount)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, pos)
}

func (s *Server) handleRequestUnstake(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.caller(w, r)
	if !ok {
		return
	}
	stakeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid stake id", http.StatusBadRequest)
		return
	}
	pos, err := s.staking.RequestUnstake(r.Context(), handle, stakeID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pos)
}

func (s *Server) handleWithdrawStake(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.caller(w, r)
	if !ok {
		return
	}
	stakeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid stake id", http.StatusBadRequest)
		return
	}
	receipt, err := s.staking.WithdrawStake(r.Context(), handle, stakeID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, receipt)
}
