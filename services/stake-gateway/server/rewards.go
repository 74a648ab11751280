package server

import (
	"encoding/json"
	"net/http"

	"boopstake/services/stake-gateway/models"
)

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.caller(w, r)
	if !ok {
		return
	}
	receipt, err := s.staking.Claim(r.Context(), handle)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleWithdrawRewards(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.caller(w, r)
	if !ok {
		return
	}
	receipt, err := s.staking.WithdrawRewards(r.Context(), handle)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, receipt)
}

func (s *Server) handleActivateBoost(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req struct {
		Kind models.BoostKind `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	boost, err := s.staking.ActivateBoost(r.Context(), handle, req.Kind)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, boost)
}

func (s *Server) handleGrantNft(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req struct {
		TokenRef string `json:"tokenRef"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	holding, err := s.staking.GrantNft(r.Context(), handle, req.TokenRef)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, holding)
}
