package server

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"boopstake/services/stake-gateway/leaderboard"
)

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.caller(w, r); !ok {
		return
	}
	window, err := leaderboard.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)
	result, err := s.leaderboard.TopN(r.Context(), window, page, limit)
	if err != nil {
		s.log.Error("leaderboard read failed", "error", err)
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLeaderboardMe(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.caller(w, r)
	if !ok {
		return
	}
	window, err := leaderboard.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	standing, err := s.leaderboard.Lookup(r.Context(), window, handle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "not ranked yet", http.StatusNotFound)
			return
		}
		s.log.Error("leaderboard lookup failed", "error", err)
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, standing)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return parsed
}
