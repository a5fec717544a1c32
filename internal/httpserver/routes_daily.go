// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily challenge.
// Exposes two endpoints under /daily:
//   - GET /daily/status      → has the caller finished today's challenge?
//   - GET /daily/leaderboard → top winners for today (or a given date)
//
// Daily play itself runs through the regular /game endpoints with
// mode=daily; these routes only report on it. One completion per UTC day
// per identity is enforced by the engine, and winners land in the
// daily_results table via finishGame.

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/jlfenwick/wordrow/internal/daily"
	"github.com/jlfenwick/wordrow/internal/store"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Get("/status", s.handleDailyStatus)
		r.Get("/leaderboard", s.handleDailyLeaderboard)
	})
}

// dailyStatusRes is returned by /daily/status.
type dailyStatusRes struct {
	Date       string `json:"date"`
	Completed  bool   `json:"completed"`
	Won        bool   `json:"won,omitempty"`
	WordLength int    `json:"wordLength"`
	Guesses    int    `json:"guesses,omitempty"`
}

// handleDailyStatus reports whether the caller already finished today's
// challenge. The record only counts when it carries today's date key; a
// stale record from yesterday reads as not completed.
func (s *Server) handleDailyStatus(w http.ResponseWriter, r *http.Request) {
	uid := s.playerID(w, r)
	p := s.playerFor(uid)
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx := r.Context()
	today := daily.Key(s.clock.Now().UTC())
	res := dailyStatusRes{Date: today, WordLength: p.stats.Settings(ctx).WordLength}
	if rec, ok := p.stats.Daily(ctx); ok && rec.Completed && rec.Date == today {
		res.Completed = true
		res.Won = rec.Won
		res.WordLength = rec.WordLength
		res.Guesses = rec.Guesses
	}
	_ = json.NewEncoder(w).Encode(res)
}

// leaderboardRes is returned by /daily/leaderboard.
type leaderboardRes struct {
	Date string                 `json:"date"`
	Top  []store.LeaderboardRow `json:"top"`
}

// handleDailyLeaderboard returns the winners for the given date
// (default today), fastest solves first.
func (s *Server) handleDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.Key(s.clock.Now().UTC())
	}
	rows, err := s.db.DailyLeaderboard(r.Context(), date, 20)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("daily leaderboard")
		http.Error(w, `{"error":"server error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(leaderboardRes{Date: date, Top: rows})
}
