// internal/httpserver/server.go
//
// HTTP wiring for the word game engine.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     per-client rate limiting, optional tracing).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): /game/new, /game/guess, /game/letter,
//     /game/backspace, /game/reset, /game/state.
//   - Player records (optional auth): /stats/me, /settings.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + history endpoints: /auth/*, /games/mine (require auth).
//
// Notes:
//   - Every request resolves to one player identity: the authenticated user
//     when a valid token is present, otherwise an anonymous cookie ID.
//   - Each identity owns one engine plus a KV-scoped stats store, held in
//     memory behind a per-player mutex. The engine itself is not safe for
//     concurrent use; the mutex is the serialization point.
//   - Game history rows are best-effort: a failed insert is logged and play
//     continues.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/jlfenwick/wordrow/internal/game"
	"github.com/jlfenwick/wordrow/internal/stats"
	"github.com/jlfenwick/wordrow/internal/store"
	"github.com/jlfenwick/wordrow/internal/words"
)

// Server bundles router, database handle, player KV, and the word source.
type Server struct {
	r       *chi.Mux
	db      *store.DB
	kv      store.KV
	words   game.WordSource
	clock   quartz.Clock
	limit   func(http.Handler) http.Handler
	started time.Time

	mu      sync.Mutex
	players map[string]*player
}

// player is the per-identity state: one engine plus the stats store the
// engine records into. All gameplay for an identity is serialized by mu.
type player struct {
	mu    sync.Mutex
	eng   *game.Engine
	stats *stats.Store
}

// New builds a Server with all routes registered. kv backs per-player
// records (stats, settings, daily completion) and may be the same *store.DB
// as db or an in-memory store. A nil clock means the wall clock.
func New(db *store.DB, kv store.KV, src game.WordSource, clock quartz.Clock) *Server {
	if clock == nil {
		clock = quartz.NewReal()
	}
	s := &Server{
		r:       chi.NewRouter(),
		db:      db,
		kv:      kv,
		words:   src,
		clock:   clock,
		started: clock.Now(),
		players: make(map[string]*player),
	}
	s.routes()
	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests and main).
func (s *Server) Router() chi.Router { return s.r }

func (s *Server) routes() {
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)
	s.r.Use(tracing("httpserver"))

	s.limit = rateLimit(rateFromEnv())

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordrow","endpoints":["/health","POST /game/new","POST /game/guess","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", s.handleHealth)

	// Game + player records — OPTIONAL AUTH (guests can play)
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())

		r.Route("/game", func(r chi.Router) {
			r.With(s.limit).Post("/new", s.handleNewGame)
			r.With(s.limit).Post("/guess", s.handleGuess)
			r.With(s.limit).Post("/letter", s.handleLetter)
			r.With(s.limit).Post("/backspace", s.handleBackspace)
			r.With(s.limit).Post("/reset", s.handleReset)
			r.Get("/state", s.handleState)
		})

		r.Get("/stats/me", s.handleStats)
		r.Get("/settings", s.handleGetSettings)
		r.With(s.limit).Put("/settings", s.handlePutSettings)

		s.mountDaily(r)
	})

	// Auth + history (signup/login claim anonymous games)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})
}

// ------------------------------ identity ------------------------------------

// playerID resolves the identity for this request: authenticated user ID if
// present, otherwise the anonymous cookie ID (set on first contact).
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID
	}
	return s.ensureAnonID(w, r)
}

// playerFor returns the player state for an identity, creating the engine
// and its KV-scoped stats store on first sight.
func (s *Server) playerFor(id string) *player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		st := stats.New(store.Scoped(s.kv, "player:"+id))
		p = &player{stats: st, eng: game.NewEngine(s.words, st, s.clock)}
		s.players[id] = p
	}
	return p
}

// ------------------------------ payloads ------------------------------------

type newGameReq struct {
	WordLength int    `json:"wordLength"`
	Mode       string `json:"mode"`
	// Answer overrides the secret when it fits the requested length.
	// Used by tests and local debugging; random/daily word otherwise.
	Answer string `json:"answer,omitempty"`
}

type guessReq struct {
	Guess string `json:"guess"`
}

type letterReq struct {
	Letter string `json:"letter"`
}

// sessionRes is the wire form of a session. The answer field is filled only
// once the game is over; Session itself never serializes the secret.
type sessionRes struct {
	*game.Session
	Answer string `json:"answer,omitempty"`
}

type sessionOnlyRes struct {
	Session *sessionRes `json:"session"`
}

type guessRes struct {
	Guess   game.Guess       `json:"guess"`
	Session *sessionRes      `json:"session"`
	Stats   *stats.GameStats `json:"stats,omitempty"`
}

type stateRes struct {
	Session  *sessionRes        `json:"session"`
	Hint     *game.HintSummary  `json:"hint,omitempty"`
	Settings stats.AppSettings  `json:"settings"`
	Daily    *stats.DailyRecord `json:"daily,omitempty"`
}

type statsRes struct {
	Stats stats.GameStats    `json:"stats"`
	Daily *stats.DailyRecord `json:"daily,omitempty"`
}

type healthRes struct {
	OK      bool           `json:"ok"`
	Uptime  string         `json:"uptime"`
	Answers map[string]int `json:"answers"`
}

func viewOf(sess *game.Session) *sessionRes {
	if sess == nil {
		return nil
	}
	v := &sessionRes{Session: sess}
	if sess.Over() {
		v.Answer = sess.Secret
	}
	return v
}

// ------------------------------ handlers ------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int, len(words.Lengths))
	for _, n := range words.Lengths {
		counts[strconv.Itoa(n)] = words.Count(n)
	}
	_ = json.NewEncoder(w).Encode(healthRes{
		OK:      true,
		Uptime:  s.clock.Now().Sub(s.started).Round(time.Second).String(),
		Answers: counts,
	})
}

// handleNewGame starts a session for the caller, replacing any active one.
// Omitted wordLength falls back to the player's settings; omitted mode means
// unlimited. A DB history row is appended for /games/mine.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	uid := s.playerID(w, r)
	p := s.playerFor(uid)
	p.mu.Lock()
	defer p.mu.Unlock()

	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctx := r.Context()
	mode := game.Mode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if mode == "" {
		mode = game.ModeUnlimited
	}
	length := req.WordLength
	if length == 0 {
		length = p.stats.Settings(ctx).WordLength
	}

	if err := p.eng.Start(ctx, length, mode, req.Answer); err != nil {
		jsonError(w, err.Error(), engineStatus(err))
		return
	}
	sess := p.eng.Session()
	if err := s.db.InsertGame(ctx, sess.ID, uid, string(sess.Mode), sess.WordLength, sess.StartedAt); err != nil {
		log.Warn().Err(err).Str("game", sess.ID).Msg("insert game row")
	}
	_ = json.NewEncoder(w).Encode(sessionOnlyRes{Session: viewOf(sess)})
}

// handleGuess submits a full word. On a terminal guess the response also
// carries the player's refreshed statistics.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	uid := s.playerID(w, r)
	p := s.playerFor(uid)
	p.mu.Lock()
	defer p.mu.Unlock()

	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	g, err := p.eng.SubmitGuess(ctx, req.Guess)
	if err != nil {
		jsonError(w, err.Error(), engineStatus(err))
		return
	}
	sess := p.eng.Session()
	if err := s.db.BumpGuesses(ctx, sess.ID, uid); err != nil {
		log.Warn().Err(err).Str("game", sess.ID).Msg("bump guesses")
	}

	res := guessRes{Guess: g, Session: viewOf(sess)}
	if sess.Over() {
		s.finishGame(ctx, uid, sess)
		st := p.stats.Stats(ctx)
		res.Stats = &st
	}
	_ = json.NewEncoder(w).Encode(res)
}

// finishGame persists the terminal history row and, for daily wins, the
// leaderboard entry. Both are best-effort.
func (s *Server) finishGame(ctx context.Context, uid string, sess *game.Session) {
	now := s.clock.Now().UTC()
	won := sess.Status == game.StatusWon
	if err := s.db.FinishGame(ctx, sess.ID, uid, string(sess.Status), won, now); err != nil {
		log.Warn().Err(err).Str("game", sess.ID).Msg("finish game row")
	}
	if sess.Mode == game.ModeDaily && won {
		err := s.db.InsertDailyResult(ctx, store.DailyResult{
			OwnerID:    uid,
			Date:       sess.Date,
			WordLength: sess.WordLength,
			Won:        true,
			Guesses:    sess.AttemptsUsed(),
			CreatedAt:  now,
		})
		if err != nil {
			log.Warn().Err(err).Str("date", sess.Date).Msg("insert daily result")
		}
	}
}

func (s *Server) handleLetter(w http.ResponseWriter, r *http.Request) {
	uid := s.playerID(w, r)
	p := s.playerFor(uid)
	p.mu.Lock()
	defer p.mu.Unlock()

	var req letterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Letter == "" {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
		return
	}
	for _, c := range req.Letter {
		p.eng.AddLetter(c)
		break
	}
	_ = json.NewEncoder(w).Encode(sessionOnlyRes{Session: viewOf(p.eng.Session())})
}

func (s *Server) handleBackspace(w http.ResponseWriter, r *http.Request) {
	uid := s.playerID(w, r)
	p := s.playerFor(uid)
	p.mu.Lock()
	defer p.mu.Unlock()

	p.eng.RemoveLetter()
	_ = json.NewEncoder(w).Encode(sessionOnlyRes{Session: viewOf(p.eng.Session())})
}

// handleReset restarts the active session with the same setup but a fresh
// secret. The replacement gets its own history row.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	uid := s.playerID(w, r)
	p := s.playerFor(uid)
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx := r.Context()
	if err := p.eng.Reset(ctx); err != nil {
		jsonError(w, err.Error(), engineStatus(err))
		return
	}
	sess := p.eng.Session()
	if err := s.db.InsertGame(ctx, sess.ID, uid, string(sess.Mode), sess.WordLength, sess.StartedAt); err != nil {
		log.Warn().Err(err).Str("game", sess.ID).Msg("insert game row")
	}
	_ = json.NewEncoder(w).Encode(sessionOnlyRes{Session: viewOf(sess)})
}

// handleState returns the full player snapshot: board, keyboard, buffer,
// last hint, settings, and the daily record. Null session when none active.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	uid := s.playerID(w, r)
	p := s.playerFor(uid)
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx := r.Context()
	res := stateRes{
		Session:  viewOf(p.eng.Session()),
		Settings: p.stats.Settings(ctx),
	}
	if hint, ok := p.eng.LastHint(); ok {
		res.Hint = &hint
	}
	if rec, ok := p.stats.Daily(ctx); ok {
		res.Daily = &rec
	}
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid := s.playerID(w, r)
	p := s.playerFor(uid)
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx := r.Context()
	res := statsRes{Stats: p.stats.Stats(ctx)}
	if rec, ok := p.stats.Daily(ctx); ok {
		res.Daily = &rec
	}
	_ = json.NewEncoder(w).Encode(res)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	uid := s.playerID(w, r)
	p := s.playerFor(uid)
	p.mu.Lock()
	defer p.mu.Unlock()

	_ = json.NewEncoder(w).Encode(p.stats.Settings(r.Context()))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	uid := s.playerID(w, r)
	p := s.playerFor(uid)
	p.mu.Lock()
	defer p.mu.Unlock()

	var req stats.AppSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if err := p.stats.SaveSettings(ctx, req); err != nil {
		if errors.Is(err, stats.ErrBadSettings) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("save settings")
		http.Error(w, `{"error":"save failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(p.stats.Settings(ctx))
}

// ------------------------------ helpers -------------------------------------

// engineStatus maps engine errors onto HTTP status codes. Invalid input is
// 400; operations that clash with the current state are 409.
func engineStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrBadLength),
		errors.Is(err, game.ErrNotALetter),
		errors.Is(err, game.ErrBadConfig):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNoSession),
		errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrDailyCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
