// internal/game/engine.go
//
// Session engine for a single wordrow game.
// Responsibilities:
//   - Start sessions for 5- or 6-letter words in daily or unlimited mode.
//   - Validate and apply guesses (length, alphabetic, lifecycle state).
//   - Maintain the uncommitted input buffer and the keyboard map.
//   - Track state transitions: playing → won/lost.
//   - Report terminal results to the stats recorder exactly once.
//
// Notes:
//   - Secrets come from an injected WordSource; the engine never touches
//     word lists or the daily hash directly.
//   - The engine is not safe for concurrent use. Callers that share an
//     Engine across goroutines must serialize access (the HTTP layer
//     holds one mutex per player session).

package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jlfenwick/wordrow/internal/daily"
)

// WordSource supplies secret words. Implemented by the words package.
type WordSource interface {
	RandomWord(length int) (string, error)
	DailyWord(length int, date time.Time) (string, error)
}

// Recorder receives terminal game results and answers daily-completion
// queries. Implemented by the stats package. Dates are passed explicitly
// so the recorder never reads the wall clock on the engine's behalf.
type Recorder interface {
	RecordResult(ctx context.Context, won bool, attemptsUsed int) error
	RecordDaily(ctx context.Context, date time.Time, won bool, wordLength, attemptsUsed int) error
	DailyCompleted(ctx context.Context, date time.Time) (bool, error)
}

var (
	ErrNoSession      = errors.New("no active session")
	ErrGameOver       = errors.New("game is over")
	ErrBadLength      = errors.New("guess has the wrong length")
	ErrNotALetter     = errors.New("guess must contain only letters a-z")
	ErrBadConfig      = errors.New("unsupported word length or mode")
	ErrDailyCompleted = errors.New("daily challenge already completed")
)

// maxAttemptsFor returns the guess budget for a word length.
// Six-letter games get one extra row.
func maxAttemptsFor(length int) int {
	if length == 6 {
		return 7
	}
	return 6
}

// Engine owns at most one active session and applies all mutations to it.
type Engine struct {
	words WordSource
	rec   Recorder
	clock quartz.Clock

	sess *Session
	// dailyDate is pinned when a daily session starts, so a game that
	// straddles midnight is still recorded against the day it began.
	dailyDate time.Time
}

// NewEngine wires an engine to its word source, recorder and clock.
// A nil clock falls back to the real one.
func NewEngine(words WordSource, rec Recorder, clock quartz.Clock) *Engine {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Engine{words: words, rec: rec, clock: clock}
}

// Start begins a new session, replacing any existing one.
// Word length must be 5 or 6; mode must be daily or unlimited.
// A non-empty override becomes the secret when its length matches,
// which is how tests and the debug surface pin a known word.
// In daily mode Start refuses with ErrDailyCompleted once today's
// challenge has been recorded as completed.
func (e *Engine) Start(ctx context.Context, length int, mode Mode, override string) error {
	if length != 5 && length != 6 {
		return ErrBadConfig
	}
	if mode != ModeDaily && mode != ModeUnlimited {
		return ErrBadConfig
	}
	return e.begin(ctx, length, mode, override)
}

// Reset starts a fresh session with the same length and mode.
func (e *Engine) Reset(ctx context.Context) error {
	if e.sess == nil {
		return ErrNoSession
	}
	return e.begin(ctx, e.sess.WordLength, e.sess.Mode, "")
}

func (e *Engine) begin(ctx context.Context, length int, mode Mode, override string) error {
	var day time.Time
	var dateKey string
	if mode == ModeDaily {
		day = e.clock.Now().UTC()
		dateKey = daily.Key(day)
		done, err := e.rec.DailyCompleted(ctx, day)
		if err != nil {
			// Best effort: an unreadable record never locks the player out.
			log.Warn().Err(err).Str("date", dateKey).Msg("check daily completion")
		} else if done {
			return ErrDailyCompleted
		}
	}

	secret := strings.ToLower(strings.TrimSpace(override))
	if len([]rune(secret)) != length || !isAlpha(secret) {
		secret = ""
	}
	if secret == "" {
		var err error
		if mode == ModeDaily {
			secret, err = e.words.DailyWord(length, day)
		} else {
			secret, err = e.words.RandomWord(length)
		}
		if err != nil {
			return fmt.Errorf("pick secret word: %w", err)
		}
	}

	e.sess = &Session{
		ID:          uuid.NewString(),
		WordLength:  length,
		MaxAttempts: maxAttemptsFor(length),
		Mode:        mode,
		Status:      StatusPlaying,
		Secret:      secret,
		Guesses:     []Guess{},
		Keyboard:    Keyboard{},
		Date:        dateKey,
		StartedAt:   e.clock.Now(),
	}
	e.dailyDate = day
	return nil
}

// SubmitGuess validates and commits a guess, returning the scored row.
// Rejected guesses (wrong length, non-alphabetic, game already over)
// leave the session untouched. An accepted guess clears the input
// buffer, upgrades the keyboard and may end the game; the single
// transition into won or lost reports the result to the recorder.
func (e *Engine) SubmitGuess(ctx context.Context, raw string) (Guess, error) {
	if e.sess == nil {
		return Guess{}, ErrNoSession
	}
	s := e.sess
	if s.Over() {
		return Guess{}, ErrGameOver
	}

	guess := strings.ToLower(strings.TrimSpace(raw))
	if len([]rune(guess)) != s.WordLength {
		return Guess{}, ErrBadLength
	}
	if !isAlpha(guess) {
		return Guess{}, ErrNotALetter
	}

	fb := Evaluate(guess, s.Secret)
	g := Guess{Word: guess, Feedback: fb, Hint: Summary(guess, s.Secret)}
	s.Guesses = append(s.Guesses, g)
	s.Keyboard.Upgrade(fb)
	s.Buffer = ""

	if allCorrect(fb) {
		s.Status = StatusWon
	} else if len(s.Guesses) >= s.MaxAttempts {
		s.Status = StatusLost
	}
	if s.Over() {
		e.recordOutcome(ctx, s)
	}
	return g, nil
}

// recordOutcome reports a terminal result. It runs at most once per
// session: Over gates SubmitGuess and terminal states never revert.
// Recorder failures are logged and swallowed so the finished game is
// still shown to the player.
func (e *Engine) recordOutcome(ctx context.Context, s *Session) {
	won := s.Status == StatusWon
	if err := e.rec.RecordResult(ctx, won, s.AttemptsUsed()); err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("record game result")
	}
	if s.Mode == ModeDaily {
		if err := e.rec.RecordDaily(ctx, e.dailyDate, won, s.WordLength, s.AttemptsUsed()); err != nil {
			log.Warn().Err(err).Str("session", s.ID).Msg("record daily result")
		}
	}
}

// AddLetter appends one letter to the uncommitted input buffer.
// It is a silent no-op when no game is being played, the buffer is
// already full, the rune is not a letter, or the keyboard has proven
// the letter absent from the secret.
func (e *Engine) AddLetter(letter rune) {
	s := e.sess
	if s == nil || s.Status != StatusPlaying {
		return
	}
	r := unicode.ToLower(letter)
	if r < 'a' || r > 'z' {
		return
	}
	if len(s.Buffer) >= s.WordLength {
		return
	}
	l := string(r)
	if s.Keyboard.Absent(l) {
		return
	}
	s.Buffer += l
}

// RemoveLetter drops the last buffered letter, if any.
func (e *Engine) RemoveLetter() {
	s := e.sess
	if s == nil || s.Status != StatusPlaying || s.Buffer == "" {
		return
	}
	s.Buffer = s.Buffer[:len(s.Buffer)-1]
}

// Session returns a deep-copied snapshot of the current session, or nil
// when Start has never succeeded. Mutating the snapshot has no effect
// on the engine.
func (e *Engine) Session() *Session {
	return e.sess.clone()
}

// LastHint returns the hint attached to the most recent guess.
func (e *Engine) LastHint() (HintSummary, bool) {
	if e.sess == nil || len(e.sess.Guesses) == 0 {
		return HintSummary{}, false
	}
	return e.sess.Guesses[len(e.sess.Guesses)-1].Hint, true
}
