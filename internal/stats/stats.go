// internal/stats/stats.go
//
// Persistent player statistics, settings, and the daily completion
// record, serialized as JSON values in an opaque KV store.
//
// Responsibilities:
//   - RecordResult: fold one finished game into the aggregate stats.
//   - RecordDaily / DailyCompleted: the once-per-day challenge record.
//   - Settings round-trip with defaults.
//
// Loading is best effort: a missing or corrupt value falls back to the
// zero record (with a warning) rather than failing the game. Saving
// errors propagate to the caller, which logs and carries on.

package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jlfenwick/wordrow/internal/daily"
	"github.com/jlfenwick/wordrow/internal/store"
)

// Storage keys. One scoped KV per player keeps these from colliding
// across identities.
const (
	statsKey    = "wordrow:stats"
	settingsKey = "wordrow:settings"
	dailyRecKey = "wordrow:daily"
)

// ErrBadSettings rejects settings updates with an unsupported word length.
var ErrBadSettings = errors.New("stats: unsupported word length in settings")

// GameStats is the lifetime aggregate for one player.
type GameStats struct {
	GamesPlayed   int `json:"gamesPlayed"`
	GamesWon      int `json:"gamesWon"`
	CurrentStreak int `json:"currentStreak"`
	BestStreak    int `json:"bestStreak"`
	// GuessDistribution counts wins by the number of attempts used.
	// Losses are not recorded here.
	GuessDistribution map[int]int `json:"guessDistribution"`
}

// AppSettings is the player-facing configuration.
type AppSettings struct {
	WordLength int    `json:"wordLength"`
	Theme      string `json:"theme"`
}

// DefaultSettings returns the out-of-the-box configuration.
func DefaultSettings() AppSettings {
	return AppSettings{WordLength: 5, Theme: "dark"}
}

// DailyRecord remembers the outcome of the current daily challenge.
// A new day simply overwrites it.
type DailyRecord struct {
	Date       string `json:"date"`
	Completed  bool   `json:"completed"`
	Won        bool   `json:"won"`
	WordLength int    `json:"wordLength"`
	Guesses    int    `json:"guesses"`
}

// Store reads and writes one player's records through a KV.
type Store struct {
	kv store.KV
}

// New wires a stats store to its backing KV.
func New(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Stats returns the current aggregate. Missing or unreadable data
// yields the zero aggregate.
func (s *Store) Stats(ctx context.Context) GameStats {
	var gs GameStats
	if !s.load(ctx, statsKey, &gs) {
		gs = GameStats{}
	}
	if gs.GuessDistribution == nil {
		gs.GuessDistribution = map[int]int{}
	}
	return gs
}

// RecordResult folds one finished game into the aggregate and persists
// it. Wins extend the streak and mark the distribution bucket for the
// attempts used; losses reset the streak.
func (s *Store) RecordResult(ctx context.Context, won bool, attemptsUsed int) error {
	gs := s.Stats(ctx)
	gs.GamesPlayed++
	if won {
		gs.GamesWon++
		gs.CurrentStreak++
		if gs.CurrentStreak > gs.BestStreak {
			gs.BestStreak = gs.CurrentStreak
		}
		gs.GuessDistribution[attemptsUsed]++
	} else {
		gs.CurrentStreak = 0
	}
	return s.save(ctx, statsKey, gs)
}

// RecordDaily overwrites the daily record with today's outcome.
func (s *Store) RecordDaily(ctx context.Context, date time.Time, won bool, wordLength, attemptsUsed int) error {
	rec := DailyRecord{
		Date:       daily.Key(date),
		Completed:  true,
		Won:        won,
		WordLength: wordLength,
		Guesses:    attemptsUsed,
	}
	return s.save(ctx, dailyRecKey, rec)
}

// DailyCompleted reports whether the challenge for the given date has
// been recorded. A stale record from an earlier day does not count.
func (s *Store) DailyCompleted(ctx context.Context, date time.Time) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, dailyRecKey)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", dailyRecKey, err)
	}
	if !ok {
		return false, nil
	}
	var rec DailyRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		log.Warn().Err(err).Str("key", dailyRecKey).Msg("corrupt daily record, ignoring")
		return false, nil
	}
	return rec.Completed && rec.Date == daily.Key(date), nil
}

// Daily returns the stored daily record. The boolean reports whether a
// readable record exists at all.
func (s *Store) Daily(ctx context.Context) (DailyRecord, bool) {
	var rec DailyRecord
	if !s.load(ctx, dailyRecKey, &rec) {
		return DailyRecord{}, false
	}
	return rec, true
}

// Settings returns the player's configuration, falling back to
// defaults when nothing readable is stored.
func (s *Store) Settings(ctx context.Context) AppSettings {
	set := DefaultSettings()
	if !s.load(ctx, settingsKey, &set) {
		return DefaultSettings()
	}
	if set.WordLength != 5 && set.WordLength != 6 {
		return DefaultSettings()
	}
	return set
}

// SaveSettings validates and persists the configuration.
func (s *Store) SaveSettings(ctx context.Context, set AppSettings) error {
	if set.WordLength != 5 && set.WordLength != 6 {
		return ErrBadSettings
	}
	if set.Theme == "" {
		set.Theme = DefaultSettings().Theme
	}
	return s.save(ctx, settingsKey, set)
}

// load unmarshals the value under key into out. Returns false when the
// key is missing, unreadable, or corrupt; out is untouched on false.
func (s *Store) load(ctx context.Context, key string, out any) bool {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("load record")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("corrupt record, using defaults")
		return false
	}
	return true
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}
