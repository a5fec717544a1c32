// internal/game/types.go
//
// Core type definitions for the wordrow game engine.
// Defines:
//   - LetterStatus: per-letter result of a guess (correct/present/absent).
//   - Feedback: one scored letter of a guess.
//   - HintSummary: the loose per-guess hint shown under the board.
//   - Mode / Status: session mode and lifecycle state enums.
//   - Guess: one committed guess with its feedback and hint.
//   - Session: state for a single in-progress or finished game.

package game

import "time"

// LetterStatus is the evaluation result for a single letter in a guess.
// Possible values:
//   - "correct": letter is in the secret and in the correct position.
//   - "present": letter exists in the secret but in a different position.
//   - "absent":  letter does not occur in the secret (or all of its
//     occurrences are already accounted for by other tiles).
type LetterStatus string

const (
	LetterCorrect LetterStatus = "correct"
	LetterPresent LetterStatus = "present"
	LetterAbsent  LetterStatus = "absent"
)

// rank orders letter statuses for keyboard upgrades:
// absent < present < correct. A key's status only ever moves up.
func (s LetterStatus) rank() int {
	switch s {
	case LetterCorrect:
		return 2
	case LetterPresent:
		return 1
	default:
		return 0
	}
}

// Feedback is the scored result for one tile of a guess.
type Feedback struct {
	Letter string       `json:"letter"`
	Status LetterStatus `json:"status"`
}

// HintSummary is the coarse summary shown after each guess. It is looser
// than tile feedback on purpose: LettersInWord counts each distinct guess
// letter once if it occurs anywhere in the secret, with no multiset
// accounting against other tiles.
type HintSummary struct {
	CorrectPosition int `json:"correctPosition"`
	LettersInWord   int `json:"lettersInWord"`
}

// Mode selects how the secret word is chosen.
type Mode string

const (
	ModeDaily     Mode = "daily"
	ModeUnlimited Mode = "unlimited"
)

// Status is the session lifecycle state. Transitions are forward-only:
// playing → won or playing → lost, and terminal states never change.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Guess is one committed guess row.
type Guess struct {
	Word     string      `json:"word"`
	Feedback []Feedback  `json:"feedback"`
	Hint     HintSummary `json:"hint"`
}

// Session holds the state of a single game. The secret is never
// serialized; HTTP handlers reveal it separately once the game is over.
type Session struct {
	ID          string    `json:"id"`
	WordLength  int       `json:"wordLength"`
	MaxAttempts int       `json:"maxAttempts"`
	Mode        Mode      `json:"mode"`
	Status      Status    `json:"status"`
	Secret      string    `json:"-"`
	Guesses     []Guess   `json:"guesses"`
	Keyboard    Keyboard  `json:"keyboard"`
	Buffer      string    `json:"currentInput"`
	Date        string    `json:"date,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
}

// Over reports whether the session has reached a terminal state.
func (s *Session) Over() bool {
	return s.Status == StatusWon || s.Status == StatusLost
}

// AttemptsUsed is the number of committed guesses.
func (s *Session) AttemptsUsed() int { return len(s.Guesses) }

// clone returns a deep copy so callers can hand out read-only snapshots.
func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Guesses = make([]Guess, len(s.Guesses))
	copy(cp.Guesses, s.Guesses)
	cp.Keyboard = s.Keyboard.clone()
	return &cp
}
