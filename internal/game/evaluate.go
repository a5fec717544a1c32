// internal/game/evaluate.go
//
// Pure guess scoring.
// Responsibilities:
//   - Evaluate: classic two-pass scoring with duplicate-letter accounting.
//   - Summary: the loose distinct-letter hint shown alongside the tiles.
//   - IsExactMatch: case-insensitive win check.
//
// Everything here is deterministic and mutation-free. Input validation
// (length, character class) belongs to the engine; Evaluate treats a
// length mismatch as a programmer error and panics.

package game

import "strings"

// Evaluate scores guess against secret and returns one Feedback per tile.
//
// Pass 1:
//   - Mark exact matches as correct.
//   - Count the remaining (non-correct) secret letters by letter index.
//
// Pass 2:
//   - For each non-correct tile, left to right: if there is remaining
//     count for that letter, mark present and decrement; otherwise absent.
//
// The two passes guarantee that for any letter, the number of correct
// plus present tiles never exceeds that letter's occurrences in the
// secret. Comparison is case-insensitive.
func Evaluate(guess, secret string) []Feedback {
	guess = strings.ToLower(guess)
	secret = strings.ToLower(secret)

	guessRunes := []rune(guess)
	secretRunes := []rune(secret)
	if len(guessRunes) != len(secretRunes) {
		panic("game: Evaluate called with mismatched lengths")
	}

	n := len(guessRunes)
	res := make([]Feedback, n)

	// Letter frequency for the non-correct positions (a-z).
	var counts [26]int

	// First pass: mark exact matches, collect counts for the rest.
	for i := 0; i < n; i++ {
		res[i].Letter = string(guessRunes[i])
		if guessRunes[i] == secretRunes[i] {
			res[i].Status = LetterCorrect
		} else if j := idx(secretRunes[i]); j >= 0 && j < 26 {
			counts[j]++
		}
	}

	// Second pass: resolve present/absent for the remaining tiles.
	for i := 0; i < n; i++ {
		if res[i].Status == LetterCorrect {
			continue
		}
		j := idx(guessRunes[i])
		if j >= 0 && j < 26 && counts[j] > 0 {
			res[i].Status = LetterPresent
			counts[j]--
		} else {
			res[i].Status = LetterAbsent
		}
	}
	return res
}

// Summary computes the per-guess hint. CorrectPosition counts exact
// position matches. LettersInWord counts distinct guess letters that
// occur anywhere in the secret, each counted once regardless of how
// many tiles carry it. It deliberately over-reports compared to tile
// feedback when the guess repeats a letter.
func Summary(guess, secret string) HintSummary {
	guess = strings.ToLower(guess)
	secret = strings.ToLower(secret)

	var h HintSummary
	seen := map[rune]bool{}
	secretRunes := []rune(secret)
	for i, r := range []rune(guess) {
		if i < len(secretRunes) && secretRunes[i] == r {
			h.CorrectPosition++
		}
		if !seen[r] && strings.ContainsRune(secret, r) {
			h.LettersInWord++
		}
		seen[r] = true
	}
	return h
}

// IsExactMatch reports whether guess equals secret, ignoring case.
func IsExactMatch(guess, secret string) bool {
	return strings.EqualFold(guess, secret)
}

// idx maps a lowercase ASCII letter rune to 0..25.
func idx(r rune) int { return int(r - 'a') }

// isAlpha checks that a string consists only of lowercase a-z.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// allCorrect returns true if every tile is marked correct.
func allCorrect(fb []Feedback) bool {
	for _, f := range fb {
		if f.Status != LetterCorrect {
			return false
		}
	}
	return true
}
