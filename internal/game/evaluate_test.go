// internal/game/evaluate_test.go

package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func statusesOf(fb []Feedback) []LetterStatus {
	out := make([]LetterStatus, len(fb))
	for i, f := range fb {
		out[i] = f.Status
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		secret string
		want   []LetterStatus
	}{
		{
			name:   "all correct",
			guess:  "crane",
			secret: "crane",
			want:   []LetterStatus{LetterCorrect, LetterCorrect, LetterCorrect, LetterCorrect, LetterCorrect},
		},
		{
			name:   "anagram",
			guess:  "stale",
			secret: "slate",
			want:   []LetterStatus{LetterCorrect, LetterPresent, LetterCorrect, LetterPresent, LetterCorrect},
		},
		{
			name:   "double guess letter single secret occurrence",
			guess:  "speed",
			secret: "abide",
			want:   []LetterStatus{LetterAbsent, LetterAbsent, LetterPresent, LetterAbsent, LetterPresent},
		},
		{
			name:   "triple guess letter double secret occurrence",
			guess:  "eerie",
			secret: "speed",
			want:   []LetterStatus{LetterPresent, LetterPresent, LetterAbsent, LetterAbsent, LetterAbsent},
		},
		{
			name:   "exact match consumes before position scan",
			guess:  "eerie",
			secret: "seeds",
			want:   []LetterStatus{LetterPresent, LetterCorrect, LetterAbsent, LetterAbsent, LetterAbsent},
		},
		{
			name:   "repeated guess letters partially satisfied",
			guess:  "llama",
			secret: "label",
			want:   []LetterStatus{LetterCorrect, LetterPresent, LetterPresent, LetterAbsent, LetterAbsent},
		},
		{
			name:   "no overlap",
			guess:  "quick",
			secret: "slate",
			want:   []LetterStatus{LetterAbsent, LetterAbsent, LetterAbsent, LetterAbsent, LetterAbsent},
		},
		{
			name:   "six letters",
			guess:  "banana",
			secret: "bandit",
			want:   []LetterStatus{LetterCorrect, LetterCorrect, LetterCorrect, LetterAbsent, LetterAbsent, LetterAbsent},
		},
		{
			name:   "six letters with duplicate accounting",
			guess:  "attack",
			secret: "tattle",
			want:   []LetterStatus{LetterPresent, LetterPresent, LetterCorrect, LetterAbsent, LetterAbsent, LetterAbsent},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.guess, tt.secret)
			assert.Equal(t, tt.want, statusesOf(got))
			for i, f := range got {
				assert.Equal(t, string(tt.guess[i]), f.Letter)
			}
		})
	}
}

func TestEvaluateCaseInsensitive(t *testing.T) {
	got := Evaluate("CRaNE", "crane")
	for _, f := range got {
		assert.Equal(t, LetterCorrect, f.Status)
	}
	assert.Equal(t, "c", got[0].Letter, "feedback letters are normalized to lowercase")
}

func TestEvaluatePanicsOnLengthMismatch(t *testing.T) {
	assert.Panics(t, func() { Evaluate("cat", "crane") })
	assert.Panics(t, func() { Evaluate("treble", "slate") })
}

// For every letter, correct plus present tiles never outnumber that
// letter's occurrences in the secret.
func TestEvaluateDuplicateConservation(t *testing.T) {
	pairs := [][2]string{
		{"eerie", "speed"},
		{"geese", "eagle"},
		{"llama", "label"},
		{"speed", "abide"},
		{"attack", "tattle"},
		{"banana", "bandit"},
	}
	for _, p := range pairs {
		guess, secret := p[0], p[1]
		scored := map[string]int{}
		for _, f := range Evaluate(guess, secret) {
			if f.Status != LetterAbsent {
				scored[f.Letter]++
			}
		}
		occ := map[string]int{}
		for _, r := range secret {
			occ[string(r)]++
		}
		for letter, n := range scored {
			assert.LessOrEqual(t, n, occ[letter],
				"letter %q over-scored for guess %q vs secret %q", letter, guess, secret)
		}
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		secret string
		want   HintSummary
	}{
		{"no overlap", "quick", "slate", HintSummary{0, 0}},
		{"anagram", "stale", "slate", HintSummary{3, 5}},
		{"distinct letters counted once", "eerie", "speed", HintSummary{0, 1}},
		{"partial", "llama", "label", HintSummary{1, 2}},
		{"repeat in perfect guess stays distinct", "purple", "purple", HintSummary{6, 5}},
		{"double letter in perfect guess", "speed", "speed", HintSummary{5, 4}},
		{"six letters", "banana", "bandit", HintSummary{3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.guess, tt.secret))
		})
	}
}

func TestIsExactMatch(t *testing.T) {
	assert.True(t, IsExactMatch("crane", "crane"))
	assert.True(t, IsExactMatch("CrAnE", "crane"))
	assert.False(t, IsExactMatch("crane", "slate"))
}
