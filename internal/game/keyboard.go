// internal/game/keyboard.go
//
// Aggregated per-letter knowledge across all guesses in a session,
// the state the on-screen keyboard renders from.

package game

// Keyboard maps a lowercase letter ("a".."z") to the best status any
// guess has established for it. Letters never guessed are absent from
// the map entirely, which is distinct from LetterAbsent.
type Keyboard map[string]LetterStatus

// Upgrade merges one guess's feedback into the keyboard. A key only
// changes when the incoming status outranks the stored one, so a letter
// proven correct stays correct even if a later tile for the same letter
// scores present or absent.
func (k Keyboard) Upgrade(fb []Feedback) {
	for _, f := range fb {
		cur, ok := k[f.Letter]
		if !ok || f.Status.rank() > cur.rank() {
			k[f.Letter] = f.Status
		}
	}
}

// Absent reports whether the letter has been proven not to occur in the
// secret. Unseen letters are not absent.
func (k Keyboard) Absent(letter string) bool {
	return k[letter] == LetterAbsent
}

func (k Keyboard) clone() Keyboard {
	cp := make(Keyboard, len(k))
	for l, s := range k {
		cp[l] = s
	}
	return cp
}
