// internal/words/words.go
//
// Word list management for the game engine.
//
// Responsibilities:
//   - Load an answer list per supported word length from
//     environment-provided files, or fall back to the embedded corpus.
//   - Supply RandomWord and the deterministic DailyWord.
//   - Expose Source, the adapter the session engine consumes.
//
// Environment variables:
//   WORDS_ANSWERS_FILE_5=/path/to/answers5.txt
//   WORDS_ANSWERS_FILE_6=/path/to/answers6.txt
//
// Constraints:
//   • Words are normalized to lowercase; entries that are not alphabetic
//     or have the wrong length are dropped, duplicates collapse.
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/jlfenwick/wordrow/assets"
	"github.com/jlfenwick/wordrow/internal/daily"
)

// Lengths lists the supported word lengths.
var Lengths = []int{5, 6}

var (
	initOnce   sync.Once
	answers    map[int][]string
	initialErr error
)

// Init loads all answer lists exactly once.
// Returns an error if any list fails to load or ends up empty.
func Init() error {
	initOnce.Do(func() {
		answers = make(map[int][]string, len(Lengths))
		for _, n := range Lengths {
			list, err := loadList(n)
			if err != nil {
				initialErr = fmt.Errorf("load %d-letter answers: %w", n, err)
				return
			}
			if len(list) == 0 {
				initialErr = fmt.Errorf("words: %d-letter answer list is empty", n)
				return
			}
			answers[n] = list
		}
	})
	return initialErr
}

// loadList resolves one length: an env-provided file wins, the embedded
// corpus is the fallback.
func loadList(length int) ([]string, error) {
	if path := os.Getenv(fmt.Sprintf("WORDS_ANSWERS_FILE_%d", length)); path != "" {
		return readWordFile(path, length)
	}
	lines, err := assets.AnswersList(length)
	if err != nil {
		return nil, err
	}
	return normalize(lines, length), nil
}

// readWordFile loads one word per line from a file.
func readWordFile(path string, length int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return normalize(lines, length), sc.Err()
}

// normalize lowercases and trims every line, keeps alphabetic words of
// the wanted length, and collapses duplicates in list order.
func normalize(lines []string, length int) []string {
	cleaned := lo.Map(lines, func(s string, _ int) string {
		return strings.TrimSpace(strings.ToLower(s))
	})
	valid := lo.Filter(cleaned, func(w string, _ int) bool {
		return len(w) == length && isAlpha(w)
	})
	return lo.Uniq(valid)
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// AnswerList returns the loaded answer list for a length. Nil when the
// length is unsupported or Init has not run.
func AnswerList(length int) []string {
	return answers[length]
}

// Count returns the number of loaded answers for a length.
func Count(length int) int {
	return len(answers[length])
}

// RandomWord returns a cryptographically random answer of the given length.
func RandomWord(length int) (string, error) {
	list := answers[length]
	if len(list) == 0 {
		return "", fmt.Errorf("words: no %d-letter answers loaded", length)
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	if err != nil {
		return "", err
	}
	return list[nBig.Int64()], nil
}

// DailyWord returns the answer scheduled for a UTC calendar date.
// Every caller sees the same word for the same date and length.
func DailyWord(length int, date time.Time) (string, error) {
	list := answers[length]
	if len(list) == 0 {
		return "", fmt.Errorf("words: no %d-letter answers loaded", length)
	}
	return list[daily.WordIndex(date, len(list))], nil
}

// Source adapts the package to the engine's word source interface.
type Source struct{}

func (Source) RandomWord(length int) (string, error) { return RandomWord(length) }

func (Source) DailyWord(length int, date time.Time) (string, error) {
	return DailyWord(length, date)
}
