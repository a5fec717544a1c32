// internal/daily/daily.go
//
// Deterministic daily word selection. Every player sees the same word
// for a given UTC calendar date because the index is a pure function of
// the date string, reproduced bit-for-bit from the original client:
// a signed 32-bit accumulation of h = h*31 + charCode over the seed
// "{year}-{month}-{day}" with a zero-based month.

package daily

import (
	"fmt"
	"time"
)

// Key returns the canonical YYYY-MM-DD key for a date, in UTC. Daily
// records and leaderboard rows are stored under this key.
func Key(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// seed renders the hash input. The month is zero-based (January is 0)
// and fields are unpadded, e.g. 2026-08-21 seeds "2026-7-21".
func seed(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month())-1, t.Day())
}

// WordIndex maps a date onto an index in [0, listLen). The accumulator
// is int32 so overflow wraps exactly like the 32-bit coercion in the
// original hash; the absolute value is taken in int64 because the
// minimum int32 has no positive counterpart.
func WordIndex(date time.Time, listLen int) int {
	if listLen <= 0 {
		return 0
	}
	var h int32
	for _, r := range seed(date) {
		h = h<<5 - h + int32(r)
	}
	n := int64(h)
	if n < 0 {
		n = -n
	}
	return int(n % int64(listLen))
}
