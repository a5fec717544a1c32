// internal/game/engine_test.go

package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlfenwick/wordrow/internal/daily"
)

type fakeSource struct {
	random map[int]string
	daily  map[int]string
	err    error
}

func (f *fakeSource) RandomWord(length int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.random[length], nil
}

func (f *fakeSource) DailyWord(length int, date time.Time) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.daily[length], nil
}

type recordedResult struct {
	won      bool
	attempts int
}

type recordedDaily struct {
	date     string
	won      bool
	length   int
	attempts int
}

type fakeRecorder struct {
	results   []recordedResult
	dailies   []recordedDaily
	done      map[string]bool
	checkErr  error
	resultErr error
}

func (f *fakeRecorder) RecordResult(ctx context.Context, won bool, attemptsUsed int) error {
	if f.resultErr != nil {
		return f.resultErr
	}
	f.results = append(f.results, recordedResult{won, attemptsUsed})
	return nil
}

func (f *fakeRecorder) RecordDaily(ctx context.Context, date time.Time, won bool, wordLength, attemptsUsed int) error {
	if f.done == nil {
		f.done = map[string]bool{}
	}
	key := daily.Key(date)
	f.dailies = append(f.dailies, recordedDaily{key, won, wordLength, attemptsUsed})
	f.done[key] = true
	return nil
}

func (f *fakeRecorder) DailyCompleted(ctx context.Context, date time.Time) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.done[daily.Key(date)], nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeRecorder, *quartz.Mock) {
	t.Helper()
	src := &fakeSource{
		random: map[int]string{5: "slate", 6: "treble"},
		daily:  map[int]string{5: "crane", 6: "nested"},
	}
	rec := &fakeRecorder{}
	clock := quartz.NewMock(t)
	return NewEngine(src, rec, clock), rec, clock
}

func TestStartValidatesConfig(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		length  int
		mode    Mode
		wantErr error
	}{
		{"length too short", 4, ModeUnlimited, ErrBadConfig},
		{"length too long", 7, ModeDaily, ErrBadConfig},
		{"unknown mode", 5, Mode("speedrun"), ErrBadConfig},
		{"five unlimited", 5, ModeUnlimited, nil},
		{"six daily", 6, ModeDaily, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Start(ctx, tt.length, tt.mode, "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStartOverrideSecret(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "ABIDE"))
	g, err := e.SubmitGuess(ctx, "abide")
	require.NoError(t, err)
	assert.Equal(t, StatusWon, e.Session().Status)
	assert.Equal(t, LetterCorrect, g.Feedback[0].Status)
}

func TestStartOverrideWrongLengthIgnored(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	// A six-letter override cannot seed a five-letter game, so the
	// engine falls back to the word source ("slate").
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "treble"))
	_, err := e.SubmitGuess(ctx, "slate")
	require.NoError(t, err)
	assert.Equal(t, StatusWon, e.Session().Status)
}

func TestMaxAttemptsByLength(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, ""))
	assert.Equal(t, 6, e.Session().MaxAttempts)

	require.NoError(t, e.Start(ctx, 6, ModeUnlimited, ""))
	assert.Equal(t, 7, e.Session().MaxAttempts)
}

func TestWinFlow(t *testing.T) {
	e, rec, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))

	g, err := e.SubmitGuess(ctx, "crane")
	require.NoError(t, err)
	assert.Len(t, g.Feedback, 5)
	assert.Equal(t, StatusPlaying, e.Session().Status)
	assert.Empty(t, rec.results)

	_, err = e.SubmitGuess(ctx, "slate")
	require.NoError(t, err)
	assert.Equal(t, StatusWon, e.Session().Status)
	require.Len(t, rec.results, 1)
	assert.Equal(t, recordedResult{won: true, attempts: 2}, rec.results[0])
	assert.Empty(t, rec.dailies, "unlimited games never touch the daily record")

	// A finished game rejects further guesses and reports nothing more.
	_, err = e.SubmitGuess(ctx, "slate")
	assert.ErrorIs(t, err, ErrGameOver)
	_, err = e.SubmitGuess(ctx, "crane")
	assert.ErrorIs(t, err, ErrGameOver)
	assert.Len(t, rec.results, 1)
}

func TestLossFlow(t *testing.T) {
	e, rec, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))

	for _, w := range []string{"crane", "brick", "gumbo", "pudgy", "fifty", "whorl"} {
		_, err := e.SubmitGuess(ctx, w)
		require.NoError(t, err)
	}

	sess := e.Session()
	assert.Equal(t, StatusLost, sess.Status)
	assert.Equal(t, 6, sess.AttemptsUsed())
	require.Len(t, rec.results, 1)
	assert.Equal(t, recordedResult{won: false, attempts: 6}, rec.results[0])
}

func TestRejectedGuessLeavesStateUntouched(t *testing.T) {
	e, rec, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))

	e.AddLetter('c')
	e.AddLetter('r')

	_, err := e.SubmitGuess(ctx, "cat")
	assert.ErrorIs(t, err, ErrBadLength)
	_, err = e.SubmitGuess(ctx, "sl4te")
	assert.ErrorIs(t, err, ErrNotALetter)
	_, err = e.SubmitGuess(ctx, "")
	assert.ErrorIs(t, err, ErrBadLength)

	sess := e.Session()
	assert.Equal(t, 0, sess.AttemptsUsed())
	assert.Equal(t, "cr", sess.Buffer, "rejected guesses keep the typed buffer")
	assert.Empty(t, sess.Keyboard)
	assert.Empty(t, rec.results)
}

func TestSubmitTrimsAndLowercases(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))

	g, err := e.SubmitGuess(ctx, "  SLATE\n")
	require.NoError(t, err)
	assert.Equal(t, "slate", g.Word)
	assert.Equal(t, StatusWon, e.Session().Status)
}

func TestBufferOps(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))

	for i := 0; i < 8; i++ {
		e.AddLetter('A')
	}
	assert.Equal(t, "aaaaa", e.Session().Buffer, "buffer stops at the word length")

	e.AddLetter('4')
	e.AddLetter(' ')
	assert.Equal(t, "aaaaa", e.Session().Buffer)

	e.RemoveLetter()
	assert.Equal(t, "aaaa", e.Session().Buffer)

	for i := 0; i < 10; i++ {
		e.RemoveLetter()
	}
	assert.Equal(t, "", e.Session().Buffer)
}

func TestAddLetterBlocksProvenAbsent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))

	_, err := e.SubmitGuess(ctx, "quick")
	require.NoError(t, err)

	e.AddLetter('q')
	e.AddLetter('u')
	assert.Equal(t, "", e.Session().Buffer, "letters proven absent are refused")

	e.AddLetter('s')
	assert.Equal(t, "s", e.Session().Buffer, "unseen letters still type")
}

func TestBufferClearedOnAcceptedGuess(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))

	e.AddLetter('s')
	e.AddLetter('l')
	require.Equal(t, "sl", e.Session().Buffer)

	_, err := e.SubmitGuess(ctx, "crane")
	require.NoError(t, err)
	assert.Equal(t, "", e.Session().Buffer)
}

func TestRepeatedGuessAppendsTwice(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))

	// No deduplication: the same word twice burns two attempts.
	_, err := e.SubmitGuess(ctx, "crane")
	require.NoError(t, err)
	_, err = e.SubmitGuess(ctx, "crane")
	require.NoError(t, err)

	sess := e.Session()
	assert.Equal(t, 2, sess.AttemptsUsed())
	assert.Equal(t, sess.Guesses[0], sess.Guesses[1])
	assert.Equal(t, LetterCorrect, sess.Keyboard["a"])
	assert.Equal(t, LetterCorrect, sess.Keyboard["e"])
}

func TestKeyboardThroughEngine(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "seeds"))

	_, err := e.SubmitGuess(ctx, "eerie")
	require.NoError(t, err)

	kb := e.Session().Keyboard
	assert.Equal(t, LetterCorrect, kb["e"])
	assert.Equal(t, LetterAbsent, kb["r"])
	assert.Equal(t, LetterAbsent, kb["i"])
	_, seen := kb["s"]
	assert.False(t, seen)
}

func TestDailyFlow(t *testing.T) {
	e, rec, clock := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Start(ctx, 5, ModeDaily, ""))
	today := daily.Key(clock.Now())
	sess := e.Session()
	assert.Equal(t, ModeDaily, sess.Mode)
	assert.Equal(t, today, sess.Date)

	_, err := e.SubmitGuess(ctx, "crane")
	require.NoError(t, err)
	assert.Equal(t, StatusWon, e.Session().Status)

	require.Len(t, rec.results, 1)
	assert.Equal(t, recordedResult{won: true, attempts: 1}, rec.results[0])
	require.Len(t, rec.dailies, 1)
	assert.Equal(t, recordedDaily{date: today, won: true, length: 5, attempts: 1}, rec.dailies[0])
}

func TestDailyCompletedGate(t *testing.T) {
	e, rec, clock := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Start(ctx, 5, ModeDaily, ""))
	_, err := e.SubmitGuess(ctx, "crane")
	require.NoError(t, err)
	require.Len(t, rec.dailies, 1)

	assert.ErrorIs(t, e.Start(ctx, 5, ModeDaily, ""), ErrDailyCompleted)
	assert.ErrorIs(t, e.Reset(ctx), ErrDailyCompleted)
	assert.NoError(t, e.Start(ctx, 5, ModeUnlimited, ""), "unlimited play is never gated")

	// Crossing midnight UTC reopens the daily challenge.
	clock.Advance(25 * time.Hour)
	assert.NoError(t, e.Start(ctx, 5, ModeDaily, ""))
}

func TestDailyCheckErrorDoesNotBlock(t *testing.T) {
	e, rec, _ := newTestEngine(t)
	rec.checkErr = errors.New("store offline")
	ctx := context.Background()

	require.NoError(t, e.Start(ctx, 5, ModeDaily, ""))
	assert.Equal(t, StatusPlaying, e.Session().Status)
}

func TestRecorderFailureDoesNotFailGuess(t *testing.T) {
	e, rec, _ := newTestEngine(t)
	rec.resultErr = errors.New("disk full")
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))

	_, err := e.SubmitGuess(ctx, "slate")
	assert.NoError(t, err, "a lost stats write must not swallow the win")
	assert.Equal(t, StatusWon, e.Session().Status)
}

func TestResetStartsFresh(t *testing.T) {
	e, rec, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))

	_, err := e.SubmitGuess(ctx, "slate")
	require.NoError(t, err)
	firstID := e.Session().ID
	require.Len(t, rec.results, 1)

	require.NoError(t, e.Reset(ctx))
	sess := e.Session()
	assert.Equal(t, StatusPlaying, sess.Status)
	assert.Equal(t, 0, sess.AttemptsUsed())
	assert.Empty(t, sess.Keyboard)
	assert.Equal(t, 5, sess.WordLength)
	assert.Equal(t, ModeUnlimited, sess.Mode)
	assert.NotEqual(t, firstID, sess.ID)
	assert.Len(t, rec.results, 1, "reset reports nothing")
}

func TestOpsWithoutSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.SubmitGuess(ctx, "slate")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, e.Reset(ctx), ErrNoSession)
	assert.Nil(t, e.Session())

	// Buffer ops are silent no-ops with no session.
	e.AddLetter('a')
	e.RemoveLetter()

	_, ok := e.LastHint()
	assert.False(t, ok)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))
	_, err := e.SubmitGuess(ctx, "crane")
	require.NoError(t, err)

	snap := e.Session()
	snap.Guesses[0].Word = "bogus"
	snap.Keyboard["z"] = LetterCorrect
	snap.Status = StatusLost

	fresh := e.Session()
	assert.Equal(t, "crane", fresh.Guesses[0].Word)
	_, seen := fresh.Keyboard["z"]
	assert.False(t, seen)
	assert.Equal(t, StatusPlaying, fresh.Status)
}

func TestLastHint(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))

	_, ok := e.LastHint()
	assert.False(t, ok)

	_, err := e.SubmitGuess(ctx, "stale")
	require.NoError(t, err)

	hint, ok := e.LastHint()
	require.True(t, ok)
	assert.Equal(t, HintSummary{CorrectPosition: 3, LettersInWord: 5}, hint)
}

func TestStartReplacesActiveSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Start(ctx, 5, ModeUnlimited, "slate"))
	_, err := e.SubmitGuess(ctx, "crane")
	require.NoError(t, err)

	require.NoError(t, e.Start(ctx, 6, ModeUnlimited, ""))
	sess := e.Session()
	assert.Equal(t, 0, sess.AttemptsUsed())
	assert.Equal(t, 6, sess.WordLength)
}
