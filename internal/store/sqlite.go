// internal/store/sqlite.go
//
// SQLite-backed persistence.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying the idempotent schema (kv, users, games, daily_results).
//   - KV implementation over the kv table (player stats and settings).
//   - Relational helpers: user accounts, per-player game history, and the
//     daily leaderboard.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by lookups for rows that do not exist.
var ErrNotFound = errors.New("store: not found")

// DB wraps the SQLite handle. It satisfies KV via the kv table and
// exposes the relational helpers used by the HTTP layer.
type DB struct {
	*sql.DB
}

/**
 * Open opens (and creates if missing) a SQLite database file.
 *
 * - Ensures the parent directory exists for relative DSNs (e.g. ./data/app.db).
 * - Configures busy timeout and WAL journaling mode.
 * - Enforces foreign keys.
 */
func Open(dsn string) (*DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return &DB{DB: db}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE COLLATE NOCASE,
    password_hash TEXT NOT NULL,
    created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS games (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    mode        TEXT NOT NULL,
    word_length INTEGER NOT NULL,
    status      TEXT NOT NULL,
    guesses     INTEGER NOT NULL DEFAULT 0,
    won         INTEGER NOT NULL DEFAULT 0,
    started_at  TEXT NOT NULL,
    finished_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_games_owner ON games(owner_id, started_at);

CREATE TABLE IF NOT EXISTS daily_results (
    owner_id    TEXT NOT NULL,
    date        TEXT NOT NULL,
    word_length INTEGER NOT NULL,
    won         INTEGER NOT NULL,
    guesses     INTEGER NOT NULL,
    created_at  TEXT NOT NULL,
    PRIMARY KEY (owner_id, date)
);
`

// Migrate applies the schema. Every statement is idempotent, so calling
// it on every boot is safe.
func (d *DB) Migrate() error {
	if _, err := d.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ------------------------------- KV ----------------------------------------

func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := d.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (d *DB) Set(ctx context.Context, key, value string) error {
	_, err := d.ExecContext(ctx, `
        INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	return err
}

// ------------------------------ users ---------------------------------------

// User matches the users table shape.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// InsertUser stores a new account row.
func (d *DB) InsertUser(ctx context.Context, u User) error {
	_, err := d.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// UsernameTaken reports whether a username already exists (case-insensitive).
func (d *DB) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var one int
	err := d.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *DB) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := d.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE lower(username)=lower(?)`,
		username)
	return scanUser(row)
}

func (d *DB) UserByID(ctx context.Context, id string) (*User, error) {
	row := d.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// --------------------------- game history -----------------------------------

// GameRow is one entry of a player's game history.
type GameRow struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	WordLength int    `json:"wordLength"`
	Status     string `json:"status"`
	Guesses    int    `json:"guesses"`
	Won        bool   `json:"won"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// InsertGame records a freshly started game for an owner (user or anon).
func (d *DB) InsertGame(ctx context.Context, id, ownerID, mode string, wordLength int, startedAt time.Time) error {
	_, err := d.ExecContext(ctx, `
        INSERT INTO games (id, owner_id, mode, word_length, status, guesses, won, started_at)
        VALUES (?,?,?,?,'playing',0,0,?)`,
		id, ownerID, mode, wordLength, startedAt.UTC().Format(time.RFC3339))
	return err
}

// BumpGuesses increments the guess counter of a game row.
func (d *DB) BumpGuesses(ctx context.Context, gameID, ownerID string) error {
	_, err := d.ExecContext(ctx,
		`UPDATE games SET guesses = guesses + 1 WHERE id=? AND owner_id=?`, gameID, ownerID)
	return err
}

// FinishGame marks a game row terminal.
func (d *DB) FinishGame(ctx context.Context, gameID, ownerID, status string, won bool, finishedAt time.Time) error {
	_, err := d.ExecContext(ctx,
		`UPDATE games SET status=?, won=?, finished_at=? WHERE id=? AND owner_id=?`,
		status, boolToInt(won), finishedAt.UTC().Format(time.RFC3339), gameID, ownerID)
	return err
}

// GamesFor returns an owner's most recent games, newest first.
func (d *DB) GamesFor(ctx context.Context, ownerID string, limit int) ([]GameRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.QueryContext(ctx, `
        SELECT id, mode, word_length, status, guesses, won, started_at, COALESCE(finished_at,'')
        FROM games WHERE owner_id=? ORDER BY started_at DESC LIMIT ?`,
		ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GameRow{}
	for rows.Next() {
		var g GameRow
		var won int
		if err := rows.Scan(&g.ID, &g.Mode, &g.WordLength, &g.Status, &g.Guesses, &won, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, err
		}
		g.Won = won == 1
		out = append(out, g)
	}
	return out, rows.Err()
}

// ClaimGames transfers anonymous history to a user account after auth.
func (d *DB) ClaimGames(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" || anonID == userID {
		return nil
	}
	_, err := d.ExecContext(ctx,
		`UPDATE games SET owner_id=? WHERE owner_id=?`, userID, anonID)
	return err
}

// ------------------------- daily leaderboard --------------------------------

// DailyResult is a single owner's finished daily challenge.
type DailyResult struct {
	OwnerID    string
	Date       string // YYYY-MM-DD, UTC
	WordLength int
	Won        bool
	Guesses    int
	CreatedAt  time.Time
}

/**
 * InsertDailyResult inserts one daily result row.
 *
 * - Respects the (owner_id, date) primary key.
 * - If a row already exists the insert is ignored, so replays cannot
 *   improve a recorded score.
 */
func (d *DB) InsertDailyResult(ctx context.Context, r DailyResult) error {
	_, err := d.ExecContext(ctx, `
        INSERT OR IGNORE INTO daily_results (owner_id, date, word_length, won, guesses, created_at)
        VALUES (?,?,?,?,?,?)`,
		r.OwnerID, r.Date, r.WordLength, boolToInt(r.Won), r.Guesses,
		r.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// LeaderboardRow is one line of the daily leaderboard.
type LeaderboardRow struct {
	Player    string `json:"player"`
	Guesses   int    `json:"guesses"`
	CreatedAt string `json:"createdAt"`
}

/**
 * DailyLeaderboard fetches the winners for a given date.
 *
 * - Only rows that actually solved the puzzle qualify.
 * - Ordered by guesses ASC, then created_at ASC (fewest risky guesses
 *   first, earlier solve breaks ties).
 * - Anonymous players appear under a shortened guest handle.
 */
func (d *DB) DailyLeaderboard(ctx context.Context, date string, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.QueryContext(ctx, `
        SELECT COALESCE(u.username, 'guest-' || substr(d.owner_id, 1, 6)) AS player,
               d.guesses, d.created_at
        FROM daily_results d
        LEFT JOIN users u ON u.id = d.owner_id
        WHERE d.date=? AND d.won=1
        ORDER BY d.guesses ASC, d.created_at ASC
        LIMIT ?`, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaderboardRow, 0, limit)
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Player, &r.Guesses, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
