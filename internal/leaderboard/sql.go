package leaderboard

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/Cheese-Cricket-bot/internal/cricket"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and driver.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// SQL stores wins in the cricket_wins table.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewSQL(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect, now: time.Now}
}

func OpenPostgres(databaseURL string) (*SQL, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	return openChecked(db, DialectPostgres)
}

// OpenSQLite opens a file database, or a private in-memory one for ":memory:".
func OpenSQLite(path string) (*SQL, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("LEADERBOARD_SQLITE_PATH is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// single writer; also keeps one shared connection for :memory:
	db.SetMaxOpenConns(1)
	return openChecked(db, DialectSQLite)
}

func openChecked(db *sql.DB, dialect Dialect) (*SQL, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := NewSQL(db, dialect)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQL) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQL) EnsureSchema(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS cricket_wins (
        participant_id TEXT PRIMARY KEY,
        display_name   TEXT NOT NULL DEFAULT '',
        wins           INTEGER NOT NULL DEFAULT 0,
        updated_at     TIMESTAMP NOT NULL
      )`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("ensure cricket_wins: %w", err)
	}
	return nil
}

func (s *SQL) IncrementWin(ctx context.Context, participantID, name string) error {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return ErrEmptyParticipant
	}
	q := `INSERT INTO cricket_wins (participant_id, display_name, wins, updated_at)
      VALUES (?, ?, 1, ?)
      ON CONFLICT (participant_id) DO UPDATE SET
        wins = cricket_wins.wins + 1,
        display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE cricket_wins.display_name END,
        updated_at = EXCLUDED.updated_at`
	_, err := s.db.ExecContext(ctx, s.rebind(q), participantID, strings.TrimSpace(name), s.now().UTC())
	if err != nil {
		return fmt.Errorf("sql increment win: %w", err)
	}
	return nil
}

func (s *SQL) TopN(ctx context.Context, n int) ([]cricket.Standing, error) {
	q := `SELECT participant_id, display_name, wins FROM cricket_wins
      ORDER BY wins DESC, participant_id ASC`
	var args []any
	if n > 0 {
		q += ` LIMIT ?`
		args = append(args, n)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("sql top: %w", err)
	}
	defer rows.Close()

	out := []cricket.Standing{}
	for rows.Next() {
		var row cricket.Standing
		if err := rows.Scan(&row.ParticipantID, &row.Name, &row.Wins); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQL) rebind(q string) string {
	if s.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
