package leaderboard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-Cricket-bot/internal/cricket"
	"github.com/park285/Cheese-Cricket-bot/internal/obslog"
	"go.uber.org/zap"
)

var ErrEmptyParticipant = errors.New("leaderboard: empty participant id")

// Options picks and configures a backend.
type Options struct {
	// Backend is auto, memory, redis, postgres or sqlite.
	Backend     string
	RedisURL    string
	DatabaseURL string
	SQLitePath  string
	CacheTTL    time.Duration
}

// Open builds the configured leaderboard. auto prefers Postgres, then Redis, then SQLite, then memory.
// The returned close func is never nil.
func Open(opts Options) (cricket.Leaderboard, func() error, error) {
	backend := resolveBackend(opts)
	noop := func() error { return nil }

	var (
		board   cricket.Leaderboard
		closeFn = noop
	)
	switch backend {
	case "memory":
		board = NewMemory()
	case "redis":
		s, err := NewRedisFromURL(opts.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		board, closeFn = s, s.Close
	case "postgres":
		s, err := OpenPostgres(opts.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		board, closeFn = s, s.Close
	case "sqlite":
		s, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		board, closeFn = s, s.Close
	default:
		return nil, noop, fmt.Errorf("unknown leaderboard backend %q", opts.Backend)
	}
	obslog.L().Info("leaderboard_open", zap.String("backend", backend), zap.Duration("cache_ttl", opts.CacheTTL))
	return NewCached(board, opts.CacheTTL), closeFn, nil
}

func resolveBackend(opts Options) string {
	b := strings.ToLower(strings.TrimSpace(opts.Backend))
	if b != "" && b != "auto" {
		return b
	}
	switch {
	case strings.TrimSpace(opts.DatabaseURL) != "":
		return "postgres"
	case strings.TrimSpace(opts.RedisURL) != "":
		return "redis"
	case strings.TrimSpace(opts.SQLitePath) != "":
		return "sqlite"
	default:
		return "memory"
	}
}
