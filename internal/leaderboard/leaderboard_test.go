package leaderboard

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/Cheese-Cricket-bot/internal/cricket"
	"github.com/redis/go-redis/v9"
)

func newRedisBoard(t *testing.T) *Redis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb)
}

func newSQLiteBoard(t *testing.T) *SQL {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// backends runs fn against every store that needs no external server.
func backends(t *testing.T, fn func(t *testing.T, b cricket.Leaderboard)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("redis", func(t *testing.T) { fn(t, newRedisBoard(t)) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteBoard(t)) })
}

func TestTopNOrdering(t *testing.T) {
	backends(t, func(t *testing.T, b cricket.Leaderboard) {
		ctx := context.Background()
		wins := map[string]int{"u1": 3, "u2": 5, "u3": 3, "u4": 1}
		for id, n := range wins {
			for i := 0; i < n; i++ {
				if err := b.IncrementWin(ctx, id, "name-"+id); err != nil {
					t.Fatalf("IncrementWin: %v", err)
				}
			}
		}
		rows, err := b.TopN(ctx, 3)
		if err != nil {
			t.Fatalf("TopN: %v", err)
		}
		want := []string{"u2", "u1", "u3"}
		if len(rows) != len(want) {
			t.Fatalf("expected %d rows, got %+v", len(want), rows)
		}
		for i, id := range want {
			if rows[i].ParticipantID != id {
				t.Fatalf("row %d: want %s, got %+v", i, id, rows)
			}
		}
		if rows[0].Wins != 5 || rows[0].Name != "name-u2" {
			t.Fatalf("unexpected top row %+v", rows[0])
		}
	})
}

func TestTopNTieAtCutoff(t *testing.T) {
	backends(t, func(t *testing.T, b cricket.Leaderboard) {
		ctx := context.Background()
		for _, id := range []string{"c", "a", "b"} {
			if err := b.IncrementWin(ctx, id, "name-"+id); err != nil {
				t.Fatalf("IncrementWin: %v", err)
			}
		}
		rows, err := b.TopN(ctx, 1)
		if err != nil {
			t.Fatalf("TopN: %v", err)
		}
		if len(rows) != 1 || rows[0].ParticipantID != "a" || rows[0].Wins != 1 {
			t.Fatalf("expected a alone at the cutoff, got %+v", rows)
		}

		_ = b.IncrementWin(ctx, "z", "")
		_ = b.IncrementWin(ctx, "z", "")
		rows, err = b.TopN(ctx, 2)
		if err != nil {
			t.Fatalf("TopN: %v", err)
		}
		if len(rows) != 2 || rows[0].ParticipantID != "z" || rows[1].ParticipantID != "a" {
			t.Fatalf("expected [z a], got %+v", rows)
		}
	})
}

func TestIncrementWinKeepsLastNonEmptyName(t *testing.T) {
	backends(t, func(t *testing.T, b cricket.Leaderboard) {
		ctx := context.Background()
		_ = b.IncrementWin(ctx, "u1", "Alice")
		_ = b.IncrementWin(ctx, "u1", "")
		rows, err := b.TopN(ctx, 10)
		if err != nil {
			t.Fatalf("TopN: %v", err)
		}
		if len(rows) != 1 || rows[0].Name != "Alice" || rows[0].Wins != 2 {
			t.Fatalf("unexpected rows %+v", rows)
		}
		if err := b.IncrementWin(ctx, " ", "x"); !errors.Is(err, ErrEmptyParticipant) {
			t.Fatalf("expected ErrEmptyParticipant, got %v", err)
		}
	})
}

func TestEmptyBoard(t *testing.T) {
	backends(t, func(t *testing.T, b cricket.Leaderboard) {
		rows, err := b.TopN(context.Background(), 10)
		if err != nil || len(rows) != 0 {
			t.Fatalf("expected empty board, got %+v err=%v", rows, err)
		}
	})
}

func TestConcurrentIncrements(t *testing.T) {
	backends(t, func(t *testing.T, b cricket.Leaderboard) {
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := b.IncrementWin(ctx, "u1", "Alice"); err != nil {
					t.Errorf("IncrementWin: %v", err)
				}
			}()
		}
		wg.Wait()
		rows, _ := b.TopN(ctx, 1)
		if len(rows) != 1 || rows[0].Wins != 40 {
			t.Fatalf("lost updates: %+v", rows)
		}
	})
}

func TestRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	b := NewRedis(rdb)
	mr.Close()
	if err := b.IncrementWin(context.Background(), "u1", "A"); err == nil {
		t.Fatalf("expected error with redis down")
	}
}

func TestSQLiteFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wins.db")
	ctx := context.Background()
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = s.IncrementWin(ctx, "u1", "Alice")
	_ = s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	rows, _ := s.TopN(ctx, 10)
	if len(rows) != 1 || rows[0].Wins != 1 {
		t.Fatalf("wins not persisted: %+v", rows)
	}
}

func TestRebindPostgres(t *testing.T) {
	s := NewSQL(nil, DialectPostgres)
	if got := s.rebind("a = ? AND b = ? LIMIT ?"); got != "a = $1 AND b = $2 LIMIT $3" {
		t.Fatalf("rebind: %q", got)
	}
	s = NewSQL(nil, DialectSQLite)
	if got := s.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite rebind must be identity: %q", got)
	}
}

func TestOpen(t *testing.T) {
	b, closeFn, err := Open(Options{})
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	defer closeFn()
	if _, ok := b.(*Memory); !ok {
		t.Fatalf("auto without stores must pick memory, got %T", b)
	}

	if _, _, err := Open(Options{Backend: "mongo"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}

	mr := miniredis.RunT(t)
	b, closeFn, err = Open(Options{RedisURL: "redis://" + mr.Addr() + "/0", CacheTTL: 0})
	if err != nil {
		t.Fatalf("Open redis: %v", err)
	}
	defer closeFn()
	if _, ok := b.(*Redis); !ok {
		t.Fatalf("auto with REDIS_URL must pick redis, got %T", b)
	}

	b, closeFn, err = Open(Options{Backend: "sqlite", SQLitePath: ":memory:", CacheTTL: 1e9})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer closeFn()
	if _, ok := b.(*Cached); !ok {
		t.Fatalf("cache ttl must wrap the store, got %T", b)
	}
}
