package cricket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// scriptSource replays fixed values, then falls back to low.
type scriptSource struct {
	mu   sync.Mutex
	vals []int
}

func script(vals ...int) *scriptSource { return &scriptSource{vals: vals} }

func (s *scriptSource) UniformInt(low, high int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vals) == 0 {
		return low
	}
	v := s.vals[0]
	s.vals = s.vals[1:]
	if v < low || v > high {
		return low
	}
	return v
}

func (s *scriptSource) push(vals ...int) {
	s.mu.Lock()
	s.vals = append(s.vals, vals...)
	s.mu.Unlock()
}

type memBoard struct {
	mu   sync.Mutex
	wins map[string]Standing
	fail error
}

func newMemBoard() *memBoard { return &memBoard{wins: map[string]Standing{}} }

func (b *memBoard) IncrementWin(_ context.Context, id, name string) error {
	if b.fail != nil {
		return b.fail
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.wins[id]
	s.ParticipantID, s.Name = id, name
	s.Wins++
	b.wins[id] = s
	return nil
}

func (b *memBoard) TopN(_ context.Context, n int) ([]Standing, error) {
	if b.fail != nil {
		return nil, b.fail
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Standing, 0, len(b.wins))
	for _, s := range b.wins {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wins > out[j].Wins })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (b *memBoard) winsOf(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.wins[id].Wins
}

var errBoardDown = errors.New("board down")

func newTestEngine(t *testing.T, rng Source, board Leaderboard) *Engine {
	t.Helper()
	return NewEngine(NewRegistry(), rng, board, WithLogger(zap.NewNop()))
}

// must wraps an engine call: must(t)(e.ChooseNumber(...)) fails the test on error or a nil update.
func must(t *testing.T) func(*Update, error) *Update {
	return func(upd *Update, err error) *Update {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if upd == nil {
			t.Fatalf("expected update, got nil")
		}
		return upd
	}
}

// startCPU plays a cpu-mode match up to the first ball with the human batting or bowling first.
func startCPU(t *testing.T, e *Engine, session, human string, strategy Strategy) {
	t.Helper()
	ctx := context.Background()
	must(t)(e.SelectMode(ctx, session, human, "Human", ModeCPU))
	must(t)(e.CallToss(ctx, session, human, CallHeads))
	must(t)(e.ChooseStrategy(ctx, session, human, strategy))
}

// startDuel seats u1 and u2 with u1 calling and winning the toss, then applies u1's strategy.
func startDuel(t *testing.T, e *Engine, rng *scriptSource, session string, strategy Strategy) {
	t.Helper()
	ctx := context.Background()
	must(t)(e.SelectMode(ctx, session, "u1", "Alice", ModeDuel))
	rng.push(0) // toss caller = players[0]
	must(t)(e.Join(ctx, session, "u2", "Bob"))
	rng.push(1) // caller wins
	must(t)(e.CallToss(ctx, session, "u1", CallTails))
	must(t)(e.ChooseStrategy(ctx, session, "u1", strategy))
}
