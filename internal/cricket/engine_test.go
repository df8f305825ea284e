package cricket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestVsCPU_FirstInningsTargetAfterWicket(t *testing.T) {
	rng := script()
	board := newMemBoard()
	e := newTestEngine(t, rng, board)
	ctx := context.Background()
	startCPU(t, e, "room", "h", StrategyBat)

	human := []int{4, 3, 6, 2}
	cpu := []int{1, 2, 5, 2}
	var upd *Update
	for i := range human {
		rng.push(cpu[i])
		upd = must(t)(e.ChooseNumber(ctx, "room", "h", human[i]))
		if upd.Kind != UpdateBall {
			t.Fatalf("ball %d: expected ball update, got %s", i+1, upd.Kind)
		}
	}
	if s := upd.Snapshot; s.Score != 13 || s.Wickets != 1 || s.Innings != 1 || s.Balls != 4 {
		t.Fatalf("after 4 balls: score=%d wickets=%d innings=%d balls=%d", s.Score, s.Wickets, s.Innings, s.Balls)
	}
	if !upd.Ball.Wicket || upd.Ball.Runs != 0 {
		t.Fatalf("matching choices must be a wicket with no runs: %+v", upd.Ball)
	}

	rng.push(5)
	upd = must(t)(e.ChooseNumber(ctx, "room", "h", 5))
	if upd.Kind != UpdateInningsBreak {
		t.Fatalf("expected innings break, got %s", upd.Kind)
	}
	s := upd.Snapshot
	if s.Innings != 2 || s.Target != 14 {
		t.Fatalf("innings=%d target=%d, want 2/14", s.Innings, s.Target)
	}
	if s.Score != 0 || s.Wickets != 0 || s.Overs != 0 || s.Balls != 0 {
		t.Fatalf("innings 2 must start from zero: %+v", s)
	}
	if s.Batsman != CPUPlayerID || s.Bowler != "h" {
		t.Fatalf("roles not swapped: bat=%s bowl=%s", s.Batsman, s.Bowler)
	}
}

func TestVsCPU_FirstInningsEndsOnOverCompletion(t *testing.T) {
	rng := script()
	e := newTestEngine(t, rng, newMemBoard())
	ctx := context.Background()
	startCPU(t, e, "room", "h", StrategyBat)

	human := []int{4, 3, 6, 2, 1, 2}
	cpu := []int{1, 2, 5, 2, 3, 4}
	var upd *Update
	for i := range human {
		rng.push(cpu[i])
		upd = must(t)(e.ChooseNumber(ctx, "room", "h", human[i]))
	}
	if upd.Kind != UpdateInningsBreak {
		t.Fatalf("expected innings break after six balls, got %s", upd.Kind)
	}
	if upd.Ball.Over != 1 || upd.Ball.Ball != 0 {
		t.Fatalf("last ball should close the over: %+v", upd.Ball)
	}
	if upd.Snapshot.Target != 17 {
		t.Fatalf("target=%d, want 16+1", upd.Snapshot.Target)
	}
}

func TestDuel_ChaseCompletedOnThirdBall(t *testing.T) {
	rng := script()
	board := newMemBoard()
	e := newTestEngine(t, rng, board)
	ctx := context.Background()
	startDuel(t, e, rng, "room", StrategyBat)

	// the bowler submits first so every ball passes through the waiting state
	play := func(bat string, batN int, bowl string, bowlN int) *Update {
		t.Helper()
		first := must(t)(e.ChooseNumber(ctx, "room", bowl, bowlN))
		if first.Kind != UpdateWaiting {
			t.Fatalf("expected waiting after first submission, got %s", first.Kind)
		}
		return must(t)(e.ChooseNumber(ctx, "room", bat, batN))
	}

	play("u1", 6, "u2", 1)
	play("u1", 5, "u2", 2)
	play("u1", 3, "u2", 3)
	brk := play("u1", 2, "u2", 2)
	if brk.Kind != UpdateInningsBreak || brk.Snapshot.Target != 12 {
		t.Fatalf("expected innings break with target 12, got %s target=%d", brk.Kind, brk.Snapshot.Target)
	}

	play("u2", 6, "u1", 1)
	play("u2", 4, "u1", 1)
	end := play("u2", 2, "u1", 5)
	if end.Kind != UpdateFinished || end.Result == nil {
		t.Fatalf("expected finished update, got %s", end.Kind)
	}
	if end.Result.WinnerID != "u2" || end.Result.Reason != ReasonChaseCompleted {
		t.Fatalf("winner=%s reason=%s", end.Result.WinnerID, end.Result.Reason)
	}
	if end.Result.Final.Score != 12 || end.Result.Final.Balls != 3 || end.Result.Final.Phase != PhaseMatchOver {
		t.Fatalf("unexpected final snapshot: %+v", end.Result.Final)
	}
	if e.Registry().Get("room") != nil {
		t.Fatalf("finished match must leave the registry")
	}
	if board.winsOf("u2") != 1 || board.winsOf("u1") != 0 {
		t.Fatalf("leaderboard not updated for winner only")
	}
	if _, err := e.ChooseNumber(ctx, "room", "u2", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after match end, got %v", err)
	}
}

func TestDuel_DefendedSuccessfully(t *testing.T) {
	rng := script()
	board := newMemBoard()
	e := newTestEngine(t, rng, board)
	ctx := context.Background()
	startDuel(t, e, rng, "room", StrategyBowl)

	// u2 bats first: two quick wickets, score 0, target 1
	for i := 0; i < 2; i++ {
		must(t)(e.ChooseNumber(ctx, "room", "u1", 4))
		must(t)(e.ChooseNumber(ctx, "room", "u2", 4))
	}
	if m := e.Registry().Get("room"); m == nil || m.Snapshot().Target != 1 {
		t.Fatalf("expected target 1 after two wickets")
	}
	// u1 chases 1 but is dismissed twice
	var upd *Update
	for i := 0; i < 2; i++ {
		must(t)(e.ChooseNumber(ctx, "room", "u2", 3))
		upd = must(t)(e.ChooseNumber(ctx, "room", "u1", 3))
	}
	if upd.Kind != UpdateFinished || upd.Result.WinnerID != "u2" || upd.Result.Reason != ReasonDefended {
		t.Fatalf("expected u2 to defend, got %+v", upd.Result)
	}
	if board.winsOf("u2") != 1 {
		t.Fatalf("defender win not recorded")
	}
}

func TestVsCPU_TossAlwaysWonByHuman(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		e := newTestEngine(t, NewSeededSource(seed), nil)
		ctx := context.Background()
		must(t)(e.SelectMode(ctx, "room", "h", "Human", ModeCPU))
		upd := must(t)(e.CallToss(ctx, "room", "h", CallTails))
		if upd.Snapshot.TossWinner != "h" || upd.Snapshot.Phase != PhaseStrategyPending {
			t.Fatalf("seed %d: toss winner=%s phase=%s", seed, upd.Snapshot.TossWinner, upd.Snapshot.Phase)
		}
	}
}

func TestChooseNumber_DuplicateSubmissionIsNoop(t *testing.T) {
	rng := script()
	e := newTestEngine(t, rng, nil)
	ctx := context.Background()
	startDuel(t, e, rng, "room", StrategyBat)

	must(t)(e.ChooseNumber(ctx, "room", "u1", 3))
	before := e.Registry().Get("room").Snapshot()
	if _, err := e.ChooseNumber(ctx, "room", "u1", 5); !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}
	after := e.Registry().Get("room").Snapshot()
	if before.Score != after.Score || before.Balls != after.Balls || len(after.Submitted) != 1 {
		t.Fatalf("duplicate changed state: before=%+v after=%+v", before, after)
	}
	// the original choice stands: bowler 5 vs batsman 3 scores 3
	upd := must(t)(e.ChooseNumber(ctx, "room", "u2", 5))
	if upd.Ball.Runs != 3 {
		t.Fatalf("expected original choice 3 to be used, got %+v", upd.Ball)
	}
}

func TestSurrender(t *testing.T) {
	ctx := context.Background()

	t.Run("cpu wins records nothing", func(t *testing.T) {
		board := newMemBoard()
		e := newTestEngine(t, script(), board)
		must(t)(e.SelectMode(ctx, "room", "h", "Human", ModeCPU))
		upd := must(t)(e.Surrender(ctx, "room", "h"))
		if upd.Result.WinnerID != CPUPlayerID || upd.Result.Reason != ReasonSurrender {
			t.Fatalf("unexpected result %+v", upd.Result)
		}
		if rows, _ := board.TopN(ctx, 10); len(rows) != 0 {
			t.Fatalf("cpu win must not be recorded: %+v", rows)
		}
		if e.Registry().Len() != 0 {
			t.Fatalf("match not removed")
		}
	})

	t.Run("duel credits opponent", func(t *testing.T) {
		rng := script()
		board := newMemBoard()
		e := newTestEngine(t, rng, board)
		startDuel(t, e, rng, "room", StrategyBat)
		upd := must(t)(e.Surrender(ctx, "room", "u1"))
		if upd.Result.WinnerID != "u2" || board.winsOf("u2") != 1 {
			t.Fatalf("opponent not credited: %+v", upd.Result)
		}
	})

	t.Run("not allowed while waiting for opponent", func(t *testing.T) {
		e := newTestEngine(t, script(), nil)
		must(t)(e.SelectMode(ctx, "room", "u1", "Alice", ModeDuel))
		if _, err := e.Surrender(ctx, "room", "u1"); !errors.Is(err, ErrIllegalAction) {
			t.Fatalf("expected ErrIllegalAction, got %v", err)
		}
	})

	t.Run("spectator cannot surrender", func(t *testing.T) {
		e := newTestEngine(t, script(), nil)
		must(t)(e.SelectMode(ctx, "room", "h", "Human", ModeCPU))
		if _, err := e.Surrender(ctx, "room", "someone"); !errors.Is(err, ErrIllegalAction) {
			t.Fatalf("expected ErrIllegalAction, got %v", err)
		}
	})
}

func TestLeaderboardFailureDoesNotBlockTermination(t *testing.T) {
	board := newMemBoard()
	board.fail = errBoardDown
	rng := script()
	e := newTestEngine(t, rng, board)
	ctx := context.Background()
	startDuel(t, e, rng, "room", StrategyBat)

	upd, err := e.Surrender(ctx, "room", "u2")
	if err != nil {
		t.Fatalf("leaderboard failure leaked to caller: %v", err)
	}
	if upd.Result == nil || upd.Result.WinnerID != "u1" {
		t.Fatalf("expected u1 to win, got %+v", upd.Result)
	}
	if e.Registry().Get("room") != nil {
		t.Fatalf("match must be removed despite leaderboard failure")
	}
}

func TestConcurrentSubmissionsResolveOnce(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		rng := script()
		e := newTestEngine(t, rng, nil)
		startDuel(t, e, rng, "room", StrategyBat)

		var wg sync.WaitGroup
		results := make(chan *Update, 2)
		for _, p := range []struct {
			id string
			n  int
		}{{"u1", 2}, {"u2", 5}} {
			wg.Add(1)
			go func(id string, n int) {
				defer wg.Done()
				if upd, err := e.ChooseNumber(ctx, "room", id, n); err == nil {
					results <- upd
				}
			}(p.id, p.n)
		}
		wg.Wait()
		close(results)

		resolved := 0
		for upd := range results {
			if upd.Ball != nil {
				resolved++
			}
		}
		snap := e.Registry().Get("room").Snapshot()
		if resolved != 1 || len(snap.Timeline) != 1 || len(snap.Submitted) != 0 {
			t.Fatalf("iteration %d: resolved=%d timeline=%d pending=%d", i, resolved, len(snap.Timeline), len(snap.Submitted))
		}
	}
}

func TestInvariantsHoldAcrossRandomMatches(t *testing.T) {
	ctx := context.Background()
	for seed := int64(1); seed <= 200; seed++ {
		rng := NewSeededSource(seed)
		human := NewSeededSource(seed * 7919)
		e := newTestEngine(t, rng, nil)
		strategy := StrategyBat
		if seed%2 == 0 {
			strategy = StrategyBowl
		}
		startCPU(t, e, "room", "h", strategy)

		for balls := 0; ; balls++ {
			if balls > 2*BallsPerOver*DefaultRules.TotalOvers {
				t.Fatalf("seed %d: match did not end within two innings", seed)
			}
			upd := must(t)(e.ChooseNumber(ctx, "room", "h", human.UniformInt(1, 6)))
			s := upd.Snapshot
			if upd.Kind == UpdateFinished {
				if e.Registry().Len() != 0 {
					t.Fatalf("seed %d: finished match still registered", seed)
				}
				break
			}
			if s.Wickets > s.Rules.MaxWickets || s.Overs > s.Rules.TotalOvers {
				t.Fatalf("seed %d: bounds exceeded %+v", seed, s)
			}
			if (s.Innings == 2) != (s.Target > 0) {
				t.Fatalf("seed %d: target defined outside innings 2: %+v", seed, s)
			}
			if len(s.Submitted) != 0 {
				t.Fatalf("seed %d: cpu mode must never leave a pending choice", seed)
			}
			b := upd.Ball
			if b.Wicket != (b.BatsmanChoice == b.BowlerChoice) {
				t.Fatalf("seed %d: wicket rule broken %+v", seed, b)
			}
			if !b.Wicket && b.Runs != b.BatsmanChoice {
				t.Fatalf("seed %d: runs rule broken %+v", seed, b)
			}
		}
	}
}

func TestEvictIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	e := NewEngine(NewRegistry(), script(), nil, WithClock(clock))
	ctx := context.Background()
	must(t)(e.SelectMode(ctx, "old", "a", "A", ModeCPU))
	now = now.Add(time.Hour)
	must(t)(e.SelectMode(ctx, "fresh", "b", "B", ModeCPU))

	evicted := e.EvictIdle(now.Add(-30 * time.Minute))
	if len(evicted) != 1 || evicted[0].SessionID != "old" {
		t.Fatalf("expected only the old match evicted, got %+v", evicted)
	}
	if e.Registry().Get("old") != nil || e.Registry().Get("fresh") == nil {
		t.Fatalf("registry state wrong after eviction: %v", e.Registry().Sessions())
	}
}
