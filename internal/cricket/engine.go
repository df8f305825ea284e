package cricket

import (
	"context"
	"strings"
	"time"

	"github.com/park285/Cheese-Cricket-bot/internal/obslog"
	"go.uber.org/zap"
)

// UpdateKind tells the presentation layer what just happened.
type UpdateKind string

const (
	UpdateCreated      UpdateKind = "created"
	UpdateJoined       UpdateKind = "joined"
	UpdateToss         UpdateKind = "toss"
	UpdateStrategy     UpdateKind = "strategy"
	UpdateWaiting      UpdateKind = "waiting"
	UpdateBall         UpdateKind = "ball"
	UpdateInningsBreak UpdateKind = "innings_break"
	UpdateFinished     UpdateKind = "finished"
)

// Update is the engine's answer to one accepted action.
type Update struct {
	Kind     UpdateKind
	Snapshot Snapshot
	Ball     *BallOutcome
	Result   *Result
	// Actor is the participant whose action produced the update.
	Actor string
}

type Engine struct {
	registry *Registry
	rng      Source
	notifier *Notifier
	board    Leaderboard
	rules    Rules
	cpuName  string
	logger   *zap.Logger
	now      func() time.Time
}

type Option func(*Engine)

func WithRules(r Rules) Option { return func(e *Engine) { e.rules = r.normalized() } }

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithCPUName(name string) Option {
	return func(e *Engine) {
		if n := strings.TrimSpace(name); n != "" {
			e.cpuName = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wires the registry, random source and leaderboard. A nil source uses crypto/rand; a nil
// leaderboard disables win recording.
func NewEngine(registry *Registry, rng Source, board Leaderboard, opts ...Option) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	if rng == nil {
		rng = NewCryptoSource()
	}
	e := &Engine{
		registry: registry,
		rng:      rng,
		board:    board,
		rules:    DefaultRules,
		cpuName:  DefaultCPUName,
		logger:   obslog.L(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry.now = e.now
	e.notifier = NewNotifier(board, e.logger)
	return e
}

func (e *Engine) Registry() *Registry { return e.registry }

// SelectMode starts a match for the session.
func (e *Engine) SelectMode(ctx context.Context, sessionID, playerID, name string, mode Mode) (*Update, error) {
	m, err := e.registry.Create(sessionID, mode, playerID, name, e.rules)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Mode == ModeCPU {
		m.Names[CPUPlayerID] = e.cpuName
	}
	e.logger.Info("cricket_match_create",
		zap.String("match_id", m.ID),
		zap.String("session_id", m.SessionID),
		zap.String("mode", string(m.Mode)),
		zap.String("player_id", playerID),
	)
	return &Update{Kind: UpdateCreated, Snapshot: m.Snapshot(), Actor: playerID}, nil
}

func (e *Engine) Join(ctx context.Context, sessionID, playerID, name string) (*Update, error) {
	return e.apply(ctx, sessionID, playerID, func(m *Match) (*Update, *Result, error) {
		if err := Join(m, playerID, name, e.rng); err != nil {
			return nil, nil, err
		}
		e.logger.Info("cricket_join", zap.String("match_id", m.ID), zap.String("player_id", playerID), zap.String("toss_caller", m.TossCaller))
		return &Update{Kind: UpdateJoined}, nil, nil
	})
}

func (e *Engine) CallToss(ctx context.Context, sessionID, playerID string, call TossCall) (*Update, error) {
	return e.apply(ctx, sessionID, playerID, func(m *Match) (*Update, *Result, error) {
		if err := CallToss(m, playerID, call, e.rng); err != nil {
			return nil, nil, err
		}
		e.logger.Info("cricket_toss", zap.String("match_id", m.ID), zap.String("call", string(call)), zap.String("winner", m.TossWinner))
		return &Update{Kind: UpdateToss}, nil, nil
	})
}

func (e *Engine) ChooseStrategy(ctx context.Context, sessionID, playerID string, strategy Strategy) (*Update, error) {
	return e.apply(ctx, sessionID, playerID, func(m *Match) (*Update, *Result, error) {
		if err := ChooseStrategy(m, playerID, strategy); err != nil {
			return nil, nil, err
		}
		e.logger.Info("cricket_strategy", zap.String("match_id", m.ID), zap.String("bat_first", m.BatFirst), zap.String("bowl_first", m.BowlFirst))
		return &Update{Kind: UpdateStrategy}, nil, nil
	})
}

func (e *Engine) ChooseNumber(ctx context.Context, sessionID, playerID string, value int) (*Update, error) {
	return e.apply(ctx, sessionID, playerID, func(m *Match) (*Update, *Result, error) {
		innings := m.Innings
		out, res, err := SubmitChoice(m, playerID, value, e.rng)
		if err != nil {
			return nil, nil, err
		}
		if out == nil {
			return &Update{Kind: UpdateWaiting}, nil, nil
		}
		e.logger.Debug("cricket_ball",
			zap.String("match_id", m.ID),
			zap.Int("innings", out.Innings),
			zap.Int("bat", out.BatsmanChoice),
			zap.Int("bowl", out.BowlerChoice),
			zap.Bool("wicket", out.Wicket),
		)
		switch {
		case res != nil:
			return &Update{Kind: UpdateFinished, Ball: out}, res, nil
		case m.Innings != innings:
			e.logger.Info("cricket_innings_break", zap.String("match_id", m.ID), zap.Int("target", m.Target))
			return &Update{Kind: UpdateInningsBreak, Ball: out}, nil, nil
		default:
			return &Update{Kind: UpdateBall, Ball: out}, nil, nil
		}
	})
}

func (e *Engine) Surrender(ctx context.Context, sessionID, playerID string) (*Update, error) {
	return e.apply(ctx, sessionID, playerID, func(m *Match) (*Update, *Result, error) {
		res, err := Surrender(m, playerID)
		if err != nil {
			return nil, nil, err
		}
		return &Update{Kind: UpdateFinished}, res, nil
	})
}

// Standings reads the top n leaderboard rows.
func (e *Engine) Standings(ctx context.Context, n int) ([]Standing, error) {
	if e.board == nil {
		return nil, nil
	}
	return e.board.TopN(ctx, n)
}

// EvictIdle removes matches untouched since before and returns their last snapshots.
func (e *Engine) EvictIdle(before time.Time) []Snapshot {
	var out []Snapshot
	for _, m := range e.registry.idle(before) {
		m.mu.Lock()
		if m.Phase == PhaseMatchOver || !m.UpdatedAt.Before(before) {
			m.mu.Unlock()
			continue
		}
		m.Phase = PhaseMatchOver
		snap := m.Snapshot()
		e.registry.removeIf(m)
		m.mu.Unlock()
		e.logger.Info("cricket_match_evict", zap.String("match_id", snap.MatchID), zap.String("session_id", snap.SessionID))
		out = append(out, snap)
	}
	return out
}

// apply runs one transition under the match lock. A finished match leaves the registry before the lock
// is released; the leaderboard is told afterwards, outside the lock.
func (e *Engine) apply(ctx context.Context, sessionID, actor string, step func(m *Match) (*Update, *Result, error)) (*Update, error) {
	m := e.registry.Get(sessionID)
	if m == nil {
		return nil, ErrNotFound
	}

	m.mu.Lock()
	if m.Phase == PhaseMatchOver {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	upd, res, err := step(m)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.UpdatedAt = e.now()
	if res != nil {
		e.registry.removeIf(m)
		res.Final.UpdatedAt = m.UpdatedAt
	}
	upd.Snapshot = m.Snapshot()
	upd.Result = res
	upd.Actor = actor
	m.mu.Unlock()

	if res != nil {
		e.logger.Info("cricket_match_over",
			zap.String("match_id", res.MatchID),
			zap.String("session_id", res.SessionID),
			zap.String("winner_id", res.WinnerID),
			zap.String("reason", string(res.Reason)),
		)
		_ = e.notifier.RecordWin(ctx, res)
	}
	return upd, nil
}
