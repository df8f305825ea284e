package cricket

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Event is one incoming player action.
type Event struct {
	SessionID string
	ActorID   string
	ActorName string
	Action    Action
	Payload   string
}

// Reply carries whatever the presentation layer should render. Ignored replies render nothing.
type Reply struct {
	Event     Event
	Update    *Update
	Standings []Standing
	Ignored   bool
	// Reason is set on ignored replies for logging.
	Reason error
}

// Dispatcher routes events to the engine. Stray input (unknown session, wrong phase or actor,
// duplicate choice, bad payload) is dropped without an error.
type Dispatcher struct {
	engine          *Engine
	leaderboardSize int
	logger          *zap.Logger
}

func NewDispatcher(engine *Engine, leaderboardSize int) *Dispatcher {
	if leaderboardSize <= 0 {
		leaderboardSize = 10
	}
	return &Dispatcher{engine: engine, leaderboardSize: leaderboardSize, logger: engine.logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (*Reply, error) {
	upd, err := d.route(ctx, ev)
	if err != nil {
		if Ignorable(err) {
			d.logger.Debug("cricket_event_ignored",
				zap.String("session_id", ev.SessionID),
				zap.String("actor_id", ev.ActorID),
				zap.String("action", string(ev.Action)),
				zap.Error(err),
			)
			return &Reply{Event: ev, Ignored: true, Reason: err}, nil
		}
		return nil, err
	}
	if ev.Action == ActionShowLeaderboard {
		rows, err := d.engine.Standings(ctx, d.leaderboardSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLeaderboardUnavailable, err)
		}
		return &Reply{Event: ev, Standings: rows}, nil
	}
	return &Reply{Event: ev, Update: upd}, nil
}

func (d *Dispatcher) route(ctx context.Context, ev Event) (*Update, error) {
	if strings.TrimSpace(ev.ActorID) == "" {
		return nil, ErrIllegalAction
	}
	switch ev.Action {
	case ActionShowLeaderboard:
		return nil, nil
	case ActionSelectMode:
		mode, ok := ParseMode(ev.Payload)
		if !ok {
			return nil, fmt.Errorf("mode %q: %w", ev.Payload, ErrIllegalAction)
		}
		return d.engine.SelectMode(ctx, ev.SessionID, ev.ActorID, ev.ActorName, mode)
	case ActionJoin:
		return d.engine.Join(ctx, ev.SessionID, ev.ActorID, ev.ActorName)
	case ActionCallToss:
		call, ok := ParseTossCall(ev.Payload)
		if !ok {
			return nil, fmt.Errorf("toss call %q: %w", ev.Payload, ErrIllegalAction)
		}
		return d.engine.CallToss(ctx, ev.SessionID, ev.ActorID, call)
	case ActionChooseStrategy:
		s, ok := ParseStrategy(ev.Payload)
		if !ok {
			return nil, fmt.Errorf("strategy %q: %w", ev.Payload, ErrIllegalAction)
		}
		return d.engine.ChooseStrategy(ctx, ev.SessionID, ev.ActorID, s)
	case ActionChooseNumber:
		n, err := strconv.Atoi(strings.TrimSpace(ev.Payload))
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", ev.Payload, errors.Join(ErrIllegalAction, err))
		}
		return d.engine.ChooseNumber(ctx, ev.SessionID, ev.ActorID, n)
	case ActionSurrender:
		return d.engine.Surrender(ctx, ev.SessionID, ev.ActorID)
	default:
		return nil, fmt.Errorf("action %q: %w", ev.Action, ErrIllegalAction)
	}
}
