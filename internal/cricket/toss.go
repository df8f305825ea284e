package cricket

import "strings"

// Join seats the second duel participant and picks the toss caller uniformly.
func Join(m *Match, participantID, name string, rng Source) error {
	participantID = strings.TrimSpace(participantID)
	if !allowed(m.Phase, ActionJoin) || participantID == "" || participantID == CPUPlayerID {
		return ErrIllegalAction
	}
	if len(m.Players) >= 2 || m.hasPlayer(participantID) {
		return ErrIllegalAction
	}
	m.Players = append(m.Players, participantID)
	m.Names[participantID] = strings.TrimSpace(name)
	m.TossCaller = m.Players[rng.UniformInt(0, 1)]
	m.Phase = PhaseTossPending
	return nil
}

// CallToss decides the toss winner. Against the CPU the human caller always wins so they pick the
// strategy; in a duel the winner is an independent 50/50 draw and the call itself is not compared.
func CallToss(m *Match, callerID string, call TossCall, rng Source) error {
	if !allowed(m.Phase, ActionCallToss) || callerID != m.TossCaller {
		return ErrIllegalAction
	}
	if call != CallHeads && call != CallTails {
		return ErrIllegalAction
	}
	if m.Mode == ModeCPU {
		m.TossWinner = callerID
	} else if rng.UniformInt(0, 1) == 1 {
		m.TossWinner = callerID
	} else {
		m.TossWinner = m.opponent(callerID)
	}
	m.Phase = PhaseStrategyPending
	return nil
}

// ChooseStrategy fixes batting order and opens innings 1.
func ChooseStrategy(m *Match, chooserID string, strategy Strategy) error {
	if !allowed(m.Phase, ActionChooseStrategy) || chooserID != m.TossWinner {
		return ErrIllegalAction
	}
	other := m.opponent(chooserID)
	switch strategy {
	case StrategyBat:
		m.BatFirst, m.BowlFirst = chooserID, other
	case StrategyBowl:
		m.BatFirst, m.BowlFirst = other, chooserID
	default:
		return ErrIllegalAction
	}
	m.Innings = 1
	m.Target = 0
	m.Batsman, m.Bowler = m.BatFirst, m.BowlFirst
	m.resetInnings()
	m.Phase = PhaseInningsActive
	return nil
}
