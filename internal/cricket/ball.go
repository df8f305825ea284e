package cricket

// SubmitChoice records a hidden choice for one of the two active roles. The scripted opponent answers
// immediately. Once both roles have a choice the ball is resolved and its outcome returned; a nil
// outcome means the ball is still waiting on the other side.
func SubmitChoice(m *Match, participantID string, value int, rng Source) (*BallOutcome, *Result, error) {
	if !allowed(m.Phase, ActionChooseNumber) || m.isCPU(participantID) {
		return nil, nil, ErrIllegalAction
	}
	if participantID != m.Batsman && participantID != m.Bowler {
		return nil, nil, ErrIllegalAction
	}
	if value < MinChoice || value > MaxChoice {
		return nil, nil, ErrIllegalAction
	}
	if _, dup := m.Pending[participantID]; dup {
		return nil, nil, ErrDuplicateSubmission
	}
	if m.Pending == nil {
		m.Pending = make(map[string]int, 2)
	}
	m.Pending[participantID] = value

	if other := m.opponent(participantID); m.isCPU(other) {
		if _, ok := m.Pending[other]; !ok {
			m.Pending[other] = rng.UniformInt(MinChoice, MaxChoice)
		}
	}

	_, batReady := m.Pending[m.Batsman]
	_, bowlReady := m.Pending[m.Bowler]
	if !batReady || !bowlReady {
		return nil, nil, nil
	}
	out, res := ResolveBall(m)
	return &out, res, nil
}

// ResolveBall consumes both pending choices and applies one ball. The chase check runs before the
// innings-over check so the winning run ends the match even on the last ball of the over.
func ResolveBall(m *Match) (BallOutcome, *Result) {
	batsman, bowler := m.Batsman, m.Bowler
	bat, bowl := m.Pending[batsman], m.Pending[bowler]
	m.Pending = make(map[string]int, 2)

	m.Balls++
	if m.Balls == BallsPerOver {
		m.Balls = 0
		m.Overs++
	}

	out := BallOutcome{
		Innings:       m.Innings,
		BatsmanID:     batsman,
		BowlerID:      bowler,
		BatsmanChoice: bat,
		BowlerChoice:  bowl,
	}
	if bat == bowl {
		out.Wicket = true
		m.Wickets++
	} else {
		out.Runs = bat
		m.Score += bat
	}
	out.Over, out.Ball = m.Overs, m.Balls
	m.Timeline = append(m.Timeline, out)

	if m.Innings == 2 && m.Score >= m.Target {
		return out, finish(m, batsman, ReasonChaseCompleted)
	}

	if m.Wickets >= m.Rules.MaxWickets || m.Overs >= m.Rules.TotalOvers {
		if m.Innings == 1 {
			m.Target = m.Score + 1
			m.Innings = 2
			m.Batsman, m.Bowler = m.BowlFirst, m.BatFirst
			m.resetInnings()
			return out, nil
		}
		return out, finish(m, bowler, ReasonDefended)
	}
	return out, nil
}

// Surrender ends the match in favour of the remaining participant.
func Surrender(m *Match, participantID string) (*Result, error) {
	if !allowed(m.Phase, ActionSurrender) || m.isCPU(participantID) || !m.hasPlayer(participantID) {
		return nil, ErrIllegalAction
	}
	winner := m.opponent(participantID)
	if winner == "" {
		return nil, ErrIllegalAction
	}
	m.Pending = make(map[string]int, 2)
	return finish(m, winner, ReasonSurrender), nil
}

func finish(m *Match, winnerID string, reason ResultReason) *Result {
	m.Phase = PhaseMatchOver
	loser := m.opponent(winnerID)
	return &Result{
		MatchID:    m.ID,
		SessionID:  m.SessionID,
		WinnerID:   winnerID,
		WinnerName: m.name(winnerID),
		LoserID:    loser,
		LoserName:  m.name(loser),
		Reason:     reason,
		Final:      m.Snapshot(),
	}
}
