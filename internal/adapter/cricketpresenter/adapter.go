package cricketpresenter

import (
	"errors"

	"github.com/park285/Cheese-Cricket-bot/internal/cricket"
	"github.com/park285/Cheese-Cricket-bot/pkg/cricketdto"
)

func ToDTOScoreboard(s *cricket.Snapshot) *cricketdto.Scoreboard {
	if s == nil {
		return nil
	}
	players := make([]cricketdto.Player, 0, len(s.Players))
	for _, id := range s.Players {
		players = append(players, cricketdto.Player{ID: id, Name: s.Name(id), CPU: isCPU(s, id)})
	}

	var submitted, awaiting []string
	if s.Phase == cricket.PhaseInningsActive {
		done := make(map[string]bool, len(s.Submitted))
		for _, id := range s.Submitted {
			done[id] = true
			submitted = append(submitted, s.Name(id))
		}
		for _, id := range []string{s.Batsman, s.Bowler} {
			if id != "" && !done[id] && !isCPU(s, id) {
				awaiting = append(awaiting, s.Name(id))
			}
		}
	}

	timeline := make([]cricketdto.BallEvent, 0, len(s.Timeline))
	for i := range s.Timeline {
		timeline = append(timeline, *ToDTOBall(s, &s.Timeline[i]))
	}

	total := s.Rules.TotalOvers * cricket.BallsPerOver
	left := total - (s.Overs*cricket.BallsPerOver + s.Balls)
	if left < 0 {
		left = 0
	}

	return &cricketdto.Scoreboard{
		MatchID:        s.MatchID,
		SessionID:      s.SessionID,
		Mode:           string(s.Mode),
		Phase:          string(s.Phase),
		Players:        players,
		TossCallerName: optName(s, s.TossCaller),
		TossWinnerName: optName(s, s.TossWinner),
		Innings:        s.Innings,
		BattingName:    optName(s, s.Batsman),
		BowlingName:    optName(s, s.Bowler),
		BattingCPU:     isCPU(s, s.Batsman),
		BowlingCPU:     isCPU(s, s.Bowler),
		Score:          s.Score,
		Wickets:        s.Wickets,
		Overs:          s.Overs,
		Balls:          s.Balls,
		TotalOvers:     s.Rules.TotalOvers,
		MaxWickets:     s.Rules.MaxWickets,
		Target:         s.Target,
		RunsNeeded:     s.RunsNeeded(),
		BallsLeft:      left,
		Submitted:      submitted,
		Awaiting:       awaiting,
		Timeline:       timeline,
	}
}

func ToDTOBall(s *cricket.Snapshot, b *cricket.BallOutcome) *cricketdto.BallEvent {
	if b == nil {
		return nil
	}
	name := func(id string) string { return id }
	if s != nil {
		name = s.Name
	}
	return &cricketdto.BallEvent{
		Innings:       b.Innings,
		Over:          b.Over,
		Ball:          b.Ball,
		BatsmanName:   name(b.BatsmanID),
		BowlerName:    name(b.BowlerID),
		BatsmanChoice: b.BatsmanChoice,
		BowlerChoice:  b.BowlerChoice,
		Runs:          b.Runs,
		Wicket:        b.Wicket,
	}
}

func ToDTOResult(r *cricket.Result) *cricketdto.MatchResult {
	if r == nil {
		return nil
	}
	return &cricketdto.MatchResult{
		WinnerID:   r.WinnerID,
		WinnerName: r.WinnerName,
		WinnerCPU:  r.WinnerID == cricket.CPUPlayerID,
		LoserName:  r.LoserName,
		Reason:     string(r.Reason),
		Final:      ToDTOScoreboard(&r.Final),
	}
}

func ToDTOUpdate(u *cricket.Update) *cricketdto.Update {
	if u == nil {
		return nil
	}
	return &cricketdto.Update{
		Kind:      string(u.Kind),
		ActorName: u.Snapshot.Name(u.Actor),
		Board:     ToDTOScoreboard(&u.Snapshot),
		Ball:      ToDTOBall(&u.Snapshot, u.Ball),
		Result:    ToDTOResult(u.Result),
	}
}

func ToDTOStandings(rows []cricket.Standing) []cricketdto.Standing {
	out := make([]cricketdto.Standing, 0, len(rows))
	for i, r := range rows {
		name := r.Name
		if name == "" {
			name = r.ParticipantID
		}
		out = append(out, cricketdto.Standing{Rank: i + 1, ParticipantID: r.ParticipantID, Name: name, Wins: r.Wins})
	}
	return out
}

// ToDTOError maps engine failures that reach the player. Ignorable errors return nil.
func ToDTOError(err error) *cricketdto.DomainError {
	switch {
	case err == nil, cricket.Ignorable(err):
		return nil
	case errors.Is(err, cricket.ErrAlreadyActive):
		return &cricketdto.DomainError{Code: cricketdto.CodeAlreadyActive, Message: err.Error()}
	case errors.Is(err, cricket.ErrLeaderboardUnavailable):
		return &cricketdto.DomainError{Code: cricketdto.CodeLeaderboard, Message: err.Error(), Retryable: true}
	default:
		return &cricketdto.DomainError{Code: cricketdto.CodeInternal, Message: err.Error(), Retryable: true}
	}
}

func isCPU(s *cricket.Snapshot, id string) bool {
	return s.Mode == cricket.ModeCPU && id == cricket.CPUPlayerID
}

func optName(s *cricket.Snapshot, id string) string {
	if id == "" {
		return ""
	}
	return s.Name(id)
}
