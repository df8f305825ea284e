package cricketdto

type Player struct {
	ID   string
	Name string
	CPU  bool
}

// Scoreboard is the render-ready view of one match.
type Scoreboard struct {
	MatchID   string
	SessionID string
	Mode      string
	Phase     string
	Players   []Player

	TossCallerName string
	TossWinnerName string

	Innings     int
	BattingName string
	BowlingName string
	BattingCPU  bool
	BowlingCPU  bool

	Score      int
	Wickets    int
	Overs      int
	Balls      int
	TotalOvers int
	MaxWickets int
	Target     int
	RunsNeeded int
	BallsLeft  int

	// Submitted and Awaiting split the active roles by whether they picked for the pending ball.
	// Values stay hidden.
	Submitted []string
	Awaiting  []string
	Timeline  []BallEvent

	// ScorecardImage is an optional PNG.
	ScorecardImage []byte
}
