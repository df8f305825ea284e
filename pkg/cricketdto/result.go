package cricketdto

type MatchResult struct {
	WinnerID   string
	WinnerName string
	WinnerCPU  bool
	LoserName  string
	Reason     string
	Final      *Scoreboard
}

type Standing struct {
	Rank          int
	ParticipantID string
	Name          string
	Wins          int
}
