package cricketdto

// Update pairs an event kind with the views the presenter needs.
type Update struct {
	Kind      string
	ActorName string
	Board     *Scoreboard
	Ball      *BallEvent
	Result    *MatchResult
}
