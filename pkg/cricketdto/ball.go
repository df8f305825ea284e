package cricketdto

type BallEvent struct {
	Innings       int
	Over          int
	Ball          int
	BatsmanName   string
	BowlerName    string
	BatsmanChoice int
	BowlerChoice  int
	Runs          int
	Wicket        bool
}
