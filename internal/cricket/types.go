package cricket

import (
	"strings"
	"sync"
	"time"
)

// Mode selects who the initiating player faces.
type Mode string

const (
	ModeDuel Mode = "duel"
	ModeCPU  Mode = "cpu"
)

func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "duel", "friend", "pvp", "vs_friend":
		return ModeDuel, true
	case "cpu", "bot", "ai", "vs_cpu":
		return ModeCPU, true
	default:
		return "", false
	}
}

// Phase is the persisted state of a match.
type Phase string

const (
	PhaseAwaitingOpponent Phase = "AWAITING_OPPONENT"
	PhaseTossPending      Phase = "TOSS_PENDING"
	PhaseStrategyPending  Phase = "STRATEGY_PENDING"
	PhaseInningsActive    Phase = "INNINGS_ACTIVE"
	PhaseMatchOver        Phase = "MATCH_OVER"
)

// Strategy is the toss winner's pick.
type Strategy string

const (
	StrategyBat  Strategy = "bat"
	StrategyBowl Strategy = "bowl"
)

func ParseStrategy(s string) (Strategy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bat", "batting":
		return StrategyBat, true
	case "bowl", "bowling", "field":
		return StrategyBowl, true
	default:
		return "", false
	}
}

// TossCall is heads or tails. The value identifies the caller's pick only; it never decides the toss.
type TossCall string

const (
	CallHeads TossCall = "heads"
	CallTails TossCall = "tails"
)

func ParseTossCall(s string) (TossCall, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heads", "head", "h":
		return CallHeads, true
	case "tails", "tail", "t":
		return CallTails, true
	default:
		return "", false
	}
}

// Action is a player input kind routed by the Dispatcher.
type Action string

const (
	ActionSelectMode      Action = "select_mode"
	ActionJoin            Action = "join"
	ActionCallToss        Action = "call_toss"
	ActionChooseStrategy  Action = "choose_strategy"
	ActionChooseNumber    Action = "choose_number"
	ActionSurrender       Action = "surrender"
	ActionShowLeaderboard Action = "show_leaderboard"
)

// transitions lists the actions each phase accepts. select_mode and show_leaderboard do not touch an
// existing match and are handled before phase lookup.
var transitions = map[Phase]map[Action]bool{
	PhaseAwaitingOpponent: {ActionJoin: true},
	PhaseTossPending:      {ActionCallToss: true, ActionSurrender: true},
	PhaseStrategyPending:  {ActionChooseStrategy: true, ActionSurrender: true},
	PhaseInningsActive:    {ActionChooseNumber: true, ActionSurrender: true},
}

func allowed(p Phase, a Action) bool { return transitions[p][a] }

const (
	// CPUPlayerID is the reserved participant id of the scripted opponent.
	CPUPlayerID    = "cpu"
	DefaultCPUName = "APEX AI"

	BallsPerOver = 6
	MinChoice    = 1
	MaxChoice    = 6
)

// Rules is the fixed per-match configuration.
type Rules struct {
	TotalOvers int
	MaxWickets int
}

// DefaultRules is one over, two wickets.
var DefaultRules = Rules{TotalOvers: 1, MaxWickets: 2}

func (r Rules) normalized() Rules {
	if r.TotalOvers <= 0 {
		r.TotalOvers = DefaultRules.TotalOvers
	}
	if r.MaxWickets <= 0 {
		r.MaxWickets = DefaultRules.MaxWickets
	}
	return r
}

// ResultReason explains how a match ended.
type ResultReason string

const (
	ReasonChaseCompleted ResultReason = "chase_completed"
	ReasonDefended       ResultReason = "defended"
	ReasonSurrender      ResultReason = "surrender"
)

// BallOutcome is one resolved ball.
type BallOutcome struct {
	Innings       int
	Over          int // overs completed after this ball
	Ball          int // balls into the current over after this ball (0 when the over just completed)
	BatsmanID     string
	BowlerID      string
	BatsmanChoice int
	BowlerChoice  int
	Runs          int
	Wicket        bool
}

// Result is the terminal outcome of a match.
type Result struct {
	MatchID    string
	SessionID  string
	WinnerID   string
	WinnerName string
	LoserID    string
	LoserName  string
	Reason     ResultReason
	Final      Snapshot
}

// Match is the state of one in-progress match. Fields are mutated only while mu is held by the Engine;
// the pure transition functions in toss.go and ball.go assume the caller holds it.
type Match struct {
	mu sync.Mutex

	ID        string
	SessionID string
	Players   []string
	Names     map[string]string
	Mode      Mode
	Phase     Phase
	Rules     Rules

	Innings int
	Score   int
	Wickets int
	Overs   int
	Balls   int
	Target  int

	TossCaller string
	TossWinner string
	BatFirst   string
	BowlFirst  string
	Batsman    string
	Bowler     string

	Pending  map[string]int
	Timeline []BallOutcome

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *Match) hasPlayer(id string) bool {
	for _, p := range m.Players {
		if p == id {
			return true
		}
	}
	return false
}

func (m *Match) opponent(id string) string {
	for _, p := range m.Players {
		if p != id {
			return p
		}
	}
	return ""
}

func (m *Match) name(id string) string {
	if n := strings.TrimSpace(m.Names[id]); n != "" {
		return n
	}
	return id
}

func (m *Match) isCPU(id string) bool { return m.Mode == ModeCPU && id == CPUPlayerID }

func (m *Match) resetInnings() {
	m.Score, m.Wickets, m.Overs, m.Balls = 0, 0, 0, 0
	m.Pending = make(map[string]int, 2)
	m.Timeline = nil
}

// Snapshot is a read-only copy of a match for rendering. Pending choice values are never exposed.
type Snapshot struct {
	MatchID    string
	SessionID  string
	Mode       Mode
	Phase      Phase
	Rules      Rules
	Players    []string
	Names      map[string]string
	Innings    int
	Score      int
	Wickets    int
	Overs      int
	Balls      int
	Target     int
	TossCaller string
	TossWinner string
	BatFirst   string
	BowlFirst  string
	Batsman    string
	Bowler     string
	Submitted  []string
	Timeline   []BallOutcome
	UpdatedAt  time.Time
}

// Snapshot copies the match. The caller must hold the match lock or own the match exclusively.
func (m *Match) Snapshot() Snapshot {
	names := make(map[string]string, len(m.Names))
	for k, v := range m.Names {
		names[k] = v
	}
	submitted := make([]string, 0, len(m.Pending))
	for _, id := range []string{m.Batsman, m.Bowler} {
		if _, ok := m.Pending[id]; ok && id != "" {
			submitted = append(submitted, id)
		}
	}
	return Snapshot{
		MatchID:    m.ID,
		SessionID:  m.SessionID,
		Mode:       m.Mode,
		Phase:      m.Phase,
		Rules:      m.Rules,
		Players:    append([]string(nil), m.Players...),
		Names:      names,
		Innings:    m.Innings,
		Score:      m.Score,
		Wickets:    m.Wickets,
		Overs:      m.Overs,
		Balls:      m.Balls,
		Target:     m.Target,
		TossCaller: m.TossCaller,
		TossWinner: m.TossWinner,
		BatFirst:   m.BatFirst,
		BowlFirst:  m.BowlFirst,
		Batsman:    m.Batsman,
		Bowler:     m.Bowler,
		Submitted:  submitted,
		Timeline:   append([]BallOutcome(nil), m.Timeline...),
		UpdatedAt:  m.UpdatedAt,
	}
}

// Name returns the display name of a participant, falling back to the id.
func (s Snapshot) Name(id string) string {
	if n := strings.TrimSpace(s.Names[id]); n != "" {
		return n
	}
	return id
}

// RunsNeeded is the remaining chase in innings 2, zero otherwise.
func (s Snapshot) RunsNeeded() int {
	if s.Innings != 2 || s.Target <= s.Score {
		return 0
	}
	return s.Target - s.Score
}
