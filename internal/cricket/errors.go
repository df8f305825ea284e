package cricket

import "errors"

// ErrAlreadyActive is surfaced to the player who tried to start a second match in a session.
var ErrAlreadyActive = errors.New("a match is already active in this session")

// ErrLeaderboardUnavailable wraps backend failures when standings are requested.
var ErrLeaderboardUnavailable = errors.New("leaderboard unavailable")

// These are ignored at the dispatch boundary.
var (
	ErrNotFound            = errors.New("no active match for session")
	ErrIllegalAction       = errors.New("action not allowed for current phase or actor")
	ErrDuplicateSubmission = errors.New("choice already submitted for this ball")
)

// Ignorable reports whether err belongs to the stray-input class the dispatcher drops silently.
func Ignorable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrIllegalAction) || errors.Is(err, ErrDuplicateSubmission)
}
