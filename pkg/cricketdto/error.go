package cricketdto

const (
	CodeAlreadyActive = "already_active"
	CodeLeaderboard   = "leaderboard_unavailable"
	CodeInternal      = "internal"
)

// DomainError is a user-facing failure. Stray inputs never produce one; they are dropped silently.
type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "cricket service error"
}
