package cricket

import (
	"context"
	"fmt"
	"strings"

	"github.com/park285/Cheese-Cricket-bot/internal/obslog"
	"go.uber.org/zap"
)

// Standing is one leaderboard row.
type Standing struct {
	ParticipantID string
	Name          string
	Wins          int
}

// Leaderboard persists win counts. Implementations live in internal/leaderboard.
type Leaderboard interface {
	IncrementWin(ctx context.Context, participantID, name string) error
	TopN(ctx context.Context, n int) ([]Standing, error)
}

// Notifier reports human winners to the leaderboard.
type Notifier struct {
	board  Leaderboard
	logger *zap.Logger
}

func NewNotifier(board Leaderboard, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = obslog.L()
	}
	return &Notifier{board: board, logger: logger}
}

// RecordWin credits the winner of res. CPU wins record nothing. Errors are logged and returned for the
// caller's information only; the match has already ended.
func (n *Notifier) RecordWin(ctx context.Context, res *Result) error {
	if n == nil || n.board == nil || res == nil {
		return nil
	}
	if res.WinnerID == CPUPlayerID || strings.TrimSpace(res.WinnerID) == "" {
		return nil
	}
	if err := n.board.IncrementWin(ctx, res.WinnerID, res.WinnerName); err != nil {
		n.logger.Error("leaderboard_record_error",
			zap.String("match_id", res.MatchID),
			zap.String("winner_id", res.WinnerID),
			zap.Error(err),
		)
		return fmt.Errorf("record win: %w", err)
	}
	n.logger.Info("leaderboard_record",
		zap.String("match_id", res.MatchID),
		zap.String("winner_id", res.WinnerID),
		zap.String("reason", string(res.Reason)),
	)
	return nil
}
