package cricketpresenter

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/park285/Cheese-Cricket-bot/internal/cricket"
	"github.com/park285/Cheese-Cricket-bot/internal/obslog"
	"github.com/park285/Cheese-Cricket-bot/pkg/cricketdto"
	"go.uber.org/zap"
)

// Presenter delivers formatted messages and scorecard images without coupling to the command layer.
type Presenter struct {
	sendMessage     func(room, message string) error
	sendImage       func(room, imageBase64 string) error
	formatter       *Formatter
	scorecard       ScorecardRenderer
	leaderboardSize int
}

type PresenterOption func(*Presenter)

// WithScorecard attaches a PNG scorecard to ball and match-over messages.
func WithScorecard(r ScorecardRenderer) PresenterOption {
	return func(p *Presenter) { p.scorecard = r }
}

func WithLeaderboardSize(n int) PresenterOption {
	return func(p *Presenter) {
		if n > 0 {
			p.leaderboardSize = n
		}
	}
}

func NewPresenter(sendMessage func(room, message string) error, sendImage func(room, imageBase64 string) error, formatter *Formatter, opts ...PresenterOption) *Presenter {
	p := &Presenter{
		sendMessage:     sendMessage,
		sendImage:       sendImage,
		formatter:       formatter,
		leaderboardSize: 10,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reply renders one dispatcher reply. Ignored replies send nothing.
func (p *Presenter) Reply(ctx context.Context, room string, rep *cricket.Reply) error {
	if p == nil || rep == nil || rep.Ignored {
		return nil
	}
	if rep.Update == nil {
		if rep.Event.Action != cricket.ActionShowLeaderboard {
			return nil
		}
		return p.Board(room, p.formatter.Leaderboard(ToDTOStandings(rep.Standings), p.leaderboardSize), nil)
	}

	upd := ToDTOUpdate(rep.Update)
	text := p.formatter.Update(upd)
	if p.wantsScorecard(upd) {
		img, err := p.scorecard.RenderPNG(ctx, upd.Board)
		if err != nil {
			obslog.L().Warn("scorecard_render_error",
				zap.String("room", room),
				zap.String("match_id", upd.Board.MatchID),
				zap.Error(err),
			)
		} else {
			upd.Board.ScorecardImage = img
		}
	}
	return p.Board(room, text, upd.Board)
}

func (p *Presenter) wantsScorecard(upd *cricketdto.Update) bool {
	if p.scorecard == nil || upd == nil || upd.Board == nil || upd.Ball == nil {
		return false
	}
	return upd.Kind == string(cricket.UpdateBall) || upd.Kind == string(cricket.UpdateFinished)
}

// Failure tells the room about an error the player should see. Stray-input errors send nothing.
func (p *Presenter) Failure(room string, err error) error {
	if p == nil {
		return nil
	}
	dto := ToDTOError(err)
	if dto == nil {
		return nil
	}
	return p.Board(room, p.formatter.Error(dto), nil)
}

func (p *Presenter) Help(room string) error {
	if p == nil {
		return nil
	}
	return p.Board(room, p.formatter.Help(), nil)
}

// Evicted announces a match closed for inactivity.
func (p *Presenter) Evicted(room string, idle time.Duration) error {
	if p == nil {
		return nil
	}
	return p.Board(room, p.formatter.Evicted(idle), nil)
}

// Board sends message and then the scorecard image when one is attached.
func (p *Presenter) Board(room, message string, board *cricketdto.Scoreboard) error {
	if p == nil {
		return nil
	}

	if text := strings.TrimSpace(message); text != "" && p.sendMessage != nil {
		if err := p.sendMessage(room, message); err != nil {
			return err
		}
	}

	if board != nil && len(board.ScorecardImage) > 0 && p.sendImage != nil {
		encoded := base64.StdEncoding.EncodeToString(board.ScorecardImage)
		if err := p.sendImage(room, encoded); err != nil {
			return err
		}
	}

	return nil
}
