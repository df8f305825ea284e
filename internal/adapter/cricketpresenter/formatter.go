package cricketpresenter

import (
	"strings"
	"time"

	"github.com/park285/Cheese-Cricket-bot/internal/msgcat"
	"github.com/park285/Cheese-Cricket-bot/internal/obslog"
	"github.com/park285/Cheese-Cricket-bot/internal/util"
	"github.com/park285/Cheese-Cricket-bot/pkg/cricketdto"
	"go.uber.org/zap"
)

const keyPrefix = "cricket."

// PrefixProvider exposes the Prefix that Kakao messages should use.
type PrefixProvider interface {
	Prefix() string
}

// Settings are the match-independent values shown in help and toss messages.
type Settings struct {
	CPUName    string
	TotalOvers int
	MaxWickets int
	// FoldLines folds longer messages behind Kakao's see-more marker; 0 uses util.KakaoFoldLines.
	FoldLines int
}

// Formatter renders cricket DTOs into Kakao-friendly text blocks.
type Formatter struct {
	prefixProvider PrefixProvider
	catalog        *msgcat.Catalog
	settings       Settings
}

// NewFormatter renders from catalog, falling back to the embedded defaults per key.
func NewFormatter(provider PrefixProvider, catalog *msgcat.Catalog, settings Settings) *Formatter {
	return &Formatter{prefixProvider: provider, catalog: catalog, settings: settings}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

// view is the data every template sees.
type view struct {
	Prefix     string
	CPUName    string
	TotalOvers int
	MaxWickets int
	Divider    string

	Actor    string
	Other    string
	LastBall string
	Reason   string
	Idle     string
	Limit    int

	Board  *cricketdto.Scoreboard
	Ball   *cricketdto.BallEvent
	Result *cricketdto.MatchResult
	Row    *cricketdto.Standing
}

func (f *Formatter) newView() view {
	return view{
		Prefix:     f.Prefix(),
		CPUName:    f.settings.CPUName,
		TotalOvers: f.settings.TotalOvers,
		MaxWickets: f.settings.MaxWickets,
	}
}

func (f *Formatter) render(key string, v view) string {
	key = keyPrefix + key
	if v.Divider == "" && key != keyPrefix+"divider" {
		v.Divider = f.render("divider", view{})
	}
	if f.catalog != nil {
		out, err := f.catalog.Render(key, v)
		if err == nil {
			return out
		}
		obslog.L().Warn("msgcat_render_error", zap.String("key", key), zap.Error(err))
	}
	out, err := msgcat.Default().Render(key, v)
	if err != nil {
		obslog.L().Error("msgcat_default_render_error", zap.String("key", key), zap.Error(err))
		return ""
	}
	return out
}

func (f *Formatter) fold(text string) string {
	return util.FoldLongMessage(text, f.settings.FoldLines)
}

func (f *Formatter) Help() string {
	return f.fold(f.render("help", f.newView()))
}

// Update renders the room message for one accepted action.
func (f *Formatter) Update(u *cricketdto.Update) string {
	if u == nil || u.Board == nil {
		return ""
	}
	v := f.newView()
	v.Actor = u.ActorName
	v.Board = u.Board
	v.Ball = u.Ball
	v.Result = u.Result
	if u.Ball != nil {
		v.LastBall = f.Ball(u.Ball)
	}

	switch u.Kind {
	case "created":
		if u.Board.Mode == "cpu" {
			return f.render("created_cpu", v)
		}
		return f.render("created_duel", v)
	case "joined":
		return f.render("joined", v)
	case "toss":
		return f.render("toss", v)
	case "strategy":
		return f.render("strategy", v)
	case "waiting":
		v.Other = strings.Join(u.Board.Awaiting, ", ")
		return f.render("waiting", v)
	case "ball":
		return f.render("scorecard", v)
	case "innings_break":
		return f.render("innings_break", v)
	case "finished":
		return f.MatchOver(v)
	default:
		return ""
	}
}

// Ball renders the one-line outcome of a resolved ball.
func (f *Formatter) Ball(b *cricketdto.BallEvent) string {
	if b == nil {
		return ""
	}
	v := f.newView()
	v.Ball = b
	if b.Wicket {
		return f.render("ball_wicket", v)
	}
	return f.render("ball_runs", v)
}

// MatchOver renders the final announcement. v.Result must be set.
func (f *Formatter) MatchOver(v view) string {
	if v.Result == nil {
		return ""
	}
	v.Reason = f.render("reason_"+v.Result.Reason, v)
	return f.render("match_over", v)
}

// Leaderboard renders up to limit rows with a header.
func (f *Formatter) Leaderboard(rows []cricketdto.Standing, limit int) string {
	v := f.newView()
	v.Limit = limit
	header := f.render("leaderboard_header", v)
	if len(rows) == 0 {
		return header + "\n" + f.render("leaderboard_empty", v)
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")
	sb.WriteString(f.render("divider", v))
	for i := range rows {
		if limit > 0 && i >= limit {
			break
		}
		v.Row = &rows[i]
		sb.WriteString("\n")
		sb.WriteString(f.render("leaderboard_row", v))
	}
	return f.fold(sb.String())
}

// Evicted tells the room that an idle match was closed.
func (f *Formatter) Evicted(idle time.Duration) string {
	v := f.newView()
	v.Idle = idle.Round(time.Second).String()
	return f.render("evicted", v)
}

// Error renders a DomainError for the player.
func (f *Formatter) Error(e *cricketdto.DomainError) string {
	if e == nil {
		return ""
	}
	v := f.newView()
	switch e.Code {
	case cricketdto.CodeAlreadyActive:
		return f.render("already_active", v)
	case cricketdto.CodeLeaderboard:
		return f.render("leaderboard_unavailable", v)
	default:
		return f.render("error", v)
	}
}
