package cricketpresenter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	"github.com/park285/Cheese-Cricket-bot/pkg/cricketdto"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ScorecardRenderer draws the current innings as a PNG.
type ScorecardRenderer interface {
	RenderPNG(ctx context.Context, board *cricketdto.Scoreboard) ([]byte, error)
}

type svgScorecardRenderer struct{}

func NewScorecardRenderer() ScorecardRenderer {
	return &svgScorecardRenderer{}
}

const (
	cardWidth     = 480
	cardPadding   = 20
	panelRadius   = 12
	panelInset    = 16
	headerHeight  = 44
	summaryHeight = 92
	sectionGap    = 14
	chipSize      = 48
	chipGap       = 14
	ballsPerRow   = 6
	lineHeight    = 20
)

var (
	cardBackground = "#1C1F2E"
	panelFill      = "#262A3F"
	chipRunsFill   = "#2E9E6A"
	chipBigFill    = "#E0A526"
	chipWicketFill = "#D64545"
	chipEmptyLine  = "#4A4F6B"

	textPrimary = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	textMuted   = color.NRGBA{R: 170, G: 178, B: 210, A: 255}
	textAccent  = color.NRGBA{R: 255, G: 214, B: 102, A: 255}
)

func (r *svgScorecardRenderer) RenderPNG(ctx context.Context, board *cricketdto.Scoreboard) ([]byte, error) {
	if board == nil {
		return nil, errors.New("scoreboard is nil")
	}

	balls := inningsBalls(board)
	rows := board.TotalOvers
	if n := (len(balls) + ballsPerRow - 1) / ballsPerRow; n > rows {
		rows = n
	}
	if rows < 1 {
		rows = 1
	}
	chipsTop := cardPadding + headerHeight + sectionGap + summaryHeight + sectionGap
	height := chipsTop + rows*(chipSize+chipGap) - chipGap + cardPadding

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img, err := rasterizeSVG(scorecardSVG(board, balls, rows, chipsTop, height), cardWidth, height)
	if err != nil {
		return nil, err
	}
	drawScorecardText(img, board, balls, chipsTop)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

func inningsBalls(board *cricketdto.Scoreboard) []cricketdto.BallEvent {
	out := make([]cricketdto.BallEvent, 0, len(board.Timeline))
	for _, b := range board.Timeline {
		if b.Innings == board.Innings {
			out = append(out, b)
		}
	}
	return out
}

func chipOrigin(i, chipsTop int) (int, int) {
	row, col := i/ballsPerRow, i%ballsPerRow
	x := cardPadding + panelInset + col*(chipSize+chipGap)
	y := chipsTop + row*(chipSize+chipGap)
	return x, y
}

func chipFill(b cricketdto.BallEvent) string {
	switch {
	case b.Wicket:
		return chipWicketFill
	case b.Runs >= 4:
		return chipBigFill
	default:
		return chipRunsFill
	}
}

// scorecardSVG lays out the panels and ball chips; text is drawn afterwards.
func scorecardSVG(board *cricketdto.Scoreboard, balls []cricketdto.BallEvent, rows, chipsTop, height int) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, cardWidth, height, cardWidth, height)
	fmt.Fprintf(&sb, `<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`, cardWidth, height, cardBackground)

	panelWidth := cardWidth - cardPadding*2
	fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="%d" rx="%d" ry="%d" fill="%s"/>`,
		cardPadding, cardPadding, panelWidth, headerHeight, panelRadius, panelRadius, panelFill)
	fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="%d" rx="%d" ry="%d" fill="%s"/>`,
		cardPadding, cardPadding+headerHeight+sectionGap, panelWidth, summaryHeight, panelRadius, panelRadius, panelFill)

	radius := chipSize / 2
	for i := 0; i < rows*ballsPerRow; i++ {
		x, y := chipOrigin(i, chipsTop)
		if i < len(balls) {
			fmt.Fprintf(&sb, `<circle cx="%d" cy="%d" r="%d" fill="%s" stroke="#FFFFFF" stroke-width="2"/>`,
				x+radius, y+radius, radius-1, chipFill(balls[i]))
			continue
		}
		fmt.Fprintf(&sb, `<circle cx="%d" cy="%d" r="%d" fill="none" stroke="%s" stroke-width="2"/>`,
			x+radius, y+radius, radius-2, chipEmptyLine)
	}
	sb.WriteString(`</svg>`)
	return []byte(sb.String())
}

func rasterizeSVG(svg []byte, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse scorecard svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

func drawScorecardText(img *image.RGBA, board *cricketdto.Scoreboard, balls []cricketdto.BallEvent, chipsTop int) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	left := cardPadding + panelInset
	right := cardWidth - cardPadding - panelInset
	maxText := right - left

	headerBase := cardPadding + (headerHeight+ascent)/2
	title := "SCORECARD"
	if board.Innings > 0 {
		title += "  INNINGS " + strconv.Itoa(board.Innings)
	}
	drawText(drawer, title, left, headerBase, textPrimary)
	mode := "DUEL"
	if board.Mode == "cpu" {
		mode = "VS CPU"
	}
	drawRightText(drawer, mode, right, headerBase, textMuted)

	top := cardPadding + headerHeight + sectionGap + panelInset + ascent
	bat := asciiLabel(board.BattingName, "Batter")
	bowl := asciiLabel(board.BowlingName, "Bowler")
	drawText(drawer, truncateWithEllipsis(face, "BAT  "+bat, maxText), left, top, textPrimary)
	drawText(drawer, truncateWithEllipsis(face, "BOWL "+bowl, maxText), left, top+lineHeight, textPrimary)

	score := fmt.Sprintf("%d/%d  (%d.%d/%d ov)", board.Score, board.Wickets, board.Overs, board.Balls, board.TotalOvers)
	drawText(drawer, score, left, top+lineHeight*2, textAccent)
	var status string
	if board.Innings == 2 {
		status = fmt.Sprintf("Target %d | Need %d off %d", board.Target, board.RunsNeeded, board.BallsLeft)
	} else {
		status = fmt.Sprintf("Wickets left %d | Balls left %d", maxInt(board.MaxWickets-board.Wickets, 0), board.BallsLeft)
	}
	drawText(drawer, truncateWithEllipsis(face, status, maxText), left, top+lineHeight*3, textMuted)

	for i, b := range balls {
		x, y := chipOrigin(i, chipsTop)
		label := strconv.Itoa(b.Runs)
		if b.Wicket {
			label = "W"
		}
		drawCentered(drawer, label, x+chipSize/2, y+(chipSize+ascent)/2-1, textPrimary)
	}
}

func drawText(drawer *font.Drawer, text string, x, baseline int, clr color.Color) {
	if text == "" {
		return
	}
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawRightText(drawer *font.Drawer, text string, right, baseline int, clr color.Color) {
	drawText(drawer, text, right-drawer.MeasureString(text).Round(), baseline, clr)
}

func drawCentered(drawer *font.Drawer, text string, centerX, baseline int, clr color.Color) {
	drawText(drawer, text, centerX-drawer.MeasureString(text).Round()/2, baseline, clr)
}

// asciiLabel keeps the printable ASCII part of a name; the bitmap face has no other glyphs.
func asciiLabel(name, fallback string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(name) {
		if r >= 0x20 && r < 0x7f {
			sb.WriteRune(r)
		}
	}
	if out := strings.TrimSpace(sb.String()); out != "" {
		return out
	}
	return fallback
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}

	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}

	ellipsis := "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}

	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
