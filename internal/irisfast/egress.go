package irisfast

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

var ErrEgressUnavailable = errors.New("iris: egress transport not configured")

// Egress sends bot replies to a room.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
	SendImage(ctx context.Context, room, imageBase64 string) error
}

const (
	EgressHTTP = "http"
	EgressWS   = "ws"
	EgressAuto = "auto"
)

// NewEgress picks the transport for mode (http when unknown). auto writes over WS while it is connected
// and retries a failed frame once over HTTP. dryrun only logs, whatever the mode.
func NewEgress(mode string, dryrun bool, c *Client, ws WSClient, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dryrun {
		return egress{dryRun{logger: logger}}
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case EgressWS:
		return egress{wsReplier{ws: ws}}
	case EgressAuto:
		return egress{autoReplier{ws: wsReplier{ws: ws}, http: httpReplier{c: c}, logger: logger}}
	default:
		return egress{httpReplier{c: c}}
	}
}

type replier interface {
	reply(ctx context.Context, req ReplyRequest) error
}

type egress struct{ r replier }

func (e egress) SendText(ctx context.Context, room, message string) error {
	return e.r.reply(ctx, ReplyRequest{Type: ReplyText, Room: room, Data: message})
}

func (e egress) SendImage(ctx context.Context, room, imageBase64 string) error {
	return e.r.reply(ctx, ReplyRequest{Type: ReplyImage, Room: room, Data: imageBase64})
}

type httpReplier struct{ c *Client }

func (h httpReplier) reply(ctx context.Context, req ReplyRequest) error {
	if h.c == nil {
		return ErrEgressUnavailable
	}
	return h.c.Reply(ctx, req)
}

type wsReplier struct{ ws WSClient }

func (w wsReplier) ready() bool { return w.ws != nil && w.ws.Connected() }

func (w wsReplier) reply(ctx context.Context, req ReplyRequest) error {
	if w.ws == nil {
		return ErrEgressUnavailable
	}
	return w.ws.WriteJSON(ctx, &req)
}

type autoReplier struct {
	ws     wsReplier
	http   httpReplier
	logger *zap.Logger
}

func (a autoReplier) reply(ctx context.Context, req ReplyRequest) error {
	if !a.ws.ready() {
		return a.http.reply(ctx, req)
	}
	err := a.ws.reply(ctx, req)
	if err == nil {
		return nil
	}
	a.logger.Warn("egress_fallback", zap.String("type", req.Type), zap.String("room", req.Room), zap.Error(err))
	return a.http.reply(ctx, req)
}

type dryRun struct{ logger *zap.Logger }

func (d dryRun) reply(_ context.Context, req ReplyRequest) error {
	fields := []zap.Field{zap.String("type", req.Type), zap.String("room", req.Room)}
	if req.Type == ReplyImage {
		fields = append(fields, zap.Int("bytes", len(req.Data)))
	} else {
		fields = append(fields, zap.String("text", req.Data))
	}
	d.logger.Info("egress_dryrun", fields...)
	return nil
}
