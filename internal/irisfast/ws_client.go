package irisfast

import "context"

type MessageCallback func(message *Message)

type StateCallback func(state WebSocketState)

// WSClient is the event stream the bot listens on. ws and auto egress also reply through it.
type WSClient interface {
	Connect(ctx context.Context) error
	OnMessage(cb MessageCallback)
	OnStateChange(cb StateCallback)
	Connected() bool
	WriteJSON(ctx context.Context, v any) error
	Close(ctx context.Context) error
}

var _ WSClient = (*WebSocket)(nil)
