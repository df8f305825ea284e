package irisfast

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/park285/Cheese-Cricket-bot/internal/obslog"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var ErrNotConnected = errors.New("ws not connected")

const (
	dialTimeout      = 10 * time.Second
	pingTimeout      = 3 * time.Second
	writeTimeout     = 5 * time.Second
	maxPingFailures  = 2
	defaultPingEvery = 30 * time.Second
)

// WebSocket is the Iris event stream. One goroutine reads frames and fans them out to listeners;
// writes are serialised by writeMu.
type WebSocket struct {
	url     string
	headers HeaderProvider

	mu    sync.RWMutex
	conn  *websocket.Conn
	state WebSocketState

	writeMu sync.Mutex

	listenMu       sync.RWMutex
	onMessage      []MessageCallback
	onStateChanges []StateCallback

	retries    int
	retryDelay time.Duration
	pingEvery  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWebSocket builds a client for wsURL. retries=0 disables reconnecting after a drop.
func NewWebSocket(wsURL string, retries int, retryDelay time.Duration) *WebSocket {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocket{
		url:        wsURL,
		state:      WSStateDisconnected,
		retries:    retries,
		retryDelay: retryDelay,
		pingEvery:  defaultPingEvery,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetHeaderProvider adds headers to every handshake, reconnects included.
func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) { ws.headers = h }

// SetPingInterval overrides the keepalive period. Call before Connect.
func (ws *WebSocket) SetPingInterval(d time.Duration) {
	if d > 0 {
		ws.pingEvery = d
	}
}

func (ws *WebSocket) OnMessage(cb MessageCallback) {
	if cb == nil {
		return
	}
	ws.listenMu.Lock()
	ws.onMessage = append(ws.onMessage, cb)
	ws.listenMu.Unlock()
}

func (ws *WebSocket) OnStateChange(cb StateCallback) {
	if cb == nil {
		return
	}
	ws.listenMu.Lock()
	ws.onStateChanges = append(ws.onStateChanges, cb)
	ws.listenMu.Unlock()
}

// Connect dials once. On failure a background reconnect is scheduled when retries are enabled.
func (ws *WebSocket) Connect(ctx context.Context) error {
	switch ws.State() {
	case WSStateConnected, WSStateConnecting:
		return nil
	}
	ws.setState(WSStateConnecting)
	conn, err := ws.dial(ctx)
	if err != nil {
		ws.setState(WSStateFailed)
		ws.reconnect()
		return err
	}
	ws.attach(conn)
	return nil
}

func (ws *WebSocket) State() WebSocketState {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state
}

func (ws *WebSocket) Connected() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.conn != nil && ws.state == WSStateConnected
}

// WriteJSON sends one frame. A context without deadline gets writeTimeout.
func (ws *WebSocket) WriteJSON(ctx context.Context, v any) error {
	conn := ws.live()
	if conn == nil {
		return ErrNotConnected
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, writeTimeout)
		defer cancel()
	}
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	return wsjson.Write(ctx, conn, v)
}

// Close stops reconnecting, closes the connection and waits for the reader and pinger to exit.
func (ws *WebSocket) Close(ctx context.Context) error {
	ws.cancel()
	if conn := ws.detach(nil); conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		ws.setState(WSStateDisconnected)
		return nil
	}
}

func (ws *WebSocket) closed() bool { return ws.ctx.Err() != nil }

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	hdr := http.Header{}
	for k, v := range cleanHeaders(ws.headers) {
		hdr.Set(k, v)
	}
	conn, _, err := websocket.Dial(ctx, ws.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      hdr,
	})
	return conn, err
}

func (ws *WebSocket) attach(conn *websocket.Conn) {
	ws.mu.Lock()
	ws.conn = conn
	ws.mu.Unlock()
	ws.setState(WSStateConnected)

	ws.wg.Add(2)
	go ws.readLoop(conn)
	go ws.keepalive(conn)
}

// detach clears the current connection. With want != nil it only clears when want is still current.
func (ws *WebSocket) detach(want *websocket.Conn) *websocket.Conn {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	conn := ws.conn
	if conn == nil || (want != nil && conn != want) {
		return nil
	}
	ws.conn = nil
	return conn
}

func (ws *WebSocket) live() *websocket.Conn {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if ws.state != WSStateConnected {
		return nil
	}
	return ws.conn
}

func (ws *WebSocket) readLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	for !ws.closed() {
		var msg Message
		if err := wsjson.Read(ws.ctx, conn, &msg); err != nil {
			if ws.closed() {
				return
			}
			obslog.L().Warn("ws_read_error", zap.Error(err))
			ws.lost(conn, "read error")
			return
		}
		ws.listenMu.RLock()
		listeners := append([]MessageCallback(nil), ws.onMessage...)
		ws.listenMu.RUnlock()
		for _, cb := range listeners {
			cb(&msg)
		}
	}
}

// keepalive pings every pingEvery and drops the connection after maxPingFailures misses in a row.
func (ws *WebSocket) keepalive(conn *websocket.Conn) {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingEvery)
	defer t.Stop()
	misses := 0
	for {
		select {
		case <-ws.ctx.Done():
			return
		case <-t.C:
		}
		ctx, cancel := context.WithTimeout(ws.ctx, pingTimeout)
		err := conn.Ping(ctx)
		cancel()
		if err == nil {
			misses = 0
			continue
		}
		if misses++; misses < maxPingFailures || ws.closed() {
			continue
		}
		obslog.L().Warn("ws_ping_failure", zap.Error(err))
		ws.lost(conn, "ping failure")
		return
	}
}

// lost closes conn if it is still current and starts reconnecting.
func (ws *WebSocket) lost(conn *websocket.Conn, reason string) {
	if ws.detach(conn) == nil {
		return
	}
	_ = conn.Close(websocket.StatusGoingAway, reason)
	ws.setState(WSStateDisconnected)
	ws.reconnect()
}

func (ws *WebSocket) reconnect() {
	if ws.retries <= 0 || ws.closed() {
		return
	}
	ws.setState(WSStateReconnecting)
	go func() {
		for attempt := 1; attempt <= ws.retries; attempt++ {
			delay := max(backoffDuration(attempt), ws.retryDelay)
			select {
			case <-ws.ctx.Done():
				return
			case <-time.After(delay):
			}
			conn, err := ws.dial(ws.ctx)
			if err != nil {
				obslog.L().Warn("ws_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			if ws.closed() {
				_ = conn.Close(websocket.StatusNormalClosure, "close")
				return
			}
			ws.attach(conn)
			return
		}
		ws.setState(WSStateFailed)
	}()
}

func (ws *WebSocket) setState(state WebSocketState) {
	ws.mu.Lock()
	ws.state = state
	ws.mu.Unlock()

	ws.listenMu.RLock()
	listeners := append([]StateCallback(nil), ws.onStateChanges...)
	ws.listenMu.RUnlock()
	for _, cb := range listeners {
		cb(state)
	}
}
