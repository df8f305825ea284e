package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-Cricket-bot/internal/obslog"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var (
	ErrEmptyRoom    = errors.New("iris: empty room")
	ErrEmptyPayload = errors.New("iris: empty reply payload")

	errDecode = errors.New("decode response")
)

const maxErrorBody = 512

// APIError is a non-2xx answer from Iris.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("iris api error: status=%d body=%s", e.Status, e.Body)
}

// Retryable reports whether the status is a transient gateway/server failure.
func (e *APIError) Retryable() bool {
	switch e.Status {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	}
	return false
}

// HeaderProvider supplies per-request headers (auth, session). Empty keys or values are skipped.
type HeaderProvider func() map[string]string

// Client talks to the Iris HTTP API.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	timeout  time.Duration
	attempts int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry sets the total attempts for idempotent calls.
func WithRetry(attempts int) Option {
	return func(c *Client) { c.attempts = attempts }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxConnsPerHost: 64,
		},
		timeout:  10 * time.Second,
		attempts: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := c.call(ctx, fasthttp.MethodGet, "/config", nil, &cfg, 1); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) Decrypt(ctx context.Context, data string) (string, error) {
	var resp DecryptResponse
	if err := c.call(ctx, fasthttp.MethodPost, "/decrypt", DecryptRequest{Data: data}, &resp, c.attempts); err != nil {
		return "", err
	}
	return resp.Decrypted, nil
}

// Reply posts one reply frame. Replies are never retried so a room never sees a duplicate.
func (c *Client) Reply(ctx context.Context, req ReplyRequest) error {
	if strings.TrimSpace(req.Room) == "" {
		return ErrEmptyRoom
	}
	if req.Data == "" {
		return ErrEmptyPayload
	}
	if req.Type == "" {
		req.Type = ReplyText
	}
	return c.call(ctx, fasthttp.MethodPost, "/reply", req, nil, 1)
}

func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	return c.Reply(ctx, ReplyRequest{Type: ReplyText, Room: room, Data: message})
}

func (c *Client) SendImage(ctx context.Context, room, imageBase64 string) error {
	return c.Reply(ctx, ReplyRequest{Type: ReplyImage, Room: room, Data: imageBase64})
}

func (c *Client) call(ctx context.Context, method, path string, in, out any, attempts int) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	c.applyHeaders(&req.Header)
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(body)
	}

	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err := c.roundTrip(ctx, req, resp, out)
		if err == nil {
			return nil
		}
		if attempt >= attempts || !retryable(err) {
			return err
		}
		obslog.L().Debug("iris_retry", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
		if waitErr := sleepCtx(ctx, backoffDuration(attempt)); waitErr != nil {
			return err
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response, out any) error {
	resp.Reset()
	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return &APIError{Status: status, Body: clip(string(resp.Body()), maxErrorBody)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: %w", errDecode, err)
	}
	return nil
}

func (c *Client) applyHeaders(h *fasthttp.RequestHeader) {
	for k, v := range cleanHeaders(c.headers) {
		h.Set(k, v)
	}
}

// cleanHeaders evaluates p and drops blank keys and values.
func cleanHeaders(p HeaderProvider) map[string]string {
	if p == nil {
		return nil
	}
	out := make(map[string]string)
	for k, v := range p() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// deadline is the earlier of the context deadline and the client timeout.
func (c *Client) deadline(ctx context.Context) time.Time {
	own := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(own) {
		return dl
	}
	return own
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	if errors.Is(err, errDecode) {
		return false
	}
	// transport failures (dial, timeout) are worth another try
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDuration doubles from 100ms and stops growing after the sixth attempt.
func backoffDuration(attempt int) time.Duration {
	attempt = min(max(attempt, 1), 6)
	return (100 * time.Millisecond) << (attempt - 1)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
