// internal/gameapi/client.go
//
// HTTP client for the remote Numerito services.
// Responsibilities:
//   - Build requests against a configurable base URL (e.g. http://localhost:8080/api).
//   - Pace outgoing requests when a rate is configured.
//   - Classify every outcome into the apperr taxonomy by response status,
//     keeping the error code/message/timestamp from the response body.
//
// No timeout is imposed beyond what the caller's context and the underlying
// http.Client carry.

package gameapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/robalobadob/numerito/apps/go-client/internal/apperr"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// MessageNoConnection is the message of every Network error.
const MessageNoConnection = "could not connect to the server"

// Client talks to the game and scoreboard services.
type Client struct {
	baseURL string
	hc      *http.Client
	token   string
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Transport is
// wrapped by the client's request middleware.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithRateLimit paces requests to rps per second (burst 1). rps <= 0 disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// New constructs a Client for baseURL (trailing slashes ignored).
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{baseURL: baseURL, hc: &http.Client{}}
	for _, o := range opts {
		o(c)
	}

	// Copy so a caller-supplied http.Client is never mutated.
	hc := *c.hc
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	if c.token != "" {
		next = &bearerTransport{token: c.token, next: next}
	}
	hc.Transport = &requestIDTransport{next: next}
	c.hc = &hc
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// do sends a JSON request and decodes a successful JSON response into out.
// Any failure comes back as *apperr.Error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return apperr.Wrap(apperr.KindNetwork, MessageNoConnection, err)
		}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindNetwork, MessageNoConnection, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return classify(res, fallbackMessage(method, path))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &apperr.Error{
			Kind:    apperr.KindServer,
			Status:  res.StatusCode,
			Message: "unexpected response from the server",
			Cause:   err,
		}
	}
	return nil
}

// classify turns a non-success response into an *apperr.Error. The body is
// read best-effort; an unparseable body leaves Code empty and uses fallback.
func classify(res *http.Response, fallback string) *apperr.Error {
	e := &apperr.Error{
		Kind:    apperr.FromStatus(res.StatusCode),
		Status:  res.StatusCode,
		Message: fallback,
	}
	var body ErrorResponse
	raw, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err == nil && len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		e.Code = body.Error
		e.Timestamp = body.Timestamp
		if body.Message != "" {
			e.Message = body.Message
		}
	}
	return e
}

func fallbackMessage(method, path string) string {
	if strings.HasPrefix(path, "/scores") {
		if method == http.MethodPost {
			return "could not save the score"
		}
		return "could not load the scores"
	}
	return "the game service rejected the request"
}

// IsNoConnection reports whether err is a Network error.
func IsNoConnection(err error) bool {
	return errors.Is(err, apperr.Network)
}
