// internal/gameapi/transport.go
//
// Outgoing request middleware, the client-side mirror of the server's
// RequestID / auth middleware chain:
//   - requestIDTransport: tags each request with an X-Request-ID (uuid) and
//     logs the round trip at debug level.
//   - bearerTransport:    adds Authorization: Bearer <token>.

package gameapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

type requestIDTransport struct {
	next http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := req.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, id)
	}

	start := time.Now()
	res, err := t.next.RoundTrip(req)
	ev := log.Debug().
		Str("requestId", id).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Dur("elapsed", time.Since(start))
	if err != nil {
		ev.Err(err).Msg("request failed")
		return nil, err
	}
	ev.Int("status", res.StatusCode).Msg("request done")
	return res, nil
}

type bearerTransport struct {
	token string
	next  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.next.RoundTrip(req)
}
