// internal/apperr/apperr.go
//
// Error taxonomy shared by the game client and the session state machine.
// Every failure the core surfaces is an *Error carrying one Kind from a closed set:
//   - Validation:       rejected locally, before any network call.
//   - RemoteValidation: the service answered 400 for a guess the client accepted.
//   - NotFound:         the service answered 404 (identifier unknown).
//   - Network:          no response was obtained (Status == StatusNoResponse).
//   - Server:           any other non-success response.
//   - Busy:             another command is still in flight.
//   - Stale:            the response belongs to a session that is no longer current.

package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error. The zero value is KindUnknown.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindRemoteValidation
	KindNotFound
	KindNetwork
	KindServer
	KindBusy
	KindStale
)

// StatusNoResponse is the status recorded when the transport produced no response.
// It never collides with a real HTTP status.
const StatusNoResponse = 0

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindValidation:       "validation",
	KindRemoteValidation: "remote_validation",
	KindNotFound:         "not_found",
	KindNetwork:          "network",
	KindServer:           "server",
	KindBusy:             "busy",
	KindStale:            "stale",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the result type for every classified failure.
type Error struct {
	Kind      Kind
	Status    int    // HTTP status, or StatusNoResponse
	Code      string // machine-readable code from the response body, if any
	Message   string // human-readable message
	Timestamp string // timestamp from the response body, if any
	Cause     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Kind.String()
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is checks; only Kind is compared.
var (
	Validation       = &Error{Kind: KindValidation}
	RemoteValidation = &Error{Kind: KindRemoteValidation}
	NotFound         = &Error{Kind: KindNotFound}
	Network          = &Error{Kind: KindNetwork}
	Server           = &Error{Kind: KindServer}
	Busy             = &Error{Kind: KindBusy}
	Stale            = &Error{Kind: KindStale}
)

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FromStatus maps a non-success HTTP status onto a kind.
func FromStatus(status int) Kind {
	switch status {
	case StatusNoResponse:
		return KindNetwork
	case 400:
		return KindRemoteValidation
	case 404:
		return KindNotFound
	default:
		return KindServer
	}
}
