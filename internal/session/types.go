// internal/session/types.go
//
// Observable session state.
// Defines:
//   - State:    the single tagged lifecycle state (Idle → Active → Finished ...).
//   - Attempt:  one accepted guess with its remote match result.
//   - Snapshot: an immutable copy of everything the view renders.

package session

import "time"

// State is the machine's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRestoring
	StateActive
	StateSubmitting
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRestoring:
		return "restoring"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// Attempt is one accepted guess and the service's verdict on it.
type Attempt struct {
	Guess         string
	Bien          int
	Regular       int
	Mal           int
	AttemptNumber int
	Win           bool
}

// Snapshot is a point-in-time copy of the session. Attempts is never shared
// with the machine.
type Snapshot struct {
	State    State
	GameID   string // empty iff no game is active on the client
	Attempts []Attempt
	// Won is only ever true in StateFinished.
	Won bool
	// CompletedGameID is the id of the game just won, kept after GameID is
	// destroyed so the score can reference it.
	CompletedGameID string
	// RemoteAttempts is the attempt count the service reported on restore.
	// The local Attempts list does not include those guesses.
	RemoteAttempts int
	StartTime      time.Time // zero when no game has started
	EndTime        time.Time // zero until the game finishes

	busy bool
	now  time.Time
}

// Finished reports whether no further guesses are accepted.
func (s Snapshot) Finished() bool { return s.State == StateFinished }

// Busy reports whether any command (including a game creation) is in flight.
func (s Snapshot) Busy() bool { return s.busy }

// Elapsed is the play time: frozen at EndTime once finished, otherwise
// measured to the moment the snapshot was taken.
func (s Snapshot) Elapsed() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	end := s.EndTime
	if end.IsZero() {
		end = s.now
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime)
}

// AttemptCount is the number of guesses made in this game as numbered by the
// service, which includes guesses made before a restore.
func (s Snapshot) AttemptCount() int {
	if n := len(s.Attempts); n > 0 {
		return s.Attempts[n-1].AttemptNumber
	}
	return s.RemoteAttempts
}
