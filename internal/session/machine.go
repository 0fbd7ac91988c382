// internal/session/machine.go
//
// Client-side state machine for one Numerito session.
// Responsibilities:
//   - Resume a persisted game on startup (Restore).
//   - Start fresh games (StartNewGame), always as a hard reset.
//   - Validate guesses locally, submit them, and fold results into the attempt list.
//   - Keep the persisted identifier in step with the session's lifecycle.
//
// State transitions:
//
//	Idle       → Restoring   Restore finds a persisted id
//	Restoring  → Active      status fetched (Finished if the service says so)
//	Restoring  → Idle        404 (id cleared silently) or other failure (id kept)
//	Idle       → Active      game created; id persisted
//	Active     → Submitting  guess passed local validation
//	Submitting → Active      accepted, not finished; or 400/network/server error
//	Submitting → Finished    accepted and finished; id cleared on a win
//	Submitting → Idle        404; id cleared in memory and in the store
//	any        → Idle        StartNewGame (before the create call)
//
// Every command records the epoch it was issued in. StartNewGame bumps the
// epoch, so a response that arrives after a reset is dropped with a Stale
// error instead of landing in the newer game.

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numerito/apps/go-client/internal/apperr"
	"github.com/robalobadob/numerito/apps/go-client/internal/gameapi"
	"github.com/robalobadob/numerito/apps/go-client/internal/guess"
	"github.com/robalobadob/numerito/apps/go-client/internal/store"
)

// User-facing messages for locally produced errors.
const (
	MsgNoActiveGame       = "there is no active game"
	MsgGameFinished       = "the game is already finished"
	MsgBusy               = "another request is still in progress"
	MsgStale              = "the response belongs to a game that is no longer current"
	MsgNoConnection       = "could not connect to the server"
	MsgNoConnectionCreate = "could not connect to the server. Is the backend running?"
	MsgGameGone           = "the game no longer exists. Start a new game."
	MsgGuessFailed        = "could not process the guess"
	MsgCreateFailed       = "could not create the game"
)

// Client is the remote game service as seen by the machine.
type Client interface {
	CreateSession(ctx context.Context) (gameapi.Created, error)
	SubmitGuess(ctx context.Context, gameID, guess string) (gameapi.GuessResult, error)
	FetchStatus(ctx context.Context, gameID string) (gameapi.Status, error)
}

// Machine owns the session state. All methods are safe for concurrent use.
type Machine struct {
	client Client
	store  store.Store
	now    func() time.Time

	mu             sync.Mutex
	state          State
	gameID         string
	attempts       []Attempt
	won            bool
	completedID    string
	remoteAttempts int
	start, end     time.Time
	epoch          uint64
	pending        int
	restored       bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// New constructs an Idle machine.
func New(client Client, st store.Store, opts ...Option) *Machine {
	m := &Machine{client: client, store: st, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:           m.state,
		GameID:          m.gameID,
		Attempts:        append([]Attempt(nil), m.attempts...),
		Won:             m.won,
		CompletedGameID: m.completedID,
		RemoteAttempts:  m.remoteAttempts,
		StartTime:       m.start,
		EndTime:         m.end,
		busy:            m.pending > 0,
		now:             m.now(),
	}
}

// Restore resumes the persisted game, if any. Only the first call reads the
// store; later calls, and calls after a game was started, do nothing.
//
// The attempt list starts empty: the service reports only how many guesses
// were made (kept as RemoteAttempts), not what they were.
func (m *Machine) Restore(ctx context.Context) error {
	m.mu.Lock()
	if m.restored || m.state != StateIdle || m.pending > 0 {
		m.restored = true
		m.mu.Unlock()
		return nil
	}
	m.restored = true
	id, ok := m.store.Read(ctx)
	if !ok {
		m.mu.Unlock()
		return nil
	}
	m.setState(StateRestoring)
	epoch := m.epoch
	m.pending++
	m.mu.Unlock()

	st, err := m.client.FetchStatus(ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending--
	sctx := context.WithoutCancel(ctx)

	if m.epoch != epoch {
		log.Debug().Str("gameId", id).Msg("discarding restore for superseded session")
		return apperr.New(apperr.KindStale, MsgStale)
	}
	if err != nil {
		m.setState(StateIdle)
		if errors.Is(err, apperr.NotFound) {
			m.store.Clear(sctx)
			log.Info().Str("gameId", id).Msg("persisted game no longer exists; cleared")
			return nil
		}
		log.Warn().Err(err).Str("gameId", id).Msg("restore failed")
		return surface(err, MsgNoConnection, MsgNoConnection)
	}

	gid := st.GameID
	if gid == "" {
		gid = id
	}
	if gid != id {
		m.store.Write(sctx, gid)
	}
	m.clearGameLocked()
	m.gameID = gid
	m.remoteAttempts = st.Attempts
	m.start = m.now()
	if st.Finished {
		m.end = m.start
		m.setState(StateFinished)
	} else {
		m.setState(StateActive)
	}
	log.Info().Str("gameId", gid).Int("attempts", st.Attempts).Bool("finished", st.Finished).Msg("game restored")
	return nil
}

// StartNewGame discards whatever the machine holds and asks for a fresh game.
// It is never refused for being busy; in-flight commands become stale.
func (m *Machine) StartNewGame(ctx context.Context) error {
	m.mu.Lock()
	m.epoch++
	epoch := m.epoch
	m.restored = true
	m.clearGameLocked()
	m.setState(StateIdle)
	m.pending++
	m.mu.Unlock()

	created, err := m.client.CreateSession(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending--

	if m.epoch != epoch {
		return apperr.New(apperr.KindStale, MsgStale)
	}
	if err != nil {
		log.Warn().Err(err).Msg("create game failed")
		return surface(err, MsgNoConnectionCreate, MsgCreateFailed)
	}

	m.gameID = created.GameID
	m.start = m.now()
	m.setState(StateActive)
	m.store.Write(context.WithoutCancel(ctx), created.GameID)
	log.Info().Str("gameId", created.GameID).Msg("new game created")
	return nil
}

// SubmitGuess validates g and, if it is well-formed, sends it. On success the
// new Attempt is appended and returned.
//
// Refused locally (no network call) when there is no active game, the game is
// finished, another command is in flight, or g fails validation.
func (m *Machine) SubmitGuess(ctx context.Context, g string) (Attempt, error) {
	m.mu.Lock()
	switch {
	case m.state == StateFinished:
		m.mu.Unlock()
		return Attempt{}, apperr.New(apperr.KindValidation, MsgGameFinished)
	case m.state == StateSubmitting || m.state == StateRestoring:
		m.mu.Unlock()
		return Attempt{}, apperr.New(apperr.KindBusy, MsgBusy)
	case m.gameID == "":
		m.mu.Unlock()
		return Attempt{}, apperr.New(apperr.KindValidation, MsgNoActiveGame)
	}
	if r := guess.Validate(g); !r.Valid {
		m.mu.Unlock()
		return Attempt{}, apperr.New(apperr.KindValidation, r.Reason)
	}
	m.setState(StateSubmitting)
	epoch, id := m.epoch, m.gameID
	m.pending++
	m.mu.Unlock()

	res, err := m.client.SubmitGuess(ctx, id, g)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending--
	sctx := context.WithoutCancel(ctx)

	if m.epoch != epoch || m.gameID != id {
		log.Debug().Str("gameId", id).Str("guess", g).Msg("discarding guess result for superseded session")
		return Attempt{}, apperr.New(apperr.KindStale, MsgStale)
	}
	if err != nil {
		if errors.Is(err, apperr.NotFound) {
			m.store.Clear(sctx)
			m.gameID = ""
			m.setState(StateIdle)
			log.Info().Str("gameId", id).Msg("game unknown to the service; cleared")
			return Attempt{}, surface(err, MsgGameGone, MsgGameGone)
		}
		m.setState(StateActive)
		return Attempt{}, surface(err, MsgNoConnection, MsgGuessFailed)
	}

	a := Attempt{
		Guess:         g,
		Bien:          res.Bien,
		Regular:       res.Regular,
		Mal:           res.Mal,
		AttemptNumber: res.AttemptNumber,
		Win:           res.Win,
	}
	m.attempts = append(m.attempts, a)

	if !res.Finished && !res.Win {
		m.setState(StateActive)
		return a, nil
	}
	m.end = m.now()
	m.setState(StateFinished)
	if res.Win {
		m.won = true
		m.completedID = id
		m.gameID = ""
		m.store.Clear(sctx)
		log.Info().Str("gameId", id).Int("attempts", res.AttemptNumber).Msg("game won")
	}
	return a, nil
}

// clearGameLocked forgets the current game. Callers hold mu.
func (m *Machine) clearGameLocked() {
	m.gameID = ""
	m.attempts = nil
	m.won = false
	m.completedID = ""
	m.remoteAttempts = 0
	m.start = time.Time{}
	m.end = time.Time{}
}

// setState records a transition. Callers hold mu.
func (m *Machine) setState(to State) {
	if m.state != to {
		log.Debug().Str("from", m.state.String()).Str("to", to.String()).Msg("session transition")
	}
	m.state = to
}

// surface rewrites a client error into the message shown to the player while
// keeping kind, status and body code. The service's own message is kept for
// 400s; network failures get noConn; everything else gets generic.
func surface(err error, noConn, generic string) error {
	var src *apperr.Error
	if !errors.As(err, &src) {
		return apperr.Wrap(apperr.KindServer, generic, err)
	}
	out := &apperr.Error{
		Kind:      src.Kind,
		Status:    src.Status,
		Code:      src.Code,
		Timestamp: src.Timestamp,
		Cause:     err,
	}
	switch src.Kind {
	case apperr.KindRemoteValidation:
		out.Message = src.Message
		if out.Message == "" {
			out.Message = generic
		}
	case apperr.KindNetwork:
		out.Message = noConn
	default:
		out.Message = generic
	}
	return out
}
