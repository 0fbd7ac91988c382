package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/numerito/apps/go-client/internal/apperr"
	"github.com/robalobadob/numerito/apps/go-client/internal/gameapi"
	"github.com/robalobadob/numerito/apps/go-client/internal/guess"
	"github.com/robalobadob/numerito/apps/go-client/internal/store"
)

// stubClient answers from function fields and counts calls.
type stubClient struct {
	mu      sync.Mutex
	calls   int
	create  func() (gameapi.Created, error)
	submit  func(id, g string) (gameapi.GuessResult, error)
	status  func(id string) (gameapi.Status, error)
	nextID  int
	guesses []string
}

func (s *stubClient) CreateSession(ctx context.Context) (gameapi.Created, error) {
	s.mu.Lock()
	s.calls++
	s.nextID++
	n := s.nextID
	s.mu.Unlock()
	if s.create != nil {
		return s.create()
	}
	return gameapi.Created{GameID: "game-" + string(rune('0'+n))}, nil
}

func (s *stubClient) SubmitGuess(ctx context.Context, id, g string) (gameapi.GuessResult, error) {
	s.mu.Lock()
	s.calls++
	s.guesses = append(s.guesses, g)
	n := len(s.guesses)
	s.mu.Unlock()
	if s.submit != nil {
		return s.submit(id, g)
	}
	return gameapi.GuessResult{Bien: 1, Regular: 1, Mal: 2, AttemptNumber: n}, nil
}

func (s *stubClient) FetchStatus(ctx context.Context, id string) (gameapi.Status, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.status != nil {
		return s.status(id)
	}
	return gameapi.Status{GameID: id}, nil
}

func (s *stubClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newMachine(t *testing.T, c *stubClient) (*Machine, store.Store, *fixedClock) {
	t.Helper()
	st := store.NewMemoryStore()
	clk := &fixedClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	return New(c, st, WithClock(clk.now)), st, clk
}

func wantKind(t *testing.T, err error, k apperr.Kind) *apperr.Error {
	t.Helper()
	var e *apperr.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *apperr.Error of kind %v, got %T %v", k, err, err)
	}
	if e.Kind != k {
		t.Fatalf("expected kind %v, got %v (%v)", k, e.Kind, e)
	}
	return e
}

func persisted(st store.Store) string {
	id, _ := st.Read(context.Background())
	return id
}

func TestInitialState(t *testing.T) {
	m, _, _ := newMachine(t, &stubClient{})
	s := m.Snapshot()
	if s.State != StateIdle || s.GameID != "" || len(s.Attempts) != 0 || s.Won || s.Finished() || s.Busy() {
		t.Fatalf("unexpected initial snapshot %+v", s)
	}
	if s.Elapsed() != 0 {
		t.Fatal("no game, no elapsed time")
	}
}

func TestStartNewGame(t *testing.T) {
	ctx := context.Background()
	c := &stubClient{}
	m, st, clk := newMachine(t, c)

	if err := m.StartNewGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	s := m.Snapshot()
	if s.State != StateActive || s.GameID != "game-1" || len(s.Attempts) != 0 || s.Won {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if persisted(st) != "game-1" {
		t.Fatalf("id not persisted: %q", persisted(st))
	}
	if !s.StartTime.Equal(clk.t) || !s.EndTime.IsZero() {
		t.Fatalf("timer not started: %+v", s)
	}
}

func TestTwoNewGamesAreDistinctAndReset(t *testing.T) {
	ctx := context.Background()
	m, st, _ := newMachine(t, &stubClient{})

	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}
	first := m.Snapshot().GameID
	if _, err := m.SubmitGuess(ctx, "1234"); err != nil {
		t.Fatal(err)
	}
	if len(m.Snapshot().Attempts) != 1 {
		t.Fatal("expected one attempt")
	}

	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}
	s := m.Snapshot()
	if s.GameID == "" || s.GameID == first {
		t.Fatalf("expected a new distinct id, got %q after %q", s.GameID, first)
	}
	if len(s.Attempts) != 0 {
		t.Fatal("attempts must be reset")
	}
	if persisted(st) != s.GameID {
		t.Fatal("store must hold the newest id")
	}
}

func TestStartNewGameFailures(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		err  error
		kind apperr.Kind
		msg  string
	}{
		{"network", &apperr.Error{Kind: apperr.KindNetwork}, apperr.KindNetwork, MsgNoConnectionCreate},
		{"server", &apperr.Error{Kind: apperr.KindServer, Status: 500, Message: "boom"}, apperr.KindServer, MsgCreateFailed},
		{"foreign", errors.New("weird"), apperr.KindServer, MsgCreateFailed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m, st, _ := newMachine(t, &stubClient{create: func() (gameapi.Created, error) {
				return gameapi.Created{}, c.err
			}})
			e := wantKind(t, m.StartNewGame(ctx), c.kind)
			if e.Message != c.msg {
				t.Fatalf("message = %q, want %q", e.Message, c.msg)
			}
			s := m.Snapshot()
			if s.State != StateIdle || s.GameID != "" || s.Busy() {
				t.Fatalf("unexpected snapshot %+v", s)
			}
			if persisted(st) != "" {
				t.Fatal("nothing should be persisted")
			}
		})
	}
}

func TestSubmitGuessRefusedLocally(t *testing.T) {
	ctx := context.Background()

	t.Run("no active game", func(t *testing.T) {
		c := &stubClient{}
		m, _, _ := newMachine(t, c)
		e := wantKind(t, errOnly(m.SubmitGuess(ctx, "1234")), apperr.KindValidation)
		if e.Message != MsgNoActiveGame {
			t.Fatalf("message = %q", e.Message)
		}
		if c.Calls() != 0 {
			t.Fatal("no network call expected")
		}
	})

	t.Run("invalid guess", func(t *testing.T) {
		c := &stubClient{}
		m, _, _ := newMachine(t, c)
		if err := m.StartNewGame(ctx); err != nil {
			t.Fatal(err)
		}
		before := c.Calls()
		for g, reason := range map[string]string{
			"":     guess.ReasonEmpty,
			"123":  guess.ReasonLength,
			"12a4": guess.ReasonDigits,
			"0123": guess.ReasonLeadingZero,
			"1123": guess.ReasonNotDistinct,
		} {
			e := wantKind(t, errOnly(m.SubmitGuess(ctx, g)), apperr.KindValidation)
			if e.Message != reason {
				t.Errorf("SubmitGuess(%q) message = %q, want %q", g, e.Message, reason)
			}
		}
		if c.Calls() != before {
			t.Fatal("invalid guesses must not reach the network")
		}
		if m.Snapshot().State != StateActive {
			t.Fatal("state must stay active")
		}
	})

	t.Run("finished game", func(t *testing.T) {
		c := &stubClient{submit: func(id, g string) (gameapi.GuessResult, error) {
			return gameapi.GuessResult{Mal: 4, AttemptNumber: 10, Finished: true}, nil
		}}
		m, _, _ := newMachine(t, c)
		if err := m.StartNewGame(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := m.SubmitGuess(ctx, "5678"); err != nil {
			t.Fatal(err)
		}
		before := c.Calls()
		e := wantKind(t, errOnly(m.SubmitGuess(ctx, "1234")), apperr.KindValidation)
		if e.Message != MsgGameFinished {
			t.Fatalf("message = %q", e.Message)
		}
		if c.Calls() != before {
			t.Fatal("no network call expected")
		}
	})
}

func errOnly(_ Attempt, err error) error { return err }

func TestSubmitGuessAppendsAttempts(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newMachine(t, &stubClient{})
	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}

	for i, g := range []string{"1234", "5678", "9012"} {
		a, err := m.SubmitGuess(ctx, g)
		if err != nil {
			t.Fatalf("guess %s: %v", g, err)
		}
		if a.Guess != g || a.AttemptNumber != i+1 || a.Bien != 1 || a.Regular != 1 || a.Mal != 2 {
			t.Fatalf("unexpected attempt %+v", a)
		}
	}
	s := m.Snapshot()
	if s.State != StateActive || len(s.Attempts) != 3 {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	for i := 1; i < len(s.Attempts); i++ {
		if s.Attempts[i].AttemptNumber <= s.Attempts[i-1].AttemptNumber {
			t.Fatal("attempts must be in ascending order")
		}
	}
	if s.AttemptCount() != 3 {
		t.Fatalf("AttemptCount = %d", s.AttemptCount())
	}

	// Snapshots are copies.
	s.Attempts[0].Guess = "9999"
	if m.Snapshot().Attempts[0].Guess != "1234" {
		t.Fatal("snapshot must not alias machine state")
	}
}

func TestWinningGuess(t *testing.T) {
	ctx := context.Background()
	c := &stubClient{submit: func(id, g string) (gameapi.GuessResult, error) {
		if g == "4271" {
			return gameapi.GuessResult{Bien: 4, AttemptNumber: 2, Win: true, Finished: true}, nil
		}
		return gameapi.GuessResult{Bien: 2, Regular: 2, AttemptNumber: 1}, nil
	}}
	m, st, clk := newMachine(t, c)
	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}
	id := m.Snapshot().GameID

	if _, err := m.SubmitGuess(ctx, "4217"); err != nil {
		t.Fatal(err)
	}
	clk.t = clk.t.Add(95 * time.Second)
	a, err := m.SubmitGuess(ctx, "4271")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Win {
		t.Fatal("expected winning attempt")
	}

	s := m.Snapshot()
	if s.State != StateFinished || !s.Finished() || !s.Won {
		t.Fatalf("expected finished+won, got %+v", s)
	}
	if s.GameID != "" || s.CompletedGameID != id {
		t.Fatalf("identity not destroyed properly: %+v", s)
	}
	if persisted(st) != "" {
		t.Fatal("win must clear the persisted id")
	}
	if s.Elapsed() != 95*time.Second {
		t.Fatalf("elapsed = %v", s.Elapsed())
	}
	clk.t = clk.t.Add(time.Hour)
	if m.Snapshot().Elapsed() != 95*time.Second {
		t.Fatal("elapsed must freeze once finished")
	}
	if len(s.Attempts) != 2 || s.AttemptCount() != 2 {
		t.Fatalf("unexpected attempts %+v", s.Attempts)
	}
}

func TestFinishedWithoutWinKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	c := &stubClient{submit: func(id, g string) (gameapi.GuessResult, error) {
		return gameapi.GuessResult{Mal: 4, AttemptNumber: 1, Finished: true}, nil
	}}
	m, st, _ := newMachine(t, c)
	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SubmitGuess(ctx, "5678"); err != nil {
		t.Fatal(err)
	}
	s := m.Snapshot()
	if s.State != StateFinished || s.Won || s.GameID == "" || s.EndTime.IsZero() {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if persisted(st) != s.GameID {
		t.Fatal("a lost game keeps its persisted id")
	}
}

func TestWinImpliesFinished(t *testing.T) {
	ctx := context.Background()
	c := &stubClient{submit: func(id, g string) (gameapi.GuessResult, error) {
		// Inconsistent service answer: win without finished.
		return gameapi.GuessResult{Bien: 4, AttemptNumber: 1, Win: true}, nil
	}}
	m, _, _ := newMachine(t, c)
	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SubmitGuess(ctx, "1234"); err != nil {
		t.Fatal(err)
	}
	if s := m.Snapshot(); !s.Won || s.State != StateFinished {
		t.Fatalf("won must imply finished, got %+v", s)
	}
}

func TestSubmitGuessRemoteErrorsKeepSession(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		err  error
		kind apperr.Kind
		msg  string
	}{
		{"remote validation", &apperr.Error{Kind: apperr.KindRemoteValidation, Status: 400, Code: "INVALID_GUESS", Message: "guess must be 4 distinct digits"}, apperr.KindRemoteValidation, "guess must be 4 distinct digits"},
		{"network", &apperr.Error{Kind: apperr.KindNetwork, Message: "dial"}, apperr.KindNetwork, MsgNoConnection},
		{"server", &apperr.Error{Kind: apperr.KindServer, Status: 503}, apperr.KindServer, MsgGuessFailed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fail := true
			stub := &stubClient{}
			stub.submit = func(id, g string) (gameapi.GuessResult, error) {
				if fail {
					return gameapi.GuessResult{}, c.err
				}
				return gameapi.GuessResult{AttemptNumber: 1}, nil
			}
			m, st, _ := newMachine(t, stub)
			if err := m.StartNewGame(ctx); err != nil {
				t.Fatal(err)
			}
			id := m.Snapshot().GameID

			e := wantKind(t, errOnly(m.SubmitGuess(ctx, "1234")), c.kind)
			if e.Message != c.msg {
				t.Fatalf("message = %q, want %q", e.Message, c.msg)
			}
			s := m.Snapshot()
			if s.State != StateActive || s.GameID != id || len(s.Attempts) != 0 || s.Busy() {
				t.Fatalf("session must be unchanged, got %+v", s)
			}
			if persisted(st) != id {
				t.Fatal("persisted id must be untouched")
			}

			// Retrying is an explicit new command.
			fail = false
			if _, err := m.SubmitGuess(ctx, "1234"); err != nil {
				t.Fatalf("retry: %v", err)
			}
		})
	}
}

func TestSubmitGuessNotFoundTearsDown(t *testing.T) {
	ctx := context.Background()
	c := &stubClient{submit: func(id, g string) (gameapi.GuessResult, error) {
		return gameapi.GuessResult{}, &apperr.Error{Kind: apperr.KindNotFound, Status: 404, Code: "GAME_NOT_FOUND", Message: "game not found"}
	}}
	m, st, _ := newMachine(t, c)
	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}

	e := wantKind(t, errOnly(m.SubmitGuess(ctx, "1234")), apperr.KindNotFound)
	if e.Message != MsgGameGone || e.Code != "GAME_NOT_FOUND" || e.Status != 404 {
		t.Fatalf("unexpected error %+v", e)
	}
	s := m.Snapshot()
	if s.State != StateIdle || s.GameID != "" || s.Finished() {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if persisted(st) != "" {
		t.Fatal("persisted id must be cleared")
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing persisted", func(t *testing.T) {
		c := &stubClient{}
		m, _, _ := newMachine(t, c)
		if err := m.Restore(ctx); err != nil {
			t.Fatal(err)
		}
		if m.Snapshot().State != StateIdle || c.Calls() != 0 {
			t.Fatal("expected idle with no network call")
		}
	})

	t.Run("active game", func(t *testing.T) {
		c := &stubClient{status: func(id string) (gameapi.Status, error) {
			return gameapi.Status{GameID: id, Attempts: 3}, nil
		}}
		m, st, clk := newMachine(t, c)
		st.Write(ctx, "saved")
		if err := m.Restore(ctx); err != nil {
			t.Fatal(err)
		}
		s := m.Snapshot()
		if s.State != StateActive || s.GameID != "saved" || s.Finished() {
			t.Fatalf("unexpected snapshot %+v", s)
		}
		if len(s.Attempts) != 0 || s.RemoteAttempts != 3 || s.AttemptCount() != 3 {
			t.Fatalf("attempt list must start empty, count kept aside: %+v", s)
		}
		if !s.StartTime.Equal(clk.t) {
			t.Fatal("timer restarts on restore")
		}

		// Numbering continues from the service's count.
		c.submit = func(id, g string) (gameapi.GuessResult, error) {
			return gameapi.GuessResult{AttemptNumber: 4}, nil
		}
		if _, err := m.SubmitGuess(ctx, "1234"); err != nil {
			t.Fatal(err)
		}
		if m.Snapshot().AttemptCount() != 4 {
			t.Fatal("attempt count should follow the service numbering")
		}
	})

	t.Run("finished game", func(t *testing.T) {
		c := &stubClient{status: func(id string) (gameapi.Status, error) {
			return gameapi.Status{GameID: id, Attempts: 7, Finished: true}, nil
		}}
		m, st, _ := newMachine(t, c)
		st.Write(ctx, "saved")
		if err := m.Restore(ctx); err != nil {
			t.Fatal(err)
		}
		s := m.Snapshot()
		if s.State != StateFinished || s.Won || s.GameID != "saved" {
			t.Fatalf("unexpected snapshot %+v", s)
		}
		if s.Elapsed() != 0 {
			t.Fatal("restored finished game has no measurable time")
		}
	})

	t.Run("adopts returned id", func(t *testing.T) {
		c := &stubClient{status: func(id string) (gameapi.Status, error) {
			return gameapi.Status{GameID: "canonical"}, nil
		}}
		m, st, _ := newMachine(t, c)
		st.Write(ctx, "alias")
		if err := m.Restore(ctx); err != nil {
			t.Fatal(err)
		}
		if m.Snapshot().GameID != "canonical" || persisted(st) != "canonical" {
			t.Fatal("expected the service's id to be adopted")
		}
	})

	t.Run("not found is silent", func(t *testing.T) {
		c := &stubClient{status: func(id string) (gameapi.Status, error) {
			return gameapi.Status{}, &apperr.Error{Kind: apperr.KindNotFound, Status: 404}
		}}
		m, st, _ := newMachine(t, c)
		st.Write(ctx, "gone")
		if err := m.Restore(ctx); err != nil {
			t.Fatalf("expected no surfaced error, got %v", err)
		}
		if m.Snapshot().State != StateIdle || m.Snapshot().GameID != "" {
			t.Fatal("expected idle")
		}
		if persisted(st) != "" {
			t.Fatal("persisted id must be cleared")
		}
	})

	t.Run("connectivity failure keeps id", func(t *testing.T) {
		calls := 0
		c := &stubClient{status: func(id string) (gameapi.Status, error) {
			calls++
			return gameapi.Status{}, &apperr.Error{Kind: apperr.KindNetwork}
		}}
		m, st, _ := newMachine(t, c)
		st.Write(ctx, "saved")
		e := wantKind(t, m.Restore(ctx), apperr.KindNetwork)
		if e.Message != MsgNoConnection {
			t.Fatalf("message = %q", e.Message)
		}
		if m.Snapshot().State != StateIdle || m.Snapshot().Busy() {
			t.Fatal("expected idle")
		}
		if persisted(st) != "saved" {
			t.Fatal("persisted id must survive a connectivity failure")
		}

		// The store is read once per machine.
		if err := m.Restore(ctx); err != nil || calls != 1 {
			t.Fatalf("second Restore should be a no-op, err=%v calls=%d", err, calls)
		}

		// A fresh machine (next startup) retries and re-resolves.
		c.status = func(id string) (gameapi.Status, error) { return gameapi.Status{GameID: id}, nil }
		m2 := New(c, st)
		if err := m2.Restore(ctx); err != nil {
			t.Fatal(err)
		}
		if m2.Snapshot().GameID != "saved" {
			t.Fatal("expected retry to resolve the saved game")
		}
	})

	t.Run("server failure surfaces", func(t *testing.T) {
		c := &stubClient{status: func(id string) (gameapi.Status, error) {
			return gameapi.Status{}, &apperr.Error{Kind: apperr.KindServer, Status: 500}
		}}
		m, st, _ := newMachine(t, c)
		st.Write(ctx, "saved")
		wantKind(t, m.Restore(ctx), apperr.KindServer)
		if persisted(st) != "saved" {
			t.Fatal("persisted id must be untouched")
		}
	})
}

// blockingClient lets a test hold a call open until it is released.
type blockingClient struct {
	stubClient
	entered chan struct{}
	release chan struct{}
}

func newBlockingClient() *blockingClient {
	return &blockingClient{entered: make(chan struct{}, 4), release: make(chan struct{})}
}

func (b *blockingClient) SubmitGuess(ctx context.Context, id, g string) (gameapi.GuessResult, error) {
	b.entered <- struct{}{}
	<-b.release
	return gameapi.GuessResult{Bien: 4, AttemptNumber: 1, Win: true, Finished: true}, nil
}

func (b *blockingClient) FetchStatus(ctx context.Context, id string) (gameapi.Status, error) {
	b.entered <- struct{}{}
	<-b.release
	return gameapi.Status{GameID: id, Attempts: 2}, nil
}

func TestConcurrentGuessIsBusy(t *testing.T) {
	ctx := context.Background()
	b := newBlockingClient()
	m := New(b, store.NewMemoryStore())
	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- errOnly(m.SubmitGuess(ctx, "1234")) }()
	<-b.entered

	s := m.Snapshot()
	if s.State != StateSubmitting || !s.Busy() {
		t.Fatalf("expected submitting+busy, got %+v", s)
	}
	wantKind(t, errOnly(m.SubmitGuess(ctx, "5678")), apperr.KindBusy)

	close(b.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if m.Snapshot().Busy() {
		t.Fatal("busy flag must drop after completion")
	}
}

func TestStaleGuessResponseIsDiscarded(t *testing.T) {
	ctx := context.Background()
	b := newBlockingClient()
	st := store.NewMemoryStore()
	m := New(b, st)
	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}
	old := m.Snapshot().GameID

	done := make(chan error, 1)
	go func() { done <- errOnly(m.SubmitGuess(ctx, "1234")) }()
	<-b.entered

	// Hard reset while the guess is in flight.
	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}
	fresh := m.Snapshot().GameID
	if fresh == old {
		t.Fatal("expected a new game")
	}

	close(b.release)
	wantKind(t, <-done, apperr.KindStale)

	s := m.Snapshot()
	if s.State != StateActive || s.GameID != fresh || len(s.Attempts) != 0 || s.Won {
		t.Fatalf("stale winning response leaked into the new game: %+v", s)
	}
	if persisted(st) != fresh {
		t.Fatal("stale response must not touch the store")
	}
}

func TestStaleRestoreIsDiscarded(t *testing.T) {
	ctx := context.Background()
	b := newBlockingClient()
	st := store.NewMemoryStore()
	st.Write(ctx, "old")
	m := New(b, st)

	done := make(chan error, 1)
	go func() { done <- m.Restore(ctx) }()
	<-b.entered
	if m.Snapshot().State != StateRestoring {
		t.Fatal("expected restoring")
	}
	wantKind(t, errOnly(m.SubmitGuess(ctx, "1234")), apperr.KindBusy)

	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}
	fresh := m.Snapshot().GameID

	close(b.release)
	wantKind(t, <-done, apperr.KindStale)
	s := m.Snapshot()
	if s.GameID != fresh || s.RemoteAttempts != 0 {
		t.Fatalf("restore result leaked into the new game: %+v", s)
	}
}

func TestCancelledContextStillPersists(t *testing.T) {
	st := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	c := &stubClient{create: func() (gameapi.Created, error) {
		cancel()
		return gameapi.Created{GameID: "g"}, nil
	}}
	m := New(c, st)
	if err := m.StartNewGame(ctx); err != nil {
		t.Fatal(err)
	}
	if persisted(st) != "g" {
		t.Fatal("persisting must not depend on the caller's context")
	}
}
