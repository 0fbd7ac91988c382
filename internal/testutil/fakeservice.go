// internal/testutil/fakeservice.go
//
// Scriptable stand-in for the remote Numerito game + scoreboard services.
// Responsibilities:
//   - Serve the same routes and JSON shapes as the real services.
//   - Let tests force failures per route, hold responses to provoke races,
//     forget games to produce 404s, and count calls.
//   - Optionally require an HS256 bearer token on POST /scores.
//
// Games follow internal/game's rules. Secrets are fixed per service (Secret
// field) so tests can reach a win.

package testutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/robalobadob/numerito/apps/go-client/internal/game"
)

// Route names used for scripting.
const (
	RouteCreate    = "create"
	RouteGuess     = "guess"
	RouteStatus    = "status"
	RouteSaveScore = "save_score"
	RouteTopScores = "top_scores"
)

type failure struct {
	status  int
	code    string
	message string
}

type hold struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// FakeService is an in-memory game + scoreboard service.
type FakeService struct {
	// Secret is the number every new game hides.
	Secret string
	// MaxAttempts ends a game as lost after this many guesses (0 = unlimited).
	MaxAttempts int
	// JWTSecret, when set, makes POST /scores require a valid bearer token.
	JWTSecret string

	mu        sync.Mutex
	r         *chi.Mux
	games     map[string]*game.Game
	scores    []scoreRow
	failures  map[string][]failure
	holds     map[string]*hold
	allHolds  []*hold
	calls     map[string]int
	lastReqID string
	lastAuth  string
}

type scoreRow struct {
	ID          string `json:"id"`
	PlayerName  string `json:"playerName"`
	Attempts    int    `json:"attempts"`
	CreatedAt   string `json:"createdAt"`
	TimeSeconds *int   `json:"timeSeconds,omitempty"`
	GameID      string `json:"gameId,omitempty"`
}

// NewFakeService builds the router. Use Start to serve it.
func NewFakeService() *FakeService {
	f := &FakeService{
		Secret:   "4271",
		r:        chi.NewRouter(),
		games:    make(map[string]*game.Game),
		failures: make(map[string][]failure),
		holds:    make(map[string]*hold),
		calls:    make(map[string]int),
	}

	f.r.Use(chimw.RequestID)
	f.r.Use(chimw.Recoverer)
	f.r.Use(jsonContentType)
	f.r.Use(f.recordHeaders)

	f.r.Route("/api", func(r chi.Router) {
		r.Post("/game", f.wrap(RouteCreate, f.handleCreate))
		r.Post("/game/{gameId}/guess", f.wrap(RouteGuess, f.handleGuess))
		r.Get("/game/{gameId}", f.wrap(RouteStatus, f.handleStatus))
		r.Post("/scores", f.wrap(RouteSaveScore, f.handleSaveScore))
		r.Get("/scores/top", f.wrap(RouteTopScores, f.handleTopScores))
	})

	f.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no route "+r.URL.Path)
	})
	return f
}

// Start serves f on a loopback listener closed at test cleanup.
// It returns the API base URL (".../api").
func (f *FakeService) Start(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(f.r)
	t.Cleanup(func() {
		f.releaseAll()
		srv.Close()
	})
	return srv.URL + "/api"
}

// Router exposes the router for direct httptest use.
func (f *FakeService) Router() chi.Router { return f.r }

// Fail makes the next call to route answer status with an error body.
// Calls queue: Fail twice to fail the next two calls.
func (f *FakeService) Fail(route string, status int, code, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = append(f.failures[route], failure{status: status, code: code, message: message})
}

// FailRaw makes the next call to route answer status with a non-JSON body.
func (f *FakeService) FailRaw(route string, status int) {
	f.Fail(route, status, "", "")
}

// Hold blocks the next call to route until release is called. arrived is
// closed once the request reached the handler.
func (f *FakeService) Hold(route string) (arrived <-chan struct{}, release func()) {
	h := &hold{arrived: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.holds[route] = h
	f.allHolds = append(f.allHolds, h)
	f.mu.Unlock()
	return h.arrived, func() { h.once.Do(func() { close(h.release) }) }
}

// Forget drops a game so later calls for it answer 404.
func (f *FakeService) Forget(gameID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.games, gameID)
}

// Calls returns how many requests reached route.
func (f *FakeService) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// TotalCalls returns the number of requests across all routes.
func (f *FakeService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Attempts returns the server-side attempt count of gameID (-1 if unknown).
func (f *FakeService) Attempts(gameID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.games[gameID]; ok {
		return g.Attempts
	}
	return -1
}

// LastRequestID returns the X-Request-ID of the most recent request.
func (f *FakeService) LastRequestID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReqID
}

// LastAuthorization returns the Authorization header of the most recent request.
func (f *FakeService) LastAuthorization() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

// SignToken issues an HS256 token the service accepts when JWTSecret is set.
func (f *FakeService) SignToken(id, username string, exp time.Time) string {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, _ := t.SignedString([]byte(f.JWTSecret))
	return ss
}

func (f *FakeService) releaseAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.allHolds {
		h.once.Do(func() { close(h.release) })
	}
}

// ----------------------------- middleware ----------------------------------

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func (f *FakeService) recordHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastReqID = r.Header.Get("X-Request-ID")
		f.lastAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// wrap counts the call, applies any hold, then any scripted failure.
func (f *FakeService) wrap(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[route]++
		hd := f.holds[route]
		delete(f.holds, route)
		var fail *failure
		if q := f.failures[route]; len(q) > 0 {
			fail = &q[0]
			f.failures[route] = q[1:]
		}
		f.mu.Unlock()

		if hd != nil {
			close(hd.arrived)
			select {
			case <-hd.release:
			case <-r.Context().Done():
				return
			}
		}
		if fail != nil {
			if fail.code == "" && fail.message == "" {
				w.Header().Set("Content-Type", "text/plain")
				w.WriteHeader(fail.status)
				_, _ = w.Write([]byte("upstream exploded"))
				return
			}
			writeError(w, fail.status, fail.code, fail.message)
			return
		}
		h(w, r)
	}
}

// ------------------------------ GAME ---------------------------------------

func (f *FakeService) handleCreate(w http.ResponseWriter, r *http.Request) {
	g := game.New(f.Secret, f.MaxAttempts)
	f.mu.Lock()
	f.games[g.ID] = g
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]string{"gameId": g.ID, "message": "game created"})
}

type guessReq struct {
	Guess string `json:"guess"`
}

func (f *FakeService) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[chi.URLParam(r, "gameId")]
	if !ok {
		writeError(w, http.StatusNotFound, "GAME_NOT_FOUND", "game not found")
		return
	}
	fb, err := g.ApplyGuess(req.Guess)
	switch {
	case errors.Is(err, game.ErrFinished):
		writeError(w, http.StatusBadRequest, "GAME_FINISHED", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "INVALID_GUESS", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bien":          fb.Bien,
		"regular":       fb.Regular,
		"mal":           fb.Mal,
		"win":           fb.Win(),
		"attemptNumber": g.Attempts,
		"finished":      g.Finished,
	})
}

func (f *FakeService) handleStatus(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[chi.URLParam(r, "gameId")]
	if !ok {
		writeError(w, http.StatusNotFound, "GAME_NOT_FOUND", "game not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gameId": g.ID, "attempts": g.Attempts, "finished": g.Finished})
}

// ----------------------------- SCORES --------------------------------------

type saveScoreReq struct {
	PlayerName  string `json:"playerName"`
	Attempts    int    `json:"attempts"`
	GameID      string `json:"gameId"`
	TimeSeconds *int   `json:"timeSeconds"`
}

func (f *FakeService) handleSaveScore(w http.ResponseWriter, r *http.Request) {
	if f.JWTSecret != "" && !f.validBearer(r) {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
		return
	}
	var req saveScoreReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid request body")
		return
	}
	if strings.TrimSpace(req.PlayerName) == "" || req.Attempts <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_SCORE", "playerName and attempts are required")
		return
	}

	f.mu.Lock()
	row := scoreRow{
		ID:          uuid.NewString(),
		PlayerName:  req.PlayerName,
		Attempts:    req.Attempts,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		TimeSeconds: req.TimeSeconds,
		GameID:      req.GameID,
	}
	f.scores = append(f.scores, row)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, row)
}

func (f *FakeService) handleTopScores(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	f.mu.Lock()
	rows := append([]scoreRow(nil), f.scores...)
	f.mu.Unlock()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Attempts < rows[j].Attempts })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []scoreRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// validBearer verifies an HS256 bearer token against JWTSecret.
func (f *FakeService) validBearer(r *http.Request) bool {
	a := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return false
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(a[7:]), claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(f.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return false
	}
	username, _ := claims["username"].(string)
	return username != ""
}

// ------------------------------- util --------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":     code,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
