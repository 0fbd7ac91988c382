// internal/cli/repl.go
//
// Line-oriented terminal view over one game session.
// Responsibilities:
//   - Resume the persisted game at startup, then read one command per line.
//   - Turn commands into session operations and render the resulting snapshot.
//   - Show the scoreboard and save the score of a won game.
//   - Render every message through the selected language's catalog.
//
// The view holds no game state of its own beyond "which won game was already
// saved"; everything else is read back from the session snapshot.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numerito/apps/go-client/internal/apperr"
	"github.com/robalobadob/numerito/apps/go-client/internal/config"
	"github.com/robalobadob/numerito/apps/go-client/internal/gameapi"
	"github.com/robalobadob/numerito/apps/go-client/internal/i18n"
	"github.com/robalobadob/numerito/apps/go-client/internal/session"
)

// Session is the state machine as seen by the view.
type Session interface {
	Restore(ctx context.Context) error
	StartNewGame(ctx context.Context) error
	SubmitGuess(ctx context.Context, guess string) (session.Attempt, error)
	Snapshot() session.Snapshot
}

// Scoreboard is the remote scoreboard as seen by the view.
type Scoreboard interface {
	SaveScore(ctx context.Context, req gameapi.SaveScoreRequest) (gameapi.Score, error)
	TopScores(ctx context.Context, limit int) ([]gameapi.Score, error)
}

// Config wires an App.
type Config struct {
	Session  Session
	Scores   Scoreboard
	Text     *i18n.Translator
	TopLimit int           // default leaderboard size
	Timeout  time.Duration // per command; 0 = none
	Token    string        // optional bearer token, read for the player name
	Now      func() time.Time
}

// App is the REPL.
type App struct {
	cfg      Config
	out      io.Writer
	player   string // default name for "save"
	savedFor string // CompletedGameID whose score was already saved
}

// command is one REPL verb and its help line.
type command struct {
	usage string
	help  string
}

var commands = []command{
	{"new", "start a new game"},
	{"<number>", "guess a 4-digit number (also: guess <number>)"},
	{"status", "show the current game"},
	{"history", "list this game's attempts"},
	{"top [n]", "show the best scores"},
	{"save [name]", "save the score of a won game"},
	{"rules", "explain the rules"},
	{"help", "show this help"},
	{"quit", "leave the game"},
}

// New constructs an App.
func New(cfg Config) *App {
	if cfg.TopLimit <= 0 {
		cfg.TopLimit = gameapi.DefaultTopLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &App{cfg: cfg}
}

// Run greets the player, resumes any persisted game and processes commands
// from in until "quit", end of input, or ctx is cancelled.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	a.out = out
	a.println("Numerito: guess the secret number of 4 distinct digits.")
	a.println("Type 'help' to see the commands.")
	a.inspectToken()
	a.restore(ctx)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		fmt.Fprint(out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			a.println("Bye!")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				if err := <-scanErr; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				return nil
			}
			if quit := a.exec(ctx, line); quit {
				return nil
			}
		}
	}
}

// exec runs one input line and reports whether the player asked to quit.
func (a *App) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	verb := strings.ToLower(fields[0])
	rest := strings.TrimSpace(line[len(fields[0]):])

	ctx, cancel := a.commandContext(ctx)
	defer cancel()

	switch verb {
	case "new", "n":
		a.newGame(ctx)
	case "guess", "g":
		if len(fields) != 2 {
			a.println("Usage: guess <number>")
			return false
		}
		a.guess(ctx, fields[1])
	case "status", "s":
		a.status()
	case "history", "h":
		a.history()
	case "top", "t":
		a.top(ctx, fields[1:])
	case "save":
		a.save(ctx, rest)
	case "rules":
		a.rules()
	case "help", "?":
		a.help()
	case "quit", "exit", "q":
		a.println("Bye!")
		return true
	default:
		if len(fields) == 1 && isDigit(fields[0][0]) {
			a.guess(ctx, fields[0])
			return false
		}
		a.printf("Unknown command %q. Type 'help' to see the commands.", fields[0])
	}
	return false
}

func (a *App) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (a *App) inspectToken() {
	if a.cfg.Token == "" {
		return
	}
	info, err := gameapi.InspectToken(a.cfg.Token)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable token")
		return
	}
	a.player = info.Username
	if info.Expired(a.cfg.Now()) {
		a.printf("Warning: your token expired on %s.", info.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	if a.player != "" {
		a.printf("Playing as %s.", a.player)
	}
}

func (a *App) restore(ctx context.Context) {
	ctx, cancel := a.commandContext(ctx)
	defer cancel()
	if err := a.cfg.Session.Restore(ctx); err != nil {
		a.fail(err)
	}
	s := a.cfg.Session.Snapshot()
	switch {
	case s.GameID != "" && s.Finished():
		a.printf("Resumed game %s, which is already finished. Type 'new' to play again.", s.GameID)
	case s.GameID != "":
		a.printf("Resumed game %s (%d attempts so far).", s.GameID, s.RemoteAttempts)
	default:
		a.println("Type 'new' to start a game.")
	}
}

func (a *App) newGame(ctx context.Context) {
	if err := a.cfg.Session.StartNewGame(ctx); err != nil {
		a.fail(err)
		return
	}
	a.println("New game started. Guess the 4-digit number!")
}

func (a *App) guess(ctx context.Context, g string) {
	at, err := a.cfg.Session.SubmitGuess(ctx, g)
	if err != nil {
		a.fail(err)
		return
	}
	a.attempt(at)

	s := a.cfg.Session.Snapshot()
	switch {
	case s.Won:
		a.printf("Congratulations! You guessed the number in %d attempts (%s).", s.AttemptCount(), clock(s.Elapsed()))
		a.println("Type 'save [name]' to record your score, or 'new' to play again.")
	case s.Finished():
		a.println("The game is over. Type 'new' to play again.")
	}
}

func (a *App) attempt(at session.Attempt) {
	a.printf("Attempt %d: %s  B=%d R=%d M=%d", at.AttemptNumber, at.Guess, at.Bien, at.Regular, at.Mal)
}

func (a *App) status() {
	s := a.cfg.Session.Snapshot()
	switch {
	case s.Won:
		a.printf("Game %s won in %d attempts (%s).", s.CompletedGameID, s.AttemptCount(), clock(s.Elapsed()))
	case s.Finished():
		a.printf("Game %s finished after %d attempts.", s.GameID, s.AttemptCount())
	case s.GameID != "":
		a.printf("Game %s: %d attempts, %s elapsed.", s.GameID, s.AttemptCount(), clock(s.Elapsed()))
	default:
		a.println("No active game. Type 'new' to start a game.")
	}
}

func (a *App) history() {
	s := a.cfg.Session.Snapshot()
	if s.RemoteAttempts > 0 {
		a.printf("%d earlier attempts are not shown.", s.RemoteAttempts)
	}
	if len(s.Attempts) == 0 {
		a.println("No attempts yet.")
		return
	}
	for _, at := range s.Attempts {
		a.attempt(at)
	}
}

func (a *App) top(ctx context.Context, args []string) {
	limit := a.cfg.TopLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > config.MaxTopLimit {
			a.printf("The limit must be a number between 1 and %d.", config.MaxTopLimit)
			return
		}
		limit = n
	}

	scores, err := a.cfg.Scores.TopScores(ctx, limit)
	if err != nil {
		a.fail(err)
		return
	}
	if len(scores) == 0 {
		a.println("No scores yet.")
		return
	}
	a.printf("Top %d scores:", len(scores))
	for i, sc := range scores {
		if sc.TimeSeconds != nil {
			a.printf("%d. %s: %d attempts in %s", i+1, sc.PlayerName, sc.Attempts, clock(time.Duration(*sc.TimeSeconds)*time.Second))
		} else {
			a.printf("%d. %s: %d attempts", i+1, sc.PlayerName, sc.Attempts)
		}
	}
}

func (a *App) save(ctx context.Context, name string) {
	s := a.cfg.Session.Snapshot()
	if !s.Won {
		a.println("Only a won game can be saved.")
		return
	}
	if a.savedFor == s.CompletedGameID {
		a.println("The score for this game was already saved.")
		return
	}
	if name == "" {
		name = a.player
	}

	secs := int(s.Elapsed() / time.Second)
	score, err := a.cfg.Scores.SaveScore(ctx, gameapi.SaveScoreRequest{
		PlayerName:  name,
		Attempts:    s.AttemptCount(),
		GameID:      s.CompletedGameID,
		TimeSeconds: &secs,
	})
	if err != nil {
		a.fail(err)
		return
	}
	a.savedFor = s.CompletedGameID
	saved := score.PlayerName
	if saved == "" {
		saved = gameapi.NormalizePlayerName(name)
	}
	a.printf("Score saved for %s.", saved)
}

func (a *App) rules() {
	a.println("Guess the secret number: 4 distinct digits, not starting with 0.")
	a.println("B (Bien): correct digit in the correct position.")
	a.println("R (Regular): correct digit in another position.")
	a.println("M (Mal): digit not in the number.")
}

func (a *App) help() {
	a.println("Commands:")
	for _, c := range commands {
		fmt.Fprintf(a.out, "  %-12s %s\n", c.usage, a.cfg.Text.Translate(c.help))
	}
}

// fail prints err as the player should see it.
func (a *App) fail(err error) {
	msg := err.Error()
	var e *apperr.Error
	if errors.As(err, &e) && e.Message != "" {
		msg = e.Message
	}
	a.printf("Error: %s", a.cfg.Text.Translate(msg))
}

func (a *App) println(key string) {
	fmt.Fprintln(a.out, a.cfg.Text.Translate(key))
}

func (a *App) printf(key string, args ...any) {
	fmt.Fprintln(a.out, a.cfg.Text.Sprintf(key, args...))
}

// clock renders d as m:ss, or h:mm:ss from one hour up.
func clock(d time.Duration) string {
	secs := int(d / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
