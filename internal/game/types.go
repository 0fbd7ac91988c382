// internal/game/types.go
//
// Type definitions for the Numerito rules engine.
// Defines:
//   - Feedback: the per-guess verdict (bien/regular/mal counts).
//   - Game:     state for a single in-progress or finished game.

package game

// Feedback is the evaluation of one guess against the secret.
//   - Bien:    digit correct and in the correct position.
//   - Regular: digit exists in the secret but in a different position.
//   - Mal:     digit does not exist in the secret.
type Feedback struct {
	Bien    int
	Regular int
	Mal     int
}

// Win reports whether every digit is in place.
func (f Feedback) Win() bool { return f.Bien == Digits }

// Game holds the state of a single Numerito game.
type Game struct {
	ID          string // Opaque identifier issued on creation.
	Secret      string // Four distinct digits, never starting with 0.
	MaxAttempts int    // Guesses allowed before a loss (0 = unlimited).
	Attempts    int    // Guesses accepted so far.
	Finished    bool   // True once the game is over (won or lost).
	Won         bool   // True if the game was finished with a win.
}
