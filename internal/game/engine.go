// internal/game/engine.go
//
// Rules engine for a single Numerito game, as the game service applies them.
// The client never scores guesses itself; this engine backs the fake service
// the client is tested against.
// Responsibilities:
//   - Create new games with a random (or fixed) secret.
//   - Check and apply guesses (length, digits, leading zero, distinctness).
//   - Score guesses into bien/regular/mal.
//   - Track state transitions: playing → won/lost.

package game

import (
	"errors"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// Digits is the secret length.
const Digits = 4

var (
	ErrFinished    = errors.New("the game is already finished")
	ErrLength      = errors.New("guess must be 4 digits")
	ErrNotDistinct = errors.New("guess must be 4 distinct digits")
	ErrLeadingZero = errors.New("guess cannot start with 0")
)

// New constructs a game. If secret is empty a random one is drawn.
func New(secret string, maxAttempts int) *Game {
	if secret == "" {
		secret = RandomSecret()
	}
	return &Game{
		ID:          uuid.NewString(),
		Secret:      secret,
		MaxAttempts: maxAttempts,
	}
}

// RandomSecret draws four distinct digits with a non-zero first digit.
func RandomSecret() string {
	perm := rand.Perm(10)
	for perm[0] == 0 {
		perm = rand.Perm(10)
	}
	var b strings.Builder
	for _, d := range perm[:Digits] {
		b.WriteByte(byte('0' + d))
	}
	return b.String()
}

// Check reports why guess is not acceptable (ErrLength, ErrNotDistinct or
// ErrLeadingZero), or nil.
func Check(guess string) error {
	switch {
	case len(guess) != Digits:
		return ErrLength
	case !distinctDigits(guess):
		return ErrNotDistinct
	case guess[0] == '0':
		return ErrLeadingZero
	}
	return nil
}

// ApplyGuess checks and scores a guess, mutating the game state.
//
// State transitions:
//   - All digits in place → Finished = true, Won = true.
//   - Else if Attempts reaches MaxAttempts → Finished = true (loss).
func (g *Game) ApplyGuess(guess string) (Feedback, error) {
	if err := Check(guess); err != nil {
		return Feedback{}, err
	}
	if g.Finished {
		return Feedback{}, ErrFinished
	}

	fb := Score(g.Secret, guess)
	g.Attempts++
	if fb.Win() {
		g.Finished, g.Won = true, true
	} else if g.MaxAttempts > 0 && g.Attempts >= g.MaxAttempts {
		g.Finished = true
	}
	return fb, nil
}

// Score compares guess with secret, two passes like a Wordle row: exact
// matches first, then remaining digits by count, so repeated digits in a
// malformed guess are never double counted.
func Score(secret, guess string) Feedback {
	var (
		fb     Feedback
		counts [10]int
		hit    [Digits]bool
	)
	n := min(len(secret), len(guess), Digits)

	for i := 0; i < n; i++ {
		if guess[i] == secret[i] {
			fb.Bien++
			hit[i] = true
		} else if d := digit(secret[i]); d >= 0 {
			counts[d]++
		}
	}
	for i := 0; i < n; i++ {
		if hit[i] {
			continue
		}
		if d := digit(guess[i]); d >= 0 && counts[d] > 0 {
			fb.Regular++
			counts[d]--
		}
	}
	fb.Mal = Digits - fb.Bien - fb.Regular
	return fb
}

func digit(c byte) int {
	if c < '0' || c > '9' {
		return -1
	}
	return int(c - '0')
}

func distinctDigits(s string) bool {
	var seen [10]bool
	for i := 0; i < len(s); i++ {
		d := digit(s[i])
		if d < 0 || seen[d] {
			return false
		}
		seen[d] = true
	}
	return true
}
