// internal/gameapi/game.go
//
// Game service operations:
//   - POST /game                  → CreateSession
//   - POST /game/{gameId}/guess   → SubmitGuess
//   - GET  /game/{gameId}         → FetchStatus

package gameapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/robalobadob/numerito/apps/go-client/internal/apperr"
)

// CreateSession asks the service for a fresh game.
func (c *Client) CreateSession(ctx context.Context) (Created, error) {
	var out Created
	if err := c.do(ctx, http.MethodPost, "/game", nil, &out); err != nil {
		return Created{}, err
	}
	if out.GameID == "" {
		return Created{}, &apperr.Error{Kind: apperr.KindServer, Status: http.StatusCreated, Message: "the server did not return a game id"}
	}
	return out, nil
}

// guessReq is the body of POST /game/{gameId}/guess.
type guessReq struct {
	Guess string `json:"guess"`
}

// SubmitGuess sends one guess for gameID.
func (c *Client) SubmitGuess(ctx context.Context, gameID, guess string) (GuessResult, error) {
	var out GuessResult
	if err := c.do(ctx, http.MethodPost, "/game/"+url.PathEscape(gameID)+"/guess", guessReq{Guess: guess}, &out); err != nil {
		return GuessResult{}, err
	}
	return out, nil
}

// FetchStatus reads the attempt count and finished flag of gameID.
func (c *Client) FetchStatus(ctx context.Context, gameID string) (Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/game/"+url.PathEscape(gameID), nil, &out); err != nil {
		return Status{}, err
	}
	return out, nil
}
