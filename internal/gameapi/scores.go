// internal/gameapi/scores.go
//
// Scoreboard service operations:
//   - POST /scores            → SaveScore
//   - GET  /scores/top?limit= → TopScores

package gameapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultTopLimit is the leaderboard size when none is requested.
	DefaultTopLimit = 10
	// AnonymousPlayer replaces a blank player name.
	AnonymousPlayer = "Anonymous"
	// MaxPlayerNameLen caps player names, in runes.
	MaxPlayerNameLen = 50
)

// NormalizePlayerName trims name, caps it at MaxPlayerNameLen runes and
// substitutes AnonymousPlayer for a blank name.
func NormalizePlayerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return AnonymousPlayer
	}
	if utf8.RuneCountInString(name) > MaxPlayerNameLen {
		name = strings.TrimSpace(string([]rune(name)[:MaxPlayerNameLen]))
	}
	return name
}

// SaveScore records a finished game on the scoreboard.
func (c *Client) SaveScore(ctx context.Context, req SaveScoreRequest) (Score, error) {
	req.PlayerName = NormalizePlayerName(req.PlayerName)
	var out Score
	if err := c.do(ctx, http.MethodPost, "/scores", req, &out); err != nil {
		return Score{}, err
	}
	return out, nil
}

// TopScores returns up to limit scores, best first. limit <= 0 means DefaultTopLimit.
func (c *Client) TopScores(ctx context.Context, limit int) ([]Score, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	var out []Score
	if err := c.do(ctx, http.MethodGet, "/scores/top?limit="+strconv.Itoa(limit), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Score{}
	}
	return out, nil
}
