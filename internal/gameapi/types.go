// internal/gameapi/types.go
//
// Wire types for the remote game and scoreboard services.

package gameapi

// Created is the body of POST /game (201).
type Created struct {
	GameID  string `json:"gameId"`
	Message string `json:"message"`
}

// GuessResult is the body of POST /game/{gameId}/guess (200).
//   - Bien:    digit correct and in the correct position.
//   - Regular: digit in the secret but in another position.
//   - Mal:     digit absent from the secret.
type GuessResult struct {
	Bien          int  `json:"bien"`
	Regular       int  `json:"regular"`
	Mal           int  `json:"mal"`
	Win           bool `json:"win"`
	AttemptNumber int  `json:"attemptNumber"`
	Finished      bool `json:"finished"`
}

// Status is the body of GET /game/{gameId} (200). It carries the attempt
// count only, never the attempts themselves.
type Status struct {
	GameID   string `json:"gameId"`
	Attempts int    `json:"attempts"`
	Finished bool   `json:"finished"`
}

// ErrorResponse is the body the services send with a non-success status.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Score is one leaderboard row.
type Score struct {
	ID          string `json:"id"`
	PlayerName  string `json:"playerName"`
	Attempts    int    `json:"attempts"`
	CreatedAt   string `json:"createdAt"` // ISO 8601
	TimeSeconds *int   `json:"timeSeconds,omitempty"`
	GameID      string `json:"gameId,omitempty"`
}

// SaveScoreRequest is the body of POST /scores.
type SaveScoreRequest struct {
	PlayerName  string `json:"playerName"`
	Attempts    int    `json:"attempts"`
	GameID      string `json:"gameId,omitempty"`
	TimeSeconds *int   `json:"timeSeconds,omitempty"`
}
