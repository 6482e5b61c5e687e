package events

import "github.com/Joshuahobby/mindarena/internal/models"

// Client -> server payloads.

// AuthPayload carries the identity-provider id and display name. The
// engine trusts both; verification is the provider's concern.
type AuthPayload struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

// FindMatchPayload requests matchmaking for an authenticated player.
type FindMatchPayload struct {
	PlayerID string `json:"playerId"`
}

// AnswerPayload submits an answer for the current question of a session.
// OptionIndex is nil when the client explicitly passes.
type AnswerPayload struct {
	SessionID      string  `json:"sessionId"`
	PlayerID       string  `json:"playerId"`
	OptionIndex    *int    `json:"optionIndex"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

// CancelMatchmakingPayload withdraws a queued player.
type CancelMatchmakingPayload struct {
	PlayerID string `json:"playerId"`
}

// Server -> client payloads.

type WelcomePayload struct {
	Message string `json:"message"`
}

type AuthSuccessPayload struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

// OpponentInfo is the identity revealed to each side on pairing.
type OpponentInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type GameCreatedPayload struct {
	SessionID string       `json:"sessionId"`
	Opponent  OpponentInfo `json:"opponent"`
}

type GameStartPayload struct {
	SessionID      string `json:"sessionId"`
	TotalQuestions int    `json:"totalQuestions"`
}

// QuestionPayload delivers one question. Position is 1-indexed.
type QuestionPayload struct {
	SessionID        string   `json:"sessionId"`
	Position         int      `json:"position"`
	Total            int      `json:"total"`
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	Category         string   `json:"category"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

type AnswerFeedbackPayload struct {
	SessionID  string `json:"sessionId"`
	IsCorrect  bool   `json:"isCorrect"`
	Points     int    `json:"points"`
	TotalScore int    `json:"totalScore"`
}

type RevealAnswerPayload struct {
	SessionID     string         `json:"sessionId"`
	CorrectAnswer int            `json:"correctAnswer"`
	Scores        map[string]int `json:"scores"`
}

// GameEndPayload closes a session normally. Winner is nil on a draw.
type GameEndPayload struct {
	SessionID string           `json:"sessionId"`
	Scores    map[string]int   `json:"scores"`
	Winner    *string          `json:"winner"`
	IsDraw    bool             `json:"isDraw"`
	GameStats models.GameStats `json:"gameStats"`
}

// PlayerLeftPayload closes a session by abandonment: the remaining
// player is the winner regardless of score.
type PlayerLeftPayload struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Winner    string `json:"winner"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
