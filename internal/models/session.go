package models

import (
	"time"

	"github.com/google/uuid"
)

// GameState defines the lifecycle phase of a game session.
type GameState string

const (
	GameStateCreated       GameState = "CREATED"
	GameStateAwaitingStart GameState = "AWAITING_START"
	GameStateInProgress    GameState = "IN_PROGRESS"
	GameStateFinished      GameState = "FINISHED"
)

// AnswerRecord captures one player's answer (or timeout) for one question.
// ChosenOption is nil when the player never answered within the limit.
type AnswerRecord struct {
	QuestionIndex  int     `json:"question_index"`
	ChosenOption   *int    `json:"chosen_option,omitempty"`
	Correct        bool    `json:"correct"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	PointsAwarded  int     `json:"points_awarded"`
}

// GameStats summarizes a finished match for the gameEnd broadcast.
type GameStats struct {
	DurationSeconds int                       `json:"duration_seconds"`
	TotalQuestions  int                       `json:"total_questions"`
	Answers         map[string][]AnswerRecord `json:"answers"`
}

// GameResult is the finalized outcome handed to the result sink once a
// session reaches FINISHED. WinnerID is nil on a draw.
type GameResult struct {
	SessionID  uuid.UUID      `json:"session_id"`
	Players    [2]Player      `json:"players"`
	Scores     map[string]int `json:"scores"`
	WinnerID   *string        `json:"winner_id,omitempty"`
	IsDraw     bool           `json:"is_draw"`
	Abandoned  bool           `json:"abandoned"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Stats      GameStats      `json:"stats"`
}
