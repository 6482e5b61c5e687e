package engine

import "errors"

var (
	// ErrSessionNotFound is returned when an answer targets an unknown session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotActive is returned when a session is not accepting answers.
	ErrSessionNotActive = errors.New("session is not accepting answers")

	// ErrAlreadyAnswered is returned on a duplicate submission for a
	// question the player has already answered. The first answer stands.
	ErrAlreadyAnswered = errors.New("answer already recorded for this question")

	// ErrNotInSession is returned when the submitting player is not one
	// of the session's two participants.
	ErrNotInSession = errors.New("player is not part of this session")

	// ErrAlreadyInGame is returned when a player requests matchmaking
	// while a session of theirs is still active.
	ErrAlreadyInGame = errors.New("player is already in an active game")

	// ErrNoQuestions is returned when matchmaking cannot draw any
	// questions from the bank.
	ErrNoQuestions = errors.New("no questions available for a match")
)
