package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the kind of a wire event.
type EventType string

// Client -> server event kinds.
const (
	EventTypeAuth              EventType = "auth"
	EventTypeFindMatch         EventType = "findMatch"
	EventTypeAnswer            EventType = "answer"
	EventTypeCancelMatchmaking EventType = "cancelMatchmaking"
)

// Server -> client event kinds.
const (
	EventTypeWelcome              EventType = "welcome"
	EventTypeAuthSuccess          EventType = "authSuccess"
	EventTypeWaitingForOpponent   EventType = "waitingForOpponent"
	EventTypeMatchmakingCancelled EventType = "matchmakingCancelled"
	EventTypeGameCreated          EventType = "gameCreated"
	EventTypeGameStart            EventType = "gameStart"
	EventTypeQuestion             EventType = "question"
	EventTypeAnswerFeedback       EventType = "answerFeedback"
	EventTypeRevealAnswer         EventType = "revealAnswer"
	EventTypeGameEnd              EventType = "gameEnd"
	EventTypePlayerLeft           EventType = "playerLeft"
	EventTypeError                EventType = "error"
)

// Event is the wire envelope: one JSON object per message, the type
// field selecting the kind. Data holds the kind-specific payload.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New builds an outbound event, marshaling the payload. A nil payload
// produces an event with no data field.
func New(eventType EventType, payload any) (*Event, error) {
	ev := &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
	if payload == nil {
		return ev, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	ev.Data = data
	return ev, nil
}
