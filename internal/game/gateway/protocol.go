package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Joshuahobby/mindarena/internal/game/engine"
	"github.com/Joshuahobby/mindarena/internal/game/events"
	"github.com/Joshuahobby/mindarena/internal/models"
)

// Dispatcher decodes inbound events and routes them to the engine.
// Every malformed or rejected event answers with an error event to the
// sender; the connection is never closed for a protocol error.
type Dispatcher struct {
	manager *ConnectionManager
	engine  *engine.Engine
}

// NewDispatcher wires the dispatcher into the connection manager.
func NewDispatcher(manager *ConnectionManager, eng *engine.Engine) *Dispatcher {
	d := &Dispatcher{
		manager: manager,
		engine:  eng,
	}
	manager.SetHandler(d)
	return d
}

// HandleMessage implements MessageHandler.
func (d *Dispatcher) HandleMessage(c *Connection, data []byte) {
	var ev events.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		d.sendError(c, "malformed message: expected a JSON event object")
		return
	}

	switch ev.Type {
	case events.EventTypeAuth:
		d.handleAuth(c, ev.Data)
	case events.EventTypeFindMatch:
		d.handleFindMatch(c, ev.Data)
	case events.EventTypeAnswer:
		d.handleAnswer(c, ev.Data)
	case events.EventTypeCancelMatchmaking:
		d.handleCancelMatchmaking(c, ev.Data)
	default:
		d.sendError(c, fmt.Sprintf("unknown event type %q", ev.Type))
	}
}

// HandleDisconnect implements MessageHandler.
func (d *Dispatcher) HandleDisconnect(c *Connection) {
	d.engine.HandleDisconnect(c.PlayerID())
}

func (d *Dispatcher) handleAuth(c *Connection, data json.RawMessage) {
	var payload events.AuthPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		d.sendError(c, "malformed auth payload")
		return
	}
	if payload.PlayerID == "" || payload.DisplayName == "" {
		d.sendError(c, "auth requires playerId and displayName")
		return
	}
	// The binding is immutable once set; sessions read the player id
	// without a lock, so a rebind must use a fresh connection.
	if c.PlayerID() != "" {
		d.sendError(c, "connection already authenticated")
		return
	}

	d.manager.Register(c, payload.PlayerID, payload.DisplayName)
	log.Info().
		Str("player_id", payload.PlayerID).
		Str("display_name", payload.DisplayName).
		Msg("player authenticated")

	c.Send(mustEvent(events.EventTypeAuthSuccess, events.AuthSuccessPayload{
		PlayerID:    payload.PlayerID,
		DisplayName: payload.DisplayName,
	}))
}

func (d *Dispatcher) handleFindMatch(c *Connection, data json.RawMessage) {
	var payload events.FindMatchPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		d.sendError(c, "malformed findMatch payload")
		return
	}
	if !d.authorized(c, payload.PlayerID) {
		d.sendError(c, "findMatch requires an authenticated player")
		return
	}

	session, err := d.engine.FindMatch(c)
	if err != nil {
		d.sendError(c, err.Error())
		return
	}
	if session == nil {
		c.Send(mustEvent(events.EventTypeWaitingForOpponent, nil))
	}
	// When a session was created both players already received
	// gameCreated from the session itself.
}

func (d *Dispatcher) handleAnswer(c *Connection, data json.RawMessage) {
	var payload events.AnswerPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		d.sendError(c, "malformed answer payload")
		return
	}
	if !d.authorized(c, payload.PlayerID) {
		d.sendError(c, "answer requires an authenticated player")
		return
	}
	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		d.sendError(c, "answer requires a valid sessionId")
		return
	}
	if payload.OptionIndex != nil && (*payload.OptionIndex < 0 || *payload.OptionIndex >= models.OptionCount) {
		d.sendError(c, fmt.Sprintf("optionIndex must be between 0 and %d", models.OptionCount-1))
		return
	}
	if payload.ElapsedSeconds < 0 {
		d.sendError(c, "elapsedSeconds must not be negative")
		return
	}

	if err := d.engine.SubmitAnswer(sessionID, payload.PlayerID, payload.OptionIndex, payload.ElapsedSeconds); err != nil {
		switch {
		case errors.Is(err, engine.ErrSessionNotFound),
			errors.Is(err, engine.ErrSessionNotActive),
			errors.Is(err, engine.ErrAlreadyAnswered),
			errors.Is(err, engine.ErrNotInSession):
			d.sendError(c, err.Error())
		default:
			log.Error().
				Err(err).
				Str("session_id", payload.SessionID).
				Str("player_id", payload.PlayerID).
				Msg("answer handling failed")
			d.sendError(c, "failed to process answer")
		}
	}
}

func (d *Dispatcher) handleCancelMatchmaking(c *Connection, data json.RawMessage) {
	var payload events.CancelMatchmakingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		d.sendError(c, "malformed cancelMatchmaking payload")
		return
	}
	if !d.authorized(c, payload.PlayerID) {
		d.sendError(c, "cancelMatchmaking requires an authenticated player")
		return
	}

	// Cancelling a never-queued or already-matched player is a no-op.
	d.engine.CancelMatch(payload.PlayerID)
	c.Send(mustEvent(events.EventTypeMatchmakingCancelled, nil))
}

// authorized checks that the connection is bound and the payload speaks
// for the bound player.
func (d *Dispatcher) authorized(c *Connection, playerID string) bool {
	return c.PlayerID() != "" && c.PlayerID() == playerID
}

func (d *Dispatcher) sendError(c *Connection, message string) {
	c.Send(mustEvent(events.EventTypeError, events.ErrorPayload{Message: message}))
}
