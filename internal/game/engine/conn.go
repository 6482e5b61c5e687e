package engine

import (
	"github.com/rs/zerolog/log"

	"github.com/Joshuahobby/mindarena/internal/game/events"
)

// PlayerConn is the send capability a session holds for each player. It
// decouples game logic from the transport so sessions run against fakes
// in tests and real WebSocket connections in production.
type PlayerConn interface {
	PlayerID() string
	DisplayName() string
	Send(ev *events.Event)
}

// sendTo builds and sends one event, logging instead of failing when the
// payload cannot be marshaled.
func sendTo(conn PlayerConn, eventType events.EventType, payload any) {
	ev, err := events.New(eventType, payload)
	if err != nil {
		log.Error().
			Err(err).
			Str("event_type", string(eventType)).
			Str("player_id", conn.PlayerID()).
			Msg("failed to build event")
		return
	}
	conn.Send(ev)
}
