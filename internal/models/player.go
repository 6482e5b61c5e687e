package models

// PlayerStatus defines the connection status of a player.
type PlayerStatus string

const (
	PlayerStatusOnline  PlayerStatus = "ONLINE"
	PlayerStatusOffline PlayerStatus = "OFFLINE"
)

// Player represents an authenticated, connection-scoped participant.
// The id and display name come from the identity provider and are
// trusted as-is; the engine never verifies them.
type Player struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"display_name"`
	Status      PlayerStatus `json:"status"`
}
