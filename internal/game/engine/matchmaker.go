package engine

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Matchmaker is the FIFO waiting list pairing two unmatched players.
// All operations are atomic; concurrent EnqueueOrMatch calls never pair
// the same waiting player into two matches and never lose a queued
// player.
type Matchmaker struct {
	mu      sync.Mutex
	queue   []string
	waiting map[string]bool
}

// NewMatchmaker creates an empty matchmaking queue.
func NewMatchmaker() *Matchmaker {
	return &Matchmaker{
		waiting: make(map[string]bool),
	}
}

// EnqueueOrMatch pairs the requesting player with the oldest waiting one
// when the queue is non-empty, otherwise appends the player to the tail.
// Returns the matched opponent id, or matched=false when the player is
// now (or already was) waiting. A player is never matched with
// themselves.
func (m *Matchmaker) EnqueueOrMatch(playerID string) (opponentID string, matched bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiting[playerID] {
		// Already queued; keep the original position.
		return "", false
	}

	if len(m.queue) > 0 {
		opponentID = m.queue[0]
		m.queue = m.queue[1:]
		delete(m.waiting, opponentID)
		log.Debug().
			Str("player_id", playerID).
			Str("opponent_id", opponentID).
			Msg("matchmaking pair formed")
		return opponentID, true
	}

	m.queue = append(m.queue, playerID)
	m.waiting[playerID] = true
	log.Debug().Str("player_id", playerID).Int("queue_len", len(m.queue)).Msg("player queued")
	return "", false
}

// Cancel removes the player from the queue if present. It is a no-op
// for players who were never queued or were already matched.
func (m *Matchmaker) Cancel(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.waiting[playerID] {
		return false
	}
	delete(m.waiting, playerID)
	for i, id := range m.queue {
		if id == playerID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	return true
}

// WaitingCount returns the number of queued players.
func (m *Matchmaker) WaitingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
