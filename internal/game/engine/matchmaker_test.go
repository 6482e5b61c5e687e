package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchmakerPairsOnDemand(t *testing.T) {
	m := NewMatchmaker()

	// First arrival waits; the next request pops them immediately, so
	// the queue never holds more than one player.
	_, matched := m.EnqueueOrMatch("p1")
	require.False(t, matched)
	require.Equal(t, 1, m.WaitingCount())

	opponent, matched := m.EnqueueOrMatch("p2")
	require.True(t, matched)
	assert.Equal(t, "p1", opponent)
	assert.Equal(t, 0, m.WaitingCount())

	opponent, matched = m.EnqueueOrMatch("p3")
	require.False(t, matched)
	opponent, matched = m.EnqueueOrMatch("p4")
	require.True(t, matched)
	assert.Equal(t, "p3", opponent)
}

func TestMatchmakerOrderSurvivesCancel(t *testing.T) {
	m := NewMatchmaker()

	// p1 waits, leaves, and comes back after p2 was never there; the
	// player holding the slot at request time is the one paired.
	m.EnqueueOrMatch("p1")
	require.True(t, m.Cancel("p1"))
	m.EnqueueOrMatch("p2")

	opponent, matched := m.EnqueueOrMatch("p1")
	require.True(t, matched)
	assert.Equal(t, "p2", opponent)
	assert.Equal(t, 0, m.WaitingCount())
}

func TestMatchmakerDuplicateEnqueueKeepsPosition(t *testing.T) {
	m := NewMatchmaker()

	m.EnqueueOrMatch("p1")
	_, matched := m.EnqueueOrMatch("p1")
	assert.False(t, matched, "re-queueing must not self-match")
	assert.Equal(t, 1, m.WaitingCount())

	opponent, matched := m.EnqueueOrMatch("p2")
	require.True(t, matched)
	assert.Equal(t, "p1", opponent)
}

func TestMatchmakerCancel(t *testing.T) {
	m := NewMatchmaker()

	m.EnqueueOrMatch("p1")
	assert.True(t, m.Cancel("p1"))
	assert.Equal(t, 0, m.WaitingCount())

	// Cancelling again, or cancelling a never-queued player, is a no-op.
	assert.False(t, m.Cancel("p1"))
	assert.False(t, m.Cancel("ghost"))

	// A cancelled player is not matchable.
	_, matched := m.EnqueueOrMatch("p2")
	assert.False(t, matched)
}

func TestMatchmakerConcurrentEnqueue(t *testing.T) {
	m := NewMatchmaker()

	const players = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	matches := 0

	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, matched := m.EnqueueOrMatch(fmt.Sprintf("p%d", id)); matched {
				mu.Lock()
				matches++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	// Every player is either matched into exactly one pair or still
	// waiting; no one is lost and no one is paired twice.
	assert.Equal(t, players, matches*2+m.WaitingCount())
}
