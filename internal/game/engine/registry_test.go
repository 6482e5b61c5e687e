package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdleSession() *Session {
	return NewSession(
		newFakeConn("p1", "Alice"),
		newFakeConn("p2", "Bob"),
		testQuestions(1),
		SessionConfig{Clock: clockwork.NewFakeClock()},
		nil,
	)
}

func TestSessionRegistry(t *testing.T) {
	r := NewSessionRegistry()
	s := newIdleSession()

	_, ok := r.Get(s.ID())
	require.False(t, ok)

	r.Add(s)
	got, ok := r.Get(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	r.Remove(s.ID())
	_, ok = r.Get(s.ID())
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())

	// Removal is idempotent.
	r.Remove(s.ID())
	r.Remove(uuid.New())
	assert.Equal(t, 0, r.Len())
}
