package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Joshuahobby/mindarena/internal/models"
	"github.com/Joshuahobby/mindarena/internal/quiz"
)

// ResultSink receives finalized match outcomes so an external
// collaborator can persist history or award progression. The engine
// itself never writes to persistence.
type ResultSink interface {
	PublishResult(ctx context.Context, result *models.GameResult) error
}

// Config holds engine-level game settings.
type Config struct {
	QuestionsPerMatch int
	// Category filters the sampled questions; empty means the whole bank.
	Category    string
	StartDelay  time.Duration
	RevealDelay time.Duration
}

// DefaultConfig returns the standard match settings.
func DefaultConfig() Config {
	return Config{
		QuestionsPerMatch: 5,
		StartDelay:        3 * time.Second,
		RevealDelay:       2 * time.Second,
	}
}

// Engine is the matchmaking and session coordinator. It guarantees that
// a player id is never queued twice and never a member of two active
// sessions at once.
type Engine struct {
	cfg   Config
	bank  *quiz.Bank
	clock clockwork.Clock
	sink  ResultSink

	matchmaker *Matchmaker
	sessions   *SessionRegistry

	mu             sync.Mutex
	waitingConns   map[string]PlayerConn
	playerSessions map[string]uuid.UUID
}

// NewEngine creates an engine. sink may be nil when no result publisher
// is configured.
func NewEngine(cfg Config, bank *quiz.Bank, clock clockwork.Clock, sink ResultSink) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		cfg:            cfg,
		bank:           bank,
		clock:          clock,
		sink:           sink,
		matchmaker:     NewMatchmaker(),
		sessions:       NewSessionRegistry(),
		waitingConns:   make(map[string]PlayerConn),
		playerSessions: make(map[string]uuid.UUID),
	}
}

// Sessions exposes the session registry.
func (e *Engine) Sessions() *SessionRegistry { return e.sessions }

// Matchmaker exposes the matchmaking queue.
func (e *Engine) Matchmaker() *Matchmaker { return e.matchmaker }

// FindMatch queues the player or, when an opponent is waiting, creates
// and starts a session pairing the two. A nil session with a nil error
// means the player is now waiting.
func (e *Engine) FindMatch(p PlayerConn) (*Session, error) {
	playerID := p.PlayerID()

	e.mu.Lock()
	if _, inGame := e.playerSessions[playerID]; inGame {
		e.mu.Unlock()
		return nil, ErrAlreadyInGame
	}

	// Sample before touching the queue so a sampling failure cannot pop
	// an opponent who then never gets paired.
	questions := e.bank.Sample(e.cfg.QuestionsPerMatch, e.cfg.Category)
	if len(questions) == 0 {
		e.mu.Unlock()
		return nil, ErrNoQuestions
	}

	opponentID, matched := e.matchmaker.EnqueueOrMatch(playerID)
	if !matched {
		// Keep the freshest connection for the waiting player.
		e.waitingConns[playerID] = p
		e.mu.Unlock()
		return nil, nil
	}

	opponent := e.waitingConns[opponentID]
	delete(e.waitingConns, opponentID)

	s := NewSession(opponent, p, questions, SessionConfig{
		StartDelay:  e.cfg.StartDelay,
		RevealDelay: e.cfg.RevealDelay,
		Clock:       e.clock,
	}, e.finishSession)
	e.sessions.Add(s)
	e.playerSessions[opponentID] = s.ID()
	e.playerSessions[playerID] = s.ID()
	e.mu.Unlock()

	s.Start()
	return s, nil
}

// CancelMatch withdraws a queued player. It reports whether the player
// was actually waiting; cancelling a never-queued or already-matched
// player is a no-op.
func (e *Engine) CancelMatch(playerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.waitingConns, playerID)
	return e.matchmaker.Cancel(playerID)
}

// SubmitAnswer routes an answer to its session.
func (e *Engine) SubmitAnswer(sessionID uuid.UUID, playerID string, option *int, elapsedSeconds float64) error {
	s, ok := e.sessions.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	return s.SubmitAnswer(playerID, option, elapsedSeconds)
}

// HandleDisconnect removes the player from the queue and, when they are
// mid-game, triggers the session's abandonment handling.
func (e *Engine) HandleDisconnect(playerID string) {
	e.mu.Lock()
	delete(e.waitingConns, playerID)
	e.matchmaker.Cancel(playerID)
	sessionID, inGame := e.playerSessions[playerID]
	e.mu.Unlock()

	if !inGame {
		return
	}
	if s, ok := e.sessions.Get(sessionID); ok {
		s.PlayerLeft(playerID)
	}
}

// finishSession runs on the session's own goroutine when it reaches the
// terminal state: drop it from the registry, free both player slots,
// and hand the result to the sink.
func (e *Engine) finishSession(s *Session, result *models.GameResult) {
	e.sessions.Remove(s.ID())

	e.mu.Lock()
	for _, p := range s.Players() {
		delete(e.playerSessions, p.PlayerID())
	}
	e.mu.Unlock()

	if result == nil || e.sink == nil {
		return
	}

	// Publish off the session goroutine; a slow broker must not block
	// other shutdown work.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.sink.PublishResult(ctx, result); err != nil {
			log.Error().
				Err(err).
				Str("session_id", result.SessionID.String()).
				Msg("failed to publish game result")
		}
	}()
}
