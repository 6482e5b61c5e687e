package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Joshuahobby/mindarena/internal/game/events"
	"github.com/Joshuahobby/mindarena/internal/models"
)

const (
	// basePoints is awarded for any correct answer.
	basePoints = 100
	// speedBonusPerSecond scales the bonus for unused answer time.
	speedBonusPerSecond = 10
)

// SessionConfig holds per-session timing knobs.
type SessionConfig struct {
	// StartDelay is the get-ready countdown between pairing and the
	// first question.
	StartDelay time.Duration
	// RevealDelay is the pause after each reveal before the next
	// question (or the final summary).
	RevealDelay time.Duration
	Clock       clockwork.Clock
}

// finishFunc is invoked exactly once when a session leaves the active
// set. result is nil when the session was discarded before gameplay
// began (abandonment during the countdown).
type finishFunc func(s *Session, result *models.GameResult)

// sessionPhase is the sub-phase within InProgress.
type sessionPhase int

const (
	phaseCountdown sessionPhase = iota
	phaseQuestion
	phaseReveal
)

type sessionMsg interface{ isSessionMsg() }

type submitAnswerMsg struct {
	playerID string
	option   *int
	elapsed  float64
	reply    chan error
}

type playerLeftMsg struct{ playerID string }

// timerMsg carries the generation the timer was armed with; a fire for
// a superseded generation is a no-op.
type timerMsg struct{ gen int }

func (submitAnswerMsg) isSessionMsg() {}
func (playerLeftMsg) isSessionMsg()   {}
func (timerMsg) isSessionMsg()        {}

// Session owns one match between exactly two players: question
// sequencing, per-question timers, answer collection, scoring, and
// end-of-match resolution.
//
// All mutable state below the inbox is confined to the run loop; the
// session processes one event at a time to completion, so no two answer
// submissions or timer firings for the same session ever interleave.
type Session struct {
	id       uuid.UUID
	players  [2]PlayerConn
	cfg      SessionConfig
	onFinish finishFunc

	inbox chan sessionMsg
	done  chan struct{}

	// Loop-owned state.
	questions []models.Question
	state     models.GameState
	phase     sessionPhase
	current   int
	scores    map[string]int
	answers   map[string][]models.AnswerRecord
	answered  map[string]bool
	timerGen  int
	timer     clockwork.Timer
	startedAt time.Time
}

// NewSession builds a session in the Created state. player1 is the
// player who was waiting, player2 the one whose request completed the
// pair.
func NewSession(player1, player2 PlayerConn, questions []models.Question, cfg SessionConfig, onFinish finishFunc) *Session {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	s := &Session{
		id:        uuid.New(),
		players:   [2]PlayerConn{player1, player2},
		cfg:       cfg,
		onFinish:  onFinish,
		inbox:     make(chan sessionMsg, 16),
		done:      make(chan struct{}),
		questions: questions,
		state:     models.GameStateCreated,
		scores:    map[string]int{player1.PlayerID(): 0, player2.PlayerID(): 0},
		answers:   make(map[string][]models.AnswerRecord),
		answered:  make(map[string]bool),
	}
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() uuid.UUID { return s.id }

// Players returns the two participants.
func (s *Session) Players() [2]PlayerConn { return s.players }

// TotalQuestions returns the fixed question count sampled at creation.
func (s *Session) TotalQuestions() int { return len(s.questions) }

// Done is closed when the session has finished and will accept no
// further events.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start notifies both players of the pairing, schedules the start
// countdown, and launches the session loop. Call exactly once.
func (s *Session) Start() {
	for i, p := range s.players {
		opp := s.players[1-i]
		sendTo(p, events.EventTypeGameCreated, events.GameCreatedPayload{
			SessionID: s.id.String(),
			Opponent:  events.OpponentInfo{ID: opp.PlayerID(), DisplayName: opp.DisplayName()},
		})
	}
	s.state = models.GameStateAwaitingStart
	s.phase = phaseCountdown
	s.schedule(s.cfg.StartDelay)

	log.Info().
		Str("session_id", s.id.String()).
		Str("player1", s.players[0].PlayerID()).
		Str("player2", s.players[1].PlayerID()).
		Int("questions", len(s.questions)).
		Msg("session created")

	go s.run()
}

// SubmitAnswer records one answer for the current question. It returns
// ErrAlreadyAnswered on a duplicate, ErrNotInSession for a stranger,
// and ErrSessionNotActive outside the answer window.
func (s *Session) SubmitAnswer(playerID string, option *int, elapsedSeconds float64) error {
	msg := submitAnswerMsg{
		playerID: playerID,
		option:   option,
		elapsed:  elapsedSeconds,
		reply:    make(chan error, 1),
	}
	select {
	case s.inbox <- msg:
	case <-s.done:
		return ErrSessionNotActive
	}
	select {
	case err := <-msg.reply:
		return err
	case <-s.done:
		// The loop replies before it finishes; prefer the queued reply.
		select {
		case err := <-msg.reply:
			return err
		default:
			return ErrSessionNotActive
		}
	}
}

// PlayerLeft reports a dropped connection for one participant.
func (s *Session) PlayerLeft(playerID string) {
	select {
	case s.inbox <- playerLeftMsg{playerID: playerID}:
	case <-s.done:
	}
}

func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		case m := <-s.inbox:
			switch msg := m.(type) {
			case timerMsg:
				s.handleTimer(msg.gen)
			case submitAnswerMsg:
				msg.reply <- s.handleAnswer(msg.playerID, msg.option, msg.elapsed)
			case playerLeftMsg:
				s.handleLeave(msg.playerID)
			}
			if s.state == models.GameStateFinished {
				return
			}
		}
	}
}

func (s *Session) handleTimer(gen int) {
	if gen != s.timerGen {
		// Superseded by early-advance or finalization.
		return
	}
	s.timer = nil

	switch {
	case s.state == models.GameStateAwaitingStart:
		s.begin()
	case s.state == models.GameStateInProgress && s.phase == phaseQuestion:
		s.closeQuestion()
	case s.state == models.GameStateInProgress && s.phase == phaseReveal:
		s.nextOrFinish()
	}
}

// begin transitions AwaitingStart -> InProgress and delivers the first
// question.
func (s *Session) begin() {
	s.state = models.GameStateInProgress
	s.startedAt = s.cfg.Clock.Now()
	s.broadcast(events.EventTypeGameStart, events.GameStartPayload{
		SessionID:      s.id.String(),
		TotalQuestions: len(s.questions),
	})
	s.deliverQuestion()
}

func (s *Session) deliverQuestion() {
	q := s.questions[s.current]
	s.answered = make(map[string]bool)
	s.phase = phaseQuestion
	s.broadcast(events.EventTypeQuestion, events.QuestionPayload{
		SessionID:        s.id.String(),
		Position:         s.current + 1,
		Total:            len(s.questions),
		Text:             q.Text,
		Options:          q.Options,
		Category:         q.Category,
		TimeLimitSeconds: q.TimeLimitSeconds,
	})
	s.schedule(time.Duration(q.TimeLimitSeconds) * time.Second)
}

func (s *Session) handleAnswer(playerID string, option *int, elapsed float64) error {
	if s.state != models.GameStateInProgress || s.phase != phaseQuestion {
		return ErrSessionNotActive
	}
	conn := s.connOf(playerID)
	if conn == nil {
		return ErrNotInSession
	}
	if s.answered[playerID] {
		return ErrAlreadyAnswered
	}

	q := s.questions[s.current]
	correct := option != nil && *option == q.CorrectOption
	points := 0
	if correct {
		remaining := float64(q.TimeLimitSeconds) - elapsed
		if remaining < 0 {
			remaining = 0
		}
		points = basePoints + int(math.Floor(speedBonusPerSecond*remaining))
	}

	s.answered[playerID] = true
	s.answers[playerID] = append(s.answers[playerID], models.AnswerRecord{
		QuestionIndex:  s.current,
		ChosenOption:   option,
		Correct:        correct,
		ElapsedSeconds: elapsed,
		PointsAwarded:  points,
	})
	s.scores[playerID] += points

	sendTo(conn, events.EventTypeAnswerFeedback, events.AnswerFeedbackPayload{
		SessionID:  s.id.String(),
		IsCorrect:  correct,
		Points:     points,
		TotalScore: s.scores[playerID],
	})

	if len(s.answered) == len(s.players) {
		// Both answered: advance early, cancelling the question timer.
		s.closeQuestion()
	}
	return nil
}

// closeQuestion ends the answer window for the current question, fills
// in timeouts, and broadcasts the reveal.
func (s *Session) closeQuestion() {
	s.cancelTimer()

	q := s.questions[s.current]
	for _, p := range s.players {
		id := p.PlayerID()
		if s.answered[id] {
			continue
		}
		s.answered[id] = true
		s.answers[id] = append(s.answers[id], models.AnswerRecord{
			QuestionIndex:  s.current,
			ChosenOption:   nil,
			Correct:        false,
			ElapsedSeconds: float64(q.TimeLimitSeconds),
			PointsAwarded:  0,
		})
	}

	s.phase = phaseReveal
	s.broadcast(events.EventTypeRevealAnswer, events.RevealAnswerPayload{
		SessionID:     s.id.String(),
		CorrectAnswer: q.CorrectOption,
		Scores:        s.scoreSnapshot(),
	})
	s.schedule(s.cfg.RevealDelay)
}

// nextOrFinish runs when the reveal pause elapses.
func (s *Session) nextOrFinish() {
	if s.current+1 >= len(s.questions) {
		s.finishNormal()
		return
	}
	s.current++
	s.deliverQuestion()
}

func (s *Session) finishNormal() {
	scores := s.scoreSnapshot()
	var winner *string
	isDraw := false
	p1, p2 := s.players[0].PlayerID(), s.players[1].PlayerID()
	switch {
	case scores[p1] > scores[p2]:
		winner = &p1
	case scores[p2] > scores[p1]:
		winner = &p2
	default:
		isDraw = true
	}

	result := s.buildResult(winner, isDraw, false)
	s.broadcast(events.EventTypeGameEnd, events.GameEndPayload{
		SessionID: s.id.String(),
		Scores:    scores,
		Winner:    winner,
		IsDraw:    isDraw,
		GameStats: result.Stats,
	})

	log.Info().
		Str("session_id", s.id.String()).
		Interface("scores", scores).
		Bool("is_draw", isDraw).
		Msg("session finished")

	s.finish(result)
}

func (s *Session) handleLeave(playerID string) {
	conn := s.connOf(playerID)
	if conn == nil {
		return
	}

	if s.state != models.GameStateInProgress {
		// Abandonment before gameplay: discard without a winner.
		log.Info().
			Str("session_id", s.id.String()).
			Str("player_id", playerID).
			Msg("session discarded before start")
		s.finish(nil)
		return
	}

	remaining := s.opponentOf(playerID)
	winnerID := remaining.PlayerID()
	sendTo(remaining, events.EventTypePlayerLeft, events.PlayerLeftPayload{
		SessionID: s.id.String(),
		UserID:    playerID,
		Winner:    winnerID,
	})

	log.Info().
		Str("session_id", s.id.String()).
		Str("left", playerID).
		Str("winner", winnerID).
		Msg("session abandoned")

	s.finish(s.buildResult(&winnerID, false, true))
}

// finish is the single exit point: cancels any pending timer, marks the
// terminal state, closes done, and hands off to the finish callback.
func (s *Session) finish(result *models.GameResult) {
	s.cancelTimer()
	s.state = models.GameStateFinished
	close(s.done)
	if s.onFinish != nil {
		s.onFinish(s, result)
	}
}

func (s *Session) buildResult(winner *string, isDraw, abandoned bool) *models.GameResult {
	now := s.cfg.Clock.Now()
	duration := 0
	if !s.startedAt.IsZero() {
		duration = int(now.Sub(s.startedAt) / time.Second)
	}

	answerLog := make(map[string][]models.AnswerRecord, len(s.answers))
	for id, records := range s.answers {
		answerLog[id] = append([]models.AnswerRecord(nil), records...)
	}

	return &models.GameResult{
		SessionID: s.id,
		Players: [2]models.Player{
			{ID: s.players[0].PlayerID(), DisplayName: s.players[0].DisplayName(), Status: models.PlayerStatusOnline},
			{ID: s.players[1].PlayerID(), DisplayName: s.players[1].DisplayName(), Status: models.PlayerStatusOnline},
		},
		Scores:     s.scoreSnapshot(),
		WinnerID:   winner,
		IsDraw:     isDraw,
		Abandoned:  abandoned,
		StartedAt:  s.startedAt,
		FinishedAt: now,
		Stats: models.GameStats{
			DurationSeconds: duration,
			TotalQuestions:  len(s.questions),
			Answers:         answerLog,
		},
	}
}

// schedule arms the single pending timer, superseding any prior one via
// the generation counter.
func (s *Session) schedule(d time.Duration) {
	s.cancelTimer()
	s.timerGen++
	gen := s.timerGen
	t := s.cfg.Clock.NewTimer(d)
	s.timer = t
	go func() {
		select {
		case <-t.Chan():
			select {
			case s.inbox <- timerMsg{gen: gen}:
			case <-s.done:
			}
		case <-s.done:
		}
	}()
}

func (s *Session) cancelTimer() {
	if s.timer == nil {
		return
	}
	stopAndDrainTimer(s.timer)
	s.timer = nil
}

// stopAndDrainTimer safely stops a timer and drains its channel,
// following the pattern from the time.Timer.Stop documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

func (s *Session) broadcast(eventType events.EventType, payload any) {
	for _, p := range s.players {
		sendTo(p, eventType, payload)
	}
}

func (s *Session) scoreSnapshot() map[string]int {
	snap := make(map[string]int, len(s.scores))
	for id, score := range s.scores {
		snap[id] = score
	}
	return snap
}

func (s *Session) connOf(playerID string) PlayerConn {
	for _, p := range s.players {
		if p.PlayerID() == playerID {
			return p
		}
	}
	return nil
}

func (s *Session) opponentOf(playerID string) PlayerConn {
	if s.players[0].PlayerID() == playerID {
		return s.players[1]
	}
	return s.players[0]
}
