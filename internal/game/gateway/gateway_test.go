package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joshuahobby/mindarena/internal/game/engine"
	"github.com/Joshuahobby/mindarena/internal/game/events"
	"github.com/Joshuahobby/mindarena/internal/models"
	"github.com/Joshuahobby/mindarena/internal/quiz"
)

func newGatewayServer(t *testing.T) *httptest.Server {
	t.Helper()

	bank, err := quiz.NewBank([]models.Question{{
		ID:               "q1",
		Text:             "What is the capital of France?",
		Options:          []string{"London", "Paris", "Berlin", "Madrid"},
		CorrectOption:    1,
		Category:         "geography",
		Difficulty:       models.DifficultyEasy,
		TimeLimitSeconds: 10,
	}})
	require.NoError(t, err)

	eng := engine.NewEngine(engine.Config{
		QuestionsPerMatch: 1,
		StartDelay:        50 * time.Millisecond,
		RevealDelay:       50 * time.Millisecond,
	}, bank, nil, nil)

	manager := NewConnectionManager(DefaultConnectionConfig())
	NewDispatcher(manager, eng)
	handler := NewWebSocketHandler(manager)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

// dialClient connects and consumes the welcome event.
func dialClient(t *testing.T, server *httptest.Server) *client {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := &client{t: t, conn: conn}
	c.expect(events.EventTypeWelcome)
	return c
}

func (c *client) send(eventType events.EventType, payload any) {
	c.t.Helper()
	ev, err := events.New(eventType, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(ev))
}

func (c *client) sendRaw(data string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, []byte(data)))
}

func (c *client) recv() *events.Event {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err, "reading next event")
	var ev events.Event
	require.NoError(c.t, json.Unmarshal(data, &ev))
	return &ev
}

func (c *client) expect(eventType events.EventType) *events.Event {
	c.t.Helper()
	ev := c.recv()
	require.Equal(c.t, eventType, ev.Type)
	return ev
}

func (c *client) auth(playerID, displayName string) {
	c.t.Helper()
	c.send(events.EventTypeAuth, events.AuthPayload{PlayerID: playerID, DisplayName: displayName})
	c.expect(events.EventTypeAuthSuccess)
}

func decode[T any](t *testing.T, ev *events.Event) T {
	t.Helper()
	var payload T
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	return payload
}

func TestGatewayAuthFlow(t *testing.T) {
	server := newGatewayServer(t)
	c := dialClient(t, server)

	c.send(events.EventTypeAuth, events.AuthPayload{PlayerID: "p1", DisplayName: "Alice"})
	success := decode[events.AuthSuccessPayload](t, c.expect(events.EventTypeAuthSuccess))
	assert.Equal(t, "p1", success.PlayerID)
	assert.Equal(t, "Alice", success.DisplayName)

	resp, err := http.Get(server.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats struct {
		OnlinePlayers int `json:"online_players"`
		Players       map[string]struct {
			ConnectedAt time.Time `json:"connected_at"`
			LastPing    time.Time `json:"last_ping"`
		} `json:"players"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.OnlinePlayers)
	require.Contains(t, stats.Players, "p1")
	assert.False(t, stats.Players["p1"].ConnectedAt.IsZero())
	assert.False(t, stats.Players["p1"].LastPing.IsZero())
}

func TestGatewayRejectsBadTraffic(t *testing.T) {
	server := newGatewayServer(t)
	c := dialClient(t, server)

	c.sendRaw("this is not json")
	errPayload := decode[events.ErrorPayload](t, c.expect(events.EventTypeError))
	assert.Contains(t, errPayload.Message, "malformed message")

	c.sendRaw(`{"type":"teleport"}`)
	errPayload = decode[events.ErrorPayload](t, c.expect(events.EventTypeError))
	assert.Contains(t, errPayload.Message, "unknown event type")

	c.send(events.EventTypeAuth, events.AuthPayload{PlayerID: "p1"})
	errPayload = decode[events.ErrorPayload](t, c.expect(events.EventTypeError))
	assert.Contains(t, errPayload.Message, "displayName")

	// Still anonymous, so gameplay events are rejected.
	c.send(events.EventTypeFindMatch, events.FindMatchPayload{PlayerID: "p1"})
	errPayload = decode[events.ErrorPayload](t, c.expect(events.EventTypeError))
	assert.Contains(t, errPayload.Message, "authenticated")
}

func TestGatewayRejectsReauth(t *testing.T) {
	server := newGatewayServer(t)
	c := dialClient(t, server)
	c.auth("p1", "Alice")

	c.send(events.EventTypeAuth, events.AuthPayload{PlayerID: "p2", DisplayName: "Mallory"})
	errPayload := decode[events.ErrorPayload](t, c.expect(events.EventTypeError))
	assert.Contains(t, errPayload.Message, "already authenticated")

	// The original binding still holds on both sides.
	c.send(events.EventTypeFindMatch, events.FindMatchPayload{PlayerID: "p2"})
	errPayload = decode[events.ErrorPayload](t, c.expect(events.EventTypeError))
	assert.Contains(t, errPayload.Message, "authenticated")

	c.send(events.EventTypeFindMatch, events.FindMatchPayload{PlayerID: "p1"})
	c.expect(events.EventTypeWaitingForOpponent)
}

func TestGatewayRejectsSpoofedPlayerID(t *testing.T) {
	server := newGatewayServer(t)
	c := dialClient(t, server)
	c.auth("p1", "Alice")

	c.send(events.EventTypeFindMatch, events.FindMatchPayload{PlayerID: "someone-else"})
	errPayload := decode[events.ErrorPayload](t, c.expect(events.EventTypeError))
	assert.Contains(t, errPayload.Message, "authenticated")
}

func TestGatewayCancelMatchmaking(t *testing.T) {
	server := newGatewayServer(t)
	c1 := dialClient(t, server)
	c1.auth("p1", "Alice")

	c1.send(events.EventTypeFindMatch, events.FindMatchPayload{PlayerID: "p1"})
	c1.expect(events.EventTypeWaitingForOpponent)

	c1.send(events.EventTypeCancelMatchmaking, events.CancelMatchmakingPayload{PlayerID: "p1"})
	c1.expect(events.EventTypeMatchmakingCancelled)

	// Cancelling again is still acknowledged.
	c1.send(events.EventTypeCancelMatchmaking, events.CancelMatchmakingPayload{PlayerID: "p1"})
	c1.expect(events.EventTypeMatchmakingCancelled)

	// The queue is empty, so the next player waits instead of pairing.
	c2 := dialClient(t, server)
	c2.auth("p2", "Bob")
	c2.send(events.EventTypeFindMatch, events.FindMatchPayload{PlayerID: "p2"})
	c2.expect(events.EventTypeWaitingForOpponent)
}

func TestGatewayFullMatch(t *testing.T) {
	server := newGatewayServer(t)
	c1 := dialClient(t, server)
	c1.auth("p1", "Alice")
	c2 := dialClient(t, server)
	c2.auth("p2", "Bob")

	c1.send(events.EventTypeFindMatch, events.FindMatchPayload{PlayerID: "p1"})
	c1.expect(events.EventTypeWaitingForOpponent)
	c2.send(events.EventTypeFindMatch, events.FindMatchPayload{PlayerID: "p2"})

	created1 := decode[events.GameCreatedPayload](t, c1.expect(events.EventTypeGameCreated))
	created2 := decode[events.GameCreatedPayload](t, c2.expect(events.EventTypeGameCreated))
	require.Equal(t, created1.SessionID, created2.SessionID)
	assert.Equal(t, "p2", created1.Opponent.ID)
	assert.Equal(t, "p1", created2.Opponent.ID)
	sessionID := created1.SessionID

	c1.expect(events.EventTypeGameStart)
	c2.expect(events.EventTypeGameStart)

	q1 := decode[events.QuestionPayload](t, c1.expect(events.EventTypeQuestion))
	c2.expect(events.EventTypeQuestion)
	assert.Equal(t, 1, q1.Position)
	assert.Equal(t, 1, q1.Total)
	require.Len(t, q1.Options, models.OptionCount)

	correct := 1
	wrong := 0
	c1.send(events.EventTypeAnswer, events.AnswerPayload{
		SessionID:      sessionID,
		PlayerID:       "p1",
		OptionIndex:    &correct,
		ElapsedSeconds: 1,
	})
	feedback := decode[events.AnswerFeedbackPayload](t, c1.expect(events.EventTypeAnswerFeedback))
	assert.True(t, feedback.IsCorrect)
	assert.Equal(t, 190, feedback.Points)

	c2.send(events.EventTypeAnswer, events.AnswerPayload{
		SessionID:      sessionID,
		PlayerID:       "p2",
		OptionIndex:    &wrong,
		ElapsedSeconds: 2,
	})
	feedback = decode[events.AnswerFeedbackPayload](t, c2.expect(events.EventTypeAnswerFeedback))
	assert.False(t, feedback.IsCorrect)
	assert.Equal(t, 0, feedback.Points)

	reveal := decode[events.RevealAnswerPayload](t, c1.expect(events.EventTypeRevealAnswer))
	c2.expect(events.EventTypeRevealAnswer)
	assert.Equal(t, 1, reveal.CorrectAnswer)
	assert.Equal(t, map[string]int{"p1": 190, "p2": 0}, reveal.Scores)

	end := decode[events.GameEndPayload](t, c1.expect(events.EventTypeGameEnd))
	c2.expect(events.EventTypeGameEnd)
	require.NotNil(t, end.Winner)
	assert.Equal(t, "p1", *end.Winner)
	assert.False(t, end.IsDraw)
	assert.Equal(t, 1, end.GameStats.TotalQuestions)
	assert.Len(t, end.GameStats.Answers["p1"], 1)
	assert.Len(t, end.GameStats.Answers["p2"], 1)
}

func TestGatewayAnswerValidation(t *testing.T) {
	server := newGatewayServer(t)
	c := dialClient(t, server)
	c.auth("p1", "Alice")

	option := 1
	c.send(events.EventTypeAnswer, events.AnswerPayload{
		SessionID:      "not-a-uuid",
		PlayerID:       "p1",
		OptionIndex:    &option,
		ElapsedSeconds: 1,
	})
	errPayload := decode[events.ErrorPayload](t, c.expect(events.EventTypeError))
	assert.Contains(t, errPayload.Message, "sessionId")

	outOfRange := 4
	c.send(events.EventTypeAnswer, events.AnswerPayload{
		SessionID:      "0b81dcb6-95f4-4f21-8721-b5b35c8095c1",
		PlayerID:       "p1",
		OptionIndex:    &outOfRange,
		ElapsedSeconds: 1,
	})
	errPayload = decode[events.ErrorPayload](t, c.expect(events.EventTypeError))
	assert.Contains(t, errPayload.Message, "optionIndex")

	c.send(events.EventTypeAnswer, events.AnswerPayload{
		SessionID:      "0b81dcb6-95f4-4f21-8721-b5b35c8095c1",
		PlayerID:       "p1",
		OptionIndex:    &option,
		ElapsedSeconds: -1,
	})
	errPayload = decode[events.ErrorPayload](t, c.expect(events.EventTypeError))
	assert.Contains(t, errPayload.Message, "elapsedSeconds")

	// An unknown but well-formed session id maps to a not-found error.
	c.send(events.EventTypeAnswer, events.AnswerPayload{
		SessionID:      "0b81dcb6-95f4-4f21-8721-b5b35c8095c1",
		PlayerID:       "p1",
		OptionIndex:    &option,
		ElapsedSeconds: 1,
	})
	c.expect(events.EventTypeError)
}

func TestGatewayDisconnectMidGame(t *testing.T) {
	server := newGatewayServer(t)
	c1 := dialClient(t, server)
	c1.auth("p1", "Alice")
	c2 := dialClient(t, server)
	c2.auth("p2", "Bob")

	c1.send(events.EventTypeFindMatch, events.FindMatchPayload{PlayerID: "p1"})
	c1.expect(events.EventTypeWaitingForOpponent)
	c2.send(events.EventTypeFindMatch, events.FindMatchPayload{PlayerID: "p2"})

	c1.expect(events.EventTypeGameCreated)
	c2.expect(events.EventTypeGameCreated)
	c1.expect(events.EventTypeGameStart)
	c2.expect(events.EventTypeGameStart)
	c1.expect(events.EventTypeQuestion)
	c2.expect(events.EventTypeQuestion)

	require.NoError(t, c1.conn.Close())

	left := decode[events.PlayerLeftPayload](t, c2.expect(events.EventTypePlayerLeft))
	assert.Equal(t, "p1", left.UserID)
	assert.Equal(t, "p2", left.Winner)
}
