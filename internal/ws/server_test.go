package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/carrom/internal/auth"
	"github.com/playmatatu/carrom/internal/game"
)

const testSecret = "test-secret"

type received struct {
	Type    string          `json:"type"`
	MatchID string          `json:"match_id"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) (*httptest.Server, *game.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)

	cfg := game.DefaultManagerConfig()
	cfg.FrameEvery = 500
	mgr, err := game.NewManager(cfg, game.Deps{Events: hub})
	require.NoError(t, err)

	srv := NewServer(ctx, hub, mgr, testSecret)
	r := gin.New()
	r.GET("/matches/:id/ws", srv.HandleWebSocket)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, mgr
}

func startedMatch(t *testing.T, mgr *game.Manager) string {
	t.Helper()
	s, err := mgr.CreateMatch(game.CreateOptions{Name: "alice"})
	require.NoError(t, err)
	_, _, err = mgr.JoinMatch(context.Background(), s.ID, "bob", "")
	require.NoError(t, err)
	return s.ID
}

func dial(t *testing.T, ts *httptest.Server, matchID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/matches/" + matchID + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func tokenFor(t *testing.T, matchID string, seat int) string {
	t.Helper()
	tok, err := auth.IssueSeatToken(testSecret, matchID, seat, time.Hour)
	require.NoError(t, err)
	return tok
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) (received, []received) {
	t.Helper()
	var seen []received
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var msg received
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return msg, seen
		}
		seen = append(seen, msg)
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(inbound{Type: msgType, Data: raw}))
}

func TestConnectSendsState(t *testing.T) {
	ts, mgr := newTestServer(t)
	id := startedMatch(t, mgr)
	conn := dial(t, ts, id, tokenFor(t, id, 0))

	msg, _ := readUntil(t, conn, MsgMatchState)
	var view game.SessionView
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	assert.Equal(t, id, view.ID)
	assert.Equal(t, 0, view.Seat)
	assert.True(t, view.MyTurn)
	assert.Equal(t, game.StatusInProgress, view.Status)

	s, err := mgr.Get(id)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return s.StateFor(game.NoOwner).Seats[0].Connected
	}, time.Second, 10*time.Millisecond)
}

func TestStrikeStreamsFramesAndResult(t *testing.T) {
	ts, mgr := newTestServer(t)
	id := startedMatch(t, mgr)
	conn := dial(t, ts, id, tokenFor(t, id, 0))
	readUntil(t, conn, MsgMatchState)

	send(t, conn, MsgStrike, game.StrikeParams{X: 350, Speed: game.DefaultMaxSpeed, Angle: 0})

	msg, before := readUntil(t, conn, MsgTurnResult)
	frames := 0
	for _, m := range before {
		require.NotEqual(t, MsgError, m.Type, m.Error)
		if m.Type == MsgFrame {
			frames++
		}
	}
	assert.Positive(t, frames)

	var res game.TurnResult
	require.NoError(t, json.Unmarshal(msg.Data, &res))
	assert.Equal(t, 0, res.Player)

	// The turn result is followed by the updated state.
	state, _ := readUntil(t, conn, MsgMatchState)
	var view game.SessionView
	require.NoError(t, json.Unmarshal(state.Data, &view))
	assert.Equal(t, 1, view.Match.Turns)
}

func TestStrikeOutOfTurn(t *testing.T) {
	ts, mgr := newTestServer(t)
	id := startedMatch(t, mgr)
	conn := dial(t, ts, id, tokenFor(t, id, 1))
	readUntil(t, conn, MsgMatchState)

	send(t, conn, MsgStrike, game.StrikeParams{X: 350, Speed: 10})
	msg, _ := readUntil(t, conn, MsgError)
	assert.Equal(t, game.ErrNotYourTurn.Error(), msg.Error)
}

func TestSpectatorCannotStrike(t *testing.T) {
	ts, mgr := newTestServer(t)
	id := startedMatch(t, mgr)
	conn := dial(t, ts, id, "")

	msg, _ := readUntil(t, conn, MsgMatchState)
	var view game.SessionView
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	assert.Equal(t, game.NoOwner, view.Seat)
	assert.False(t, view.MyTurn)

	send(t, conn, MsgStrike, game.StrikeParams{X: 350, Speed: 10})
	errMsg, _ := readUntil(t, conn, MsgError)
	assert.Equal(t, "Spectators cannot strike", errMsg.Error)
}

func TestRotateAndUnknownMessage(t *testing.T) {
	ts, mgr := newTestServer(t)
	id := startedMatch(t, mgr)
	conn := dial(t, ts, id, tokenFor(t, id, 0))
	readUntil(t, conn, MsgMatchState)

	send(t, conn, MsgRotate, RotateData{Orientation: 30})
	readUntil(t, conn, MsgMatchState)

	send(t, conn, "dance", nil)
	msg, _ := readUntil(t, conn, MsgError)
	assert.Equal(t, "Unknown message type", msg.Error)
}

func TestRejectsForeignToken(t *testing.T) {
	ts, mgr := newTestServer(t)
	id := startedMatch(t, mgr)
	other := startedMatch(t, mgr)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/matches/" + id + "/ws?token=" + tokenFor(t, other, 0)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUnknownMatch(t *testing.T) {
	ts, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/matches/nope/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHubDeliver(t *testing.T) {
	hub := NewHub(nil)
	a := newClient(nil, "m1", 0, nil)
	b := newClient(nil, "m2", 1, nil)
	hub.add(a)
	hub.add(b)
	assert.Equal(t, 1, hub.RoomSize("m1"))

	require.NoError(t, hub.Publish(context.Background(), game.MatchEvent{MatchID: "m1", Type: game.EventMatchCancelled}))

	select {
	case data := <-a.send:
		var msg received
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, game.EventMatchCancelled, msg.Type)
		assert.Equal(t, "m1", msg.MatchID)
	default:
		t.Fatal("m1 client got nothing")
	}
	assert.Empty(t, b.send)

	hub.remove(a)
	assert.Equal(t, 0, hub.RoomSize("m1"))
	_, open := <-a.send
	assert.False(t, open)

	// Sending to a removed client is a no-op.
	hub.sendTo(a, Message{Type: MsgError})
}
