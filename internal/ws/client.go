package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playmatatu/carrom/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Message types exchanged with clients.
const (
	MsgStrike     = "strike"
	MsgRotate     = "rotate"
	MsgGetState   = "get_state"
	MsgConcede    = "concede"
	MsgMatchState = game.EventMatchState
	MsgFrame      = game.EventFrame
	MsgTurnResult = game.EventTurnResult
	MsgError      = "error"
)

// Message is the envelope of every outbound message.
type Message struct {
	Type    string      `json:"type"`
	MatchID string      `json:"match_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// inbound is the envelope of client messages.
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type RotateData struct {
	Orientation float64 `json:"orientation"`
}

// FrameData is a snapshot of the discs in play while a strike runs.
type FrameData struct {
	Step   int         `json:"step"`
	Player int         `json:"player"`
	Discs  []game.Disc `json:"discs"`
}

// Client is one connection watching a match. Seat is game.NoOwner for
// spectators.
type Client struct {
	conn       *websocket.Conn
	matchID    string
	seat       int
	send       chan []byte
	registered chan struct{}
	server     *Server
}

func newClient(conn *websocket.Conn, matchID string, seat int, s *Server) *Client {
	return &Client{
		conn:       conn,
		matchID:    matchID,
		seat:       seat,
		send:       make(chan []byte, sendBuffer),
		registered: make(chan struct{}),
		server:     s,
	}
}

// writePump writes queued messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.server.logger.Debug("Write failed", "match", c.matchID, "seat", c.seat, "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.server.logger.Debug("Ping failed", "match", c.matchID, "seat", c.seat, "err", err)
				return
			}
		}
	}
}

// readPump dispatches client messages until the connection closes.
func (c *Client) readPump() {
	defer func() {
		c.server.disconnected(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Warn("Unexpected close", "match", c.matchID, "seat", c.seat, "err", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}
		c.server.handleMessage(c, msg)
	}
}

func (c *Client) sendError(message string) {
	c.server.hub.sendTo(c, Message{Type: MsgError, MatchID: c.matchID, Error: message})
}
