package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/playmatatu/carrom/internal/auth"
	"github.com/playmatatu/carrom/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by middleware before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server upgrades match connections and plays the moves they send.
type Server struct {
	ctx     context.Context
	hub     *Hub
	manager *game.Manager
	secret  string
	relay   bool
	logger  *log.Logger
}

// NewServer wires a hub to the match manager. ctx bounds every strike the
// server plays.
func NewServer(ctx context.Context, hub *Hub, manager *game.Manager, secret string) *Server {
	return &Server{ctx: ctx, hub: hub, manager: manager, secret: secret, logger: hub.logger}
}

// EnableRelay lets spectators watch matches hosted by other servers. Their
// rooms are fed by events arriving over Redis.
func (s *Server) EnableRelay() {
	s.relay = true
}

// HandleWebSocket serves GET /matches/:id/ws. A seat token in the "token"
// query parameter or the Authorization header makes the connection a player;
// without one it is a spectator.
func (s *Server) HandleWebSocket(c *gin.Context) {
	matchID := c.Param("id")
	token := seatToken(c)
	session, err := s.manager.Get(matchID)
	if err != nil && (token != "" || !s.relay) {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}

	seat := game.NoOwner
	if token != "" {
		claims, err := auth.ParseSeatToken(s.secret, token)
		if err != nil || claims.MatchID != matchID {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid seat token"})
			return
		}
		seat = claims.Seat
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("Upgrade failed", "match", matchID, "err", err)
		return
	}

	client := newClient(conn, matchID, seat, s)
	if !s.hub.join(client) {
		conn.Close()
		return
	}
	if session != nil {
		if seat != game.NoOwner {
			session.SetConnected(seat, true)
		}
		s.hub.sendTo(client, Message{Type: MsgMatchState, MatchID: matchID, Data: session.StateFor(seat)})
	}

	go client.writePump()
	go client.readPump()
}

func seatToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func (s *Server) disconnected(c *Client) {
	s.hub.leave(c)
	if c.seat == game.NoOwner {
		return
	}
	if session, err := s.manager.Get(c.matchID); err == nil {
		session.SetConnected(c.seat, false)
	}
}

func (s *Server) handleMessage(c *Client, msg inbound) {
	session, err := s.manager.Get(c.matchID)
	if err != nil {
		c.sendError("Match not hosted by this server")
		return
	}

	switch msg.Type {
	case MsgGetState:
		s.hub.sendTo(c, Message{Type: MsgMatchState, MatchID: c.matchID, Data: session.StateFor(c.seat)})

	case MsgStrike:
		if c.seat == game.NoOwner {
			c.sendError("Spectators cannot strike")
			return
		}
		var p game.StrikeParams
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.sendError("Invalid strike data")
			return
		}
		if _, err := s.manager.Strike(s.ctx, c.matchID, c.seat, p, s.frames(c.matchID)); err != nil {
			c.sendError(errorMessage(err))
		}

	case MsgRotate:
		if c.seat == game.NoOwner {
			c.sendError("Spectators cannot rotate")
			return
		}
		var data RotateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid rotate data")
			return
		}
		if err := s.manager.Rotate(s.ctx, c.matchID, c.seat, data.Orientation); err != nil {
			c.sendError(errorMessage(err))
		}

	case MsgConcede:
		if c.seat == game.NoOwner {
			c.sendError("Spectators cannot concede")
			return
		}
		if err := s.manager.Concede(s.ctx, c.matchID, c.seat); err != nil {
			c.sendError(errorMessage(err))
		}

	default:
		c.sendError("Unknown message type")
	}
}

// frames streams disc positions to the local room while a strike runs.
func (s *Server) frames(matchID string) game.FrameFunc {
	return func(step int, m *game.Match) {
		s.hub.BroadcastToMatch(matchID, Message{
			Type:    MsgFrame,
			MatchID: matchID,
			Data:    FrameData{Step: step, Player: m.PlayerTurn(), Discs: m.Snapshot().Discs},
		})
	}
}

// errorMessage hides internal failures from clients.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrGameNotActive),
		errors.Is(err, game.ErrShotInFlight),
		errors.Is(err, game.ErrIllegalStrikerPlacement),
		errors.Is(err, game.ErrRotationLocked),
		errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrBadSeat):
		return err.Error()
	}
	return "Strike failed"
}
