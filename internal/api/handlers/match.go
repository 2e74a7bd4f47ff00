package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/playmatatu/carrom/internal/auth"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
	"github.com/playmatatu/carrom/internal/middleware"
)

// seatResponse is returned to a player who takes a seat.
type seatResponse struct {
	MatchID string           `json:"match_id"`
	Seat    int              `json:"seat"`
	Token   string           `json:"token"`
	State   game.SessionView `json:"state"`
}

// CreateMatch racks a new match and seats the caller as WHITE.
func CreateMatch(manager *game.Manager, cfg *config.Config, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string `json:"name"`
			Password string `json:"password"`
			VsBot    bool   `json:"vs_bot"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		s, err := manager.CreateMatch(game.CreateOptions{
			Name:     playerName(req.Name, "Player 1"),
			Password: req.Password,
			VsBot:    req.VsBot,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		token, err := auth.IssueSeatToken(cfg.JWTSecret, s.ID, 0, cfg.SeatTokenTTL())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, seatResponse{MatchID: s.ID, Seat: 0, Token: token, State: s.StateFor(0)})
	}
}

// JoinMatch seats the caller in the open seat of a waiting match.
func JoinMatch(manager *game.Manager, cfg *config.Config, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		s, seat, err := manager.JoinMatch(c.Request.Context(), c.Param("id"), playerName(req.Name, "Player 2"), req.Password)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		token, err := auth.IssueSeatToken(cfg.JWTSecret, s.ID, seat, cfg.SeatTokenTTL())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, seatResponse{MatchID: s.ID, Seat: seat, Token: token, State: s.StateFor(seat)})
	}
}

// GetMatch returns the spectator view of a match.
func GetMatch(manager *game.Manager, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := manager.Get(c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, s.StateFor(game.NoOwner))
	}
}

// ListMatches returns public matches waiting for an opponent.
func ListMatches(manager *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		open := []game.SessionView{}
		for _, s := range manager.List() {
			view := s.StateFor(game.NoOwner)
			if view.Status == game.StatusWaiting && !view.Private {
				open = append(open, view)
			}
		}
		c.JSON(http.StatusOK, gin.H{"matches": open})
	}
}

// Strike plays the caller's strike and any bot replies, then returns the
// turn results with the caller's view of the match.
func Strike(manager *game.Manager, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := middleware.SeatFrom(c)

		var p game.StrikeParams
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid strike"})
			return
		}

		results, err := manager.Strike(c.Request.Context(), claims.MatchID, claims.Seat, p, nil)
		if err != nil && len(results) == 0 {
			respondError(c, logger, err)
			return
		}
		if err != nil {
			// The caller's turn stands; only a bot reply failed.
			logger.Error("Bot reply failed", "match", claims.MatchID, "err", err)
		}

		s, err := manager.Get(claims.MatchID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results, "state": s.StateFor(claims.Seat)})
	}
}

// Rotate turns the coin formation before the break.
func Rotate(manager *game.Manager, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := middleware.SeatFrom(c)

		var req struct {
			Orientation float64 `json:"orientation"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := manager.Rotate(c.Request.Context(), claims.MatchID, claims.Seat, req.Orientation); err != nil {
			respondError(c, logger, err)
			return
		}

		s, err := manager.Get(claims.MatchID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, s.StateFor(claims.Seat))
	}
}

// Concede ends the match in the opponent's favour.
func Concede(manager *game.Manager, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := middleware.SeatFrom(c)
		if err := manager.Concede(c.Request.Context(), claims.MatchID, claims.Seat); err != nil {
			respondError(c, logger, err)
			return
		}
		s, err := manager.Get(claims.MatchID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, s.StateFor(claims.Seat))
	}
}
