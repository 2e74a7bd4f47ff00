package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/playmatatu/carrom/internal/game"
)

// statusFor maps match errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrWrongPassword):
		return http.StatusForbidden
	case errors.Is(err, game.ErrIllegalStrikerPlacement),
		errors.Is(err, game.ErrBadSeat),
		errors.Is(err, game.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrGameNotActive),
		errors.Is(err, game.ErrShotInFlight),
		errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrSeatTaken),
		errors.Is(err, game.ErrRotationLocked):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Server errors are logged and hidden.
func respondError(c *gin.Context, logger *log.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "err", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// playerName trims a display name and falls back to a default.
func playerName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}
