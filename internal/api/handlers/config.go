package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/carrom/internal/config"
)

// GetConfig returns the table settings the frontend needs to render and aim
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"board_width":      cfg.BoardWidth,
			"max_strike_speed": cfg.MaxStrikeSpeed,
			"max_strike_angle": cfg.MaxStrikeAngle,
			"frame_every":      cfg.FrameEvery,
			"sim_dt":           cfg.SimDT,
		})
	}
}
