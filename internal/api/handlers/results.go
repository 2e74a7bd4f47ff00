package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/playmatatu/carrom/internal/database"
)

// ResultStore reads finished matches from the ledger.
type ResultStore interface {
	RecentResults(ctx context.Context, limit int) ([]database.MatchResult, error)
}

type resultView struct {
	database.MatchResult
	Winner int `json:"winner"`
}

// RecentResults lists finished matches, newest first.
func RecentResults(store ResultStore, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "results are not recorded on this server"})
			return
		}

		limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}

		results, err := store.RecentResults(c.Request.Context(), limit)
		if err != nil {
			logger.Error("Failed to load results", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load results"})
			return
		}

		views := make([]resultView, 0, len(results))
		for _, r := range results {
			views = append(views, resultView{MatchResult: r, Winner: r.WinnerSeat()})
		}
		c.JSON(http.StatusOK, gin.H{"results": views})
	}
}
