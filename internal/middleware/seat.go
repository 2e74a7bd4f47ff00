package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/carrom/internal/auth"
)

const seatClaimsKey = "seat_claims"

// RequireSeat checks the bearer seat token against the :id route parameter
// and stores the claims for SeatFrom.
func RequireSeat(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "seat token required"})
			return
		}

		claims, err := auth.ParseSeatToken(secret, token)
		if err != nil {
			msg := "invalid seat token"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "seat token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		if claims.MatchID != c.Param("id") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "seat token is for another match"})
			return
		}

		c.Set(seatClaimsKey, claims)
		c.Next()
	}
}

// SeatFrom returns the claims stored by RequireSeat.
func SeatFrom(c *gin.Context) (auth.SeatClaims, bool) {
	v, ok := c.Get(seatClaimsKey)
	if !ok {
		return auth.SeatClaims{}, false
	}
	claims, ok := v.(auth.SeatClaims)
	return claims, ok
}
