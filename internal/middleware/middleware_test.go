package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/carrom/internal/auth"
	"github.com/playmatatu/carrom/internal/config"
)

const secret = "s3cret"

func seatRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/matches/:id/strike", RequireSeat(secret), func(c *gin.Context) {
		claims, ok := SeatFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"seat": claims.Seat})
	})
	return r
}

func TestRequireSeat(t *testing.T) {
	good, err := auth.IssueSeatToken(secret, "m1", 1, time.Hour)
	require.NoError(t, err)
	expired, err := auth.IssueSeatToken(secret, "m1", 1, -time.Hour)
	require.NoError(t, err)
	foreign, err := auth.IssueSeatToken(secret, "m2", 0, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + good, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", good, http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"other match", "Bearer " + foreign, http.StatusForbidden},
	}

	r := seatRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/matches/m1/strike", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSeatFromWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := SeatFrom(c)
	assert.False(t, ok)
}

func TestWebSocketCORSCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	prod := &config.Config{Environment: "production", FrontendURL: "https://play.example.com"}
	dev := &config.Config{Environment: "development"}

	tests := []struct {
		name    string
		cfg     *config.Config
		upgrade bool
		origin  string
		want    int
	}{
		{"plain request", prod, false, "https://evil.example.com", http.StatusOK},
		{"no origin", prod, true, "", http.StatusOK},
		{"frontend", prod, true, "https://play.example.com", http.StatusOK},
		{"foreign", prod, true, "https://evil.example.com", http.StatusForbidden},
		{"dev localhost", dev, true, "http://localhost:3000", http.StatusOK},
		{"dev foreign", dev, true, "https://evil.example.com", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(WebSocketCORSCheck(tt.cfg))
			r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.upgrade {
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Upgrade", "websocket")
			}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
