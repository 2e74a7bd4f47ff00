package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/playmatatu/carrom/internal/game"
)

type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Table
	TableConfig     string
	BoardWidth      float64
	SimDT           float64
	SimDeceleration float64
	SimRestitution  float64
	SimMaxSteps     int
	FrameEvery      int
	MaxStrikeSpeed  float64
	MaxStrikeAngle  float64

	// AI
	AICandidates int
	AIWorkers    int

	// Match lifecycle
	MatchExpiryMinutes int
	ExpiryCheckSeconds int

	// Security
	JWTSecret         string
	SeatTokenTTLHours int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Table
		TableConfig:     getEnv("TABLE_CONFIG", ""),
		BoardWidth:      getEnvFloat("BOARD_WIDTH", game.DefaultBoardWidth),
		SimDT:           getEnvFloat("SIM_DT", game.DefaultDT),
		SimDeceleration: getEnvFloat("SIM_DECELERATION", game.DefaultDeceleration),
		SimRestitution:  getEnvFloat("SIM_RESTITUTION", game.DefaultRestitution),
		SimMaxSteps:     getEnvInt("SIM_MAX_STEPS", game.DefaultMaxSteps),
		FrameEvery:      getEnvInt("FRAME_EVERY", game.DefaultFrameEvery),
		MaxStrikeSpeed:  getEnvFloat("MAX_STRIKE_SPEED", game.DefaultMaxSpeed),
		MaxStrikeAngle:  getEnvFloat("MAX_STRIKE_ANGLE", game.DefaultMaxAngle),

		// AI
		AICandidates: getEnvInt("AI_CANDIDATES", 10),
		AIWorkers:    getEnvInt("AI_WORKERS", 0),

		// Match lifecycle
		MatchExpiryMinutes: getEnvInt("MATCH_EXPIRY_MINUTES", 10),
		ExpiryCheckSeconds: getEnvInt("EXPIRY_CHECK_SECONDS", 30),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SeatTokenTTLHours: getEnvInt("SEAT_TOKEN_TTL_HOURS", 24),
	}
}

// SimParams returns the step engine parameters.
func (c *Config) SimParams() game.SimParams {
	return game.SimParams{
		DT:           c.SimDT,
		Deceleration: c.SimDeceleration,
		Restitution:  c.SimRestitution,
		MaxSteps:     c.SimMaxSteps,
	}
}

func (c *Config) StrikeLimits() game.StrikeLimits {
	return game.StrikeLimits{MaxSpeed: c.MaxStrikeSpeed, MaxAngle: c.MaxStrikeAngle}
}

// ManagerConfig returns the table settings for new matches.
func (c *Config) ManagerConfig() game.ManagerConfig {
	return game.ManagerConfig{
		BoardWidth:    c.BoardWidth,
		Sim:           c.SimParams(),
		Limits:        c.StrikeLimits(),
		FrameEvery:    c.FrameEvery,
		Expiry:        time.Duration(c.MatchExpiryMinutes) * time.Minute,
		CheckInterval: time.Duration(c.ExpiryCheckSeconds) * time.Second,
	}
}

func (c *Config) SeatTokenTTL() time.Duration {
	return time.Duration(c.SeatTokenTTLHours) * time.Hour
}

// Logger builds the process logger at the configured level. Unknown levels
// fall back to info.
func (c *Config) Logger() *log.Logger {
	level, err := log.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: c.Environment != "development",
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
