package config

import (
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"github.com/playmatatu/carrom/internal/game"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"BOARD_WIDTH", "SIM_DT", "SIM_DECELERATION", "SIM_RESTITUTION", "MATCH_EXPIRY_MINUTES", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, game.DefaultSimParams(), cfg.SimParams())
	assert.Equal(t, game.DefaultStrikeLimits(), cfg.StrikeLimits())
	assert.Equal(t, 10*time.Minute, cfg.ManagerConfig().Expiry)
	assert.Equal(t, game.DefaultBoardWidth, cfg.ManagerConfig().BoardWidth)
	assert.Equal(t, log.InfoLevel, cfg.Logger().GetLevel())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SIM_DT", "0.05")
	t.Setenv("SIM_RESTITUTION", "1")
	t.Setenv("FRAME_EVERY", "5")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SIM_MAX_STEPS", "not-a-number")
	cfg := Load()

	assert.Equal(t, 0.05, cfg.SimParams().DT)
	assert.Equal(t, 1.0, cfg.SimParams().Restitution)
	assert.Equal(t, game.DefaultMaxSteps, cfg.SimParams().MaxSteps)
	assert.Equal(t, 5, cfg.ManagerConfig().FrameEvery)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, log.DebugLevel, cfg.Logger().GetLevel())
}
