package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when a board or disc is built from
	// inconsistent parameters (non-square board, non-positive radius or mass).
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrIllegalStrikerPlacement is returned when a striker position or launch
	// lies outside the limits for the player to move.
	ErrIllegalStrikerPlacement = errors.New("illegal striker placement")

	// ErrSimulationDidNotSettle is returned by the driver when discs are still
	// moving after the configured step budget.
	ErrSimulationDidNotSettle = errors.New("simulation did not settle")

	ErrGameOver       = errors.New("game is over")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrGameNotActive  = errors.New("game is not in progress")
	ErrShotInFlight   = errors.New("a strike is already in progress")
	ErrBadSeat        = errors.New("invalid seat")
	ErrMatchNotFound  = errors.New("match not found")
	ErrSeatTaken      = errors.New("seat already taken")
	ErrWrongPassword  = errors.New("wrong match password")
	ErrRotationLocked = errors.New("coins can only be rotated before the first strike")
)

// invariant panics when an internal consistency check fails.
func invariant(ok bool, format string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf("carrom: invariant violated: "+format, args...))
	}
}
