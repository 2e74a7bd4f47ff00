package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatch(t *testing.T) *Match {
	t.Helper()
	b, err := NewStandardBoard(DefaultBoardWidth)
	require.NoError(t, err)
	m, err := NewMatch(b, nil)
	require.NoError(t, err)
	return m
}

func TestNewMatchFormation(t *testing.T) {
	m := newTestMatch(t)

	assert.Equal(t, CoinsPerPlayer, m.CoinsOnBoard(0))
	assert.Equal(t, CoinsPerPlayer, m.CoinsOnBoard(1))
	assert.Equal(t, 0, m.PlayerTurn())
	assert.False(t, m.GameOver())
	assert.Equal(t, m.Board().Center(), m.Disc(QueenID).Position)
	assert.Equal(t, m.Board().StrikerStart(0), m.Striker().Position)
	assert.False(t, m.IsMoving())

	ids := append(m.OnBoardCoins(0), m.OnBoardCoins(1)...)
	ids = append(ids, QueenID)
	r := m.Board().CoinRadius
	for i, a := range ids {
		da := m.Disc(a)
		for _, b := range ids[i+1:] {
			db := m.Disc(b)
			assert.GreaterOrEqual(t, da.Position.DistanceTo(db.Position), 2*r-1e-9, "%s overlaps %s", &da, &db)
		}
	}
	for _, id := range m.OnBoardCoins(1) {
		assert.Equal(t, 1, m.Disc(id).Owner)
	}
}

func TestNewMatchWithoutBoard(t *testing.T) {
	_, err := NewMatch(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestRotateCoins(t *testing.T) {
	m := newTestMatch(t)
	before := m.Disc(2).Position

	require.NoError(t, m.RotateCoins(DefaultOrientation+30))
	after := m.Disc(2).Position
	assert.NotEqual(t, before, after)
	center := m.Board().Center()
	assert.InDelta(t, before.DistanceTo(center), after.DistanceTo(center), 1e-9)

	require.NoError(t, m.RotateCoins(DefaultOrientation))
	assert.InDelta(t, before.X, m.Disc(2).Position.X, 1e-9)
	assert.InDelta(t, before.Y, m.Disc(2).Position.Y, 1e-9)

	require.NoError(t, m.Strike(StrikeParams{X: center.X, Speed: 10}, DefaultStrikeLimits()))
	assert.False(t, m.CanRotate())
	assert.ErrorIs(t, m.RotateCoins(0), ErrRotationLocked)
}

func TestPlaceStriker(t *testing.T) {
	m := newTestMatch(t)
	lo, hi := m.Board().StrikerXLimits()

	require.NoError(t, m.PlaceStriker(lo))
	assert.Equal(t, NewVec2(lo, m.Board().StrikerY(0)), m.Striker().Position)
	require.NoError(t, m.PlaceStriker(hi))

	for _, x := range []float64{lo - 1, hi + 1, math.NaN()} {
		assert.ErrorIs(t, m.PlaceStriker(x), ErrIllegalStrikerPlacement)
	}
	assert.Equal(t, lo, m.ClampStrikerX(lo-50))
	assert.Equal(t, hi, m.ClampStrikerX(hi+50))
}

func TestLaunch(t *testing.T) {
	limits := DefaultStrikeLimits()

	m := newTestMatch(t)
	require.NoError(t, m.Launch(50, 0, limits))
	assert.InDelta(t, 0, m.Striker().Velocity.X, 1e-9)
	assert.InDelta(t, -50, m.Striker().Velocity.Y, 1e-9)

	m.playerTurn = 1
	require.NoError(t, m.Launch(50, 0, limits))
	assert.InDelta(t, 50, m.Striker().Velocity.Y, 1e-9)

	// Positive angles aim to the striking player's left.
	require.NoError(t, m.Launch(50, 30, limits))
	assert.Greater(t, m.Striker().Velocity.X, 0.0)
	m.playerTurn = 0
	require.NoError(t, m.Launch(50, 30, limits))
	assert.Less(t, m.Striker().Velocity.X, 0.0)

	for _, c := range []struct{ speed, angle float64 }{
		{-1, 0}, {limits.MaxSpeed + 1, 0}, {10, limits.MaxAngle + 1}, {10, -limits.MaxAngle - 1}, {math.NaN(), 0}, {10, math.NaN()},
	} {
		assert.ErrorIs(t, m.Launch(c.speed, c.angle, limits), ErrIllegalStrikerPlacement, "%+v", c)
	}

	m.Concede(0)
	assert.ErrorIs(t, m.Launch(10, 0, limits), ErrGameOver)
	assert.ErrorIs(t, m.PlaceStriker(m.Board().Center().X), ErrGameOver)
}

func TestHeading(t *testing.T) {
	assert.Equal(t, -90.0, Heading(0, 0))
	assert.Equal(t, 90.0, Heading(1, 0))
	assert.Equal(t, -120.0, Heading(0, 30))
	assert.Equal(t, 60.0, Heading(1, 30))
}

func TestCloneIsIndependent(t *testing.T) {
	m := newTestMatch(t)
	before := m.Snapshot()

	c := m.Clone()
	pocket(c, 2, 3)
	require.NoError(t, c.Strike(StrikeParams{X: m.Board().Center().X, Speed: 80}, DefaultStrikeLimits()))
	_, err := PlayTurn(c, DefaultSimParams(), 0, nil)
	require.NoError(t, err)

	assert.Equal(t, before, m.Snapshot())
	assert.Equal(t, CoinsPerPlayer, m.CoinsOnBoard(0))
	assert.True(t, m.CanRotate())
}

func TestSimulationIsDeterministic(t *testing.T) {
	play := func() Snapshot {
		m := newTestMatch(t)
		for _, p := range []StrikeParams{
			{X: 330, Speed: 100, Angle: 5},
			{X: 360, Speed: 90, Angle: -12},
			{X: 300, Speed: 100, Angle: 20},
		} {
			if m.GameOver() {
				break
			}
			require.NoError(t, m.Strike(p, DefaultStrikeLimits()))
			_, err := PlayTurn(m, DefaultSimParams(), 0, nil)
			require.NoError(t, err)
		}
		return m.Snapshot()
	}
	assert.Equal(t, play(), play())
}

func TestMatchConcede(t *testing.T) {
	m := newTestMatch(t)
	m.Concede(1)

	winner, ok := m.Winner()
	assert.True(t, ok)
	assert.Equal(t, 0, winner)
	assert.Equal(t, ReasonConceded, m.Reason())

	m.Concede(0)
	winner, _ = m.Winner()
	assert.Equal(t, 0, winner)
}

func TestSnapshotListsActiveDiscs(t *testing.T) {
	m := newTestMatch(t)
	assert.Len(t, m.Snapshot().Discs, NumDiscs)

	pocket(m, QueenID, 2)
	s := m.Snapshot()
	assert.Len(t, s.Discs, NumDiscs-2)
	assert.True(t, s.QueenPocketed)
	assert.Equal(t, []int{2}, s.PocketedCoins[0])
	assert.Equal(t, [2]int{CoinsPerPlayer - 1, CoinsPerPlayer}, s.CoinsOnBoard)
}
