package game

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle in board units. y grows downwards, so Top
// is the smaller y.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

func (r Rect) Center() Vec2 {
	return Vec2{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Inset shrinks the rectangle by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{Left: r.Left + d, Top: r.Top + d, Right: r.Right - d, Bottom: r.Bottom - d}
}

// Board holds the precomputed geometry a match plays on. It is never mutated
// after construction and is shared by every clone of a match.
type Board struct {
	Outer         Rect    `json:"outer"`
	Container     Rect    `json:"container"`
	PocketCenters [4]Vec2 `json:"pocket_centers"`
	PocketRadius  float64 `json:"pocket_radius"`
	CoinRadius    float64 `json:"coin_radius"`
	StrikerRadius float64 `json:"striker_radius"`
	Scale         float64 `json:"scale"`

	baseOffset   float64
	baseDistance float64
	baseRadius   float64
}

// NewBoard derives the playing geometry for a square board occupying outer.
func NewBoard(outer Rect) (*Board, error) {
	if outer.Width() <= 0 || outer.Height() <= 0 {
		return nil, fmt.Errorf("%w: board must have positive size, got %.2fx%.2f",
			ErrInvalidConfiguration, outer.Width(), outer.Height())
	}
	if outer.Width() != outer.Height() {
		return nil, fmt.Errorf("%w: board must be square, got %.2fx%.2f",
			ErrInvalidConfiguration, outer.Width(), outer.Height())
	}

	frame := math.Floor(outer.Width() * FrameLength / TotalLength)
	m := outer.Width() / TotalLength
	container := outer.Inset(frame)
	pr := m * PocketRadiusCM

	b := &Board{
		Outer:         outer,
		Container:     container,
		PocketRadius:  pr,
		CoinRadius:    m * CoinRadiusCM,
		StrikerRadius: m * StrikerRadiusCM,
		Scale:         m,
		PocketCenters: [4]Vec2{
			{X: container.Left + pr, Y: container.Top + pr},
			{X: container.Right - pr, Y: container.Top + pr},
			{X: container.Right - pr, Y: container.Bottom - pr},
			{X: container.Left + pr, Y: container.Bottom - pr},
		},
		baseOffset:   m * BaseOffset,
		baseDistance: m * BaseDistance,
		baseRadius:   m * BaseRadius,
	}
	return b, nil
}

// NewStandardBoard builds a board whose outer frame is a width x width square
// anchored at the origin.
func NewStandardBoard(width float64) (*Board, error) {
	return NewBoard(Rect{Left: 0, Top: 0, Right: width, Bottom: width})
}

// Center is where returned coins and the queen are placed.
func (b *Board) Center() Vec2 {
	return b.Container.Center()
}

// StrikerXLimits returns the legal x-range of the striker on either baseline.
func (b *Board) StrikerXLimits() (float64, float64) {
	return b.Container.Left + b.baseOffset + b.baseRadius,
		b.Container.Right - b.baseOffset - b.baseRadius
}

// StrikerY returns the fixed y-position of the given player's baseline.
// Player 0 strikes from the bottom, player 1 from the top.
func (b *Board) StrikerY(player int) float64 {
	if player == 0 {
		return b.Container.Bottom - b.baseDistance - b.baseRadius
	}
	return b.Container.Top + b.baseDistance + b.baseRadius
}

// StrikerStart is the striker position at the beginning of a player's turn.
func (b *Board) StrikerStart(player int) Vec2 {
	return Vec2{X: b.Container.Center().X, Y: b.StrikerY(player)}
}

// Pocketed reports whether d lies entirely within one of the pockets.
func (b *Board) Pocketed(d *Disc) bool {
	for _, c := range b.PocketCenters {
		if d.Position.DistanceTo(c) < b.PocketRadius-d.Radius {
			return true
		}
	}
	return false
}
