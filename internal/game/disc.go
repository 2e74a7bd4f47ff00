package game

import "fmt"

// DiscKind discriminates the three kinds of disc on the board. All kinds share
// the same physics; rule logic switches on the kind.
type DiscKind string

const (
	KindCoin    DiscKind = "COIN"
	KindQueen   DiscKind = "QUEEN"
	KindStriker DiscKind = "STRIKER"
)

// NoOwner is the Owner of the queen and the striker.
const NoOwner = -1

// Disc is a single circular piece on the board. Radius and mass are fixed at
// construction. Container is shared, read-only geometry.
type Disc struct {
	ID       int      `json:"id"`
	Kind     DiscKind `json:"kind"`
	Owner    int      `json:"owner"`
	Radius   float64  `json:"radius"`
	Mass     float64  `json:"mass"`
	Position Vec2     `json:"position"`
	Velocity Vec2     `json:"velocity"`

	container *Rect
}

// NewDisc validates the physical parameters and places the disc at position.
func NewDisc(id int, kind DiscKind, owner int, radius, mass float64, position Vec2, container *Rect) (Disc, error) {
	if radius <= 0 || mass <= 0 {
		return Disc{}, fmt.Errorf("%w: disc %d has radius %.3f and mass %.3f",
			ErrInvalidConfiguration, id, radius, mass)
	}
	if container == nil {
		return Disc{}, fmt.Errorf("%w: disc %d has no container", ErrInvalidConfiguration, id)
	}
	if kind == KindCoin && owner != 0 && owner != 1 {
		return Disc{}, fmt.Errorf("%w: coin %d has owner %d", ErrInvalidConfiguration, id, owner)
	}
	if kind != KindCoin {
		owner = NoOwner
	}
	return Disc{
		ID:        id,
		Kind:      kind,
		Owner:     owner,
		Radius:    radius,
		Mass:      mass,
		Position:  position,
		container: container,
	}, nil
}

// Integrate advances the disc by dt: move, reflect off the container walls,
// then apply constant-magnitude deceleration.
func (d *Disc) Integrate(dt, deceleration float64) {
	d.Position = d.Position.Plus(d.Velocity.Times(dt))

	c := d.container
	if d.Position.X+d.Radius > c.Right {
		d.Position.X -= 2 * (d.Position.X + d.Radius - c.Right)
		d.Velocity.X = -d.Velocity.X
	} else if d.Position.X-d.Radius < c.Left {
		d.Position.X += 2 * (c.Left - d.Position.X + d.Radius)
		d.Velocity.X = -d.Velocity.X
	}
	if d.Position.Y+d.Radius > c.Bottom {
		d.Position.Y -= 2 * (d.Position.Y + d.Radius - c.Bottom)
		d.Velocity.Y = -d.Velocity.Y
	} else if d.Position.Y-d.Radius < c.Top {
		d.Position.Y += 2 * (c.Top - d.Position.Y + d.Radius)
		d.Velocity.Y = -d.Velocity.Y
	}

	speed := d.Velocity.Magnitude()
	if speed <= deceleration*dt {
		d.Velocity = Vec2{}
		return
	}
	d.Velocity = d.Velocity.Minus(d.Velocity.Times(deceleration * dt / speed))
}

// CollidesWith reports whether the two discs overlap and are approaching.
// Separating pairs are ignored so an already-resolved overlap is not
// resolved again on the next step.
func (d *Disc) CollidesWith(o *Disc) bool {
	if d.Position.DistanceTo(o.Position) > d.Radius+o.Radius {
		return false
	}
	return d.Velocity.Minus(o.Velocity).Dot(d.Position.Minus(o.Position)) < 0
}

// collisionVelocity is the velocity d leaves a collision with o with, for
// coefficient of restitution e.
func (d *Disc) collisionVelocity(o *Disc, e float64) Vec2 {
	dp := d.Position.Minus(o.Position)
	dist2 := dp.MagnitudeSquared()
	if dist2 == 0 {
		return d.Velocity
	}
	k := (1 + e) * o.Mass / (d.Mass + o.Mass) * d.Velocity.Minus(o.Velocity).Dot(dp) / dist2
	return d.Velocity.Minus(dp.Times(k))
}

// ResolveCollision applies an impulse along the line of centres to both
// discs. Both new velocities are computed from the pre-collision state.
func (d *Disc) ResolveCollision(o *Disc, e float64) {
	vd, vo := d.collisionVelocity(o, e), o.collisionVelocity(d, e)
	d.Velocity, o.Velocity = vd, vo
}

func (d *Disc) IsMoving() bool {
	return !d.Velocity.IsZero()
}

// Reset returns the disc to the board centre at rest.
func (d *Disc) Reset() {
	d.Position = d.container.Center()
	d.Velocity = Vec2{}
}

// KineticEnergy is ½·m·|v|².
func (d *Disc) KineticEnergy() float64 {
	return 0.5 * d.Mass * d.Velocity.MagnitudeSquared()
}

func (d *Disc) String() string {
	if d.Kind == KindCoin {
		return fmt.Sprintf("%s#%d(p%d)", d.Kind, d.ID, d.Owner)
	}
	return fmt.Sprintf("%s#%d", d.Kind, d.ID)
}
