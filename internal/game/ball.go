package game

import "github.com/pingball/backend/internal/geometry"

const (
	BallRadius = 0.25
	MaxSpeed   = 200.0
	MinSpeed   = 0.01
)

// Ball is a moving disc. While captured by an absorber it ignores velocity
// and position updates.
type Ball struct {
	id       int
	pos      geometry.Vect
	vel      geometry.Vect
	captured bool
	removed  bool
}

// BallState is the wire and snapshot form of a ball.
type BallState struct {
	ID       int     `json:"id" msgpack:"id"`
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	VX       float64 `json:"vx" msgpack:"vx"`
	VY       float64 `json:"vy" msgpack:"vy"`
	Captured bool    `json:"captured,omitempty" msgpack:"captured,omitempty"`
}

func NewBall(id int, pos, vel geometry.Vect) *Ball {
	b := &Ball{id: id, pos: pos}
	b.SetVelocity(vel)
	return b
}

func (b *Ball) ID() int                 { return b.id }
func (b *Ball) Position() geometry.Vect { return b.pos }
func (b *Ball) Velocity() geometry.Vect { return b.vel }
func (b *Ball) Captured() bool          { return b.captured }

// Circle returns the ball footprint.
func (b *Ball) Circle() geometry.Circle {
	return geometry.Circle{Center: b.pos, Radius: BallRadius}
}

// SetVelocity stores v with its speed clamped: above MaxSpeed it is rescaled
// to MaxSpeed, below MinSpeed it becomes zero.
func (b *Ball) SetVelocity(v geometry.Vect) {
	if b.captured {
		return
	}
	b.vel = clampSpeed(v)
}

func (b *Ball) SetPosition(p geometry.Vect) {
	if b.captured {
		return
	}
	b.pos = p
}

// Move advances the ball along its velocity for dt seconds.
func (b *Ball) Move(dt float64) {
	if b.captured {
		return
	}
	b.pos = b.pos.Plus(b.vel.Times(dt))
}

// Capture parks the ball at rest at p.
func (b *Ball) Capture(p geometry.Vect) {
	b.vel = geometry.Vect{}
	b.pos = p
	b.captured = true
}

// Release frees a captured ball and launches it at v.
func (b *Ball) Release(v geometry.Vect) {
	b.captured = false
	b.SetVelocity(v)
}

func (b *Ball) State() BallState {
	return BallState{
		ID:       b.id,
		X:        b.pos.X,
		Y:        b.pos.Y,
		VX:       b.vel.X,
		VY:       b.vel.Y,
		Captured: b.captured,
	}
}

func clampSpeed(v geometry.Vect) geometry.Vect {
	speed := v.Length()
	switch {
	case speed > MaxSpeed:
		return v.Times(MaxSpeed / speed)
	case speed < MinSpeed:
		return geometry.Vect{}
	}
	return v
}
