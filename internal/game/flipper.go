package game

import (
	"math"

	"github.com/pingball/backend/internal/geometry"
)

const (
	FlipperLength      = 2.0
	FlipperCoefficient = 0.95
	// FlipperSpeed is 1080 degrees per second.
	FlipperSpeed = 6 * math.Pi
	flipperSweep = math.Pi / 2
)

// Flipper is a 2-unit arm inside a 2×2 box that swings a quarter turn about
// its pivot. Left flippers swing counter-clockwise on screen, right flippers
// clockwise.
type Flipper struct {
	kind        Kind
	name        string
	origin      geometry.Vect
	orientation int
	pivot       geometry.Vect
	rest        geometry.Vect // unit direction of the arm at rest
	direction   float64       // -1 left, +1 right
	swing       float64       // radians travelled from rest, in [0, π/2]
	omega       float64       // rate of change of swing
}

func NewLeftFlipper(name string, x, y float64, orientation int) *Flipper {
	return newFlipper(KindLeftFlipper, name, x, y, orientation)
}

func NewRightFlipper(name string, x, y float64, orientation int) *Flipper {
	return newFlipper(KindRightFlipper, name, x, y, orientation)
}

func newFlipper(kind Kind, name string, x, y float64, orientation int) *Flipper {
	turns := orientation / 90
	offset, direction := geometry.NewVect(-1, -1), -1.0
	if kind == KindRightFlipper {
		offset, direction = geometry.NewVect(1, -1), 1.0
	}
	origin := geometry.NewVect(x, y)
	return &Flipper{
		kind:        kind,
		name:        name,
		origin:      origin,
		orientation: orientation,
		pivot:       origin.Plus(geometry.NewVect(1, 1)).Plus(quarterTurns(offset, turns)),
		rest:        quarterTurns(geometry.NewVect(0, 1), turns),
		direction:   direction,
	}
}

// quarterTurns rotates v by 90° steps without rounding error.
func quarterTurns(v geometry.Vect, turns int) geometry.Vect {
	for i := 0; i < ((turns%4)+4)%4; i++ {
		v = geometry.NewVect(-v.Y, v.X)
	}
	return v
}

func (f *Flipper) Kind() Kind                     { return f.kind }
func (f *Flipper) Name() string                   { return f.name }
func (f *Flipper) Origin() geometry.Vect          { return f.origin }
func (f *Flipper) Orientation() int               { return f.orientation }
func (f *Flipper) Pivot() geometry.Vect           { return f.pivot }
func (f *Flipper) ReflectionCoefficient() float64 { return FlipperCoefficient }

// Swing returns how far the arm has turned from rest, in radians.
func (f *Flipper) Swing() float64 { return f.swing }

// AngularVelocity returns the arm's spin in rad/s, positive meaning +x turns
// toward +y.
func (f *Flipper) AngularVelocity() float64 {
	return f.direction * f.omega
}

// Segment returns the arm from pivot to tip.
func (f *Flipper) Segment() geometry.Segment {
	return f.segmentAt(f.swing)
}

func (f *Flipper) segmentAt(swing float64) geometry.Segment {
	tip := f.rest.Rotate(f.direction * swing).Times(FlipperLength)
	return geometry.Segment{P1: f.pivot, P2: f.pivot.Plus(tip)}
}

// DoAction starts a stationary arm toward its other end, or reverses a
// moving one.
func (f *Flipper) DoAction() {
	switch {
	case f.omega != 0:
		f.omega = -f.omega
	case f.swing <= 0:
		f.omega = FlipperSpeed
	default:
		f.omega = -FlipperSpeed
	}
}

// UpdatePosition turns the arm and stops it flush at either end of the box.
func (f *Flipper) UpdatePosition(dt float64) {
	if f.omega == 0 {
		return
	}
	f.swing += f.omega * dt
	switch {
	case f.swing >= flipperSweep:
		f.swing, f.omega = flipperSweep, 0
	case f.swing <= 0:
		f.swing, f.omega = 0, 0
	}
}

// sweepRemaining returns how long the arm keeps turning, and its final swing.
func (f *Flipper) sweepRemaining() (float64, float64) {
	if f.omega > 0 {
		return (flipperSweep - f.swing) / f.omega, flipperSweep
	}
	return f.swing / -f.omega, 0
}

func (f *Flipper) TimeUntilCollision(b *Ball) float64 {
	if f.omega == 0 {
		t, _ := staticArmContact(f.Segment(), b.Circle(), b.Velocity())
		return t
	}

	horizon, final := f.sweepRemaining()
	if t := geometry.TimeUntilRotatingWallCollision(f.Segment(), f.pivot, f.AngularVelocity(), b.Circle(), b.Velocity(), horizon); !math.IsInf(t, 1) {
		return t
	}

	// Once the sweep ends the arm is static at its final pose.
	later := geometry.Circle{Center: b.Position().Plus(b.Velocity().Times(horizon)), Radius: BallRadius}
	t, _ := staticArmContact(f.segmentAt(final), later, b.Velocity())
	return horizon + t
}

func (f *Flipper) Collision(b *Ball) {
	seg := f.Segment()
	if f.omega != 0 {
		b.SetVelocity(geometry.ReflectRotatingWall(seg, f.pivot, f.AngularVelocity(), b.Circle(), b.Velocity(), FlipperCoefficient))
		return
	}

	t, hit := staticArmContact(seg, b.Circle(), b.Velocity())
	switch {
	case math.IsInf(t, 1):
		return
	case hit == armWall:
		b.SetVelocity(geometry.ReflectWall(seg, b.Velocity(), FlipperCoefficient))
	case hit == armPivot:
		b.SetVelocity(geometry.ReflectCircle(seg.P1, b.Position(), b.Velocity(), FlipperCoefficient))
	default:
		b.SetVelocity(geometry.ReflectCircle(seg.P2, b.Position(), b.Velocity(), FlipperCoefficient))
	}
}

func (f *Flipper) State() ObstacleState {
	seg := f.Segment()
	return ObstacleState{
		Kind:        f.kind,
		Name:        f.name,
		X:           f.origin.X,
		Y:           f.origin.Y,
		Orientation: f.orientation,
		Width:       2,
		Height:      2,
		Segment:     &seg,
	}
}

type armPart int

const (
	armWall armPart = iota
	armPivot
	armTip
)

func staticArmContact(seg geometry.Segment, ball geometry.Circle, vel geometry.Vect) (float64, armPart) {
	best, hit := geometry.TimeUntilWallCollision(seg, ball, vel), armWall
	if t := geometry.TimeUntilCircleCollision(geometry.Point(seg.P1), ball, vel); t < best {
		best, hit = t, armPivot
	}
	if t := geometry.TimeUntilCircleCollision(geometry.Point(seg.P2), ball, vel); t < best {
		best, hit = t, armTip
	}
	return best, hit
}
