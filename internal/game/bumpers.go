package game

import (
	"github.com/pingball/backend/internal/geometry"
)

const BumperCoefficient = 1.0

// SquareBumper is a fixed 1×1 block.
type SquareBumper struct {
	name   string
	origin geometry.Vect
	shape  outline
}

func NewSquareBumper(name string, x, y float64) *SquareBumper {
	return &SquareBumper{name: name, origin: geometry.NewVect(x, y), shape: rectangle(x, y, 1, 1)}
}

func (s *SquareBumper) Kind() Kind                         { return KindSquareBumper }
func (s *SquareBumper) Name() string                       { return s.name }
func (s *SquareBumper) Origin() geometry.Vect              { return s.origin }
func (s *SquareBumper) ReflectionCoefficient() float64     { return BumperCoefficient }
func (s *SquareBumper) TimeUntilCollision(b *Ball) float64 { return s.shape.timeUntil(b) }
func (s *SquareBumper) Collision(b *Ball)                  { s.shape.reflect(b, BumperCoefficient) }
func (s *SquareBumper) DoAction()                          {}
func (s *SquareBumper) UpdatePosition(float64)             {}

func (s *SquareBumper) State() ObstacleState {
	return ObstacleState{Kind: KindSquareBumper, Name: s.name, X: s.origin.X, Y: s.origin.Y, Width: 1, Height: 1}
}

// CircleBumper is a fixed disc of diameter 1 inside its unit cell.
type CircleBumper struct {
	name   string
	origin geometry.Vect
	circle geometry.Circle
}

func NewCircleBumper(name string, x, y float64) *CircleBumper {
	return &CircleBumper{
		name:   name,
		origin: geometry.NewVect(x, y),
		circle: geometry.NewCircle(x+0.5, y+0.5, 0.5),
	}
}

func (c *CircleBumper) Kind() Kind                     { return KindCircleBumper }
func (c *CircleBumper) Name() string                   { return c.name }
func (c *CircleBumper) Origin() geometry.Vect          { return c.origin }
func (c *CircleBumper) ReflectionCoefficient() float64 { return BumperCoefficient }
func (c *CircleBumper) DoAction()                      {}
func (c *CircleBumper) UpdatePosition(float64)         {}

func (c *CircleBumper) TimeUntilCollision(b *Ball) float64 {
	return geometry.TimeUntilCircleCollision(c.circle, b.Circle(), b.Velocity())
}

func (c *CircleBumper) Collision(b *Ball) {
	b.SetVelocity(geometry.ReflectCircle(c.circle.Center, b.Position(), b.Velocity(), BumperCoefficient))
}

func (c *CircleBumper) State() ObstacleState {
	return ObstacleState{Kind: KindCircleBumper, Name: c.name, X: c.origin.X, Y: c.origin.Y, Width: 1, Height: 1}
}

// TriangleBumper is a right triangle filling half of its unit cell. The
// orientation places the right angle at the NW (0), NE (90), SE (180) or
// SW (270) corner, and the diagonal joins the other two.
type TriangleBumper struct {
	name        string
	origin      geometry.Vect
	orientation int
	shape       outline
}

func NewTriangleBumper(name string, x, y float64, orientation int) *TriangleBumper {
	nw := geometry.NewVect(x, y)
	ne := geometry.NewVect(x+1, y)
	se := geometry.NewVect(x+1, y+1)
	sw := geometry.NewVect(x, y+1)

	var corners [3]geometry.Vect
	switch orientation {
	case 90:
		corners = [3]geometry.Vect{ne, se, nw}
	case 180:
		corners = [3]geometry.Vect{se, sw, ne}
	case 270:
		corners = [3]geometry.Vect{sw, nw, se}
	default:
		corners = [3]geometry.Vect{nw, ne, sw}
	}
	return &TriangleBumper{
		name:        name,
		origin:      nw,
		orientation: orientation,
		shape:       polygon(corners[:]...),
	}
}

func (t *TriangleBumper) Kind() Kind                         { return KindTriangleBumper }
func (t *TriangleBumper) Name() string                       { return t.name }
func (t *TriangleBumper) Origin() geometry.Vect              { return t.origin }
func (t *TriangleBumper) Orientation() int                   { return t.orientation }
func (t *TriangleBumper) ReflectionCoefficient() float64     { return BumperCoefficient }
func (t *TriangleBumper) TimeUntilCollision(b *Ball) float64 { return t.shape.timeUntil(b) }
func (t *TriangleBumper) Collision(b *Ball)                  { t.shape.reflect(b, BumperCoefficient) }
func (t *TriangleBumper) DoAction()                          {}
func (t *TriangleBumper) UpdatePosition(float64)             {}

func (t *TriangleBumper) State() ObstacleState {
	return ObstacleState{
		Kind:        KindTriangleBumper,
		Name:        t.name,
		X:           t.origin.X,
		Y:           t.origin.Y,
		Orientation: t.orientation,
		Width:       1,
		Height:      1,
	}
}
