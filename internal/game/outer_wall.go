package game

import (
	"math"

	"github.com/pingball/backend/internal/geometry"
)

const (
	BoardSize = 20.0
	// InnerMin and InnerMax bound a ball centre inside the walls.
	InnerMin = BallRadius
	InnerMax = BoardSize - BallRadius
)

// OuterWall is the playfield boundary. Each side can be made invisible, in
// which case balls pass through it to a neighbouring board.
type OuterWall struct {
	sides     [4]geometry.Segment
	invisible [4]bool
}

func NewOuterWall() *OuterWall {
	w := &OuterWall{}
	w.sides[Top] = geometry.NewSegment(0, 0, BoardSize, 0)
	w.sides[Bottom] = geometry.NewSegment(0, BoardSize, BoardSize, BoardSize)
	w.sides[Left] = geometry.NewSegment(0, 0, 0, BoardSize)
	w.sides[Right] = geometry.NewSegment(BoardSize, 0, BoardSize, BoardSize)
	return w
}

func (w *OuterWall) Kind() Kind                     { return KindOuterWall }
func (w *OuterWall) Name() string                   { return "" }
func (w *OuterWall) Origin() geometry.Vect          { return geometry.Vect{} }
func (w *OuterWall) ReflectionCoefficient() float64 { return 1 }
func (w *OuterWall) DoAction()                      {}
func (w *OuterWall) UpdatePosition(float64)         {}

func (w *OuterWall) Visible(s Side) bool {
	return !w.invisible[s]
}

func (w *OuterWall) SetVisible(s Side, visible bool) {
	w.invisible[s] = !visible
}

// wallCorners pairs each corner with the two sides that meet there.
var wallCorners = [...]struct {
	at   geometry.Vect
	a, b Side
}{
	{geometry.NewVect(0, 0), Top, Left},
	{geometry.NewVect(BoardSize, 0), Top, Right},
	{geometry.NewVect(0, BoardSize), Bottom, Left},
	{geometry.NewVect(BoardSize, BoardSize), Bottom, Right},
}

func (w *OuterWall) first(b *Ball) (float64, geometry.Segment, *geometry.Vect) {
	best := math.Inf(1)
	var seg geometry.Segment
	var corner *geometry.Vect
	for _, s := range Sides {
		if w.invisible[s] {
			continue
		}
		if t := geometry.TimeUntilWallCollision(w.sides[s], b.Circle(), b.Velocity()); t < best {
			best, seg, corner = t, w.sides[s], nil
		}
	}
	for i := range wallCorners {
		c := &wallCorners[i]
		if w.invisible[c.a] || w.invisible[c.b] {
			continue
		}
		if t := geometry.TimeUntilCircleCollision(geometry.Point(c.at), b.Circle(), b.Velocity()); t < best {
			best, corner = t, &c.at
		}
	}
	return best, seg, corner
}

func (w *OuterWall) TimeUntilCollision(b *Ball) float64 {
	t, _, _ := w.first(b)
	return t
}

func (w *OuterWall) Collision(b *Ball) {
	t, seg, corner := w.first(b)
	switch {
	case math.IsInf(t, 1):
		return
	case corner != nil:
		b.SetVelocity(geometry.ReflectCircle(*corner, b.Position(), b.Velocity(), 1))
	default:
		b.SetVelocity(geometry.ReflectWall(seg, b.Velocity(), 1))
	}
}

func (w *OuterWall) State() ObstacleState {
	return ObstacleState{Kind: KindOuterWall, Width: int(BoardSize), Height: int(BoardSize)}
}
