package game

import (
	"math"

	"github.com/pingball/backend/internal/geometry"
)

// outline is a polygon footprint: straight sides plus the corner points that
// join them.
type outline struct {
	sides   []geometry.Segment
	corners []geometry.Circle
}

// part identifies the side or corner a ball will reach first.
type part struct {
	corner bool
	index  int
}

func polygon(points ...geometry.Vect) outline {
	var o outline
	for i, p := range points {
		next := points[(i+1)%len(points)]
		o.sides = append(o.sides, geometry.Segment{P1: p, P2: next})
		o.corners = append(o.corners, geometry.Point(p))
	}
	return o
}

func rectangle(x, y, w, h float64) outline {
	return polygon(
		geometry.NewVect(x, y),
		geometry.NewVect(x+w, y),
		geometry.NewVect(x+w, y+h),
		geometry.NewVect(x, y+h),
	)
}

func (o outline) first(b *Ball) (float64, part) {
	best := math.Inf(1)
	var hit part
	for i, s := range o.sides {
		if t := geometry.TimeUntilWallCollision(s, b.Circle(), b.Velocity()); t < best {
			best, hit = t, part{index: i}
		}
	}
	for i, c := range o.corners {
		if t := geometry.TimeUntilCircleCollision(c, b.Circle(), b.Velocity()); t < best {
			best, hit = t, part{corner: true, index: i}
		}
	}
	return best, hit
}

func (o outline) timeUntil(b *Ball) float64 {
	t, _ := o.first(b)
	return t
}

// reflect bounces b off whichever side or corner it reaches first.
func (o outline) reflect(b *Ball, coeff float64) {
	t, hit := o.first(b)
	if math.IsInf(t, 1) {
		return
	}
	if hit.corner {
		b.SetVelocity(geometry.ReflectCircle(o.corners[hit.index].Center, b.Position(), b.Velocity(), coeff))
		return
	}
	b.SetVelocity(geometry.ReflectWall(o.sides[hit.index], b.Velocity(), coeff))
}
