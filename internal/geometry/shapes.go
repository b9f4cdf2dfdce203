package geometry

// Segment is a straight wall between two points.
type Segment struct {
	P1 Vect `json:"p1" msgpack:"p1"`
	P2 Vect `json:"p2" msgpack:"p2"`
}

func NewSegment(x1, y1, x2, y2 float64) Segment {
	return Segment{P1: Vect{X: x1, Y: y1}, P2: Vect{X: x2, Y: y2}}
}

func (s Segment) Length() float64 {
	return s.P2.Minus(s.P1).Length()
}

// Angle returns the direction from P1 to P2 in radians.
func (s Segment) Angle() float64 {
	return s.P2.Minus(s.P1).Angle()
}

// ClosestPoint returns the point of s nearest to p.
func (s Segment) ClosestPoint(p Vect) Vect {
	d := s.P2.Minus(s.P1)
	l2 := d.LengthSquared()
	if l2 == 0 {
		return s.P1
	}
	t := p.Minus(s.P1).Dot(d) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return s.P1.Plus(d.Times(t))
}

// Distance returns the distance from p to the nearest point of s.
func (s Segment) Distance(p Vect) float64 {
	return p.Minus(s.ClosestPoint(p)).Length()
}

// RotateAround turns both endpoints about center.
func (s Segment) RotateAround(center Vect, rad float64) Segment {
	return Segment{P1: s.P1.RotateAround(center, rad), P2: s.P2.RotateAround(center, rad)}
}

// Circle is a disc. A zero radius models a corner point.
type Circle struct {
	Center Vect    `json:"center" msgpack:"center"`
	Radius float64 `json:"radius" msgpack:"radius"`
}

func NewCircle(x, y, radius float64) Circle {
	return Circle{Center: Vect{X: x, Y: y}, Radius: radius}
}

// Point returns a zero-radius circle at p.
func Point(p Vect) Circle {
	return Circle{Center: p}
}
