package geometry

import "math"

// Vect is an immutable 2D vector in board units. The y axis grows downward.
type Vect struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

func NewVect(x, y float64) Vect {
	return Vect{X: x, Y: y}
}

func (v Vect) Plus(o Vect) Vect {
	return Vect{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vect) Minus(o Vect) Vect {
	return Vect{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vect) Times(s float64) Vect {
	return Vect{X: v.X * s, Y: v.Y * s}
}

func (v Vect) Neg() Vect {
	return Vect{X: -v.X, Y: -v.Y}
}

func (v Vect) Dot(o Vect) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the z component of v × o.
func (v Vect) Cross(o Vect) float64 {
	return v.X*o.Y - v.Y*o.X
}

func (v Vect) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vect) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Unit returns v scaled to length 1, or the zero vector when v is zero.
func (v Vect) Unit() Vect {
	l := v.Length()
	if l == 0 {
		return Vect{}
	}
	return Vect{X: v.X / l, Y: v.Y / l}
}

// Angle returns atan2(y, x) in radians.
func (v Vect) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Rotate turns v by rad radians. Positive angles carry +x toward +y.
func (v Vect) Rotate(rad float64) Vect {
	sin, cos := math.Sincos(rad)
	return Vect{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}

// RotateAround turns v about center by rad radians.
func (v Vect) RotateAround(center Vect, rad float64) Vect {
	return v.Minus(center).Rotate(rad).Plus(center)
}

// FromAngle returns the vector of the given length pointing at rad.
func FromAngle(rad, length float64) Vect {
	sin, cos := math.Sincos(rad)
	return Vect{X: cos * length, Y: sin * length}
}

func (v Vect) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// ApproxEqual reports whether v and o differ by at most tol on each axis.
func (v Vect) ApproxEqual(o Vect, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol
}
