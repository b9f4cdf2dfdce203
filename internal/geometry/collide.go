package geometry

import "math"

// Inf is returned by the time solvers when two bodies never touch.
var Inf = math.Inf(1)

const (
	bisectIterations = 48
	maxSamples       = 4000
	derivativeProbe  = 1e-6
)

// TimeUntilWallCollision returns the time until a ball moving at vel first
// touches the interior of seg. Endpoints are not considered; model them with
// TimeUntilCircleCollision on zero-radius circles.
func TimeUntilWallCollision(seg Segment, ball Circle, vel Vect) float64 {
	d := seg.P2.Minus(seg.P1)
	length := d.Length()
	if length == 0 {
		return Inf
	}
	n := Vect{X: -d.Y / length, Y: d.X / length}
	dist := ball.Center.Minus(seg.P1).Dot(n)
	if dist == 0 {
		return Inf
	}
	if dist < 0 {
		n = n.Neg()
		dist = -dist
	}

	approach := -vel.Dot(n)
	if approach <= 0 {
		return Inf
	}

	t := (dist - ball.Radius) / approach
	if t < 0 {
		t = 0
	}

	hit := ball.Center.Plus(vel.Times(t))
	along := hit.Minus(seg.P1).Dot(d) / (length * length)
	if along < 0 || along > 1 {
		return Inf
	}
	return t
}

// TimeUntilCircleCollision returns the time until a ball moving at vel first
// touches a static circle (or point).
func TimeUntilCircleCollision(c Circle, ball Circle, vel Vect) float64 {
	return timeUntilContact(ball.Center.Minus(c.Center), vel, c.Radius+ball.Radius)
}

// TimeUntilBallBallCollision returns the time until two moving circles touch.
func TimeUntilBallBallCollision(c1 Circle, v1 Vect, c2 Circle, v2 Vect) float64 {
	return timeUntilContact(c1.Center.Minus(c2.Center), v1.Minus(v2), c1.Radius+c2.Radius)
}

// timeUntilContact solves |d + v·t| = r for the first t >= 0 while the gap is
// closing. Overlapping bodies that are still approaching report 0.
func timeUntilContact(d, v Vect, r float64) float64 {
	a := v.Dot(v)
	b := 2 * d.Dot(v)
	if a == 0 || b >= 0 {
		return Inf
	}
	c := d.Dot(d) - r*r
	if c <= 0 {
		return 0
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return Inf
	}
	t := (-b - math.Sqrt(disc)) / (2 * a)
	if t < 0 {
		return 0
	}
	return t
}

// TimeUntilRotatingWallCollision returns the time until a ball moving at vel
// touches seg while seg spins about center at omega rad/s. Only [0, horizon]
// is searched. The segment endpoints are part of the footprint.
func TimeUntilRotatingWallCollision(seg Segment, center Vect, omega float64, ball Circle, vel Vect, horizon float64) float64 {
	reach := math.Max(seg.P1.Minus(center).Length(), seg.P2.Minus(center).Length())
	gap := func(t float64) float64 {
		s := seg.RotateAround(center, omega*t)
		return s.Distance(ball.Center.Plus(vel.Times(t))) - ball.Radius
	}
	return firstContact(gap, horizon, sampleStep(ball.Radius, vel, omega, reach, horizon))
}

// TimeUntilRotatingCircleCollision returns the time until a ball moving at vel
// touches c while c orbits center at omega rad/s, searching [0, horizon].
func TimeUntilRotatingCircleCollision(c Circle, center Vect, omega float64, ball Circle, vel Vect, horizon float64) float64 {
	reach := c.Center.Minus(center).Length()
	gap := func(t float64) float64 {
		at := c.Center.RotateAround(center, omega*t)
		return ball.Center.Plus(vel.Times(t)).Minus(at).Length() - c.Radius - ball.Radius
	}
	return firstContact(gap, horizon, sampleStep(ball.Radius, vel, omega, reach, horizon))
}

// sampleStep keeps the relative motion per sample under a tenth of the
// ball radius.
func sampleStep(radius float64, vel Vect, omega, reach, horizon float64) float64 {
	speed := vel.Length() + math.Abs(omega)*reach
	step := horizon
	if speed > 0 {
		step = 0.1 * radius / speed
	}
	if step > horizon/8 {
		step = horizon / 8
	}
	if floor := horizon / maxSamples; step < floor {
		step = floor
	}
	return step
}

// firstContact finds the first root of gap on [0, horizon] by sampling and
// bisection. gap is positive while the bodies are apart.
func firstContact(gap func(float64) float64, horizon, step float64) float64 {
	if horizon <= 0 || math.IsNaN(horizon) {
		return Inf
	}
	g0 := gap(0)
	if g0 <= 0 {
		if gap(derivativeProbe) < g0 {
			return 0
		}
		return Inf
	}

	prev := 0.0
	for t := step; ; t += step {
		if t > horizon {
			t = horizon
		}
		if gap(t) <= 0 {
			lo, hi := prev, t
			for i := 0; i < bisectIterations; i++ {
				mid := (lo + hi) / 2
				if gap(mid) <= 0 {
					hi = mid
				} else {
					lo = mid
				}
			}
			return hi
		}
		if t >= horizon {
			return Inf
		}
		prev = t
	}
}
