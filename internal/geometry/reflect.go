package geometry

// ReflectWall reflects vel off the line through seg. The normal component is
// reversed and scaled by coeff.
func ReflectWall(seg Segment, vel Vect, coeff float64) Vect {
	d := seg.P2.Minus(seg.P1)
	if d.IsZero() {
		return vel
	}
	return reflectAbout(Vect{X: -d.Y, Y: d.X}.Unit(), vel, coeff)
}

// ReflectCircle reflects vel off a circle centred at center for a ball
// currently touching it at ballCenter.
func ReflectCircle(center, ballCenter, vel Vect, coeff float64) Vect {
	n := ballCenter.Minus(center).Unit()
	if n.IsZero() {
		return vel.Times(-coeff)
	}
	return reflectAbout(n, vel, coeff)
}

// ReflectRotatingWall reflects vel off seg while seg spins about center at
// omega rad/s. The surface velocity at the contact point is removed before
// the reflection and restored after it.
func ReflectRotatingWall(seg Segment, center Vect, omega float64, ball Circle, vel Vect, coeff float64) Vect {
	return reflectMoving(seg.ClosestPoint(ball.Center), center, omega, ball.Center, vel, coeff)
}

// ReflectRotatingCircle is ReflectRotatingWall for a circle orbiting center.
func ReflectRotatingCircle(c Circle, center Vect, omega float64, ball Circle, vel Vect, coeff float64) Vect {
	return reflectMoving(c.Center, center, omega, ball.Center, vel, coeff)
}

// ReflectBalls exchanges the normal velocity components of two equal-mass
// balls in contact.
func ReflectBalls(c1, v1, c2, v2 Vect) (Vect, Vect) {
	n := c2.Minus(c1).Unit()
	if n.IsZero() {
		return v2, v1
	}
	exchange := n.Times(v1.Minus(v2).Dot(n))
	return v1.Minus(exchange), v2.Plus(exchange)
}

// SurfaceVelocity returns the velocity of point p on a body spinning about
// center at omega rad/s.
func SurfaceVelocity(p, center Vect, omega float64) Vect {
	r := p.Minus(center)
	return Vect{X: -r.Y * omega, Y: r.X * omega}
}

func reflectMoving(contact, center Vect, omega float64, ballCenter, vel Vect, coeff float64) Vect {
	n := ballCenter.Minus(contact).Unit()
	if n.IsZero() {
		return vel
	}
	surface := SurfaceVelocity(contact, center, omega)
	rel := vel.Minus(surface)
	if rel.Dot(n) >= 0 {
		return vel
	}
	return reflectAbout(n, rel, coeff).Plus(surface)
}

func reflectAbout(n, vel Vect, coeff float64) Vect {
	return vel.Minus(n.Times((1 + coeff) * vel.Dot(n)))
}
