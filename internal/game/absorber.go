package game

import "github.com/pingball/backend/internal/geometry"

// AbsorberEjectSpeed is the upward launch speed of a released ball.
const AbsorberEjectSpeed = 50.0

// Absorber is a width×height rectangle that swallows balls and holds them in
// its bottom-right corner until triggered.
type Absorber struct {
	name          string
	origin        geometry.Vect
	width, height int
	shape         outline
	held          []*Ball
}

func NewAbsorber(name string, x, y float64, width, height int) *Absorber {
	return &Absorber{
		name:   name,
		origin: geometry.NewVect(x, y),
		width:  width,
		height: height,
		shape:  rectangle(x, y, float64(width), float64(height)),
	}
}

func (a *Absorber) Kind() Kind                     { return KindAbsorber }
func (a *Absorber) Name() string                   { return a.name }
func (a *Absorber) Origin() geometry.Vect          { return a.origin }
func (a *Absorber) ReflectionCoefficient() float64 { return 0 }
func (a *Absorber) UpdatePosition(float64)         {}

// Held returns the number of captured balls.
func (a *Absorber) Held() int { return len(a.held) }

// restingPoint is where captured balls wait.
func (a *Absorber) restingPoint() geometry.Vect {
	return geometry.NewVect(a.origin.X+float64(a.width)-BallRadius, a.origin.Y+float64(a.height)-BallRadius)
}

func (a *Absorber) contains(p geometry.Vect) bool {
	return p.X > a.origin.X && p.X < a.origin.X+float64(a.width) &&
		p.Y > a.origin.Y && p.Y < a.origin.Y+float64(a.height)
}

// TimeUntilCollision ignores balls already inside, so a launched ball can
// leave.
func (a *Absorber) TimeUntilCollision(b *Ball) float64 {
	if b.Captured() || a.contains(b.Position()) {
		return geometry.Inf
	}
	return a.shape.timeUntil(b)
}

// Collision captures b. Balls that arrive while others are held join the
// queue behind them.
func (a *Absorber) Collision(b *Ball) {
	if b.Captured() {
		return
	}
	b.Capture(a.restingPoint())
	a.held = append(a.held, b)
}

// DoAction launches the longest-held ball straight up.
func (a *Absorber) DoAction() {
	if len(a.held) == 0 {
		return
	}
	b := a.held[0]
	a.held[0] = nil
	a.held = a.held[1:]
	b.Release(geometry.NewVect(0, -AbsorberEjectSpeed))
}

// drop forgets b if it is held.
func (a *Absorber) drop(b *Ball) {
	for i, h := range a.held {
		if h == b {
			a.held = append(a.held[:i], a.held[i+1:]...)
			return
		}
	}
}

func (a *Absorber) State() ObstacleState {
	return ObstacleState{
		Kind:   KindAbsorber,
		Name:   a.name,
		X:      a.origin.X,
		Y:      a.origin.Y,
		Width:  a.width,
		Height: a.height,
		Held:   len(a.held),
	}
}
