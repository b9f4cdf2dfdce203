package game

import "github.com/pingball/backend/internal/geometry"

const (
	PortalRadius = 0.5
	// portalExitOffset is how far from the target centre a teleported ball
	// reappears, along its direction of travel.
	portalExitOffset = 0.8
)

// Portal sends balls that touch it to another portal, on this board or on a
// named peer board. A portal whose target cannot currently be reached is
// transparent.
type Portal struct {
	name        string
	origin      geometry.Vect
	circle      geometry.Circle
	otherBoard  string
	otherPortal string
	active      bool
}

func NewPortal(name string, x, y float64, otherBoard, otherPortal string) *Portal {
	return &Portal{
		name:        name,
		origin:      geometry.NewVect(x, y),
		circle:      geometry.NewCircle(x+0.5, y+0.5, PortalRadius),
		otherBoard:  otherBoard,
		otherPortal: otherPortal,
	}
}

func (p *Portal) Kind() Kind                     { return KindPortal }
func (p *Portal) Name() string                   { return p.name }
func (p *Portal) Origin() geometry.Vect          { return p.origin }
func (p *Portal) Center() geometry.Vect          { return p.circle.Center }
func (p *Portal) OtherBoard() string             { return p.otherBoard }
func (p *Portal) OtherPortal() string            { return p.otherPortal }
func (p *Portal) Active() bool                   { return p.active }
func (p *Portal) ReflectionCoefficient() float64 { return 0 }
func (p *Portal) DoAction()                      {}
func (p *Portal) UpdatePosition(float64)         {}

// Collision leaves the ball alone; the board moves it.
func (p *Portal) Collision(*Ball) {}

// crossBoard reports whether the target lives on another board.
func (p *Portal) crossBoard(board string) bool {
	return p.otherBoard != "" && p.otherBoard != board
}

func (p *Portal) TimeUntilCollision(b *Ball) float64 {
	if !p.active {
		return geometry.Inf
	}
	return geometry.TimeUntilCircleCollision(p.circle, b.Circle(), b.Velocity())
}

// exitPoint is where a ball travelling at v appears when it comes out of p.
func (p *Portal) exitPoint(v geometry.Vect) geometry.Vect {
	return p.circle.Center.Plus(v.Unit().Times(portalExitOffset))
}

func (p *Portal) State() ObstacleState {
	return ObstacleState{
		Kind:        KindPortal,
		Name:        p.name,
		X:           p.origin.X,
		Y:           p.origin.Y,
		Width:       1,
		Height:      1,
		OtherBoard:  p.otherBoard,
		OtherPortal: p.otherPortal,
		Active:      p.active,
	}
}
