package game

import "github.com/pingball/backend/internal/geometry"

// Kind identifies an obstacle variant. Values match the board file keywords.
type Kind string

const (
	KindSquareBumper   Kind = "squareBumper"
	KindCircleBumper   Kind = "circleBumper"
	KindTriangleBumper Kind = "triangleBumper"
	KindLeftFlipper    Kind = "leftFlipper"
	KindRightFlipper   Kind = "rightFlipper"
	KindAbsorber       Kind = "absorber"
	KindPortal         Kind = "portal"
	KindOuterWall      Kind = "outerWall"
)

// Obstacle is anything a ball can hit.
type Obstacle interface {
	Kind() Kind
	Name() string
	Origin() geometry.Vect
	ReflectionCoefficient() float64

	// TimeUntilCollision assumes the ball keeps its current velocity and
	// returns geometry.Inf when it never touches this obstacle.
	TimeUntilCollision(b *Ball) float64

	// Collision updates a ball that is touching this obstacle.
	Collision(b *Ball)

	// DoAction runs the obstacle's triggered behaviour.
	DoAction()

	// UpdatePosition advances moving parts by dt seconds.
	UpdatePosition(dt float64)

	State() ObstacleState
}

// ObstacleState is the read-only view of an obstacle handed to renderers.
type ObstacleState struct {
	Kind        Kind              `json:"kind" msgpack:"kind"`
	Name        string            `json:"name,omitempty" msgpack:"name,omitempty"`
	X           float64           `json:"x" msgpack:"x"`
	Y           float64           `json:"y" msgpack:"y"`
	Orientation int               `json:"orientation,omitempty" msgpack:"orientation,omitempty"`
	Width       int               `json:"width,omitempty" msgpack:"width,omitempty"`
	Height      int               `json:"height,omitempty" msgpack:"height,omitempty"`
	Segment     *geometry.Segment `json:"segment,omitempty" msgpack:"segment,omitempty"`
	Held        int               `json:"held,omitempty" msgpack:"held,omitempty"`
	OtherBoard  string            `json:"other_board,omitempty" msgpack:"other_board,omitempty"`
	OtherPortal string            `json:"other_portal,omitempty" msgpack:"other_portal,omitempty"`
	Active      bool              `json:"active,omitempty" msgpack:"active,omitempty"`
}

// ID addresses an obstacle inside an Arena.
type ID int

// Arena owns a board's obstacles and the trigger graph between them.
// Triggers are stored as ids, so cycles (including self-triggers) are fine.
type Arena struct {
	obstacles []Obstacle
	triggers  [][]ID
	byName    map[string]ID
}

func NewArena() *Arena {
	return &Arena{byName: make(map[string]ID)}
}

// Add stores o and returns its id. Named obstacles become visible to Lookup.
func (a *Arena) Add(o Obstacle) ID {
	id := ID(len(a.obstacles))
	a.obstacles = append(a.obstacles, o)
	a.triggers = append(a.triggers, nil)
	if name := o.Name(); name != "" {
		a.byName[name] = id
	}
	return id
}

func (a *Arena) Get(id ID) Obstacle {
	return a.obstacles[id]
}

func (a *Arena) Lookup(name string) (ID, bool) {
	id, ok := a.byName[name]
	return id, ok
}

// All returns the obstacles in id order. The slice must not be modified.
func (a *Arena) All() []Obstacle {
	return a.obstacles
}

func (a *Arena) Len() int {
	return len(a.obstacles)
}

// Connect makes a collision with source run target's action.
func (a *Arena) Connect(source, target ID) {
	a.triggers[source] = append(a.triggers[source], target)
}

func (a *Arena) Targets(id ID) []ID {
	return a.triggers[id]
}

// Trigger runs DoAction on every target of id. Targets are not themselves
// triggered in turn.
func (a *Arena) Trigger(id ID) {
	for _, target := range a.triggers[id] {
		a.obstacles[target].DoAction()
	}
}
