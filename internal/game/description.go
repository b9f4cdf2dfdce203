package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	DefaultGravity   = 25.0
	DefaultFriction1 = 0.025
	DefaultFriction2 = 0.025
	TickDuration     = 50 * time.Millisecond
)

// ErrInvalidDescription wraps every reason NewBoard refuses a description.
var ErrInvalidDescription = errors.New("invalid board description")

// Description is a parsed board: what the loader hands to NewBoard.
type Description struct {
	Name      string         `json:"name" yaml:"name"`
	Gravity   float64        `json:"gravity" yaml:"gravity"`
	Friction1 float64        `json:"friction1" yaml:"friction1"`
	Friction2 float64        `json:"friction2" yaml:"friction2"`
	Tick      time.Duration  `json:"tick,omitempty" yaml:"-"`
	Obstacles []ObstacleSpec `json:"obstacles" yaml:"obstacles"`
	Balls     []BallSpec     `json:"balls" yaml:"balls"`
	Triggers  []TriggerSpec  `json:"triggers,omitempty" yaml:"triggers"`
	Keys      []KeySpec      `json:"keys,omitempty" yaml:"keys"`
}

type ObstacleSpec struct {
	Kind        Kind    `json:"kind" yaml:"kind"`
	Name        string  `json:"name,omitempty" yaml:"name"`
	X           float64 `json:"x" yaml:"x"`
	Y           float64 `json:"y" yaml:"y"`
	Orientation int     `json:"orientation,omitempty" yaml:"orientation"`
	Width       int     `json:"width,omitempty" yaml:"width"`
	Height      int     `json:"height,omitempty" yaml:"height"`
	OtherBoard  string  `json:"other_board,omitempty" yaml:"otherBoard"`
	OtherPortal string  `json:"other_portal,omitempty" yaml:"otherPortal"`
}

type BallSpec struct {
	Name string  `json:"name,omitempty" yaml:"name"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	VX   float64 `json:"vx" yaml:"vx"`
	VY   float64 `json:"vy" yaml:"vy"`
}

// TriggerSpec makes a collision with Source run Target's action.
type TriggerSpec struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

type KeyPhase string

const (
	KeyDown KeyPhase = "down"
	KeyUp   KeyPhase = "up"
)

// KeySpec binds a key press or release to an obstacle's action.
type KeySpec struct {
	Key    string   `json:"key" yaml:"key"`
	Phase  KeyPhase `json:"phase" yaml:"phase"`
	Target string   `json:"target" yaml:"target"`
}

// footprint returns the bounding box size of an obstacle kind.
func (s ObstacleSpec) footprint() (float64, float64) {
	switch s.Kind {
	case KindLeftFlipper, KindRightFlipper:
		return 2, 2
	case KindAbsorber:
		return float64(s.Width), float64(s.Height)
	default:
		return 1, 1
	}
}

// Validate checks the board invariants NewBoard relies on.
func (d Description) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: board name is required", ErrInvalidDescription)
	}
	if hasSpace(d.Name) {
		return fmt.Errorf("%w: board name %q contains whitespace", ErrInvalidDescription, d.Name)
	}
	if d.Friction1 < 0 || d.Friction2 < 0 {
		return fmt.Errorf("%w: friction must be non-negative (got %v, %v)", ErrInvalidDescription, d.Friction1, d.Friction2)
	}
	if d.Tick < 0 {
		return fmt.Errorf("%w: tick must be positive", ErrInvalidDescription)
	}

	names := make(map[string]bool)
	for i, o := range d.Obstacles {
		label := o.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		switch o.Kind {
		case KindSquareBumper, KindCircleBumper, KindPortal:
		case KindTriangleBumper, KindLeftFlipper, KindRightFlipper:
			if o.Orientation%90 != 0 || o.Orientation < 0 || o.Orientation > 270 {
				return fmt.Errorf("%w: %s %s has orientation %d, want 0/90/180/270", ErrInvalidDescription, o.Kind, label, o.Orientation)
			}
		case KindAbsorber:
			if o.Width <= 0 || o.Height <= 0 {
				return fmt.Errorf("%w: absorber %s needs a positive size", ErrInvalidDescription, label)
			}
		default:
			return fmt.Errorf("%w: obstacle %s has unknown kind %q", ErrInvalidDescription, label, o.Kind)
		}
		if o.Kind == KindPortal {
			if o.Name == "" {
				return fmt.Errorf("%w: portal %s needs a name", ErrInvalidDescription, label)
			}
			if o.OtherPortal == "" {
				return fmt.Errorf("%w: portal %s has no target portal", ErrInvalidDescription, label)
			}
		}
		for _, n := range []string{o.Name, o.OtherBoard, o.OtherPortal} {
			if hasSpace(n) {
				return fmt.Errorf("%w: %s %s: name %q contains whitespace", ErrInvalidDescription, o.Kind, label, n)
			}
		}

		w, h := o.footprint()
		if o.X < 0 || o.Y < 0 || o.X+w > BoardSize || o.Y+h > BoardSize {
			return fmt.Errorf("%w: %s %s at (%v,%v) lies outside the playfield", ErrInvalidDescription, o.Kind, label, o.X, o.Y)
		}

		if o.Name != "" {
			if names[o.Name] {
				return fmt.Errorf("%w: duplicate obstacle name %q", ErrInvalidDescription, o.Name)
			}
			names[o.Name] = true
		}
	}

	for _, b := range d.Balls {
		if b.X < InnerMin || b.X > InnerMax || b.Y < InnerMin || b.Y > InnerMax {
			return fmt.Errorf("%w: ball %s at (%v,%v) lies outside the playfield", ErrInvalidDescription, b.Name, b.X, b.Y)
		}
	}

	for _, t := range d.Triggers {
		if !names[t.Source] {
			return fmt.Errorf("%w: trigger source %q is not declared", ErrInvalidDescription, t.Source)
		}
		if !names[t.Target] {
			return fmt.Errorf("%w: trigger target %q is not declared", ErrInvalidDescription, t.Target)
		}
	}

	for _, k := range d.Keys {
		if k.Key == "" {
			return fmt.Errorf("%w: key binding for %q has no key", ErrInvalidDescription, k.Target)
		}
		if k.Phase != KeyDown && k.Phase != KeyUp {
			return fmt.Errorf("%w: key %q has phase %q, want down or up", ErrInvalidDescription, k.Key, k.Phase)
		}
		if !names[k.Target] {
			return fmt.Errorf("%w: key %q targets undeclared obstacle %q", ErrInvalidDescription, k.Key, k.Target)
		}
	}
	return nil
}

// hasSpace reports whether name would split into several wire fields.
func hasSpace(name string) bool {
	return strings.ContainsFunc(name, unicode.IsSpace)
}

func (s ObstacleSpec) build() Obstacle {
	switch s.Kind {
	case KindSquareBumper:
		return NewSquareBumper(s.Name, s.X, s.Y)
	case KindCircleBumper:
		return NewCircleBumper(s.Name, s.X, s.Y)
	case KindTriangleBumper:
		return NewTriangleBumper(s.Name, s.X, s.Y, s.Orientation)
	case KindLeftFlipper:
		return NewLeftFlipper(s.Name, s.X, s.Y, s.Orientation)
	case KindRightFlipper:
		return NewRightFlipper(s.Name, s.X, s.Y, s.Orientation)
	case KindAbsorber:
		return NewAbsorber(s.Name, s.X, s.Y, s.Width, s.Height)
	case KindPortal:
		return NewPortal(s.Name, s.X, s.Y, s.OtherBoard, s.OtherPortal)
	}
	return nil
}

// NewDescription returns an empty board with the default gravity and
// friction.
func NewDescription(name string) Description {
	return Description{
		Name:      name,
		Gravity:   DefaultGravity,
		Friction1: DefaultFriction1,
		Friction2: DefaultFriction2,
	}
}
