package game

import (
	"fmt"
	"strings"
)

// Side names one edge of the playfield.
type Side int

const (
	Top Side = iota
	Bottom
	Left
	Right
)

// Sides lists every edge in wire order.
var Sides = [...]Side{Top, Bottom, Left, Right}

var sideNames = [...]string{"top", "bottom", "left", "right"}

func (s Side) String() string {
	if s < Top || s > Right {
		return fmt.Sprintf("side(%d)", int(s))
	}
	return sideNames[s]
}

// Opposite returns the facing edge: top/bottom and left/right pair up.
func (s Side) Opposite() Side {
	switch s {
	case Top:
		return Bottom
	case Bottom:
		return Top
	case Left:
		return Right
	default:
		return Left
	}
}

// Horizontal reports whether the edge runs along the x axis.
func (s Side) Horizontal() bool {
	return s == Top || s == Bottom
}

// ParseSide accepts the lower-case side names used on the wire.
func ParseSide(name string) (Side, error) {
	for i, n := range sideNames {
		if strings.EqualFold(n, name) {
			return Side(i), nil
		}
	}
	return 0, fmt.Errorf("unknown side %q", name)
}
