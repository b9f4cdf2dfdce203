package game

import (
	"math"
	"strings"

	"github.com/pingball/backend/internal/geometry"
)

const renderSize = int(BoardSize) + 2

// Render draws the board's current state.
func (b *Board) Render() string {
	return Render(b.Snapshot())
}

// Render draws s as text, one character per grid cell plus a border. Open
// sides show the neighbour's name instead of wall dots.
func Render(s Snapshot) string {
	var grid [renderSize][renderSize]byte
	for y := range grid {
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}
	for i := 0; i < renderSize; i++ {
		grid[0][i], grid[renderSize-1][i] = '.', '.'
		grid[i][0], grid[i][renderSize-1] = '.', '.'
	}
	for _, side := range Sides {
		if name, ok := s.Neighbours[side.String()]; ok {
			writeName(&grid, side, name)
		}
	}

	put := func(x, y float64, c byte) {
		cx, cy := int(math.Floor(x)), int(math.Floor(y))
		if cx < 0 || cy < 0 || cx >= int(BoardSize) || cy >= int(BoardSize) {
			return
		}
		grid[cy+1][cx+1] = c
	}

	for _, o := range s.Obstacles {
		switch o.Kind {
		case KindSquareBumper:
			put(o.X, o.Y, '#')
		case KindCircleBumper:
			put(o.X, o.Y, 'O')
		case KindTriangleBumper:
			if o.Orientation == 90 || o.Orientation == 270 {
				put(o.X, o.Y, '\\')
			} else {
				put(o.X, o.Y, '/')
			}
		case KindPortal:
			put(o.X, o.Y, '@')
		case KindAbsorber:
			for dy := 0; dy < o.Height; dy++ {
				for dx := 0; dx < o.Width; dx++ {
					put(o.X+float64(dx), o.Y+float64(dy), '=')
				}
			}
		case KindLeftFlipper, KindRightFlipper:
			if o.Segment != nil {
				drawArm(put, *o.Segment)
			}
		}
	}
	for _, ball := range s.Balls {
		put(ball.X, ball.Y, '*')
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.Write(row[:])
		sb.WriteByte('\n')
	}
	return sb.String()
}

func drawArm(put func(x, y float64, c byte), seg geometry.Segment) {
	c := byte('-')
	if math.Abs(seg.P1.X-seg.P2.X) < math.Abs(seg.P1.Y-seg.P2.Y) {
		c = '|'
	}
	for _, f := range []float64{0.25, 0.75} {
		p := seg.P1.Plus(seg.P2.Minus(seg.P1).Times(f))
		put(p.X, p.Y, c)
	}
}

func writeName(grid *[renderSize][renderSize]byte, side Side, name string) {
	for i := 0; i < len(name) && i < renderSize-2; i++ {
		switch side {
		case Top:
			grid[0][i+1] = name[i]
		case Bottom:
			grid[renderSize-1][i+1] = name[i]
		case Left:
			grid[i+1][0] = name[i]
		case Right:
			grid[i+1][renderSize-1] = name[i]
		}
	}
}
