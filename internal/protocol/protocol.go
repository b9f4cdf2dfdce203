// Package protocol encodes the line messages boards and the rendezvous
// service exchange. Each message is one line of space-separated fields.
package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pingball/backend/internal/game"
)

var ErrMalformed = errors.New("malformed message")

const (
	VerbHello      = "board"
	VerbBall       = "ball"
	VerbPortal     = "portal"
	VerbConnect    = "connect"
	VerbDisconnect = "disconnect"
)

type Message interface {
	Verb() string
	Encode() string
}

// Hello is the first message a board sends after connecting.
type Hello struct {
	Board string
}

// Ball carries a ball across an open wall. Side is the wall the ball left
// through on the sending board; Peer is the board that should receive it.
type Ball struct {
	X, Y   float64
	VX, VY float64
	Peer   string
	Side   game.Side
}

// Portal carries a ball from one board's portal to a portal on another.
type Portal struct {
	FromBoard  string
	FromPortal string
	ToBoard    string
	ToPortal   string
	VX, VY     float64
}

// Connect tells a board that side now leads to Peer.
type Connect struct {
	Side game.Side
	Peer string
}

// Disconnect tells a board that side is a solid wall again.
type Disconnect struct {
	Side game.Side
}

func (Hello) Verb() string      { return VerbHello }
func (Ball) Verb() string       { return VerbBall }
func (Portal) Verb() string     { return VerbPortal }
func (Connect) Verb() string    { return VerbConnect }
func (Disconnect) Verb() string { return VerbDisconnect }

func (m Hello) Encode() string {
	return join(VerbHello, m.Board)
}

func (m Ball) Encode() string {
	return join(VerbBall, num(m.X), num(m.Y), num(m.VX), num(m.VY), m.Peer, m.Side.String())
}

func (m Portal) Encode() string {
	return join(VerbPortal, m.FromBoard, m.FromPortal, m.ToBoard, m.ToPortal, num(m.VX), num(m.VY))
}

func (m Connect) Encode() string {
	return join(VerbConnect, m.Side.String(), m.Peer)
}

func (m Disconnect) Encode() string {
	return join(VerbDisconnect, m.Side.String())
}

// Bounce returns the message that sends the ball back to the board it
// came from: the endpoints swap and the velocity is kept.
func (m Portal) Bounce() Portal {
	return Portal{
		FromBoard:  m.ToBoard,
		FromPortal: m.ToPortal,
		ToBoard:    m.FromBoard,
		ToPortal:   m.FromPortal,
		VX:         m.VX,
		VY:         m.VY,
	}
}

// Bounce returns the message that puts the ball back on sender, moving
// away from the wall it tried to cross.
func (m Ball) Bounce(sender string) Ball {
	out := m
	if m.Side.Horizontal() {
		out.VY = -m.VY
	} else {
		out.VX = -m.VX
	}
	out.Side = m.Side.Opposite()
	out.Peer = sender
	return out
}

// State converts the message into the ball state the board consumes.
func (m Ball) State() game.BallState {
	return game.BallState{X: m.X, Y: m.Y, VX: m.VX, VY: m.VY}
}

// BallFrom builds the message for a departure.
func BallFrom(d game.Departure) Ball {
	return Ball{X: d.Ball.X, Y: d.Ball.Y, VX: d.Ball.VX, VY: d.Ball.VY, Peer: d.Peer, Side: d.Side}
}

// PortalFrom builds the message for a ball that entered a linked portal on
// board.
func PortalFrom(board string, d game.PortalDeparture) Portal {
	return Portal{
		FromBoard:  board,
		FromPortal: d.Portal,
		ToBoard:    d.OtherBoard,
		ToPortal:   d.OtherPortal,
		VX:         d.Ball.VX,
		VY:         d.Ball.VY,
	}
}

// Parse decodes one line.
func Parse(line string) (Message, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrMalformed)
	}
	verb, args := fields[0], fields[1:]

	switch verb {
	case VerbHello:
		if err := arity(verb, args, 1); err != nil {
			return nil, err
		}
		return Hello{Board: args[0]}, nil

	case VerbBall:
		if err := arity(verb, args, 6); err != nil {
			return nil, err
		}
		nums, err := floats(args[:4])
		if err != nil {
			return nil, err
		}
		side, err := parseSide(args[5])
		if err != nil {
			return nil, err
		}
		return Ball{X: nums[0], Y: nums[1], VX: nums[2], VY: nums[3], Peer: args[4], Side: side}, nil

	case VerbPortal:
		if err := arity(verb, args, 6); err != nil {
			return nil, err
		}
		nums, err := floats(args[4:])
		if err != nil {
			return nil, err
		}
		return Portal{
			FromBoard:  args[0],
			FromPortal: args[1],
			ToBoard:    args[2],
			ToPortal:   args[3],
			VX:         nums[0],
			VY:         nums[1],
		}, nil

	case VerbConnect:
		if err := arity(verb, args, 2); err != nil {
			return nil, err
		}
		side, err := parseSide(args[0])
		if err != nil {
			return nil, err
		}
		return Connect{Side: side, Peer: args[1]}, nil

	case VerbDisconnect:
		if err := arity(verb, args, 1); err != nil {
			return nil, err
		}
		side, err := parseSide(args[0])
		if err != nil {
			return nil, err
		}
		return Disconnect{Side: side}, nil
	}
	return nil, fmt.Errorf("%w: unknown verb %q", ErrMalformed, verb)
}

func arity(verb string, args []string, want int) error {
	if len(args) != want {
		return fmt.Errorf("%w: %s takes %d fields, got %d", ErrMalformed, verb, want, len(args))
	}
	return nil
}

func floats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: bad number %q", ErrMalformed, f)
		}
		out[i] = v
	}
	return out, nil
}

func parseSide(name string) (game.Side, error) {
	s, err := game.ParseSide(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s, nil
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func join(fields ...string) string {
	return strings.Join(fields, " ")
}
