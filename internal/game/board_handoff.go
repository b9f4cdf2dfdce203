package game

import (
	"errors"
	"log"

	"github.com/pingball/backend/internal/geometry"
)

var ErrUnknownPortal = errors.New("unknown portal")

const (
	// entryInset is how far inside the wall a received ball appears.
	entryInset = InnerMin + 0.01
	// laneLead is how far outside the edge the lane probe starts.
	laneLead = 0.75
)

// DrainOutbound returns and clears the balls waiting to leave the board.
func (b *Board) DrainOutbound() ([]Departure, []PortalDeparture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out, portals := b.outbound, b.portalOutbound
	b.outbound, b.portalOutbound = nil, nil
	return out, portals
}

// ReceiveBall places a ball that left its sender through the sender's
// departure side, so it enters here on the opposite edge. If an obstacle
// blocks the entry lane the ball's normal velocity is reversed and it is
// sent back, or kept here when that edge is no longer connected. It
// reports whether the ball ended up on this board.
func (b *Board) ReceiveBall(departure Side, state BallState) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := departure.Opposite()
	pos := entryPoint(entry, geometry.NewVect(state.X, state.Y))
	vel := geometry.NewVect(state.VX, state.VY)

	if !b.laneBlocked(entry, pos) {
		b.addBall(pos, vel)
		return true
	}

	if entry.Horizontal() {
		vel.Y = -vel.Y
	} else {
		vel.X = -vel.X
	}
	if peer, ok := b.neighbours[entry]; ok {
		log.Printf("[BOARD] %s: %s entry blocked, returning ball to %s", b.name, entry, peer)
		b.nextBallID++
		b.outbound = append(b.outbound, Departure{
			Ball: BallState{ID: b.nextBallID, X: pos.X, Y: pos.Y, VX: vel.X, VY: vel.Y},
			Side: entry,
			Peer: peer,
		})
		return false
	}
	b.addBall(pos, vel)
	return true
}

// entryPoint keeps the coordinate along the edge and moves the other one
// just inside entry.
func entryPoint(entry Side, p geometry.Vect) geometry.Vect {
	switch entry {
	case Left:
		p.X = entryInset
	case Right:
		p.X = BoardSize - entryInset
	case Top:
		p.Y = entryInset
	case Bottom:
		p.Y = BoardSize - entryInset
	}
	return clampInside(p)
}

// inward is the unit vector pointing from side into the board.
func inward(side Side) geometry.Vect {
	switch side {
	case Left:
		return geometry.NewVect(1, 0)
	case Right:
		return geometry.NewVect(-1, 0)
	case Top:
		return geometry.NewVect(0, 1)
	default:
		return geometry.NewVect(0, -1)
	}
}

// laneBlocked probes the strip between the edge and pos with a slow test
// ball. The outer wall is ignored.
func (b *Board) laneBlocked(entry Side, pos geometry.Vect) bool {
	dir := inward(entry)
	probe := NewBall(0, pos.Minus(dir.Times(laneLead)), dir)
	for _, o := range b.arena.All() {
		if o.Kind() == KindOuterWall {
			continue
		}
		if o.TimeUntilCollision(probe) <= 1 {
			return true
		}
	}
	return false
}

// ExitPortal brings a ball out of the named portal on this board.
func (b *Board) ExitPortal(portal string, state BallState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.portals[portal]
	if !ok {
		return ErrUnknownPortal
	}
	vel := geometry.NewVect(state.VX, state.VY)
	b.addBall(p.exitPoint(vel), vel)
	return nil
}
