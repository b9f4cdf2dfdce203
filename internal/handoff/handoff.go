// Package handoff is the board side of the peer protocol: it turns inbound
// messages into board calls and pending departures into outbound messages.
package handoff

import (
	"errors"
	"log"
	"sync"

	"github.com/pingball/backend/internal/game"
	"github.com/pingball/backend/internal/protocol"
)

type Handoff struct {
	board *game.Board

	mu      sync.Mutex
	bounced []protocol.Message
}

func New(board *game.Board) *Handoff {
	return &Handoff{board: board}
}

func (h *Handoff) Board() *game.Board {
	return h.board
}

// Hello announces the board to the rendezvous service.
func (h *Handoff) Hello() protocol.Hello {
	return protocol.Hello{Board: h.board.Name()}
}

// Apply carries out one inbound message.
func (h *Handoff) Apply(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.Connect:
		h.board.Connect(m.Side, m.Peer)

	case protocol.Disconnect:
		h.board.Disconnect(m.Side)

	case protocol.Ball:
		if !h.board.ReceiveBall(m.Side, m.State()) {
			log.Printf("[PEER] %s: ball from %s refused at the %s edge", h.board.Name(), m.Side, m.Side.Opposite())
		}

	case protocol.Portal:
		err := errors.New("addressed to another board")
		if m.ToBoard == h.board.Name() {
			err = h.board.ExitPortal(m.ToPortal, game.BallState{VX: m.VX, VY: m.VY})
		}
		if err != nil {
			log.Printf("[PEER] %s: portal %s: %v, sending ball back to %s", h.board.Name(), m.ToPortal, err, m.FromBoard)
			h.mu.Lock()
			h.bounced = append(h.bounced, m.Bounce())
			h.mu.Unlock()
		}

	default:
		log.Printf("[PEER] %s: ignoring %q", h.board.Name(), msg.Encode())
	}
}

// Outbound returns every message waiting to go out, oldest first.
func (h *Handoff) Outbound() []protocol.Message {
	walls, portals := h.board.DrainOutbound()

	h.mu.Lock()
	out := h.bounced
	h.bounced = nil
	h.mu.Unlock()

	for _, d := range walls {
		out = append(out, protocol.BallFrom(d))
	}
	for _, d := range portals {
		out = append(out, protocol.PortalFrom(h.board.Name(), d))
	}
	return out
}

// Reset forgets the session: every wall closes and queued messages are
// dropped.
func (h *Handoff) Reset() {
	h.mu.Lock()
	h.bounced = nil
	h.mu.Unlock()
	h.board.DisconnectAll()
}
