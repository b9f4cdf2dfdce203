package ws

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pingball/backend/internal/handoff"
	"github.com/pingball/backend/internal/protocol"
)

// PeerState is where a PeerClient is in its connection cycle.
type PeerState int

const (
	Disconnected PeerState = iota
	Connecting
	Connected
)

func (s PeerState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// PeerClient keeps a board connected to the rendezvous service.
type PeerClient struct {
	url       string
	handoff   *handoff.Handoff
	tick      time.Duration
	reconnect time.Duration
	dialer    *websocket.Dialer

	mu    sync.RWMutex
	state PeerState
}

// NewPeerClient flushes outbound balls every tick. A zero reconnect delay
// makes Run return after the first lost session.
func NewPeerClient(url string, h *handoff.Handoff, tick, reconnect time.Duration) *PeerClient {
	return &PeerClient{
		url:       url,
		handoff:   h,
		tick:      tick,
		reconnect: reconnect,
		dialer:    websocket.DefaultDialer,
	}
}

func (p *PeerClient) State() PeerState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *PeerClient) setState(s PeerState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run connects and reconnects until ctx is cancelled.
func (p *PeerClient) Run(ctx context.Context) error {
	board := p.handoff.Board()
	for {
		err := p.session(ctx)

		p.handoff.Reset()
		board.SetOnline(false)
		p.setState(Disconnected)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p.reconnect <= 0 {
			return err
		}
		log.Printf("[PEER] %s: session ended (%v), retrying in %v", board.Name(), err, p.reconnect)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.reconnect):
		}
	}
}

// session runs one connection until it fails.
func (p *PeerClient) session(ctx context.Context) error {
	board := p.handoff.Board()
	p.setState(Connecting)

	conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.url, err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(p.handoff.Hello().Encode())); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	board.SetOnline(true)
	p.setState(Connected)
	log.Printf("[PEER] %s: connected to %s", board.Name(), p.url)

	readErr := make(chan error, 1)
	go p.readLoop(conn, readErr)

	// stopReader closes the socket and waits for readLoop, so no inbound
	// message is applied after Run resets the board.
	stopReader := func() {
		conn.Close()
		<-readErr
	}

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "board shutting down"),
				time.Now().Add(writeWait))
			stopReader()
			return ctx.Err()

		case err := <-readErr:
			return err

		case <-ticker.C:
			for _, msg := range p.handoff.Outbound() {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Encode())); err != nil {
					stopReader()
					return fmt.Errorf("write: %w", err)
				}
			}
		}
	}
}

// readLoop applies inbound messages. The rendezvous pings us, so a silent
// socket times out after pongWait.
func (p *PeerClient) readLoop(conn *websocket.Conn, errc chan<- error) {
	conn.SetReadLimit(maxLineBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			errc <- err
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := protocol.Parse(string(data))
		if err != nil {
			log.Printf("[PEER] %s: %v", p.handoff.Board().Name(), err)
			continue
		}
		p.handoff.Apply(msg)
	}
}
