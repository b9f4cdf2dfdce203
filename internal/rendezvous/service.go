// Package rendezvous tracks which boards are online and how their walls are
// joined, and routes balls between them.
package rendezvous

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pingball/backend/internal/game"
	"github.com/pingball/backend/internal/protocol"
)

var (
	ErrDuplicateBoard    = errors.New("board name already connected")
	ErrBoardNotConnected = errors.New("board not connected")
	ErrBadCommand        = errors.New("bad command")
)

// Conn is the service's handle on one board connection.
type Conn interface {
	Send(line string) error
	Close() error
}

type Axis string

const (
	Horizontal Axis = "h"
	Vertical   Axis = "v"
)

// JoinCommand links First and Second. Horizontally, First's right wall
// meets Second's left; vertically, First's bottom meets Second's top.
type JoinCommand struct {
	Axis   Axis   `json:"axis"`
	First  string `json:"first"`
	Second string `json:"second"`
}

func (c JoinCommand) sides() (game.Side, game.Side) {
	if c.Axis == Vertical {
		return game.Bottom, game.Top
	}
	return game.Right, game.Left
}

func (c JoinCommand) String() string {
	return fmt.Sprintf("%s %s %s", c.Axis, c.First, c.Second)
}

// Link is one directed edge of the topology.
type Link struct {
	Board string `json:"board"`
	Side  string `json:"side"`
	Peer  string `json:"peer"`
}

// Service is safe for concurrent use. Lock order: connsMu, then topoMu.
type Service struct {
	connsMu sync.RWMutex
	conns   map[string]Conn

	topoMu   sync.Mutex
	topology map[string]map[game.Side]string

	events EventSink
}

// NewService returns an empty service. events may be nil.
func NewService(events EventSink) *Service {
	return &Service{
		conns:    make(map[string]Conn),
		topology: make(map[string]map[game.Side]string),
		events:   events,
	}
}

// notice is a message owed to a board once the locks are dropped.
type notice struct {
	board string
	msg   protocol.Message
}

// Register adds a board connection.
func (s *Service) Register(name string, conn Conn) error {
	s.connsMu.Lock()
	if _, exists := s.conns[name]; exists {
		s.connsMu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateBoard, name)
	}
	s.conns[name] = conn
	s.connsMu.Unlock()

	log.Printf("[RENDEZVOUS] Board %s connected", name)
	s.publish(Event{Type: EventBoardJoined, Board: name})
	return nil
}

// Unregister removes a board if conn is still its connection and tells its
// neighbours to close the walls it was joined to.
func (s *Service) Unregister(name string, conn Conn) {
	s.connsMu.Lock()
	if current, ok := s.conns[name]; !ok || current != conn {
		s.connsMu.Unlock()
		return
	}
	delete(s.conns, name)

	s.topoMu.Lock()
	var notices []notice
	for side, peer := range s.topology[name] {
		if peer == name {
			continue
		}
		if s.topology[peer][side.Opposite()] == name {
			delete(s.topology[peer], side.Opposite())
			notices = append(notices, notice{peer, protocol.Disconnect{Side: side.Opposite()}})
		}
	}
	delete(s.topology, name)
	for board, edges := range s.topology {
		for side, peer := range edges {
			if peer == name {
				delete(edges, side)
				notices = append(notices, notice{board, protocol.Disconnect{Side: side}})
			}
		}
	}
	s.topoMu.Unlock()

	s.deliver(notices)
	s.connsMu.Unlock()

	log.Printf("[RENDEZVOUS] Board %s disconnected", name)
	s.publish(Event{Type: EventBoardLeft, Board: name})
}

// Join links two connected boards, separating any board either wall was
// previously joined to.
func (s *Service) Join(cmd JoinCommand) error {
	if cmd.Axis != Horizontal && cmd.Axis != Vertical {
		return fmt.Errorf("%w: axis %q", ErrBadCommand, cmd.Axis)
	}

	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	for _, name := range []string{cmd.First, cmd.Second} {
		if _, ok := s.conns[name]; !ok {
			return fmt.Errorf("%w: %s", ErrBoardNotConnected, name)
		}
	}

	firstSide, secondSide := cmd.sides()

	s.topoMu.Lock()
	var notices []notice
	var separated []Event
	unlink := func(board string, side game.Side, keep string) {
		old, ok := s.topology[board][side]
		if !ok || old == keep {
			return
		}
		delete(s.topology[board], side)
		if s.topology[old][side.Opposite()] == board {
			delete(s.topology[old], side.Opposite())
			notices = append(notices, notice{old, protocol.Disconnect{Side: side.Opposite()}})
			separated = append(separated, Event{Type: EventBoardsSeparated, Board: board, Peer: old, Side: side.String()})
		}
	}
	unlink(cmd.First, firstSide, cmd.Second)
	unlink(cmd.Second, secondSide, cmd.First)

	s.edges(cmd.First)[firstSide] = cmd.Second
	s.edges(cmd.Second)[secondSide] = cmd.First
	notices = append(notices,
		notice{cmd.First, protocol.Connect{Side: firstSide, Peer: cmd.Second}},
		notice{cmd.Second, protocol.Connect{Side: secondSide, Peer: cmd.First}},
	)
	// Joins share connsMu, so topoMu also orders their notices.
	s.deliver(notices)
	s.topoMu.Unlock()

	log.Printf("[RENDEZVOUS] Joined %s (%s) to %s (%s)", cmd.First, firstSide, cmd.Second, secondSide)
	for _, ev := range separated {
		s.publish(ev)
	}
	s.publish(Event{Type: EventBoardsJoined, Board: cmd.First, Peer: cmd.Second, Axis: string(cmd.Axis)})
	return nil
}

// edges returns board's side map, creating it. Callers hold topoMu.
func (s *Service) edges(board string) map[game.Side]string {
	m, ok := s.topology[board]
	if !ok {
		m = make(map[game.Side]string)
		s.topology[board] = m
	}
	return m
}

// deliver sends each notice to its board if still connected. Callers hold
// connsMu exclusively, or hold it shared together with topoMu. Conn.Send
// must not block.
func (s *Service) deliver(notices []notice) {
	for _, n := range notices {
		conn, ok := s.conns[n.board]
		if !ok {
			continue
		}
		if err := conn.Send(n.msg.Encode()); err != nil {
			log.Printf("[RENDEZVOUS] Failed to send %q to %s: %v", n.msg.Encode(), n.board, err)
		}
	}
}

// Handle routes a message received from board from.
func (s *Service) Handle(from, line string) {
	msg, err := protocol.Parse(line)
	if err != nil {
		log.Printf("[RENDEZVOUS] Dropping message from %s: %v", from, err)
		return
	}

	s.connsMu.RLock()
	defer s.connsMu.RUnlock()

	switch m := msg.(type) {
	case protocol.Ball:
		if s.send(m.Peer, m) {
			return
		}
		log.Printf("[RENDEZVOUS] %s is gone, returning ball to %s", m.Peer, from)
		s.send(from, m.Bounce(from))

	case protocol.Portal:
		if s.send(m.ToBoard, m) {
			return
		}
		log.Printf("[RENDEZVOUS] %s is not connected, returning portal ball to %s", m.ToBoard, m.FromBoard)
		if !s.send(m.FromBoard, m.Bounce()) {
			log.Printf("[RENDEZVOUS] Lost portal ball: neither %s nor %s is connected", m.ToBoard, m.FromBoard)
		}

	default:
		log.Printf("[RENDEZVOUS] Ignoring %s from %s", msg.Verb(), from)
	}
}

// send reports whether board is connected and accepted msg. Callers hold
// connsMu.
func (s *Service) send(board string, msg protocol.Message) bool {
	conn, ok := s.conns[board]
	if !ok {
		return false
	}
	if err := conn.Send(msg.Encode()); err != nil {
		log.Printf("[RENDEZVOUS] Failed to send to %s: %v", board, err)
		return false
	}
	return true
}

// Boards returns the connected board names in order.
func (s *Service) Boards() []string {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	names := make([]string, 0, len(s.conns))
	for name := range s.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Topology returns every link sorted by board then side.
func (s *Service) Topology() []Link {
	s.topoMu.Lock()
	defer s.topoMu.Unlock()
	var links []Link
	for board, edges := range s.topology {
		for _, side := range game.Sides {
			if peer, ok := edges[side]; ok {
				links = append(links, Link{Board: board, Side: side.String(), Peer: peer})
			}
		}
	}
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Board < links[j].Board
	})
	return links
}

// ParseJoin reads "h LEFT RIGHT" or "v TOP BOTTOM".
func ParseJoin(line string) (JoinCommand, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 || (fields[0] != string(Horizontal) && fields[0] != string(Vertical)) {
		return JoinCommand{}, fmt.Errorf("%w: want \"h A B\" or \"v A B\", got %q", ErrBadCommand, line)
	}
	return JoinCommand{Axis: Axis(fields[0]), First: fields[1], Second: fields[2]}, nil
}

// Execute runs one operator command and returns its reply.
func (s *Service) Execute(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty command", ErrBadCommand)
	}

	switch fields[0] {
	case "boards":
		names := s.Boards()
		if len(names) == 0 {
			return "no boards connected", nil
		}
		return strings.Join(names, "\n"), nil

	case "topology":
		links := s.Topology()
		if len(links) == 0 {
			return "no links", nil
		}
		lines := make([]string, len(links))
		for i, l := range links {
			lines[i] = fmt.Sprintf("%s %s %s", l.Board, l.Side, l.Peer)
		}
		return strings.Join(lines, "\n"), nil
	}

	cmd, err := ParseJoin(line)
	if err != nil {
		return "", err
	}
	if err := s.Join(cmd); err != nil {
		return "", err
	}
	return "ok " + cmd.String(), nil
}

func (s *Service) publish(ev Event) {
	if s.events == nil {
		return
	}
	ev.At = time.Now()
	s.events.Publish(ev)
}
