package game

import (
	"log"
	"sort"
	"sync"

	"github.com/pingball/backend/internal/geometry"
)

// Departure is a ball that left through an invisible wall and must be sent
// to the neighbour on that side.
type Departure struct {
	Ball BallState
	Side Side
	Peer string
}

// PortalDeparture is a ball that entered a portal linked to another board.
type PortalDeparture struct {
	Ball        BallState
	Portal      string
	OtherBoard  string
	OtherPortal string
}

// Board is one playfield. Every exported method takes the board lock, so
// network goroutines and the tick loop never interleave.
type Board struct {
	mu sync.Mutex

	desc      Description
	name      string
	gravity   float64
	friction1 float64
	friction2 float64
	tick      float64

	arena   *Arena
	wall    *OuterWall
	portals map[string]*Portal
	keyDown map[string][]ID
	keyUp   map[string][]ID

	balls      []*Ball
	nextBallID int

	neighbours     map[Side]string
	outbound       []Departure
	portalOutbound []PortalDeparture

	paused bool
	online bool
}

// NewBoard validates desc and builds its obstacles and balls.
func NewBoard(desc Description) (*Board, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	tick := desc.Tick
	if tick == 0 {
		tick = TickDuration
	}

	b := &Board{
		desc:       desc,
		name:       desc.Name,
		gravity:    desc.Gravity,
		friction1:  desc.Friction1,
		friction2:  desc.Friction2,
		tick:       tick.Seconds(),
		wall:       NewOuterWall(),
		neighbours: make(map[Side]string),
	}
	b.build()
	return b, nil
}

// build creates obstacles and balls from the description. The wall object
// and its visibility survive rebuilds.
func (b *Board) build() {
	b.arena = NewArena()
	b.arena.Add(b.wall)
	b.portals = make(map[string]*Portal)
	b.keyDown = make(map[string][]ID)
	b.keyUp = make(map[string][]ID)

	for _, spec := range b.desc.Obstacles {
		o := spec.build()
		b.arena.Add(o)
		if p, ok := o.(*Portal); ok {
			b.portals[p.Name()] = p
		}
	}
	for _, t := range b.desc.Triggers {
		source, _ := b.arena.Lookup(t.Source)
		target, _ := b.arena.Lookup(t.Target)
		b.arena.Connect(source, target)
	}
	for _, k := range b.desc.Keys {
		target, _ := b.arena.Lookup(k.Target)
		if k.Phase == KeyUp {
			b.keyUp[k.Key] = append(b.keyUp[k.Key], target)
		} else {
			b.keyDown[k.Key] = append(b.keyDown[k.Key], target)
		}
	}

	b.balls = nil
	for _, spec := range b.desc.Balls {
		b.addBall(geometry.NewVect(spec.X, spec.Y), geometry.NewVect(spec.VX, spec.VY))
	}
	b.refreshPortals()
}

func (b *Board) Name() string {
	return b.name
}

// TickSeconds returns the simulated length of one Update.
func (b *Board) TickSeconds() float64 {
	return b.tick
}

// AddBall places a new ball on the board and returns its id.
func (b *Board) AddBall(pos, vel geometry.Vect) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addBall(pos, vel).ID()
}

func (b *Board) addBall(pos, vel geometry.Vect) *Ball {
	b.nextBallID++
	ball := NewBall(b.nextBallID, clampInside(pos), vel)
	b.balls = append(b.balls, ball)
	return ball
}

func (b *Board) removeBall(ball *Ball) {
	for i, x := range b.balls {
		if x == ball {
			b.balls = append(b.balls[:i], b.balls[i+1:]...)
			break
		}
	}
	ball.removed = true
	for _, o := range b.arena.All() {
		if a, ok := o.(*Absorber); ok {
			a.drop(ball)
		}
	}
}

// Balls returns the current ball states.
func (b *Board) Balls() []BallState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BallState, 0, len(b.balls))
	for _, ball := range b.balls {
		out = append(out, ball.State())
	}
	return out
}

// Connect attaches peer to side and opens that wall.
func (b *Board) Connect(side Side, peer string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.neighbours[side] = peer
	b.wall.SetVisible(side, false)
	log.Printf("[BOARD] %s: %s wall now leads to %s", b.name, side, peer)
}

// Disconnect closes side again.
func (b *Board) Disconnect(side Side) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnect(side)
}

func (b *Board) disconnect(side Side) {
	if peer, ok := b.neighbours[side]; ok {
		log.Printf("[BOARD] %s: %s wall no longer leads to %s", b.name, side, peer)
	}
	delete(b.neighbours, side)
	b.wall.SetVisible(side, true)
}

// DisconnectAll closes every wall and drops balls still waiting to be sent.
func (b *Board) DisconnectAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, side := range Sides {
		b.disconnect(side)
	}
	if n := len(b.outbound) + len(b.portalOutbound); n > 0 {
		log.Printf("[BOARD] %s: dropping %d undelivered balls", b.name, n)
	}
	b.outbound = nil
	b.portalOutbound = nil
}

func (b *Board) Neighbour(side Side) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	peer, ok := b.neighbours[side]
	return peer, ok
}

// Neighbours returns side name → peer board.
func (b *Board) Neighbours() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.neighbourNames()
}

func (b *Board) neighbourNames() map[string]string {
	out := make(map[string]string, len(b.neighbours))
	for side, peer := range b.neighbours {
		out[side.String()] = peer
	}
	return out
}

// SetOnline tells the board whether a rendezvous session is up. Portals to
// other boards only work while online.
func (b *Board) SetOnline(online bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.online = online
	b.refreshPortals()
}

func (b *Board) refreshPortals() {
	for _, p := range b.portals {
		if p.crossBoard(b.name) {
			p.active = b.online
			continue
		}
		_, p.active = b.portals[p.otherPortal]
	}
}

// KeyDown runs the actions bound to pressing key and reports how many ran.
func (b *Board) KeyDown(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runKey(b.keyDown[key])
}

// KeyUp runs the actions bound to releasing key.
func (b *Board) KeyUp(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runKey(b.keyUp[key])
}

func (b *Board) runKey(targets []ID) int {
	for _, id := range targets {
		b.arena.Get(id).DoAction()
	}
	return len(targets)
}

// Keys lists every bound key.
func (b *Board) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[string]bool)
	for k := range b.keyDown {
		seen[k] = true
	}
	for k := range b.keyUp {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *Board) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = true
}

func (b *Board) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = false
}

func (b *Board) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// Reset restores the obstacles and balls of the loaded description.
// Neighbour links stay in place.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outbound = nil
	b.portalOutbound = nil
	b.build()
	log.Printf("[BOARD] %s: reset", b.name)
}

// clampInside keeps a ball centre within the walls.
func clampInside(p geometry.Vect) geometry.Vect {
	return geometry.NewVect(clamp(p.X, InnerMin, InnerMax), clamp(p.Y, InnerMin, InnerMax))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
