package game

import (
	"log"
	"math"

	"github.com/pingball/backend/internal/geometry"
)

const (
	// contactEpsilon groups contacts that happen at the same instant.
	contactEpsilon = 1e-9
	// approachMargin stops a ball just short of the surface it is about to hit.
	approachMargin = 1e-7
	// maxIterations bounds the collision loop of one Step.
	maxIterations = 1000
)

// candidate is the earliest predicted contact of one ball.
type candidate struct {
	ball     *Ball
	obstacle ID
	time     float64
}

// pairCandidate is a predicted contact between two balls.
type pairCandidate struct {
	a, b *Ball
	time float64
}

// Update advances the board by one tick. A paused board does nothing.
func (b *Board) Update() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.paused {
		return
	}
	b.step(b.tick)
}

// Step advances the board by dt seconds regardless of pause state.
func (b *Board) Step(dt float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.step(dt)
}

func (b *Board) step(dt float64) {
	if dt <= 0 {
		return
	}
	b.applyForces(dt)

	remaining := dt
	for i := 0; remaining > 0; i++ {
		if i == maxIterations {
			log.Printf("[BOARD] %s: collision loop hit %d iterations, advancing %.6fs", b.name, maxIterations, remaining)
			b.advance(remaining)
			return
		}

		obstacles, pairs := b.predict()
		tmin := math.Inf(1)
		for _, c := range obstacles {
			tmin = math.Min(tmin, c.time)
		}
		for _, p := range pairs {
			tmin = math.Min(tmin, p.time)
		}

		if tmin >= remaining {
			b.advance(remaining)
			return
		}

		elapsed := math.Max(tmin-approachMargin, 0)
		b.advance(elapsed)
		b.resolve(obstacles, pairs, tmin+contactEpsilon)
		remaining -= elapsed
	}
}

// applyForces applies friction and then gravity to every free ball.
func (b *Board) applyForces(dt float64) {
	for _, ball := range b.balls {
		if ball.Captured() {
			continue
		}
		v := ball.Velocity()
		scale := 1 - b.friction1*dt - b.friction2*v.Length()*dt
		if scale < 0 {
			scale = 0
		}
		v = v.Times(scale)
		v.Y += b.gravity * dt
		ball.SetVelocity(v)
	}
}

// predict finds, for every free ball, the earliest obstacle contact and
// every ball pair's contact time.
func (b *Board) predict() ([]candidate, []pairCandidate) {
	var obstacles []candidate
	var pairs []pairCandidate
	for i, ball := range b.balls {
		if ball.Captured() {
			continue
		}
		best := candidate{ball: ball, obstacle: -1, time: math.Inf(1)}
		for id := ID(0); int(id) < b.arena.Len(); id++ {
			if t := b.arena.Get(id).TimeUntilCollision(ball); t < best.time {
				best.obstacle, best.time = id, t
			}
		}
		if best.obstacle >= 0 {
			obstacles = append(obstacles, best)
		}

		for _, other := range b.balls[i+1:] {
			if other.Captured() {
				continue
			}
			t := geometry.TimeUntilBallBallCollision(ball.Circle(), ball.Velocity(), other.Circle(), other.Velocity())
			if !math.IsInf(t, 1) {
				pairs = append(pairs, pairCandidate{a: ball, b: other, time: t})
			}
		}
	}
	return obstacles, pairs
}

// resolve handles every contact due by deadline. A ball whose obstacle
// contact is no later than its earliest ball contact hits the obstacle;
// otherwise it bounces off the other ball.
func (b *Board) resolve(obstacles []candidate, pairs []pairCandidate, deadline float64) {
	earliestPair := make(map[*Ball]float64)
	for _, p := range pairs {
		for _, ball := range []*Ball{p.a, p.b} {
			if t, ok := earliestPair[ball]; !ok || p.time < t {
				earliestPair[ball] = p.time
			}
		}
	}

	hitObstacle := make(map[*Ball]bool)
	for _, c := range obstacles {
		if c.time > deadline {
			continue
		}
		if t, ok := earliestPair[c.ball]; ok && t < c.time {
			continue
		}
		hitObstacle[c.ball] = true
		if c.ball.removed {
			continue
		}
		b.collide(c.ball, c.obstacle)
	}

	for _, p := range pairs {
		if p.time > deadline || hitObstacle[p.a] || hitObstacle[p.b] {
			continue
		}
		if p.a.removed || p.b.removed || p.a.Captured() || p.b.Captured() {
			continue
		}
		va, vb := geometry.ReflectBalls(p.a.Position(), p.a.Velocity(), p.b.Position(), p.b.Velocity())
		p.a.SetVelocity(va)
		p.b.SetVelocity(vb)
	}
}

// collide runs the obstacle's reaction and then its triggers.
func (b *Board) collide(ball *Ball, id ID) {
	switch o := b.arena.Get(id).(type) {
	case *Portal:
		b.enterPortal(ball, o)
	default:
		o.Collision(ball)
	}
	b.arena.Trigger(id)
}

// enterPortal moves ball to the portal's target.
func (b *Board) enterPortal(ball *Ball, p *Portal) {
	state := ball.State()
	b.removeBall(ball)

	if p.crossBoard(b.name) {
		b.portalOutbound = append(b.portalOutbound, PortalDeparture{
			Ball:        state,
			Portal:      p.name,
			OtherBoard:  p.otherBoard,
			OtherPortal: p.otherPortal,
		})
		return
	}

	target, ok := b.portals[p.otherPortal]
	if !ok {
		return
	}
	vel := ball.Velocity()
	b.addBall(target.exitPoint(vel), vel)
}

// advance moves every obstacle and free ball forward by dt, then hands off
// balls that crossed an open wall.
func (b *Board) advance(dt float64) {
	if dt <= 0 {
		return
	}
	for _, o := range b.arena.All() {
		o.UpdatePosition(dt)
	}
	for _, ball := range b.balls {
		ball.Move(dt)
	}
	b.checkDepartures()
}

// checkDepartures removes balls that left the interior through an
// invisible side and clamps the rest back inside.
func (b *Board) checkDepartures() {
	kept := b.balls[:0]
	for _, ball := range b.balls {
		if ball.Captured() {
			kept = append(kept, ball)
			continue
		}
		side, out := exitSide(ball.Position())
		if out && !b.wall.Visible(side) {
			ball.removed = true
			b.outbound = append(b.outbound, Departure{
				Ball: ball.State(),
				Side: side,
				Peer: b.neighbours[side],
			})
			continue
		}
		if out {
			ball.SetPosition(clampInside(ball.Position()))
		}
		kept = append(kept, ball)
	}
	for i := len(kept); i < len(b.balls); i++ {
		b.balls[i] = nil
	}
	b.balls = kept
}

// exitSide reports which side p has crossed, if any. When p is past two
// sides the one it is furthest past wins.
func exitSide(p geometry.Vect) (Side, bool) {
	var side Side
	worst := 0.0
	check := func(s Side, over float64) {
		if over > worst {
			side, worst = s, over
		}
	}
	check(Left, InnerMin-p.X)
	check(Right, p.X-InnerMax)
	check(Top, InnerMin-p.Y)
	check(Bottom, p.Y-InnerMax)
	return side, worst > 0
}
