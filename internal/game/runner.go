package game

import (
	"context"
	"log"
	"time"
)

// Hooks are called from the runner goroutine after each tick. Either may
// be nil.
type Hooks struct {
	// Outbound receives balls that left the board during the tick. When it
	// is nil the queues are left for another consumer to drain.
	Outbound func(walls []Departure, portals []PortalDeparture)
	// Tick receives the post-tick snapshot.
	Tick func(Snapshot)
}

// Runner drives a board at a fixed wall-clock rate.
type Runner struct {
	board    *Board
	interval time.Duration
	hooks    Hooks
}

// NewRunner ticks board every interval, or every board tick when interval
// is zero.
func NewRunner(board *Board, interval time.Duration, hooks Hooks) *Runner {
	if interval <= 0 {
		interval = time.Duration(board.TickSeconds() * float64(time.Second))
	}
	return &Runner{board: board, interval: interval, hooks: hooks}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("[BOARD] %s: runner started (tick every %v)", r.board.Name(), r.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[BOARD] %s: runner stopped", r.board.Name())
			return
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Tick runs one update and the hooks.
func (r *Runner) Tick() {
	r.board.Update()

	if r.hooks.Outbound != nil {
		if walls, portals := r.board.DrainOutbound(); len(walls) > 0 || len(portals) > 0 {
			r.hooks.Outbound(walls, portals)
		}
	}
	if r.hooks.Tick != nil {
		r.hooks.Tick(r.board.Snapshot())
	}
}
