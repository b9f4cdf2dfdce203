package game

// Snapshot is a consistent copy of a board's state for spectators and the
// HTTP API.
type Snapshot struct {
	Board      string            `json:"board" msgpack:"board"`
	Balls      []BallState       `json:"balls" msgpack:"balls"`
	Obstacles  []ObstacleState   `json:"obstacles" msgpack:"obstacles"`
	Neighbours map[string]string `json:"neighbours" msgpack:"neighbours"`
	Keys       []string          `json:"keys,omitempty" msgpack:"keys,omitempty"`
	Paused     bool              `json:"paused" msgpack:"paused"`
	Online     bool              `json:"online" msgpack:"online"`
}

func (b *Board) Snapshot() Snapshot {
	keys := b.Keys()

	b.mu.Lock()
	defer b.mu.Unlock()
	s := Snapshot{
		Board:      b.name,
		Balls:      make([]BallState, 0, len(b.balls)),
		Obstacles:  make([]ObstacleState, 0, b.arena.Len()),
		Neighbours: b.neighbourNames(),
		Keys:       keys,
		Paused:     b.paused,
		Online:     b.online,
	}
	for _, ball := range b.balls {
		s.Balls = append(s.Balls, ball.State())
	}
	for _, o := range b.arena.All() {
		s.Obstacles = append(s.Obstacles, o.State())
	}
	return s
}
